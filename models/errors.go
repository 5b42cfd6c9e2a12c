package models

import "errors"

var (
	ErrEmailRequired                 = errors.New("Email is required")
	ErrSubjectRequired               = errors.New("Identity subject is required")
	ErrExternalUserNeedsOrganization = errors.New("External users must belong to an organization")
	ErrInvalidStatus                 = errors.New("Status must be one of draft, signed, closed")
	ErrInvalidAccessLevel            = errors.New("Access level must be one of read, read_download, edit, admin")
	ErrGroupRequired                 = errors.New("Group is required")
	ErrUserRequired                  = errors.New("User is required")
	ErrAgreementRequired             = errors.New("Agreement is required")
)
