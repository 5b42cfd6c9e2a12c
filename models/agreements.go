package models

import (
	"time"

	"gorm.io/gorm"
)

type AgreementStatus string

const (
	AgreementDraft  AgreementStatus = "draft"
	AgreementSigned AgreementStatus = "signed"
	AgreementClosed AgreementStatus = "closed"
)

type AccessLevel string

const (
	AccessLevelRead         AccessLevel = "read"
	AccessLevelReadDownload AccessLevel = "read_download"
	AccessLevelEdit         AccessLevel = "edit"
	AccessLevelAdmin        AccessLevel = "admin"
)

func ValidAgreementStatus(s AgreementStatus) bool {
	switch s {
	case AgreementDraft, AgreementSigned, AgreementClosed:
		return true
	}
	return false
}

func ValidAccessLevel(l AccessLevel) bool {
	switch l {
	case AccessLevelRead, AccessLevelReadDownload, AccessLevelEdit, AccessLevelAdmin:
		return true
	}
	return false
}

// InformationSharingAgreement governs access to content shared between the
// internal organization and an external party. ExternalGroupID and
// InternalGroupID are both set iff the status is not draft; the groups are
// created by the sign transition and destroyed by revert-to-draft.
type InformationSharingAgreement struct {
	gorm.Model
	Title     string
	Status    AgreementStatus `gorm:"default:'draft'"`
	CreatorID uint
	Creator   *User

	ExternalGroupID *uint
	ExternalGroup   *Group
	InternalGroupID *uint
	InternalGroup   *Group

	ExternalGroupContactID          *uint
	ExternalGroupContact            *User
	InternalGroupContactID          *uint
	InternalGroupContact            *User
	InternalGroupSecondaryContactID *uint
	InternalGroupSecondaryContact   *User

	SignedByID *uint
	SignedBy   *User
	SignedAt   *time.Time

	PurposeStatement string
	Terms            string
	Restrictions     string

	AccessGrants []AccessGrant `gorm:"foreignKey:InformationSharingAgreementID"`
}

func (a *InformationSharingAgreement) IsDraft() bool {
	return a.Status == AgreementDraft
}

// AccessGrant authorizes a specific user's access level on an agreement via
// one of its groups. At most one non-deleted row per (agreement, group, user);
// every active grant is backed by an active membership for the same
// (user, group) pair, maintained by the services layer.
type AccessGrant struct {
	gorm.Model
	InformationSharingAgreementID uint
	Agreement                     *InformationSharingAgreement `gorm:"foreignKey:InformationSharingAgreementID"`
	GroupID                       uint
	Group                         *Group
	UserID                        uint
	User                          *User
	AccessLevel                   AccessLevel
	CreatorID                     uint
}

// ValidateAccessGrant checks enum membership and required references before
// persistence.
func ValidateAccessGrant(g *AccessGrant) error {
	if g.InformationSharingAgreementID == 0 {
		return ErrAgreementRequired
	}
	if g.GroupID == 0 {
		return ErrGroupRequired
	}
	if g.UserID == 0 {
		return ErrUserRequired
	}
	if !ValidAccessLevel(g.AccessLevel) {
		return ErrInvalidAccessLevel
	}
	return nil
}

const SignedAcknowledgementKind = "signed_acknowledgement"

// AgreementAttachment records a generated document tied to an agreement.
// Content generation lives elsewhere; this only records that it exists.
type AgreementAttachment struct {
	gorm.Model
	InformationSharingAgreementID uint
	Kind                          string
	FilePath                      string
	Uuid                          string
}

// ArchiveItem is content shared under an agreement. Its presence blocks
// reverting the agreement to draft.
type ArchiveItem struct {
	gorm.Model
	InformationSharingAgreementID uint
	Title                         string
	Reference                     string
}

func (a *InformationSharingAgreement) MapToJsonStruct() interface{} {
	contactName := func(u *User) string {
		if u == nil {
			return ""
		}
		return u.DisplayName
	}
	return struct {
		Id                uint       `json:"id"`
		Title             string     `json:"title"`
		Status            string     `json:"status"`
		CreatorID         uint       `json:"creator_id"`
		ExternalGroupID   *uint      `json:"external_group_id"`
		InternalGroupID   *uint      `json:"internal_group_id"`
		ExternalContact   string     `json:"external_group_contact"`
		InternalContact   string     `json:"internal_group_contact"`
		SecondaryContact  string     `json:"internal_group_secondary_contact"`
		SignedAt          *time.Time `json:"signed_at"`
		PurposeStatement  string     `json:"purpose_statement"`
		Terms             string     `json:"terms"`
		Restrictions      string     `json:"restrictions"`
	}{
		Id:               a.ID,
		Title:            a.Title,
		Status:           string(a.Status),
		CreatorID:        a.CreatorID,
		ExternalGroupID:  a.ExternalGroupID,
		InternalGroupID:  a.InternalGroupID,
		ExternalContact:  contactName(a.ExternalGroupContact),
		InternalContact:  contactName(a.InternalGroupContact),
		SecondaryContact: contactName(a.InternalGroupSecondaryContact),
		SignedAt:         a.SignedAt,
		PurposeStatement: a.PurposeStatement,
		Terms:            a.Terms,
		Restrictions:     a.Restrictions,
	}
}
