// Package policies decides whether a user may act on an agreement or one of
// its access grants. The effective agreement policy is selected by lifecycle
// state; both variants implement the same capability interface.
//
// Policies never touch the database. Callers load the record with the
// associations the policy needs (models.Database.GetAgreementWithAssociations
// does this) and a missing association is reported as an error wrapping
// ErrAssociationNotLoaded rather than a silent denial, since it indicates a
// caller bug.
package policies

import (
	"errors"
	"fmt"

	"github.com/infoshare/backend/models"
)

// ErrAssociationNotLoaded signals that a policy needed an association the
// caller did not eagerly load. It is a programming error, not an
// authorization decision.
var ErrAssociationNotLoaded = errors.New("association not eagerly loaded")

type AgreementPolicy interface {
	CanShow(user *models.User) (bool, error)
	CanCreate(user *models.User) (bool, error)
	CanUpdate(user *models.User) (bool, error)
	CanDestroy(user *models.User) (bool, error)
	// PermittedAttributes is the allowlist of writable payload fields for the
	// agreement's current lifecycle state.
	PermittedAttributes() []string
}

// ForAgreement selects the policy variant for the agreement's current status.
func ForAgreement(agreement *models.InformationSharingAgreement) AgreementPolicy {
	if agreement.Status == models.AgreementDraft {
		return &draftAgreementPolicy{agreement: agreement}
	}
	return &signedAgreementPolicy{agreement: agreement}
}

// activeMembershipOf returns the user's non-deleted membership in the group,
// or nil. The group and its memberships must be preloaded.
func activeMembershipOf(group *models.Group, userId uint, role string) (*models.UserGroup, error) {
	if group == nil {
		return nil, fmt.Errorf("%s group: %w", role, ErrAssociationNotLoaded)
	}
	if group.Memberships == nil {
		return nil, fmt.Errorf("%s group memberships: %w", role, ErrAssociationNotLoaded)
	}
	for i := range group.Memberships {
		m := &group.Memberships[i]
		if m.UserID == userId && !m.DeletedAt.Valid {
			return m, nil
		}
	}
	return nil, nil
}
