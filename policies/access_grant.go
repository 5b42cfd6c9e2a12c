package policies

import (
	"fmt"

	"github.com/infoshare/backend/models"
)

// AccessGrantPolicy authorizes actions on individual grants based on the
// acting user's standing among the sibling grants of the same agreement. Any
// sibling grant allows show; an admin-level sibling grant delegates management
// of the whole grant set without the user being the agreement's creator or a
// system admin.
type AccessGrantPolicy struct {
	siblings []models.AccessGrant
}

// NewAccessGrantPolicy builds a policy over all grants sharing one agreement.
// The caller loads the siblings (models.Database.GetGrantsForAgreement).
func NewAccessGrantPolicy(siblings []models.AccessGrant) *AccessGrantPolicy {
	return &AccessGrantPolicy{siblings: siblings}
}

func (p *AccessGrantPolicy) siblingFor(user *models.User) (*models.AccessGrant, error) {
	if p.siblings == nil {
		return nil, fmt.Errorf("sibling grants: %w", ErrAssociationNotLoaded)
	}
	var best *models.AccessGrant
	for i := range p.siblings {
		g := &p.siblings[i]
		if g.UserID != user.ID || g.DeletedAt.Valid {
			continue
		}
		if best == nil || g.AccessLevel == models.AccessLevelAdmin {
			best = g
		}
	}
	return best, nil
}

func (p *AccessGrantPolicy) CanShow(user *models.User) (bool, error) {
	sibling, err := p.siblingFor(user)
	if err != nil {
		return false, err
	}
	return sibling != nil, nil
}

func (p *AccessGrantPolicy) CanCreate(user *models.User) (bool, error) {
	return p.hasAdminSibling(user)
}

func (p *AccessGrantPolicy) CanUpdate(user *models.User) (bool, error) {
	return p.hasAdminSibling(user)
}

func (p *AccessGrantPolicy) CanDestroy(user *models.User) (bool, error) {
	return p.hasAdminSibling(user)
}

func (p *AccessGrantPolicy) hasAdminSibling(user *models.User) (bool, error) {
	sibling, err := p.siblingFor(user)
	if err != nil {
		return false, err
	}
	return sibling != nil && sibling.AccessLevel == models.AccessLevelAdmin, nil
}
