package policies

import (
	"fmt"

	"github.com/infoshare/backend/models"
)

// signedAgreementPolicy covers signed and closed agreements. Show extends to
// any member of either agreement-scoped group; update and destroy require
// admin-level membership, the creator, or a system admin.
type signedAgreementPolicy struct {
	agreement *models.InformationSharingAgreement
}

func (p *signedAgreementPolicy) CanShow(user *models.User) (bool, error) {
	// the creator rule wins regardless of membership level
	if p.agreement.CreatorID == user.ID || user.IsSystemAdmin() {
		return true, nil
	}
	external, err := activeMembershipOf(p.agreement.ExternalGroup, user.ID, "external")
	if err != nil {
		return false, err
	}
	if external != nil {
		return true, nil
	}
	internal, err := activeMembershipOf(p.agreement.InternalGroup, user.ID, "internal")
	if err != nil {
		return false, err
	}
	return internal != nil, nil
}

func (p *signedAgreementPolicy) CanCreate(user *models.User) (bool, error) {
	return true, nil
}

func (p *signedAgreementPolicy) CanUpdate(user *models.User) (bool, error) {
	return p.canAdminister(user)
}

func (p *signedAgreementPolicy) CanDestroy(user *models.User) (bool, error) {
	return p.canAdminister(user)
}

func (p *signedAgreementPolicy) canAdminister(user *models.User) (bool, error) {
	if p.agreement.CreatorID == user.ID || user.IsSystemAdmin() {
		return true, nil
	}
	externalAdmin, err := p.adminIn(p.agreement.ExternalGroup, user, "external")
	if err != nil {
		return false, err
	}
	if externalAdmin {
		return true, nil
	}
	return p.adminIn(p.agreement.InternalGroup, user, "internal")
}

// adminIn reports whether the user holds admin-level authority in the group,
// via the membership admin flag or an admin-level grant on this agreement.
func (p *signedAgreementPolicy) adminIn(group *models.Group, user *models.User, role string) (bool, error) {
	membership, err := activeMembershipOf(group, user.ID, role)
	if err != nil {
		return false, err
	}
	if membership == nil {
		return false, nil
	}
	if membership.IsAdmin {
		return true, nil
	}
	if p.agreement.AccessGrants == nil {
		return false, fmt.Errorf("agreement access grants: %w", ErrAssociationNotLoaded)
	}
	for i := range p.agreement.AccessGrants {
		g := &p.agreement.AccessGrants[i]
		if g.GroupID == group.ID && g.UserID == user.ID &&
			g.AccessLevel == models.AccessLevelAdmin && !g.DeletedAt.Valid {
			return true, nil
		}
	}
	return false, nil
}

func (p *signedAgreementPolicy) PermittedAttributes() []string {
	// signed agreements only accept administrative changes; the substantive
	// terms are fixed by the signature
	return []string{
		"external_group_contact_id",
		"internal_group_contact_id",
		"internal_group_secondary_contact_id",
	}
}
