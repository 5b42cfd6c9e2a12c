package policies

import (
	"github.com/infoshare/backend/models"
)

// draftAgreementPolicy keeps drafts private to their creator. System admins
// are deliberately not exempt here: drafts are invisible to everyone but the
// user who started them.
type draftAgreementPolicy struct {
	agreement *models.InformationSharingAgreement
}

func (p *draftAgreementPolicy) CanShow(user *models.User) (bool, error) {
	return p.agreement.CreatorID == user.ID, nil
}

func (p *draftAgreementPolicy) CanCreate(user *models.User) (bool, error) {
	// creation is always allowed; authorization for sharing happens at sign time
	return true, nil
}

func (p *draftAgreementPolicy) CanUpdate(user *models.User) (bool, error) {
	return p.agreement.CreatorID == user.ID, nil
}

func (p *draftAgreementPolicy) CanDestroy(user *models.User) (bool, error) {
	return p.agreement.CreatorID == user.ID, nil
}

func (p *draftAgreementPolicy) PermittedAttributes() []string {
	return []string{
		"title",
		"purpose_statement",
		"terms",
		"restrictions",
		"external_group_contact_id",
		"internal_group_contact_id",
		"internal_group_secondary_contact_id",
	}
}
