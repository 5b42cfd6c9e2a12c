package models

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (db *Database) GetAgreement(agreementId uint) (*InformationSharingAgreement, error) {
	agreement := &InformationSharingAgreement{}
	result := db.GormDB.Take(agreement, agreementId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("agreement not found", "agreementId", agreementId)
			return nil, nil
		}
		slog.Error("error fetching agreement", "agreementId", agreementId, "error", result.Error)
		return nil, result.Error
	}
	return agreement, nil
}

// GetAgreementWithAssociations loads an agreement with everything policy
// evaluation and the transition services expect: creator, contacts with their
// organizations, both agreement-scoped groups with active memberships, and
// active grants.
func (db *Database) GetAgreementWithAssociations(agreementId uint) (*InformationSharingAgreement, error) {
	agreement := &InformationSharingAgreement{}
	result := db.GormDB.
		Preload("Creator").
		Preload("ExternalGroupContact").
		Preload("ExternalGroupContact.Organization").
		Preload("InternalGroupContact").
		Preload("InternalGroupSecondaryContact").
		Preload("ExternalGroup").
		Preload("ExternalGroup.Memberships").
		Preload("InternalGroup").
		Preload("InternalGroup.Memberships").
		Preload("AccessGrants").
		Take(agreement, agreementId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("agreement not found", "agreementId", agreementId)
			return nil, nil
		}
		slog.Error("error fetching agreement", "agreementId", agreementId, "error", result.Error)
		return nil, result.Error
	}
	// preloads leave nil slices when there are no rows; policies read nil as
	// "not loaded", so normalize
	if agreement.AccessGrants == nil {
		agreement.AccessGrants = []AccessGrant{}
	}
	if agreement.ExternalGroup != nil && agreement.ExternalGroup.Memberships == nil {
		agreement.ExternalGroup.Memberships = []UserGroup{}
	}
	if agreement.InternalGroup != nil && agreement.InternalGroup.Memberships == nil {
		agreement.InternalGroup.Memberships = []UserGroup{}
	}
	return agreement, nil
}

func (db *Database) CreateAgreement(agreement *InformationSharingAgreement) (*InformationSharingAgreement, error) {
	if !ValidAgreementStatus(agreement.Status) {
		return nil, ErrInvalidStatus
	}
	result := db.GormDB.Create(agreement)
	if result.Error != nil {
		slog.Error("failed to create agreement", "title", agreement.Title, "error", result.Error)
		return nil, result.Error
	}
	slog.Info("agreement created", "agreementId", agreement.ID, "creatorId", agreement.CreatorID)
	return agreement, nil
}

func (db *Database) UpdateAgreement(agreement *InformationSharingAgreement) error {
	if !ValidAgreementStatus(agreement.Status) {
		return ErrInvalidStatus
	}
	// associations are managed by the services layer, never written back here
	result := db.GormDB.Omit(clause.Associations).Save(agreement)
	if result.Error != nil {
		slog.Error("failed to update agreement", "agreementId", agreement.ID, "error", result.Error)
		return result.Error
	}
	return nil
}

func (db *Database) SoftDeleteAgreement(agreementId uint) error {
	result := db.GormDB.Delete(&InformationSharingAgreement{}, agreementId)
	if result.Error != nil {
		slog.Error("failed to delete agreement", "agreementId", agreementId, "error", result.Error)
		return result.Error
	}
	slog.Info("agreement deleted", "agreementId", agreementId)
	return nil
}

// GetAgreementsLinkedToGroup returns all non-draft agreements whose internal
// or external side, depending on the group's IsExternal flag, references the
// group.
func (db *Database) GetAgreementsLinkedToGroup(group *Group) ([]InformationSharingAgreement, error) {
	var agreements []InformationSharingAgreement
	query := db.GormDB.Where("status <> ?", AgreementDraft)
	if group.IsExternal {
		query = query.Where("external_group_id = ?", group.ID)
	} else {
		query = query.Where("internal_group_id = ?", group.ID)
	}
	result := query.Find(&agreements)
	if result.Error != nil {
		slog.Error("error fetching agreements for group", "groupId", group.ID, "error", result.Error)
		return nil, result.Error
	}
	return agreements, nil
}

func (db *Database) GetGrant(grantId uint) (*AccessGrant, error) {
	grant := &AccessGrant{}
	result := db.GormDB.Take(grant, grantId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("error fetching grant", "grantId", grantId, "error", result.Error)
		return nil, result.Error
	}
	return grant, nil
}

func (db *Database) GetGrantsForAgreement(agreementId uint) ([]AccessGrant, error) {
	var grants []AccessGrant
	result := db.GormDB.Where("information_sharing_agreement_id = ?", agreementId).Find(&grants)
	if result.Error != nil {
		slog.Error("error fetching grants", "agreementId", agreementId, "error", result.Error)
		return nil, result.Error
	}
	return grants, nil
}

func (db *Database) GetActiveGrant(agreementId uint, groupId uint, userId uint) (*AccessGrant, error) {
	grant := &AccessGrant{}
	result := db.GormDB.Take(grant,
		"information_sharing_agreement_id = ? AND group_id = ? AND user_id = ?",
		agreementId, groupId, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("error fetching grant",
			"agreementId", agreementId,
			"groupId", groupId,
			"userId", userId,
			"error", result.Error)
		return nil, result.Error
	}
	return grant, nil
}

func (db *Database) GetGrantsForGroupAndUser(groupId uint, userId uint) ([]AccessGrant, error) {
	var grants []AccessGrant
	result := db.GormDB.Where("group_id = ? AND user_id = ?", groupId, userId).Find(&grants)
	if result.Error != nil {
		slog.Error("error fetching grants",
			"groupId", groupId,
			"userId", userId,
			"error", result.Error)
		return nil, result.Error
	}
	return grants, nil
}

func (db *Database) GetGrantsForGroup(groupId uint) ([]AccessGrant, error) {
	var grants []AccessGrant
	result := db.GormDB.Where("group_id = ?", groupId).Find(&grants)
	if result.Error != nil {
		slog.Error("error fetching grants", "groupId", groupId, "error", result.Error)
		return nil, result.Error
	}
	return grants, nil
}

// CreateGrant inserts a grant row unless an active one already exists for the
// same (agreement, group, user), in which case the existing row is returned.
func (db *Database) CreateGrant(agreementId uint, groupId uint, userId uint, level AccessLevel, creatorId uint) (*AccessGrant, error) {
	grant := &AccessGrant{
		InformationSharingAgreementID: agreementId,
		GroupID:                       groupId,
		UserID:                        userId,
		AccessLevel:                   level,
		CreatorID:                     creatorId,
	}
	if err := ValidateAccessGrant(grant); err != nil {
		return nil, err
	}
	existing, err := db.GetActiveGrant(agreementId, groupId, userId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	result := db.GormDB.Create(grant)
	if result.Error != nil {
		slog.Error("failed to create grant",
			"agreementId", agreementId,
			"groupId", groupId,
			"userId", userId,
			"error", result.Error)
		return nil, result.Error
	}
	slog.Info("grant created",
		"agreementId", agreementId,
		"groupId", groupId,
		"userId", userId,
		"level", level)
	return grant, nil
}

func (db *Database) SoftDeleteGrant(grant *AccessGrant) error {
	result := db.GormDB.Delete(grant)
	if result.Error != nil {
		slog.Error("failed to delete grant", "grantId", grant.ID, "error", result.Error)
		return result.Error
	}
	slog.Info("grant deleted",
		"agreementId", grant.InformationSharingAgreementID,
		"groupId", grant.GroupID,
		"userId", grant.UserID)
	return nil
}

func (db *Database) CreateAttachment(agreementId uint, kind string, filePath string) (*AgreementAttachment, error) {
	attachment := &AgreementAttachment{
		InformationSharingAgreementID: agreementId,
		Kind:                          kind,
		FilePath:                      filePath,
		Uuid:                          uuid.NewString(),
	}
	result := db.GormDB.Create(attachment)
	if result.Error != nil {
		slog.Error("failed to create attachment", "agreementId", agreementId, "error", result.Error)
		return nil, result.Error
	}
	slog.Info("attachment created", "agreementId", agreementId, "kind", kind)
	return attachment, nil
}

func (db *Database) DeleteAttachments(agreementId uint, kind string) error {
	result := db.GormDB.Where("information_sharing_agreement_id = ? AND kind = ?", agreementId, kind).
		Delete(&AgreementAttachment{})
	if result.Error != nil {
		slog.Error("failed to delete attachments", "agreementId", agreementId, "error", result.Error)
		return result.Error
	}
	return nil
}

func (db *Database) CountArchiveItems(agreementId uint) (int64, error) {
	var count int64
	result := db.GormDB.Model(&ArchiveItem{}).
		Where("information_sharing_agreement_id = ?", agreementId).Count(&count)
	if result.Error != nil {
		slog.Error("error counting archive items", "agreementId", agreementId, "error", result.Error)
		return 0, result.Error
	}
	return count, nil
}
