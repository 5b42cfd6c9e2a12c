package services

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/infoshare/backend/models"
)

var (
	ErrNotSigned               = errors.New("Only signed agreements can be reverted to draft")
	ErrHasArchiveItems         = errors.New("Cannot revert an agreement with linked archive items")
	ErrExternalGroupIdRequired = errors.New("External group ID is required")
	ErrInternalGroupIdRequired = errors.New("Internal group ID is required")
)

// RevertToDraftService undoes the sign transition: it destroys both
// agreement-scoped groups (cascading memberships and grants through the
// synchronization service), deletes the signed acknowledgement attachment,
// and resets the agreement to draft. Refused outright when archive items are
// already linked, to avoid orphaning shared content.
type RevertToDraftService struct {
	DB   *models.Database
	Sync *GrantSyncService
}

func NewRevertToDraftService(db *models.Database, sync *GrantSyncService) *RevertToDraftService {
	return &RevertToDraftService{DB: db, Sync: sync}
}

func (s *RevertToDraftService) RevertToDraft(agreementId uint, actingUser *models.User) (*models.InformationSharingAgreement, error) {
	err := s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		db := s.DB.WithTx(tx)

		agreement, err := db.GetAgreement(agreementId)
		if err != nil {
			return err
		}
		if agreement == nil {
			return ErrAgreementNotFound
		}
		if agreement.Status != models.AgreementSigned {
			return ErrNotSigned
		}
		archiveItems, err := db.CountArchiveItems(agreementId)
		if err != nil {
			return err
		}
		if archiveItems > 0 {
			return ErrHasArchiveItems
		}
		// both ids are checked before anything is destroyed
		if agreement.ExternalGroupID == nil {
			return ErrExternalGroupIdRequired
		}
		if agreement.InternalGroupID == nil {
			return ErrInternalGroupIdRequired
		}

		for _, groupId := range []uint{*agreement.ExternalGroupID, *agreement.InternalGroupID} {
			group, err := db.GetGroup(groupId)
			if err != nil {
				return err
			}
			if group == nil {
				continue
			}
			if err := s.Sync.destroyGroup(db, group, actingUser); err != nil {
				return err
			}
		}

		if err := db.DeleteAttachments(agreementId, models.SignedAcknowledgementKind); err != nil {
			return err
		}

		agreement.Status = models.AgreementDraft
		agreement.ExternalGroupID = nil
		agreement.InternalGroupID = nil
		agreement.SignedByID = nil
		agreement.SignedAt = nil
		if err := db.UpdateAgreement(agreement); err != nil {
			return err
		}

		slog.Info("agreement reverted to draft",
			"agreementId", agreement.ID,
			"actorId", actingUser.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.DB.GetAgreementWithAssociations(agreementId)
}
