package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/infoshare/backend/models"
)

const (
	// UnknownGroupLabel stands in when a contact has no department or
	// organization to derive the group label from.
	UnknownGroupLabel = "UNKNOWN"

	// DefaultMaxGroupNameLength caps generated agreement-scoped group names.
	DefaultMaxGroupNameLength = 100
)

var (
	ErrNotDraft                = errors.New("Only draft agreements can be signed")
	ErrSignedDateRequired      = errors.New("Signed date is required")
	ErrExternalContactRequired = errors.New("External group contact is required")
	ErrInternalContactRequired = errors.New("Internal group contact is required")
	ErrContactNotFound         = errors.New("Sharing group contact not found")
	ErrContactOrgNotFound      = errors.New("External group contact organization not found")
)

// SignService performs the draft → signed transition: it materializes the two
// agreement-scoped groups, seeds their admin grants and memberships through
// the synchronization service, records the signed acknowledgement attachment,
// and stamps the agreement. Everything happens in one transaction; a failure
// leaves no partial group behind.
type SignService struct {
	DB                 *models.Database
	Sync               *GrantSyncService
	MaxGroupNameLength int
}

func NewSignService(db *models.Database, sync *GrantSyncService) *SignService {
	return &SignService{DB: db, Sync: sync, MaxGroupNameLength: DefaultMaxGroupNameLength}
}

func (s *SignService) Sign(agreementId uint, filePath string, signedAt time.Time, actingUser *models.User) (*models.InformationSharingAgreement, error) {
	err := s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		db := s.DB.WithTx(tx)

		agreement, err := db.GetAgreementWithAssociations(agreementId)
		if err != nil {
			return err
		}
		if agreement == nil {
			return ErrAgreementNotFound
		}
		if agreement.Status != models.AgreementDraft {
			return ErrNotDraft
		}
		if signedAt.IsZero() {
			return ErrSignedDateRequired
		}
		if agreement.ExternalGroupContactID == nil {
			return ErrExternalContactRequired
		}
		if agreement.InternalGroupContactID == nil {
			return ErrInternalContactRequired
		}

		internalContact := agreement.InternalGroupContact
		externalContact := agreement.ExternalGroupContact
		if internalContact == nil || externalContact == nil {
			return ErrContactNotFound
		}

		internalLabel := internalContact.Department
		if internalLabel == "" {
			internalLabel = UnknownGroupLabel
		}
		externalLabel := UnknownGroupLabel
		if externalContact.OrganizationID != nil {
			if externalContact.Organization == nil {
				return ErrContactOrgNotFound
			}
			externalLabel = externalContact.Organization.Name
		}

		internalGroup, err := db.CreateGroup(
			agreementGroupName(agreement.ID, internalLabel, signedAt, s.maxNameLength()),
			false, true, actingUser.ID)
		if err != nil {
			return err
		}
		externalGroup, err := db.CreateGroup(
			agreementGroupName(agreement.ID, externalLabel, signedAt, s.maxNameLength()),
			true, true, actingUser.ID)
		if err != nil {
			return err
		}

		agreement.InternalGroupID = &internalGroup.ID
		agreement.ExternalGroupID = &externalGroup.ID
		agreement.Status = models.AgreementSigned
		agreement.SignedByID = &actingUser.ID
		agreement.SignedAt = &signedAt
		if err := db.UpdateAgreement(agreement); err != nil {
			return err
		}

		// admin grants materialize the memberships through the sync path
		internalAdmins := []uint{agreement.CreatorID, *agreement.InternalGroupContactID}
		if agreement.InternalGroupSecondaryContactID != nil {
			internalAdmins = append(internalAdmins, *agreement.InternalGroupSecondaryContactID)
		}
		for _, userId := range internalAdmins {
			if _, err := s.Sync.grantAccess(db, agreement.ID, internalGroup.ID, userId, models.AccessLevelAdmin, actingUser, SyncOptions{}); err != nil {
				return err
			}
		}
		if _, err := s.Sync.grantAccess(db, agreement.ID, externalGroup.ID, *agreement.ExternalGroupContactID, models.AccessLevelAdmin, actingUser, SyncOptions{}); err != nil {
			return err
		}

		if _, err := db.CreateAttachment(agreement.ID, models.SignedAcknowledgementKind, filePath); err != nil {
			return err
		}

		slog.Info("agreement signed",
			"agreementId", agreement.ID,
			"signedBy", actingUser.ID,
			"internalGroupId", internalGroup.ID,
			"externalGroupId", externalGroup.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.DB.GetAgreementWithAssociations(agreementId)
}

func (s *SignService) maxNameLength() int {
	if s.MaxGroupNameLength > 0 {
		return s.MaxGroupNameLength
	}
	return DefaultMaxGroupNameLength
}

// agreementGroupName builds "ISA#<id>-<label>-<YYYY-MM-DD>". When the result
// exceeds maxLen, the budget is split between the two halves of the name
// proportionally to their untruncated lengths, around the fixed "ISA#<id>-"
// prefix and date suffix.
func agreementGroupName(agreementId uint, label string, signedAt time.Time, maxLen int) string {
	first := fmt.Sprintf("ISA#%d-%s", agreementId, label)
	second := signedAt.Format("2006-01-02")
	name := first + "-" + second
	if len(name) <= maxLen {
		return name
	}

	available := maxLen - 1 // the separating dash stays
	total := len(first) + len(second)
	firstBudget := available * len(first) / total
	secondBudget := available - firstBudget
	if firstBudget < len(first) {
		first = first[:firstBudget]
	}
	if secondBudget < len(second) {
		second = second[:secondBudget]
	}
	return first + "-" + second
}
