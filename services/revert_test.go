package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/infoshare/backend/models"
)

func signedAgreementForRevert(t *testing.T, db *models.Database) (*models.InformationSharingAgreement, *models.User) {
	_, creator := draftReadyToSign(t, db, 7)
	signed, err := newSignService(db).Sign(7, "/attachments/ack.pdf", time.Now(), creator)
	assert.NoError(t, err)
	return signed, creator
}

func TestRevertResetsAgreementToDraft(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	signed, creator := signedAgreementForRevert(t, db)
	internalGroupId := *signed.InternalGroupID
	externalGroupId := *signed.ExternalGroupID

	reverter := NewRevertToDraftService(db, NewGrantSyncService(db, nil))
	reverted, err := reverter.RevertToDraft(signed.ID, creator)
	assert.NoError(t, err)

	assert.Equal(t, models.AgreementDraft, reverted.Status)
	assert.Nil(t, reverted.InternalGroupID)
	assert.Nil(t, reverted.ExternalGroupID)
	assert.Nil(t, reverted.SignedByID)
	assert.Nil(t, reverted.SignedAt)
	// contacts survive the revert
	assert.NotNil(t, reverted.InternalGroupContactID)
	assert.NotNil(t, reverted.ExternalGroupContactID)

	for _, groupId := range []uint{internalGroupId, externalGroupId} {
		memberships, err := db.GetMembershipsForGroup(groupId)
		assert.NoError(t, err)
		assert.Empty(t, memberships)

		grants, err := db.GetGrantsForGroup(groupId)
		assert.NoError(t, err)
		assert.Empty(t, grants)

		group, err := db.GetGroup(groupId)
		assert.NoError(t, err)
		assert.Nil(t, group)
	}

	var attachments []models.AgreementAttachment
	result := db.GormDB.Where("information_sharing_agreement_id = ?", signed.ID).Find(&attachments)
	assert.NoError(t, result.Error)
	assert.Empty(t, attachments)
}

func TestRevertedAgreementCanBeSignedAgain(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	signed, creator := signedAgreementForRevert(t, db)

	reverter := NewRevertToDraftService(db, NewGrantSyncService(db, nil))
	_, err := reverter.RevertToDraft(signed.ID, creator)
	assert.NoError(t, err)

	resigned, err := newSignService(db).Sign(signed.ID, "/attachments/ack2.pdf", time.Now(), creator)
	assert.NoError(t, err)
	assert.Equal(t, models.AgreementSigned, resigned.Status)
	assert.NotEqual(t, *signed.InternalGroupID, *resigned.InternalGroupID)
}

func TestRevertRefusedWithArchiveItems(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	signed, creator := signedAgreementForRevert(t, db)

	result := db.GormDB.Create(&models.ArchiveItem{
		InformationSharingAgreementID: signed.ID,
		Title:                         "shared report",
		Reference:                     "archive://report-1",
	})
	assert.NoError(t, result.Error)

	reverter := NewRevertToDraftService(db, NewGrantSyncService(db, nil))
	_, err := reverter.RevertToDraft(signed.ID, creator)
	assert.ErrorIs(t, err, ErrHasArchiveItems)

	// nothing was destroyed
	current, err := db.GetAgreementWithAssociations(signed.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.AgreementSigned, current.Status)
	assert.NotNil(t, current.InternalGroupID)
	memberships, err := db.GetMembershipsForGroup(*current.InternalGroupID)
	assert.NoError(t, err)
	assert.NotEmpty(t, memberships)
}

func TestRevertRequiresSignedStatus(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	agreement, creator := draftReadyToSign(t, db, 7)

	reverter := NewRevertToDraftService(db, NewGrantSyncService(db, nil))
	_, err := reverter.RevertToDraft(agreement.ID, creator)
	assert.ErrorIs(t, err, ErrNotSigned)
}

func TestRevertUnknownAgreement(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	creator := createTestUser(t, db, "creator@example.com", "Records")
	reverter := NewRevertToDraftService(db, NewGrantSyncService(db, nil))
	_, err := reverter.RevertToDraft(999, creator)
	assert.ErrorIs(t, err, ErrAgreementNotFound)
}
