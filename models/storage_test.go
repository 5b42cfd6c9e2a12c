package models

import (
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSuite(tb testing.TB) (func(tb testing.TB), *Database) {
	log.Println("setup suite")

	dbName := "database_storage_test.db"

	e := os.Remove(dbName)
	if e != nil {
		if !strings.Contains(e.Error(), "no such file or directory") {
			log.Fatal(e)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{Logger: NewGormLogger()})
	if err != nil {
		log.Fatal(err)
	}

	err = gdb.AutoMigrate(Entities()...)
	if err != nil {
		log.Fatal(err)
	}

	database := &Database{GormDB: gdb}
	DB = database

	return func(tb testing.TB) {
		log.Println("teardown suite")
		err = os.Remove(dbName)
		if err != nil {
			log.Fatal(err)
		}
	}, database
}

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func TestCreateUserRequiresOrgWhenExternal(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	_, err := db.CreateUser("ext@example.com", "subject-1", "Ext User", "", true, nil)
	assert.ErrorIs(t, err, ErrExternalUserNeedsOrganization)

	org, err := db.CreateOrganization("Acme", "test", "org-1")
	assert.NoError(t, err)

	user, err := db.CreateUser("ext@example.com", "subject-1", "Ext User", "", true, &org.ID)
	assert.NoError(t, err)
	assert.NotNil(t, user)
}

func TestCreateMembershipIsIdempotent(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)
	group, err := db.CreateGroup("test-group", false, false, user.ID)
	assert.NoError(t, err)

	m1, err := db.CreateMembership(user.ID, group.ID, false, user.ID)
	assert.NoError(t, err)
	assert.NotNil(t, m1)

	m2, err := db.CreateMembership(user.ID, group.ID, true, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
	// the second call is a no-op, the admin flag is untouched
	assert.False(t, m2.IsAdmin)

	var count int64
	db.GormDB.Model(&UserGroup{}).Where("user_id = ? AND group_id = ?", user.ID, group.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestMembershipCanBeRecreatedAfterDeletion(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)
	group, err := db.CreateGroup("test-group", false, false, user.ID)
	assert.NoError(t, err)

	m1, err := db.CreateMembership(user.ID, group.ID, false, user.ID)
	assert.NoError(t, err)
	assert.NoError(t, db.SoftDeleteMembership(m1))

	active, err := db.GetActiveMembership(user.ID, group.ID)
	assert.NoError(t, err)
	assert.Nil(t, active)

	m2, err := db.CreateMembership(user.ID, group.ID, true, user.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, m1.ID, m2.ID)
	assert.True(t, m2.IsAdmin)
}

func TestCreateGrantIsIdempotent(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)
	group, err := db.CreateGroup("test-group", false, true, user.ID)
	assert.NoError(t, err)
	agreement, err := db.CreateAgreement(&InformationSharingAgreement{
		Title:     "test",
		Status:    AgreementSigned,
		CreatorID: user.ID,
	})
	assert.NoError(t, err)

	g1, err := db.CreateGrant(agreement.ID, group.ID, user.ID, AccessLevelRead, user.ID)
	assert.NoError(t, err)
	g2, err := db.CreateGrant(agreement.ID, group.ID, user.ID, AccessLevelAdmin, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, g1.ID, g2.ID)
	assert.Equal(t, AccessLevelRead, g2.AccessLevel)

	var count int64
	db.GormDB.Model(&AccessGrant{}).Where("information_sharing_agreement_id = ?", agreement.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateGrantRejectsInvalidLevel(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	_, err := db.CreateGrant(1, 1, 1, AccessLevel("root"), 1)
	assert.ErrorIs(t, err, ErrInvalidAccessLevel)
}

func TestGetAgreementsLinkedToGroup(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)
	internalGroup, err := db.CreateGroup("internal", false, true, user.ID)
	assert.NoError(t, err)
	externalGroup, err := db.CreateGroup("external", true, true, user.ID)
	assert.NoError(t, err)

	signed, err := db.CreateAgreement(&InformationSharingAgreement{
		Title:           "signed",
		Status:          AgreementSigned,
		CreatorID:       user.ID,
		InternalGroupID: &internalGroup.ID,
		ExternalGroupID: &externalGroup.ID,
	})
	assert.NoError(t, err)
	// drafts are never linked
	_, err = db.CreateAgreement(&InformationSharingAgreement{
		Title:     "draft",
		Status:    AgreementDraft,
		CreatorID: user.ID,
	})
	assert.NoError(t, err)

	linkedInternal, err := db.GetAgreementsLinkedToGroup(internalGroup)
	assert.NoError(t, err)
	assert.Len(t, linkedInternal, 1)
	assert.Equal(t, signed.ID, linkedInternal[0].ID)

	linkedExternal, err := db.GetAgreementsLinkedToGroup(externalGroup)
	assert.NoError(t, err)
	assert.Len(t, linkedExternal, 1)
	assert.Equal(t, signed.ID, linkedExternal[0].ID)
}

func TestGetAgreementWithAssociationsNormalizesEmptyPreloads(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)
	group, err := db.CreateGroup("internal", false, true, user.ID)
	assert.NoError(t, err)
	agreement, err := db.CreateAgreement(&InformationSharingAgreement{
		Title:           "signed",
		Status:          AgreementSigned,
		CreatorID:       user.ID,
		InternalGroupID: &group.ID,
	})
	assert.NoError(t, err)

	loaded, err := db.GetAgreementWithAssociations(agreement.ID)
	assert.NoError(t, err)
	assert.NotNil(t, loaded.AccessGrants)
	assert.NotNil(t, loaded.InternalGroup)
	assert.NotNil(t, loaded.InternalGroup.Memberships)
}

func TestGetGroupWithMembershipsLoadsActiveRows(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)
	group, err := db.CreateGroup("test-group", false, false, user.ID)
	assert.NoError(t, err)

	empty, err := db.GetGroupWithMemberships(group.ID)
	assert.NoError(t, err)
	assert.NotNil(t, empty.Memberships)
	assert.Empty(t, empty.Memberships)

	_, err = db.CreateMembership(user.ID, group.ID, true, user.ID)
	assert.NoError(t, err)

	loaded, err := db.GetGroupWithMemberships(group.ID)
	assert.NoError(t, err)
	assert.Len(t, loaded.Memberships, 1)
	assert.Equal(t, user.ID, loaded.Memberships[0].UserID)

	byUser, err := db.GetMembershipsForUser(user.ID)
	assert.NoError(t, err)
	assert.Len(t, byUser, 1)
	assert.Equal(t, group.ID, byUser[0].GroupID)
}

func TestDeactivateUser(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)
	assert.NoError(t, db.DeactivateUser(user.ID))

	fetched, err := db.GetUser(user.ID)
	assert.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestGetOrganizationById(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	org, err := db.CreateOrganization("Acme", "test", "org-1")
	assert.NoError(t, err)

	fetched, err := db.GetOrganizationById(org.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Acme", fetched.Name)
}

func TestServiceTokenRoundTrip(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	user, err := db.CreateUser("a@example.com", "subject-a", "A", "", false, nil)
	assert.NoError(t, err)

	token, err := db.CreateServiceToken(user, ServiceTokenType)
	assert.NoError(t, err)
	assert.NotEmpty(t, token.Value)

	fetched, err := db.GetToken(token.Value)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, fetched.UserID)

	missing, err := db.GetToken("nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
