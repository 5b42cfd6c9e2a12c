package policies

import (
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/infoshare/backend/models"
)

func setupSuite(tb testing.TB) (func(tb testing.TB), *models.Database) {
	log.Println("setup suite")

	dbName := "database_policies_test.db"

	e := os.Remove(dbName)
	if e != nil {
		if !strings.Contains(e.Error(), "no such file or directory") {
			log.Fatal(e)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{Logger: models.NewGormLogger()})
	if err != nil {
		log.Fatal(err)
	}

	err = gdb.AutoMigrate(models.Entities()...)
	if err != nil {
		log.Fatal(err)
	}

	database := &models.Database{GormDB: gdb}
	models.DB = database

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

func visibleAgreements(t *testing.T, db *models.Database, user *models.User) []models.InformationSharingAgreement {
	var agreements []models.InformationSharingAgreement
	result := db.GormDB.Scopes(VisibilityScope(user)).Find(&agreements)
	assert.NoError(t, result.Error)
	return agreements
}

// scopeFixture seeds one draft owned by creator and one signed agreement with
// an internal and an external agreement-scoped group.
type scopeFixture struct {
	creator       *models.User
	draft         *models.InformationSharingAgreement
	signed        *models.InformationSharingAgreement
	internalGroup *models.Group
	externalGroup *models.Group
}

func seedScopeFixture(t *testing.T, db *models.Database) scopeFixture {
	creator, err := db.CreateUser("creator@example.com", "subject-creator", "Creator", "Records", false, nil)
	assert.NoError(t, err)

	draft, err := db.CreateAgreement(&models.InformationSharingAgreement{
		Title:     "draft",
		Status:    models.AgreementDraft,
		CreatorID: creator.ID,
	})
	assert.NoError(t, err)

	internalGroup, err := db.CreateGroup("internal", false, true, creator.ID)
	assert.NoError(t, err)
	externalGroup, err := db.CreateGroup("external", true, true, creator.ID)
	assert.NoError(t, err)
	signed, err := db.CreateAgreement(&models.InformationSharingAgreement{
		Title:           "signed",
		Status:          models.AgreementSigned,
		CreatorID:       creator.ID,
		InternalGroupID: &internalGroup.ID,
		ExternalGroupID: &externalGroup.ID,
	})
	assert.NoError(t, err)

	return scopeFixture{
		creator:       creator,
		draft:         draft,
		signed:        signed,
		internalGroup: internalGroup,
		externalGroup: externalGroup,
	}
}

func TestScopeCreatorSeesOwnDraft(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	fixture := seedScopeFixture(t, db)

	visible := visibleAgreements(t, db, fixture.creator)
	assert.Len(t, visible, 2)
}

func TestScopeStrangerSeesNothing(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	seedScopeFixture(t, db)

	stranger, err := db.CreateUser("stranger@example.com", "subject-stranger", "Stranger", "Records", false, nil)
	assert.NoError(t, err)

	visible := visibleAgreements(t, db, stranger)
	assert.Empty(t, visible)
}

func TestScopeUserWithOnlyOwnDraftSeesExactlyIt(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	seedScopeFixture(t, db)

	user, err := db.CreateUser("drafter@example.com", "subject-drafter", "Drafter", "Records", false, nil)
	assert.NoError(t, err)
	ownDraft, err := db.CreateAgreement(&models.InformationSharingAgreement{
		Title:     "my draft",
		Status:    models.AgreementDraft,
		CreatorID: user.ID,
	})
	assert.NoError(t, err)

	visible := visibleAgreements(t, db, user)
	assert.Len(t, visible, 1)
	assert.Equal(t, ownDraft.ID, visible[0].ID)
}

func TestScopeMembershipExposesSignedAgreement(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	fixture := seedScopeFixture(t, db)

	member, err := db.CreateUser("member@example.com", "subject-member", "Member", "Records", false, nil)
	assert.NoError(t, err)
	_, err = db.CreateMembership(member.ID, fixture.internalGroup.ID, false, fixture.creator.ID)
	assert.NoError(t, err)

	visible := visibleAgreements(t, db, member)
	assert.Len(t, visible, 1)
	assert.Equal(t, fixture.signed.ID, visible[0].ID)
}

func TestScopeDeletedMembershipExposesNothing(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	fixture := seedScopeFixture(t, db)

	member, err := db.CreateUser("member@example.com", "subject-member", "Member", "Records", false, nil)
	assert.NoError(t, err)
	m, err := db.CreateMembership(member.ID, fixture.internalGroup.ID, false, fixture.creator.ID)
	assert.NoError(t, err)
	assert.NoError(t, db.SoftDeleteMembership(m))

	visible := visibleAgreements(t, db, member)
	assert.Empty(t, visible)
}

func TestScopeExternalUserLimitedToExternalGroups(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	fixture := seedScopeFixture(t, db)

	org, err := db.CreateOrganization("Acme Corp", "test", "org-acme")
	assert.NoError(t, err)
	external, err := db.CreateUser("partner@acme.com", "subject-partner", "Partner", "", true, &org.ID)
	assert.NoError(t, err)

	// internal-group membership alone exposes nothing to an external user
	m, err := db.CreateMembership(external.ID, fixture.internalGroup.ID, false, fixture.creator.ID)
	assert.NoError(t, err)
	visible := visibleAgreements(t, db, external)
	assert.Empty(t, visible)

	assert.NoError(t, db.SoftDeleteMembership(m))
	_, err = db.CreateMembership(external.ID, fixture.externalGroup.ID, false, fixture.creator.ID)
	assert.NoError(t, err)

	visible = visibleAgreements(t, db, external)
	assert.Len(t, visible, 1)
	assert.Equal(t, fixture.signed.ID, visible[0].ID)
}

func TestScopeSystemAdminSeesNonDraftsAndOwnDraftsOnly(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	fixture := seedScopeFixture(t, db)

	admin, err := db.CreateUser("admin@example.com", "subject-admin", "Admin", "Records", false, nil)
	assert.NoError(t, err)
	admin.Roles = models.SystemAdminRole
	result := db.GormDB.Save(admin)
	assert.NoError(t, result.Error)

	ownDraft, err := db.CreateAgreement(&models.InformationSharingAgreement{
		Title:     "admin draft",
		Status:    models.AgreementDraft,
		CreatorID: admin.ID,
	})
	assert.NoError(t, err)

	visible := visibleAgreements(t, db, admin)
	assert.Len(t, visible, 2)
	ids := []uint{visible[0].ID, visible[1].ID}
	assert.Contains(t, ids, fixture.signed.ID)
	assert.Contains(t, ids, ownDraft.ID)
	assert.NotContains(t, ids, fixture.draft.ID)
}
