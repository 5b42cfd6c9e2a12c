package models

import (
	"log/slog"
	"os"

	slogGorm "github.com/imdatngo/slog-gorm/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	GormDB *gorm.DB
}

var DB *Database

// relation lists every entity in foreign-key dependency order; AutoMigrate
// and test suites consume it so migration order stays in one place.
type relation struct {
	entity      interface{}
	foreignKeys []string
}

var Relations = []relation{
	{&Organization{}, nil},
	{&User{}, []string{"OrganizationID"}},
	{&Token{}, []string{"UserID"}},
	{&Group{}, []string{"CreatorID"}},
	{&UserGroup{}, []string{"UserID", "GroupID", "CreatorID"}},
	{&InformationSharingAgreement{}, []string{"CreatorID", "ExternalGroupID", "InternalGroupID", "ExternalGroupContactID", "InternalGroupContactID", "InternalGroupSecondaryContactID", "SignedByID"}},
	{&AccessGrant{}, []string{"InformationSharingAgreementID", "GroupID", "UserID", "CreatorID"}},
	{&AgreementAttachment{}, []string{"InformationSharingAgreementID"}},
	{&ArchiveItem{}, []string{"InformationSharingAgreementID"}},
}

func Entities() []interface{} {
	entities := make([]interface{}, 0, len(Relations))
	for _, r := range Relations {
		entities = append(entities, r.entity)
	}
	return entities
}

// NewGormLogger bridges gorm's SQL logging onto the default slog handler.
func NewGormLogger() logger.Interface {
	return slogGorm.NewWithConfig(
		slogGorm.NewConfig(slog.Default().With("component", "gorm").Handler()),
	)
}

func ConnectDatabase() {
	database, err := gorm.Open(postgres.Open(os.Getenv("DATABASE_URL")), &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		panic("Failed to connect to database!")
	}

	if err := database.AutoMigrate(Entities()...); err != nil {
		panic(err)
	}

	DB = &Database{GormDB: database}
}
