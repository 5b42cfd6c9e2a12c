package models

import (
	"errors"
	"log/slog"

	"github.com/dchest/uniuri"
	"gorm.io/gorm"
)

// WithTx returns a Database bound to the given transaction so the storage
// helpers can be reused inside service-level transactions.
func (db *Database) WithTx(tx *gorm.DB) *Database {
	return &Database{GormDB: tx}
}

func (db *Database) GetUser(userId uint) (*User, error) {
	user := &User{}
	result := db.GormDB.Preload("Organization").Take(user, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("user not found", "userId", userId)
			return nil, nil
		}
		slog.Error("error fetching user", "userId", userId, "error", result.Error)
		return nil, result.Error
	}
	return user, nil
}

func (db *Database) GetUserBySubject(subject string) (*User, error) {
	user := &User{}
	result := db.GormDB.Preload("Organization").Take(user, "subject = ?", subject)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("user not found", "subject", subject)
			return nil, nil
		}
		slog.Error("error fetching user", "subject", subject, "error", result.Error)
		return nil, result.Error
	}
	return user, nil
}

func (db *Database) CreateUser(email string, subject string, displayName string, department string, isExternal bool, orgId *uint) (*User, error) {
	user := &User{
		Email:          email,
		Subject:        subject,
		DisplayName:    displayName,
		Department:     department,
		IsExternal:     isExternal,
		OrganizationID: orgId,
	}
	if err := ValidateUser(user); err != nil {
		return nil, err
	}
	result := db.GormDB.Save(user)
	if result.Error != nil {
		slog.Error("failed to create user",
			"subject", subject,
			"email", email,
			"error", result.Error)
		return nil, result.Error
	}
	slog.Info("user created successfully",
		"userId", user.ID,
		"subject", subject,
		"email", email)
	return user, nil
}

// DeactivateUser soft deletes a user. Grants referencing the user keep their
// rows; scope and policy queries exclude deleted users by gorm convention.
func (db *Database) DeactivateUser(userId uint) error {
	result := db.GormDB.Delete(&User{}, userId)
	if result.Error != nil {
		slog.Error("failed to deactivate user", "userId", userId, "error", result.Error)
		return result.Error
	}
	slog.Info("user deactivated", "userId", userId)
	return nil
}

func (db *Database) GetOrganization(externalId string) (*Organization, error) {
	org := &Organization{}
	result := db.GormDB.Take(org, "external_id = ?", externalId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("organization not found", "externalId", externalId)
			return nil, nil
		}
		slog.Error("error fetching organization",
			"externalId", externalId,
			"error", result.Error)
		return nil, result.Error
	}
	return org, nil
}

func (db *Database) GetOrganizationById(orgId uint) (*Organization, error) {
	org := &Organization{}
	result := db.GormDB.Take(org, orgId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("organization not found", "orgId", orgId)
			return nil, nil
		}
		slog.Error("error fetching organization", "orgId", orgId, "error", result.Error)
		return nil, result.Error
	}
	return org, nil
}

func (db *Database) CreateOrganization(name string, externalSource string, externalId string) (*Organization, error) {
	org := &Organization{Name: name, ExternalSource: externalSource, ExternalId: externalId}
	result := db.GormDB.Save(org)
	if result.Error != nil {
		slog.Error("failed to create organization",
			"name", name,
			"externalId", externalId,
			"error", result.Error)
		return nil, result.Error
	}
	slog.Info("organization created successfully",
		"name", name,
		"orgId", org.ID,
		"externalId", externalId)
	return org, nil
}

func (db *Database) CreateServiceToken(user *User, tokenType string) (*Token, error) {
	token := &Token{
		Value:  uniuri.NewLen(64),
		UserID: user.ID,
		Type:   tokenType,
	}
	result := db.GormDB.Save(token)
	if result.Error != nil {
		slog.Error("failed to create token", "userId", user.ID, "error", result.Error)
		return nil, result.Error
	}
	slog.Info("token created", "userId", user.ID, "type", tokenType)
	return token, nil
}

func (db *Database) GetToken(value string) (*Token, error) {
	token := &Token{}
	result := db.GormDB.Preload("User").Take(token, "value = ?", value)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("error fetching token", "error", result.Error)
		return nil, result.Error
	}
	return token, nil
}
