package models

import (
	"strings"

	"gorm.io/gorm"
)

const SystemAdminRole = "system_admin"

type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex"`
	Subject     string `gorm:"uniqueIndex:idx_user_subject"` // external identity provider subject
	DisplayName string
	// comma-separated role names, see SystemAdminRole
	Roles      string
	Department string
	IsExternal bool
	// required when IsExternal is true
	OrganizationID *uint
	Organization   *Organization
}

func (u *User) HasRole(role string) bool {
	for _, r := range strings.Split(u.Roles, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

func (u *User) IsSystemAdmin() bool {
	return u.HasRole(SystemAdminRole)
}

// ValidateUser checks required fields before persistence.
func ValidateUser(u *User) error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	if u.Subject == "" {
		return ErrSubjectRequired
	}
	if u.IsExternal && u.OrganizationID == nil {
		return ErrExternalUserNeedsOrganization
	}
	return nil
}
