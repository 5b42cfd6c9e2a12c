package models

import (
	"gorm.io/gorm"
)

// Organization represents an external party to an agreement.
type Organization struct {
	gorm.Model
	Name           string `gorm:"Index:idx_organization"`
	ExternalSource string `gorm:"uniqueIndex:idx_org_external_source"`
	ExternalId     string `gorm:"uniqueIndex:idx_org_external_source"`
}

type Token struct {
	gorm.Model
	Value  string `gorm:"uniqueIndex:idx_token"`
	UserID uint
	User   *User
	Type   string
}

const (
	AccessTokenType  = "access"
	AdminTokenType   = "admin"
	ServiceTokenType = "service"
)
