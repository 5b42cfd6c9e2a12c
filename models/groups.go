package models

import (
	"gorm.io/gorm"
)

// Group is a named collection of users. Agreement-scoped groups exist only
// because an agreement was signed and are destroyed when it reverts to draft.
type Group struct {
	gorm.Model
	Name            string `gorm:"index:idx_group_name"`
	IsExternal      bool
	AgreementScoped bool
	CreatorID       uint

	// Memberships is loaded on demand; a nil slice means not loaded, which
	// policy evaluation treats as a caller bug.
	Memberships []UserGroup `gorm:"foreignKey:GroupID"`
}

// UserGroup joins a user to a group. IsAdmin is membership-level authority,
// distinct from the global system-admin role. At most one non-deleted row per
// (user, group) pair; the services layer keeps it that way.
type UserGroup struct {
	gorm.Model
	UserID    uint `gorm:"index:idx_user_group"`
	User      *User
	GroupID   uint `gorm:"index:idx_user_group"`
	Group     *Group
	IsAdmin   bool
	CreatorID uint
}
