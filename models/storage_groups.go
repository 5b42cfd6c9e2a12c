package models

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"
)

func (db *Database) GetGroup(groupId uint) (*Group, error) {
	group := &Group{}
	result := db.GormDB.Take(group, groupId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("group not found", "groupId", groupId)
			return nil, nil
		}
		slog.Error("error fetching group", "groupId", groupId, "error", result.Error)
		return nil, result.Error
	}
	return group, nil
}

// GetGroupWithMemberships loads a group with its active memberships, the shape
// policy evaluation expects.
func (db *Database) GetGroupWithMemberships(groupId uint) (*Group, error) {
	group := &Group{}
	result := db.GormDB.Preload("Memberships").Preload("Memberships.User").Take(group, groupId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("group not found", "groupId", groupId)
			return nil, nil
		}
		slog.Error("error fetching group", "groupId", groupId, "error", result.Error)
		return nil, result.Error
	}
	if group.Memberships == nil {
		group.Memberships = []UserGroup{}
	}
	return group, nil
}

func (db *Database) CreateGroup(name string, isExternal bool, agreementScoped bool, creatorId uint) (*Group, error) {
	group := &Group{
		Name:            name,
		IsExternal:      isExternal,
		AgreementScoped: agreementScoped,
		CreatorID:       creatorId,
	}
	result := db.GormDB.Save(group)
	if result.Error != nil {
		slog.Error("failed to create group", "name", name, "error", result.Error)
		return nil, result.Error
	}
	slog.Info("group created", "groupId", group.ID, "name", name, "isExternal", isExternal)
	return group, nil
}

func (db *Database) SoftDeleteGroup(groupId uint) error {
	result := db.GormDB.Delete(&Group{}, groupId)
	if result.Error != nil {
		slog.Error("failed to delete group", "groupId", groupId, "error", result.Error)
		return result.Error
	}
	slog.Info("group deleted", "groupId", groupId)
	return nil
}

// GetActiveMembership returns the non-deleted membership for (user, group), or
// nil when none exists.
func (db *Database) GetActiveMembership(userId uint, groupId uint) (*UserGroup, error) {
	membership := &UserGroup{}
	result := db.GormDB.Take(membership, "user_id = ? AND group_id = ?", userId, groupId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("error fetching membership",
			"userId", userId,
			"groupId", groupId,
			"error", result.Error)
		return nil, result.Error
	}
	return membership, nil
}

func (db *Database) GetMembershipsForGroup(groupId uint) ([]UserGroup, error) {
	var memberships []UserGroup
	result := db.GormDB.Preload("User").Where("group_id = ?", groupId).Find(&memberships)
	if result.Error != nil {
		slog.Error("error fetching memberships", "groupId", groupId, "error", result.Error)
		return nil, result.Error
	}
	return memberships, nil
}

func (db *Database) GetMembershipsForUser(userId uint) ([]UserGroup, error) {
	var memberships []UserGroup
	result := db.GormDB.Preload("Group").Where("user_id = ?", userId).Find(&memberships)
	if result.Error != nil {
		slog.Error("error fetching memberships", "userId", userId, "error", result.Error)
		return nil, result.Error
	}
	return memberships, nil
}

// CreateMembership inserts a membership row unless an active one already
// exists, in which case the existing row is returned unchanged.
func (db *Database) CreateMembership(userId uint, groupId uint, isAdmin bool, creatorId uint) (*UserGroup, error) {
	existing, err := db.GetActiveMembership(userId, groupId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	membership := &UserGroup{
		UserID:    userId,
		GroupID:   groupId,
		IsAdmin:   isAdmin,
		CreatorID: creatorId,
	}
	result := db.GormDB.Create(membership)
	if result.Error != nil {
		slog.Error("failed to create membership",
			"userId", userId,
			"groupId", groupId,
			"error", result.Error)
		return nil, result.Error
	}
	slog.Info("membership created",
		"userId", userId,
		"groupId", groupId,
		"isAdmin", isAdmin)
	return membership, nil
}

func (db *Database) SoftDeleteMembership(membership *UserGroup) error {
	result := db.GormDB.Delete(membership)
	if result.Error != nil {
		slog.Error("failed to delete membership",
			"userId", membership.UserID,
			"groupId", membership.GroupID,
			"error", result.Error)
		return result.Error
	}
	slog.Info("membership deleted",
		"userId", membership.UserID,
		"groupId", membership.GroupID)
	return nil
}
