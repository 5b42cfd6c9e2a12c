package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/infoshare/backend/models"
	"github.com/infoshare/backend/services"
)

func (ctrl Controller) ListGroupMembers(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	group, ok := loadGroup(c)
	if !ok {
		return
	}

	allowed, err := ctrl.canViewGroup(user, group)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	memberships, err := models.DB.GetMembershipsForGroup(group.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": memberships})
}

func (ctrl Controller) AddGroupMember(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	group, ok := loadGroup(c)
	if !ok {
		return
	}

	allowed, err := ctrl.canAdministerGroup(user, group)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	var payload struct {
		UserID  uint `json:"user_id"`
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	membership, err := ctrl.Sync.AddMember(group.ID, payload.UserID, payload.IsAdmin, user, services.SyncOptions{})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

func (ctrl Controller) RemoveGroupMember(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	group, ok := loadGroup(c)
	if !ok {
		return
	}

	allowed, err := ctrl.canAdministerGroup(user, group)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	memberId := cast.ToUint(c.Param("userId"))
	if err := ctrl.Sync.RemoveMember(group.ID, memberId, user, services.SyncOptions{}); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func loadGroup(c *gin.Context) (*models.Group, bool) {
	groupId := cast.ToUint(c.Param("groupId"))
	if groupId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group id"})
		return nil, false
	}
	group, err := models.DB.GetGroup(groupId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return nil, false
	}
	return group, true
}

func (ctrl Controller) canViewGroup(user *models.User, group *models.Group) (bool, error) {
	if user.IsSystemAdmin() {
		return true, nil
	}
	membership, err := models.DB.GetActiveMembership(user.ID, group.ID)
	if err != nil {
		return false, err
	}
	return membership != nil, nil
}

func (ctrl Controller) canAdministerGroup(user *models.User, group *models.Group) (bool, error) {
	if user.IsSystemAdmin() {
		return true, nil
	}
	membership, err := models.DB.GetActiveMembership(user.ID, group.ID)
	if err != nil {
		return false, err
	}
	return membership != nil && membership.IsAdmin, nil
}
