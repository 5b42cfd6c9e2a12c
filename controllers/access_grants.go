package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/infoshare/backend/models"
	"github.com/infoshare/backend/policies"
	"github.com/infoshare/backend/services"
)

func (ctrl Controller) ListAccessGrants(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	agreement, ok := loadAgreement(c)
	if !ok {
		return
	}

	siblings, err := models.DB.GetGrantsForAgreement(agreement.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	allowed, err := policies.NewAccessGrantPolicy(siblings).CanShow(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		// the agreement policy can still let the creator or a system admin in
		allowed, err = policies.ForAgreement(agreement).CanShow(user)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": siblings})
}

func (ctrl Controller) CreateAccessGrant(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	agreement, ok := loadAgreement(c)
	if !ok {
		return
	}

	allowed, err := ctrl.canManageGrants(user, agreement)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	var payload struct {
		GroupID     uint   `json:"group_id"`
		UserID      uint   `json:"user_id"`
		AccessLevel string `json:"access_level"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	grant, err := ctrl.Sync.GrantAccess(agreement.ID, payload.GroupID, payload.UserID,
		models.AccessLevel(payload.AccessLevel), user, services.SyncOptions{})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, grant)
}

func (ctrl Controller) DeleteAccessGrant(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	grantId := cast.ToUint(c.Param("grantId"))
	grant, err := models.DB.GetGrant(grantId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if grant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Access grant not found"})
		return
	}
	agreement, err := models.DB.GetAgreementWithAssociations(grant.InformationSharingAgreementID)
	if err != nil || agreement == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	allowed, err := ctrl.canManageGrants(user, agreement)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	if err := ctrl.Sync.RevokeAccess(grant.ID, user, services.SyncOptions{}); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// canManageGrants composes the sibling-grant policy with the agreement
// policy: an admin-level grant holder manages the grant set without being the
// agreement's creator or a system admin, and vice versa.
func (ctrl Controller) canManageGrants(user *models.User, agreement *models.InformationSharingAgreement) (bool, error) {
	allowed, err := policies.NewAccessGrantPolicy(agreement.AccessGrants).CanCreate(user)
	if err != nil {
		return false, err
	}
	if allowed {
		return true, nil
	}
	return policies.ForAgreement(agreement).CanUpdate(user)
}
