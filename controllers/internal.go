package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/infoshare/backend/models"
)

func (ctrl Controller) UpsertOrgInternal(c *gin.Context) {
	type OrgCreateRequest struct {
		Name           string `json:"org_name"`
		ExternalSource string `json:"external_source"`
		ExternalId     string `json:"external_id"`
	}

	var request OrgCreateRequest
	if err := c.BindJSON(&request); err != nil {
		slog.Warn("error binding JSON", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	org, err := models.DB.GetOrganization(request.ExternalId)
	if err != nil {
		slog.Error("error while retrieving org", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating org"})
		return
	}
	if org == nil {
		org, err = models.DB.CreateOrganization(request.Name, request.ExternalSource, request.ExternalId)
		if err != nil {
			slog.Error("error creating org", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating org"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "org_id": org.ID})
}

func (ctrl Controller) CreateUserInternal(c *gin.Context) {
	type UserCreateRequest struct {
		Subject       string `json:"subject"`
		Email         string `json:"email"`
		DisplayName   string `json:"display_name"`
		Department    string `json:"department"`
		IsExternal    bool   `json:"is_external"`
		OrgExternalId string `json:"external_org_id"`
	}

	var request UserCreateRequest
	if err := c.BindJSON(&request); err != nil {
		slog.Warn("error binding JSON", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	var orgId *uint
	if request.OrgExternalId != "" {
		org, err := models.DB.GetOrganization(request.OrgExternalId)
		if err != nil || org == nil {
			slog.Error("error retrieving org", "externalOrgId", request.OrgExternalId, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving org"})
			return
		}
		orgId = &org.ID
	}

	existing, err := models.DB.GetUserBySubject(request.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving user"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusOK, gin.H{"status": "success", "user_id": existing.ID})
		return
	}

	user, err := models.DB.CreateUser(request.Email, request.Subject, request.DisplayName,
		request.Department, request.IsExternal, orgId)
	if err != nil {
		slog.Error("error creating user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "user_id": user.ID})
}

// DeactivateUserInternal soft deletes a user when the identity provider
// reports them gone. Their historical memberships and grants keep their rows.
func (ctrl Controller) DeactivateUserInternal(c *gin.Context) {
	var request struct {
		Subject string `json:"subject"`
	}
	if err := c.BindJSON(&request); err != nil {
		slog.Warn("error binding JSON", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	user, err := models.DB.GetUserBySubject(request.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err := models.DB.DeactivateUser(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deactivating user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// IssueServiceToken mints a bearer token for service-to-service calls acting
// as the given user.
func (ctrl Controller) IssueServiceToken(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	token, err := models.DB.CreateServiceToken(user, models.ServiceTokenType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error issuing token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token.Value})
}
