package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/infoshare/backend/logging"
	"github.com/infoshare/backend/middleware"
	"github.com/infoshare/backend/models"
	"github.com/infoshare/backend/policies"
	"github.com/infoshare/backend/services"
)

// Controller carries the transition and synchronization services wired in
// bootstrap.
type Controller struct {
	Sync     *services.GrantSyncService
	Signer   *services.SignService
	Reverter *services.RevertToDraftService
}

// CurrentUser resolves the acting user placed in the context by the auth
// middleware. Writes a 403 and returns false when absent.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	userId := c.GetUint(middleware.USER_ID_KEY)
	if userId == 0 {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return nil, false
	}
	user, err := models.DB.GetUser(userId)
	if err != nil || user == nil {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return nil, false
	}
	return user, true
}

// preconditionErrors are user-presentable; they map to 422 rather than a
// generic failure.
var preconditionErrors = []error{
	services.ErrNotDraft,
	services.ErrNotSigned,
	services.ErrSignedDateRequired,
	services.ErrExternalContactRequired,
	services.ErrInternalContactRequired,
	services.ErrContactNotFound,
	services.ErrContactOrgNotFound,
	services.ErrHasArchiveItems,
	services.ErrExternalGroupIdRequired,
	services.ErrInternalGroupIdRequired,
	services.ErrNotAMember,
	models.ErrInvalidAccessLevel,
	models.ErrInvalidStatus,
}

// notFoundErrors report a missing record; they map to 404 to match the
// loaders that look the same records up by path parameter.
var notFoundErrors = []error{
	services.ErrAgreementNotFound,
	services.ErrGroupNotFound,
	services.ErrGrantNotFound,
	services.ErrUserNotFound,
}

func respondServiceError(c *gin.Context, err error) {
	reqLog := logging.FromContext(c.Request.Context())
	if errors.Is(err, policies.ErrAssociationNotLoaded) {
		// caller bug, not an authorization decision
		reqLog.Error("policy evaluated without preloaded associations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	for _, known := range notFoundErrors {
		if errors.Is(err, known) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	}
	for _, known := range preconditionErrors {
		if errors.Is(err, known) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}
	reqLog.Error("unexpected error handling request", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "infoshare"})
}

// GetFlashMessages drains and returns the session's one-shot messages.
func GetFlashMessages(c *gin.Context) {
	c.JSON(http.StatusOK, services.GetMessages(c))
}
