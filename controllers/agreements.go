package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/infoshare/backend/models"
	"github.com/infoshare/backend/policies"
	"github.com/infoshare/backend/services"
)

func (ctrl Controller) ListAgreements(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}

	var agreements []models.InformationSharingAgreement
	err := models.DB.GormDB.
		Scopes(policies.VisibilityScope(user)).
		Order("created_at desc").
		Find(&agreements).Error
	if err != nil {
		slog.Error("error fetching agreements", "userId", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := lo.Map(agreements, func(a models.InformationSharingAgreement, _ int) interface{} {
		return a.MapToJsonStruct()
	})
	c.JSON(http.StatusOK, gin.H{"result": response})
}

func (ctrl Controller) GetAgreement(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	agreement, ok := loadAgreement(c)
	if !ok {
		return
	}

	allowed, err := policies.ForAgreement(agreement).CanShow(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}
	c.JSON(http.StatusOK, agreement.MapToJsonStruct())
}

type agreementPayload struct {
	Title                           string `json:"title"`
	PurposeStatement                string `json:"purpose_statement"`
	Terms                           string `json:"terms"`
	Restrictions                    string `json:"restrictions"`
	ExternalGroupContactID          *uint  `json:"external_group_contact_id"`
	InternalGroupContactID          *uint  `json:"internal_group_contact_id"`
	InternalGroupSecondaryContactID *uint  `json:"internal_group_secondary_contact_id"`
}

func (ctrl Controller) CreateAgreement(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}

	var payload agreementPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	agreement := &models.InformationSharingAgreement{
		Title:                           payload.Title,
		Status:                          models.AgreementDraft,
		CreatorID:                       user.ID,
		PurposeStatement:                payload.PurposeStatement,
		Terms:                           payload.Terms,
		Restrictions:                    payload.Restrictions,
		ExternalGroupContactID:          payload.ExternalGroupContactID,
		InternalGroupContactID:          payload.InternalGroupContactID,
		InternalGroupSecondaryContactID: payload.InternalGroupSecondaryContactID,
	}
	agreement, err := models.DB.CreateAgreement(agreement)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agreement.MapToJsonStruct())
}

func (ctrl Controller) UpdateAgreement(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	agreement, ok := loadAgreement(c)
	if !ok {
		return
	}

	policy := policies.ForAgreement(agreement)
	allowed, err := policy.CanUpdate(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	var payload map[string]interface{}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	before := services.SnapshotContacts(agreement)
	applyAgreementAttributes(agreement, payload, policy.PermittedAttributes())
	// contact changes cascade into the agreement-scoped groups once signed;
	// the attribute write and the cascade commit or roll back together
	if err := ctrl.Sync.SaveAgreementContacts(agreement, before, user); err != nil {
		respondServiceError(c, err)
		return
	}

	updated, err := models.DB.GetAgreementWithAssociations(agreement.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.MapToJsonStruct())
}

func (ctrl Controller) DeleteAgreement(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	agreement, ok := loadAgreement(c)
	if !ok {
		return
	}

	allowed, err := policies.ForAgreement(agreement).CanDestroy(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}
	if err := models.DB.SoftDeleteAgreement(agreement.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (ctrl Controller) SignAgreement(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	agreement, ok := loadAgreement(c)
	if !ok {
		return
	}

	// signing is an update on the draft: only its creator may do it
	allowed, err := policies.ForAgreement(agreement).CanUpdate(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	var payload struct {
		FilePath string     `json:"file_path"`
		SignedAt *time.Time `json:"signed_at"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}
	signedAt := time.Now()
	if payload.SignedAt != nil {
		signedAt = *payload.SignedAt
	}

	signed, err := ctrl.Signer.Sign(agreement.ID, payload.FilePath, signedAt, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	services.AddMessage(c, "Agreement signed")
	c.JSON(http.StatusOK, signed.MapToJsonStruct())
}

func (ctrl Controller) RevertAgreementToDraft(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	agreement, ok := loadAgreement(c)
	if !ok {
		return
	}

	allowed, err := policies.ForAgreement(agreement).CanUpdate(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !allowed {
		c.String(http.StatusForbidden, "Not allowed to access this resource")
		return
	}

	reverted, err := ctrl.Reverter.RevertToDraft(agreement.ID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	services.AddMessage(c, "Agreement reverted to draft")
	c.JSON(http.StatusOK, reverted.MapToJsonStruct())
}

func loadAgreement(c *gin.Context) (*models.InformationSharingAgreement, bool) {
	agreementId := cast.ToUint(c.Param("agreementId"))
	if agreementId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agreement id"})
		return nil, false
	}
	agreement, err := models.DB.GetAgreementWithAssociations(agreementId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	if agreement == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agreement not found"})
		return nil, false
	}
	return agreement, true
}

// applyAgreementAttributes copies allowlisted payload fields onto the record;
// everything else in the payload is dropped.
func applyAgreementAttributes(agreement *models.InformationSharingAgreement, payload map[string]interface{}, permitted []string) {
	toUintPtr := func(v interface{}) *uint {
		if v == nil {
			return nil
		}
		id := cast.ToUint(v)
		if id == 0 {
			return nil
		}
		return &id
	}
	for _, attr := range permitted {
		value, present := payload[attr]
		if !present {
			continue
		}
		switch attr {
		case "title":
			agreement.Title = cast.ToString(value)
		case "purpose_statement":
			agreement.PurposeStatement = cast.ToString(value)
		case "terms":
			agreement.Terms = cast.ToString(value)
		case "restrictions":
			agreement.Restrictions = cast.ToString(value)
		case "external_group_contact_id":
			agreement.ExternalGroupContactID = toUintPtr(value)
		case "internal_group_contact_id":
			agreement.InternalGroupContactID = toUintPtr(value)
		case "internal_group_secondary_contact_id":
			agreement.InternalGroupSecondaryContactID = toUintPtr(value)
		}
	}
}
