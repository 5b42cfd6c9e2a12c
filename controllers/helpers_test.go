package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/infoshare/backend/policies"
	"github.com/infoshare/backend/services"
)

func recordServiceError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	respondServiceError(c, err)
	return w
}

func TestMissingRecordErrorsMapToNotFound(t *testing.T) {
	missing := []error{
		services.ErrAgreementNotFound,
		services.ErrGroupNotFound,
		services.ErrGrantNotFound,
		services.ErrUserNotFound,
	}
	for _, err := range missing {
		w := recordServiceError(err)
		assert.Equal(t, http.StatusNotFound, w.Code, err.Error())
	}
}

func TestWrappedMissingRecordErrorMapsToNotFound(t *testing.T) {
	w := recordServiceError(fmt.Errorf("reassigning contact: %w", services.ErrUserNotFound))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreconditionErrorsMapToUnprocessable(t *testing.T) {
	for _, err := range []error{services.ErrNotDraft, services.ErrNotAMember} {
		w := recordServiceError(err)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, err.Error())
	}
}

func TestUnloadedAssociationIsInternalError(t *testing.T) {
	w := recordServiceError(policies.ErrAssociationNotLoaded)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
