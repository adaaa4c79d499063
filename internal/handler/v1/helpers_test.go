package v1

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/appointment"
	"github.com/vetlink/vetlink/internal/domain/pet"
	"github.com/vetlink/vetlink/internal/domain/pharmacy"
	"github.com/vetlink/vetlink/internal/inference"
	"github.com/vetlink/vetlink/internal/service"
	"github.com/vetlink/vetlink/pkg/auth"
)

func respondWith(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respondServiceError(c, err)
	return rec
}

func TestRespondServiceErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{appointment.ErrNotFound, http.StatusNotFound},
		{appointment.ErrInvalidVeterinarian, http.StatusNotFound},
		{pet.ErrNotFound, http.StatusNotFound},
		{pharmacy.ErrItemNotFound, http.StatusNotFound},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrUsernameTaken, http.StatusConflict},
		{domain.ErrEmailTaken, http.StatusConflict},
		{appointment.ErrSlotAlreadyBooked, http.StatusConflict},
		{pharmacy.ErrNameTaken, http.StatusConflict},
		{appointment.ErrScheduledInPast, http.StatusBadRequest},
		{appointment.ErrInvalidStatusTransition, http.StatusBadRequest},
		{appointment.ErrAlreadyPaid, http.StatusBadRequest},
		{domain.ErrWeakPassword, http.StatusBadRequest},
		{domain.ErrInvalidResetToken, http.StatusBadRequest},
		{pet.ErrNotDog, http.StatusBadRequest},
		{pharmacy.ErrInsufficientStock, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrTokenExpired, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{domain.ErrUserInactive, http.StatusForbidden},
		{pharmacy.ErrNotOwner, http.StatusForbidden},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%v_%d", tc.err, tc.status), func(t *testing.T) {
			rec := respondWith(t, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRespondServiceErrorValidation(t *testing.T) {
	rec := respondWith(t, &service.ValidationError{Fields: []string{"name is required"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
	assert.Contains(t, rec.Body.String(), "validation failed")
}

func TestRespondServiceErrorUpstream(t *testing.T) {
	rec := respondWith(t, &inference.HTTPError{StatusCode: http.StatusBadGateway})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPSTREAM_UNAVAILABLE")

	rec = respondWith(t, gobreaker.ErrOpenState)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRespondServiceErrorHidesInternalDetail(t *testing.T) {
	rec := respondWith(t, fmt.Errorf("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
