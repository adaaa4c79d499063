package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/appointment"
	"github.com/vetlink/vetlink/internal/domain/pet"
	"github.com/vetlink/vetlink/internal/domain/pharmacy"
	"github.com/vetlink/vetlink/internal/inference"
	"github.com/vetlink/vetlink/internal/service"
	"github.com/vetlink/vetlink/pkg/auth"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, APIResponse[any]{Message: message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var httpErr *inference.HTTPError
	if errors.As(err, &httpErr) || errors.Is(err, gobreaker.ErrOpenState) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "prediction service is unavailable, please try again later",
			Code:  "UPSTREAM_UNAVAILABLE",
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, appointment.ErrNotFound),
		errors.Is(err, appointment.ErrInvalidVeterinarian),
		errors.Is(err, pet.ErrNotFound),
		errors.Is(err, pharmacy.ErrNotFound),
		errors.Is(err, pharmacy.ErrItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, appointment.ErrSlotAlreadyBooked),
		errors.Is(err, pharmacy.ErrNameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrSlotOutsideSchedule),
		errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrNotPayable),
		errors.Is(err, appointment.ErrAlreadyPaid),
		errors.Is(err, appointment.ErrInvalidAmount),
		errors.Is(err, appointment.ErrEmptyUpdate),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidResetToken),
		errors.Is(err, pet.ErrNotDog),
		errors.Is(err, pet.ErrMissingWeight),
		errors.Is(err, pet.ErrInvalidAvatar),
		errors.Is(err, pharmacy.ErrInvalidLocation),
		errors.Is(err, pharmacy.ErrInvalidQuantity),
		errors.Is(err, pharmacy.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenTypeMismatch):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, pharmacy.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// mustClaims is used on authenticated routes; the auth middleware has
// already rejected anonymous requests.
func mustClaims(c *gin.Context) (*domain.Claims, bool) {
	v, ok := c.Get("claims")
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return nil, false
	}
	claims, ok := v.(*domain.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return nil, false
	}
	return claims, true
}
