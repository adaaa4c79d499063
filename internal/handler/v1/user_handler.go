package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, user)
}

type updateProfileRequest struct {
	Username      *string `json:"username"`
	Email         *string `json:"email"`
	ContactNumber *string `json:"contact_number"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, service.ProfileUpdateCommand{
		Username:      req.Username,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var roleFilter *domain.Role
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		roleFilter = &role
	}

	users, err := h.users.ListUsers(c.Request.Context(), claims.Role, roleFilter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, users)
}

type updateRoleRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req updateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == uuid.Nil {
		respondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	user, err := h.users.UpdateUserRole(c.Request.Context(), claims.UserID, claims.Role, req.UserID, domain.Role(req.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, user)
}

type setActiveRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Active *bool     `json:"active"`
}

func (h *UserHandler) SetUserActive(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req setActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == uuid.Nil || req.Active == nil {
		respondError(c, http.StatusBadRequest, "user_id and active are required")
		return
	}

	user, err := h.users.SetUserActive(c.Request.Context(), claims.UserID, claims.Role, req.UserID, *req.Active)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, user)
}

func (h *UserHandler) ListVeterinarians(c *gin.Context) {
	vets, err := h.users.ListVeterinarians(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, vets)
}
