package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signupRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ContactNumber string `json:"contact_number"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), service.SignupCommand{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user, "tokens": pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		respondError(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Email == "" {
		respondError(c, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "password reset email sent")
}

func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "token query parameter is required")
		return
	}

	email, err := h.auth.VerifyResetToken(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"valid": true, "email": email})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Token == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "token and password are required")
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "password has been reset")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondError(c, http.StatusBadRequest, "current_password and new_password are required")
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "password changed")
}
