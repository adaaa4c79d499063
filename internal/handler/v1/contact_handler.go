package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink/internal/service"
)

type ContactHandler struct {
	contact *service.ContactService
}

func NewContactHandler(contact *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.contact.Submit(c.Request.Context(), &service.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "message received")
}
