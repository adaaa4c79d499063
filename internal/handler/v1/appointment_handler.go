package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vetlink/vetlink/internal/domain/appointment"
	"github.com/vetlink/vetlink/internal/service"
)

type AppointmentHandler struct {
	appts *service.AppointmentService
}

func NewAppointmentHandler(appts *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appts: appts}
}

func (h *AppointmentHandler) GetAvailability(c *gin.Context) {
	vetID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	availability, err := h.appts.GetAvailability(c.Request.Context(), vetID, c.Query("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, availability)
}

type bookRequest struct {
	VeterinarianID   uuid.UUID  `json:"veterinarian_id"`
	Date             string     `json:"appointment_date"`
	Time             string     `json:"appointment_time"`
	Title            string     `json:"title"`
	ContactNumber    string     `json:"contact_number"`
	Reason           string     `json:"reason"`
	RescheduledFrom  *uuid.UUID `json:"rescheduled_from"`
	RescheduleReason string     `json:"reschedule_reason"`
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	appt, err := h.appts.Book(c.Request.Context(), &appointment.CreateCommand{
		UserID:           claims.UserID,
		VeterinarianID:   req.VeterinarianID,
		Date:             req.Date,
		Time:             req.Time,
		Title:            req.Title,
		ContactNumber:    req.ContactNumber,
		Reason:           req.Reason,
		RescheduledFrom:  req.RescheduledFrom,
		RescheduleReason: req.RescheduleReason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, appt)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var status *appointment.Status
	if raw := c.Query("status"); raw != "" {
		s := appointment.Status(raw)
		status = &s
	}
	var vetID *uuid.UUID
	if raw := c.Query("veterinarian_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			vetID = &id
		}
	}

	details, err := h.appts.List(c.Request.Context(), claims, status, vetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, details)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.appts.Get(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, detail)
}

type updateAppointmentRequest struct {
	Date             *string `json:"appointment_date"`
	Time             *string `json:"appointment_time"`
	Reason           *string `json:"reason"`
	Status           *string `json:"status"`
	RescheduleReason *string `json:"reschedule_reason"`
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.UpdateCommand{
		Date:             req.Date,
		Time:             req.Time,
		Reason:           req.Reason,
		RescheduleReason: req.RescheduleReason,
	}
	if req.Status != nil {
		status := appointment.Status(*req.Status)
		cmd.Status = &status
	}

	appt, err := h.appts.Update(c.Request.Context(), id, cmd, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, appt)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	appt, err := h.appts.Cancel(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, appt)
}

type paymentRequest struct {
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
}

func (h *AppointmentHandler) Pay(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.appts.Pay(c.Request.Context(), id, service.PaymentCommand{
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, receipt)
}
