package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/appointment"
	"github.com/vetlink/vetlink/pkg/metrics"
)

type AppointmentService struct {
	repo     appointment.Repository
	users    domain.UserRepository
	notify   *NotificationService
	metrics  *metrics.Collector
	log      *zap.Logger
	schedule appointment.ScheduleConfig
	fee      float64
	now      func() time.Time
}

func NewAppointmentService(
	repo appointment.Repository,
	users domain.UserRepository,
	notify *NotificationService,
	collector *metrics.Collector,
	log *zap.Logger,
	schedule appointment.ScheduleConfig,
	consultationFee float64,
) *AppointmentService {
	return &AppointmentService{
		repo:     repo,
		users:    users,
		notify:   notify,
		metrics:  collector,
		log:      log,
		schedule: schedule,
		fee:      consultationFee,
		now:      time.Now,
	}
}

// VetSummary identifies the veterinarian an availability grid belongs to.
type VetSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Availability is one veterinarian's day: the annotated slot grid plus the
// appointments already occupying it.
type Availability struct {
	Veterinarian VetSummary                `json:"veterinarian"`
	Date         string                    `json:"date"`
	Slots        []appointment.Slot        `json:"available_slots"`
	Booked       []appointment.SlotBooking `json:"booked_appointments"`
}

type PaymentCommand struct {
	PaymentMethod string
	Amount        float64
}

type PaymentReceipt struct {
	PaymentID     string  `json:"payment_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	PaidAt        string  `json:"paid_at"`
}

// GetAvailability returns the full grid for one vet and date. Slots held by
// pending or accepted appointments are flagged unavailable.
func (s *AppointmentService) GetAvailability(ctx context.Context, vetID uuid.UUID, date string) (*Availability, error) {
	if date == "" {
		return nil, newValidationError("date query parameter is required (YYYY-MM-DD)")
	}
	if _, err := time.Parse(appointment.DateLayout, date); err != nil {
		return nil, newValidationError("date must be formatted YYYY-MM-DD")
	}

	vet, err := s.users.GetByID(ctx, vetID)
	if err != nil || !vet.IsActiveVeterinarian() {
		return nil, appointment.ErrInvalidVeterinarian
	}

	booked, err := s.repo.BookedSlots(ctx, vetID, date)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b.Time] = true
	}

	return &Availability{
		Veterinarian: VetSummary{ID: vet.ID, Username: vet.Username},
		Date:         date,
		Slots:        s.schedule.Grid(taken),
		Booked:       booked,
	}, nil
}

func (s *AppointmentService) Book(ctx context.Context, cmd *appointment.CreateCommand) (*appointment.Appointment, error) {
	var missing []string
	if cmd.VeterinarianID == uuid.Nil {
		missing = append(missing, "veterinarian_id is required")
	}
	if cmd.Date == "" {
		missing = append(missing, "appointment_date is required")
	}
	if cmd.Time == "" {
		missing = append(missing, "appointment_time is required")
	}
	if strings.TrimSpace(cmd.Title) == "" {
		missing = append(missing, "title is required")
	}
	if strings.TrimSpace(cmd.ContactNumber) == "" {
		missing = append(missing, "contact_number is required")
	}
	if len(missing) > 0 {
		return nil, newValidationError(missing...)
	}

	startsAt, err := appointment.ParseDateTime(cmd.Date, cmd.Time)
	if err != nil {
		return nil, newValidationError("date must be YYYY-MM-DD and time HH:MM:SS")
	}
	if !s.schedule.IsValidSlot(cmd.Time) {
		return nil, appointment.ErrSlotOutsideSchedule
	}
	if startsAt.Before(s.now()) {
		return nil, appointment.ErrScheduledInPast
	}

	if err := s.verifyVeterinarian(ctx, cmd.VeterinarianID); err != nil {
		// Selecting a bad vet on a booking form is client error, not a
		// missing resource.
		return nil, newValidationError("invalid veterinarian selected")
	}

	if err := s.checkSlotFree(ctx, cmd.VeterinarianID, cmd.Date, cmd.Time); err != nil {
		return nil, err
	}

	s.upsertContactNumber(ctx, cmd.UserID, cmd.ContactNumber)

	appt := &appointment.Appointment{
		UserID:           cmd.UserID,
		VeterinarianID:   cmd.VeterinarianID,
		Date:             cmd.Date,
		Time:             cmd.Time,
		Title:            strings.TrimSpace(cmd.Title),
		ContactNumber:    strings.TrimSpace(cmd.ContactNumber),
		Reason:           cmd.Reason,
		RescheduledFrom:  cmd.RescheduledFrom,
		RescheduleReason: cmd.RescheduleReason,
		Status:           appointment.StatusPending,
		PaymentStatus:    appointment.PaymentUnpaid,
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, appointment.ErrSlotAlreadyBooked) {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusPending)).Inc()
	s.notifyVetBooked(ctx, appt)
	s.log.Info("appointment booked",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("veterinarian_id", appt.VeterinarianID.String()),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time),
	)

	return appt, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*appointment.Detail, error) {
	d, err := s.repo.GetDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessAppointment(&d.Appointment, caller) {
		return nil, ErrForbidden
	}
	return d, nil
}

// List scopes results by role: owners see their own bookings, vets their
// assigned ones, admins everything.
func (s *AppointmentService) List(ctx context.Context, caller *domain.Claims, status *appointment.Status, vetID *uuid.UUID) ([]appointment.Detail, error) {
	q := appointment.ListQuery{Status: status, VeterinarianID: vetID}
	switch caller.Role {
	case domain.RoleUser:
		q.UserID = &caller.UserID
	case domain.RoleVeterinarian:
		q.VeterinarianID = &caller.UserID
	case domain.RoleSuperAdmin:
	default:
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, q)
}

// Update applies a sparse edit. Vets (and admins) drive the status machine;
// owners (and admins) may move the slot or amend the reason. A rescheduled
// appointment is closed here and rebooked by the client on a new slot,
// linked through rescheduled_from.
func (s *AppointmentService) Update(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateCommand, caller *domain.Claims) (*appointment.Appointment, error) {
	if cmd.Empty() {
		return nil, appointment.ErrEmptyUpdate
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessAppointment(appt, caller) {
		return nil, ErrForbidden
	}

	if cmd.Status != nil {
		next := appointment.Status(strings.ToLower(string(*cmd.Status)))
		if err := s.authorizeStatusChange(appt, caller); err != nil {
			return nil, err
		}
		if err := appt.Transition(next, s.now()); err != nil {
			return nil, err
		}
	}

	if cmd.Date != nil || cmd.Time != nil {
		if err := s.authorizeDetailChange(appt, caller); err != nil {
			return nil, err
		}
		if err := s.applySlotChange(ctx, appt, cmd.Date, cmd.Time); err != nil {
			return nil, err
		}
	}
	if cmd.Reason != nil {
		if err := s.authorizeDetailChange(appt, caller); err != nil {
			return nil, err
		}
		appt.Reason = *cmd.Reason
	}
	if cmd.RescheduleReason != nil {
		// A vet supplies the reason alongside the rescheduled transition;
		// on its own it is a detail amendment by the owner.
		if cmd.Status == nil {
			if err := s.authorizeDetailChange(appt, caller); err != nil {
				return nil, err
			}
		}
		appt.RescheduleReason = *cmd.RescheduleReason
	}

	if err := s.repo.Update(ctx, appt); err != nil {
		if errors.Is(err, appointment.ErrSlotAlreadyBooked) {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	if cmd.Status != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(appt.Status)).Inc()
		if appt.Status == appointment.StatusAccepted || appt.Status == appointment.StatusRejected {
			s.notifyOwnerStatus(ctx, appt)
		}
	}
	return appt, nil
}

// Cancel is the DELETE semantics: a guarded transition to cancelled.
func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*appointment.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessAppointment(appt, caller) {
		return nil, ErrForbidden
	}
	if err := appt.Transition(appointment.StatusCancelled, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusCancelled)).Inc()
	s.log.Info("appointment cancelled", zap.String("appointment_id", appt.ID.String()))
	return appt, nil
}

// Pay records the simulated consultation payment for an accepted
// appointment. The fee is fixed; anything else is rejected.
func (s *AppointmentService) Pay(ctx context.Context, id uuid.UUID, cmd PaymentCommand, caller *domain.Claims) (*PaymentReceipt, error) {
	if strings.TrimSpace(cmd.PaymentMethod) == "" {
		return nil, newValidationError("payment_method is required")
	}
	if cmd.Amount <= 0 {
		return nil, newValidationError("amount is required")
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.UserID != caller.UserID && caller.Role != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	if appt.Status != appointment.StatusAccepted {
		return nil, appointment.ErrNotPayable
	}
	if appt.PaymentStatus == appointment.PaymentPaid {
		return nil, appointment.ErrAlreadyPaid
	}
	if cmd.Amount != s.fee {
		return nil, appointment.ErrInvalidAmount
	}

	appt.PaymentStatus = appointment.PaymentPaid
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.metrics.PaymentsTotal.Inc()
	paidAt := s.now()
	receipt := &PaymentReceipt{
		PaymentID:     newPaymentID(paidAt),
		Amount:        cmd.Amount,
		PaymentMethod: cmd.PaymentMethod,
		PaidAt:        paidAt.Format(time.RFC3339),
	}

	s.log.Info("consultation payment recorded",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("payment_id", receipt.PaymentID),
	)
	return receipt, nil
}

func (s *AppointmentService) applySlotChange(ctx context.Context, appt *appointment.Appointment, date, tod *string) error {
	newDate := appt.Date
	newTime := appt.Time
	if date != nil {
		newDate = *date
	}
	if tod != nil {
		newTime = *tod
	}

	startsAt, err := appointment.ParseDateTime(newDate, newTime)
	if err != nil {
		return newValidationError("date must be YYYY-MM-DD and time HH:MM:SS")
	}
	if !s.schedule.IsValidSlot(newTime) {
		return appointment.ErrSlotOutsideSchedule
	}
	if startsAt.Before(s.now()) {
		return appointment.ErrScheduledInPast
	}
	if newDate != appt.Date || newTime != appt.Time {
		if err := s.checkSlotFree(ctx, appt.VeterinarianID, newDate, newTime); err != nil {
			return err
		}
	}

	appt.Date = newDate
	appt.Time = newTime
	return nil
}

// checkSlotFree is a friendly pre-check; the partial unique index still
// decides races at insert time.
func (s *AppointmentService) checkSlotFree(ctx context.Context, vetID uuid.UUID, date, tod string) error {
	booked, err := s.repo.BookedSlots(ctx, vetID, date)
	if err != nil {
		return err
	}
	for _, b := range booked {
		if b.Time == tod {
			s.metrics.BookingConflicts.Inc()
			return appointment.ErrSlotAlreadyBooked
		}
	}
	return nil
}

// upsertContactNumber keeps the caller's profile in sync with the number
// supplied on a booking. Best effort; a failure never blocks the booking.
func (s *AppointmentService) upsertContactNumber(ctx context.Context, userID uuid.UUID, contact string) {
	contact = strings.TrimSpace(contact)
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user.ContactNumber == contact {
		return
	}
	user.ContactNumber = contact
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Warn("updating contact number failed",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *AppointmentService) verifyVeterinarian(ctx context.Context, vetID uuid.UUID) error {
	vet, err := s.users.GetByID(ctx, vetID)
	if err != nil {
		return appointment.ErrInvalidVeterinarian
	}
	if !vet.IsActiveVeterinarian() {
		return appointment.ErrInvalidVeterinarian
	}
	return nil
}

func (s *AppointmentService) authorizeStatusChange(appt *appointment.Appointment, caller *domain.Claims) error {
	if caller.Role == domain.RoleSuperAdmin {
		return nil
	}
	if caller.Role == domain.RoleVeterinarian && appt.VeterinarianID == caller.UserID {
		return nil
	}
	return ErrForbidden
}

func (s *AppointmentService) authorizeDetailChange(appt *appointment.Appointment, caller *domain.Claims) error {
	if caller.Role == domain.RoleSuperAdmin {
		return nil
	}
	if appt.UserID == caller.UserID {
		return nil
	}
	return ErrForbidden
}

func canAccessAppointment(appt *appointment.Appointment, caller *domain.Claims) bool {
	return caller.Role == domain.RoleSuperAdmin ||
		appt.UserID == caller.UserID ||
		appt.VeterinarianID == caller.UserID
}

func (s *AppointmentService) notifyVetBooked(ctx context.Context, appt *appointment.Appointment) {
	owner, err := s.users.GetByID(ctx, appt.UserID)
	if err != nil {
		return
	}
	vet, err := s.users.GetByID(ctx, appt.VeterinarianID)
	if err != nil {
		return
	}
	s.notify.EnqueueAsync(appointmentBookedEmail(vet.Email, owner.Username, appt.Date, appt.Time))
}

func (s *AppointmentService) notifyOwnerStatus(ctx context.Context, appt *appointment.Appointment) {
	owner, err := s.users.GetByID(ctx, appt.UserID)
	if err != nil {
		return
	}
	s.notify.EnqueueAsync(appointmentStatusEmail(owner.Email, appt.Date, appt.Time, string(appt.Status)))
}

func newPaymentID(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("pay_%d_%s", now.UnixMilli(), hex.EncodeToString(buf))
}
