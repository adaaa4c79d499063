package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/vetlink/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// detailSelect joins both parties so list responses carry names and
// contact details without N+1 lookups.
const detailSelect = `appointments.*,
	owners.username AS user_name, owners.email AS user_email, owners.contact_number AS user_contact,
	vets.username AS veterinarian_name, vets.email AS veterinarian_email, vets.contact_number AS veterinarian_contact`

func (r *AppointmentRepository) Create(ctx context.Context, appt *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(appt).Error; err != nil {
		// The partial unique index on (veterinarian_id, date, time) for
		// active statuses fires here when two requests race for a slot.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appointment.ErrSlotAlreadyBooked
		}
		return fmt.Errorf("creating appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var appt appointment.Appointment
	if err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrNotFound
		}
		return nil, fmt.Errorf("fetching appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *AppointmentRepository) GetDetailByID(ctx context.Context, id uuid.UUID) (*appointment.Detail, error) {
	var d appointment.Detail
	err := r.db.WithContext(ctx).
		Table("appointments").
		Select(detailSelect).
		Joins("JOIN users AS owners ON owners.id = appointments.user_id").
		Joins("JOIN users AS vets ON vets.id = appointments.veterinarian_id").
		Where("appointments.id = ?", id).
		Take(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrNotFound
		}
		return nil, fmt.Errorf("fetching appointment detail %s: %w", id, err)
	}
	return &d, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q appointment.ListQuery) ([]appointment.Detail, error) {
	query := r.db.WithContext(ctx).
		Table("appointments").
		Select(detailSelect).
		Joins("JOIN users AS owners ON owners.id = appointments.user_id").
		Joins("JOIN users AS vets ON vets.id = appointments.veterinarian_id").
		Order("appointments.appointment_date DESC, appointments.appointment_time DESC")

	if q.UserID != nil {
		query = query.Where("appointments.user_id = ?", *q.UserID)
	}
	if q.VeterinarianID != nil {
		query = query.Where("appointments.veterinarian_id = ?", *q.VeterinarianID)
	}
	if q.Status != nil {
		query = query.Where("appointments.status = ?", *q.Status)
	}

	var details []appointment.Detail
	if err := query.Find(&details).Error; err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	return details, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appt *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Save(appt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appointment.ErrSlotAlreadyBooked
		}
		return fmt.Errorf("updating appointment %s: %w", appt.ID, err)
	}
	return nil
}

func (r *AppointmentRepository) BookedSlots(ctx context.Context, vetID uuid.UUID, date string) ([]appointment.SlotBooking, error) {
	var slots []appointment.SlotBooking
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Select("appointment_time AS time, status").
		Where("veterinarian_id = ? AND appointment_date = ? AND status IN ?",
			vetID, date, []appointment.Status{appointment.StatusPending, appointment.StatusAccepted}).
		Order("appointment_time ASC").
		Scan(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("fetching booked slots: %w", err)
	}
	return slots, nil
}

func (r *AppointmentRepository) CountActiveForDate(ctx context.Context, date string) (map[uuid.UUID]appointment.VetLoad, error) {
	var rows []struct {
		VeterinarianID uuid.UUID
		Status         appointment.Status
		Count          int64
	}
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Select("veterinarian_id, status, COUNT(*) AS count").
		Where("appointment_date = ? AND status IN ?",
			date, []appointment.Status{appointment.StatusPending, appointment.StatusAccepted}).
		Group("veterinarian_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting appointments for %s: %w", date, err)
	}

	loads := make(map[uuid.UUID]appointment.VetLoad, len(rows))
	for _, row := range rows {
		load := loads[row.VeterinarianID]
		load.Total += row.Count
		switch row.Status {
		case appointment.StatusPending:
			load.Pending += row.Count
		case appointment.StatusAccepted:
			load.Accepted += row.Count
		}
		loads[row.VeterinarianID] = load
	}
	return loads, nil
}
