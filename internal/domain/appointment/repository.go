package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetailByID(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, q ListQuery) ([]Detail, error)
	Update(ctx context.Context, appt *Appointment) error

	// BookedSlots returns the grid times already taken by active
	// appointments for one veterinarian on one date.
	BookedSlots(ctx context.Context, vetID uuid.UUID, date string) ([]SlotBooking, error)

	// CountActiveForDate returns the active appointment load per
	// veterinarian on the given date.
	CountActiveForDate(ctx context.Context, date string) (map[uuid.UUID]VetLoad, error)
}
