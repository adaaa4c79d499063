package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State transition possibilities:
//
//	pending  → accepted | rejected | cancelled | rescheduled
//	accepted → completed | cancelled | rescheduled
//	rejected → rescheduled
//	completed, cancelled and rescheduled are terminal; a reschedule creates
//	a fresh pending appointment pointing back via RescheduledFrom.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
	StatusCompleted   Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusRescheduled, StatusCompleted:
		return true
	}
	return false
}

// Active statuses occupy a slot in the veterinarian's day grid.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

const (
	// DateLayout and TimeLayout are the wire and storage formats for the
	// calendar date and grid-aligned time-of-day.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	VeterinarianID uuid.UUID `gorm:"column:veterinarian_id;type:uuid;not null;index" json:"veterinarian_id"`

	Date  string `gorm:"column:appointment_date;type:varchar(10);not null;index" json:"appointment_date"`
	Time  string `gorm:"column:appointment_time;type:varchar(8);not null" json:"appointment_time"`
	Title string `gorm:"column:appointment_title;type:varchar(255)" json:"appointment_title"`

	ContactNumber    string     `gorm:"column:contact_number;type:varchar(30)" json:"contact_number"`
	Reason           string     `gorm:"column:reason;type:text" json:"reason,omitempty"`
	RescheduleReason string     `gorm:"column:reschedule_reason;type:text" json:"reschedule_reason,omitempty"`
	RescheduledFrom  *uuid.UUID `gorm:"column:rescheduled_from;type:uuid" json:"rescheduled_from,omitempty"`

	Status        Status        `gorm:"column:status;type:varchar(30);not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(10);not null;default:'unpaid'" json:"payment_status"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusPending:     {StatusAccepted, StatusRejected, StatusCancelled, StatusRescheduled},
		StatusAccepted:    {StatusCompleted, StatusCancelled, StatusRescheduled},
		StatusRejected:    {StatusRescheduled},
		StatusCancelled:   {},
		StatusRescheduled: {},
		StatusCompleted:   {},
	}

	for _, s := range allowed[a.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Transition applies a guarded status change, stamping confirmation and
// completion times on the transitions that own them.
func (a *Appointment) Transition(next Status, now time.Time) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if !a.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}

	a.Status = next
	switch next {
	case StatusAccepted:
		a.ConfirmedAt = &now
	case StatusCompleted:
		a.CompletedAt = &now
	}
	return nil
}

// ParseDateTime validates the stored date/time strings and combines them.
func ParseDateTime(date, tod string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing appointment date %q: %w", date, err)
	}
	t, err := time.Parse(TimeLayout, tod)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing appointment time %q: %w", tod, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
}

type CreateCommand struct {
	UserID           uuid.UUID
	VeterinarianID   uuid.UUID
	Date             string
	Time             string
	Title            string
	ContactNumber    string
	Reason           string
	RescheduledFrom  *uuid.UUID
	RescheduleReason string
}

// UpdateCommand carries the sparse field set of the status-transition
// endpoint; nil means "leave untouched".
type UpdateCommand struct {
	Date             *string
	Time             *string
	Reason           *string
	Status           *Status
	RescheduleReason *string
}

func (c *UpdateCommand) Empty() bool {
	return c.Date == nil && c.Time == nil && c.Reason == nil && c.Status == nil && c.RescheduleReason == nil
}

type ListQuery struct {
	UserID         *uuid.UUID
	VeterinarianID *uuid.UUID
	Status         *Status
}

// Detail is an appointment joined with both parties' contact details, the
// shape the list and read endpoints return.
type Detail struct {
	Appointment
	UserName            string `json:"user_name"`
	UserEmail           string `json:"user_email"`
	UserContact         string `json:"user_contact"`
	VeterinarianName    string `json:"veterinarian_name"`
	VeterinarianEmail   string `json:"veterinarian_email"`
	VeterinarianContact string `json:"veterinarian_contact"`
}

// VetLoad is the per-veterinarian active appointment count for one date.
type VetLoad struct {
	Total    int64 `json:"total_appointments"`
	Pending  int64 `json:"pending_appointments"`
	Accepted int64 `json:"accepted_appointments"`
}
