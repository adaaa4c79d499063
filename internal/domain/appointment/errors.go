package appointment

import "errors"

var (
	ErrNotFound                = errors.New("appointment not found")
	// ErrSlotAlreadyBooked carries the exact message the booking API
	// returns on a 409; clients match on it.
	ErrSlotAlreadyBooked       = errors.New("This time slot is already booked")
	ErrSlotOutsideSchedule     = errors.New("time is outside the working schedule")
	ErrScheduledInPast         = errors.New("appointment date cannot be in the past")
	ErrInvalidVeterinarian     = errors.New("invalid veterinarian")
	ErrInvalidStatus           = errors.New("invalid appointment status")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrNotPayable              = errors.New("appointment is not payable in its current status")
	ErrAlreadyPaid             = errors.New("appointment has already been paid")
	ErrInvalidAmount           = errors.New("payment amount does not match the consultation fee")
	ErrEmptyUpdate             = errors.New("no updatable fields provided")
)
