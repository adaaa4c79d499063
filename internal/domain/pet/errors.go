package pet

import "errors"

var (
	ErrNotFound      = errors.New("pet not found")
	ErrNotDog        = errors.New("diet recommendations only supported for dogs")
	ErrMissingWeight = errors.New("pet weight is required for a diet plan")
	ErrInvalidAvatar = errors.New("avatar must be a png, jpeg or webp data URL")
)
