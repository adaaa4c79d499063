package pharmacy

import "errors"

var (
	ErrNotFound          = errors.New("pharmacy not found")
	ErrNameTaken         = errors.New("pharmacy name already registered")
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrNotOwner          = errors.New("pharmacy does not belong to this user")
	ErrInvalidLocation   = errors.New("latitude or longitude out of range")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("not enough stock for this sale")
)
