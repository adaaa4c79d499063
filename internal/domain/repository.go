package domain

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, role *Role) ([]User, error)
	Update(ctx context.Context, u *User) error
}

type ResetTokenRepository interface {
	Create(ctx context.Context, t *PasswordResetToken) error
	GetByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error)
	// DeleteForUser clears any earlier tokens so only the newest is usable.
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
	MarkUsed(ctx context.Context, id uuid.UUID) error
}
