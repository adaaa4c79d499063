package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser         Role = "USER"
	RoleVeterinarian Role = "VETERINARIAN"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleVeterinarian, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Username      string `gorm:"column:username;type:varchar(100);uniqueIndex;not null" json:"username"`
	Email         string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	ContactNumber string `gorm:"column:contact_number;type:varchar(30)" json:"contact_number,omitempty"`
	PasswordHash  string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role          Role   `gorm:"column:user_role;type:varchar(30);not null;index" json:"user_role"`

	IsActive    bool       `gorm:"column:is_active;default:true;index" json:"is_active"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"last_login,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsActiveVeterinarian reports whether the user can be assigned appointments.
func (u *User) IsActiveVeterinarian() bool {
	return u.Role == RoleVeterinarian && u.IsActive
}

// PasswordResetToken stores only the SHA-256 hash of the raw token handed
// to the user; the raw value never touches the database.
type PasswordResetToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	TokenHash string    `gorm:"column:token_hash;type:varchar(64);not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:used;default:false"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

func (t *PasswordResetToken) IsUsable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID   uuid.UUID `json:"sub"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}
