package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/appointment"
)

type UserService struct {
	users domain.UserRepository
	appts appointment.Repository
	log   *zap.Logger
}

func NewUserService(users domain.UserRepository, appts appointment.Repository, log *zap.Logger) *UserService {
	return &UserService{users: users, appts: appts, log: log}
}

type ProfileUpdateCommand struct {
	Username      *string
	Email         *string
	ContactNumber *string
}

// Veterinarian is the public listing entry, with the vet's booking load
// for today so clients can steer users toward less busy vets.
type Veterinarian struct {
	ID            uuid.UUID           `json:"id"`
	Username      string              `json:"username"`
	Email         string              `json:"email"`
	ContactNumber string              `json:"contact_number,omitempty"`
	Load          appointment.VetLoad `json:"load"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, cmd ProfileUpdateCommand) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cmd.Username != nil {
		trimmed := strings.TrimSpace(*cmd.Username)
		if trimmed == "" {
			return nil, newValidationError("username cannot be empty")
		}
		user.Username = trimmed
	}
	if cmd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*cmd.Email))
		if !emailPattern.MatchString(email) {
			return nil, domain.ErrInvalidEmail
		}
		user.Email = email
	}
	if cmd.ContactNumber != nil {
		user.ContactNumber = strings.TrimSpace(*cmd.ContactNumber)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers is the admin view of every account, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, callerRole domain.Role, role *domain.Role) ([]domain.User, error) {
	if callerRole != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	if role != nil && !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}
	return s.users.List(ctx, role)
}

// UpdateUserRole grants or revokes roles. Admins cannot demote themselves,
// which keeps at least one admin reachable.
func (s *UserService) UpdateUserRole(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, targetID uuid.UUID, newRole domain.Role) (*domain.User, error) {
	if callerRole != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	if !newRole.IsValid() {
		return nil, domain.ErrInvalidRole
	}
	if callerID == targetID && newRole != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Role = newRole
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user role updated",
		zap.String("target_id", targetID.String()),
		zap.String("new_role", string(newRole)),
		zap.String("by", callerID.String()),
	)
	return user, nil
}

func (s *UserService) SetUserActive(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, targetID uuid.UUID, active bool) (*domain.User, error) {
	if callerRole != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	if callerID == targetID && !active {
		return nil, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListVeterinarians returns active vets with their appointment load for
// the given date. An empty date means today.
func (s *UserService) ListVeterinarians(ctx context.Context, date string) ([]Veterinarian, error) {
	role := domain.RoleVeterinarian
	users, err := s.users.List(ctx, &role)
	if err != nil {
		return nil, err
	}

	if date == "" {
		date = time.Now().Format(appointment.DateLayout)
	} else if _, err := time.Parse(appointment.DateLayout, date); err != nil {
		return nil, newValidationError("date must be formatted YYYY-MM-DD")
	}
	loads, err := s.appts.CountActiveForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	vets := make([]Veterinarian, 0, len(users))
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		vets = append(vets, Veterinarian{
			ID:            u.ID,
			Username:      u.Username,
			Email:         u.Email,
			ContactNumber: u.ContactNumber,
			Load:          loads[u.ID],
		})
	}
	return vets, nil
}
