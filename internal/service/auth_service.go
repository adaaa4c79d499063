package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/pkg/auth"
	"github.com/vetlink/vetlink/pkg/metrics"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLength = 6
	resetTokenBytes   = 32
	resetTokenTTL     = time.Hour
)

type SignupCommand struct {
	Username      string
	Email         string
	Password      string
	ContactNumber string
}

type AuthService struct {
	users      domain.UserRepository
	resetRepo  domain.ResetTokenRepository
	jwtManager *auth.JWTManager
	notify     *NotificationService
	metrics    *metrics.Collector
	log        *zap.Logger
	baseURL    string
}

func NewAuthService(
	users domain.UserRepository,
	resetRepo domain.ResetTokenRepository,
	jwtManager *auth.JWTManager,
	notify *NotificationService,
	collector *metrics.Collector,
	log *zap.Logger,
	baseURL string,
) *AuthService {
	return &AuthService{
		users:      users,
		resetRepo:  resetRepo,
		jwtManager: jwtManager,
		notify:     notify,
		metrics:    collector,
		log:        log,
		baseURL:    baseURL,
	}
}

// Signup registers a new account. Every self-registered account starts as
// a plain user; veterinarian and admin roles are granted by an admin.
func (s *AuthService) Signup(ctx context.Context, cmd SignupCommand) (*domain.User, error) {
	var missing []string
	if strings.TrimSpace(cmd.Username) == "" {
		missing = append(missing, "username is required")
	}
	if strings.TrimSpace(cmd.Email) == "" {
		missing = append(missing, "email is required")
	}
	if cmd.Password == "" {
		missing = append(missing, "password is required")
	}
	if len(missing) > 0 {
		return nil, newValidationError(missing...)
	}

	if !emailPattern.MatchString(cmd.Email) {
		return nil, domain.ErrInvalidEmail
	}
	if len(cmd.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Username:      strings.TrimSpace(cmd.Username),
		Email:         strings.ToLower(strings.TrimSpace(cmd.Email)),
		ContactNumber: strings.TrimSpace(cmd.ContactNumber),
		PasswordHash:  string(hash),
		Role:          domain.RoleUser,
		IsActive:      true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.UsersRegisteredTotal.Inc()
	s.notify.EnqueueAsync(welcomeEmail(user.Email, user.Username))
	s.log.Info("user registered", zap.String("user_id", user.ID.String()))

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password, ip string) (*domain.User, *domain.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// Burn a bcrypt round so response time does not reveal whether
		// the username exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, domain.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("username", username),
			zap.String("ip", ip),
		)
		return nil, nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Error("failed to record last login", zap.Error(err))
	}

	pair, err := s.jwtManager.GenerateTokenPair(s.claimsFor(user))
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)

	return user, pair, nil
}

// RefreshToken issues a fresh pair given a valid refresh token. The user's
// current role and active flag are re-read so revocations take effect.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(s.claimsFor(user))
}

// ForgotPassword issues a one-hour reset token. Only the SHA-256 of the
// token is stored; the raw value goes out in the email link. Any earlier
// tokens for the user are invalidated.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.resetRepo.DeleteForUser(ctx, user.ID); err != nil {
		return err
	}

	record := &domain.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.resetRepo.Create(ctx, record); err != nil {
		return err
	}

	// The reset link is the whole point of this flow; a failed send must
	// surface instead of being queued and forgotten.
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	if err := s.notify.SendNow(passwordResetEmail(user.Email, resetURL)); err != nil {
		return err
	}
	s.log.Info("password reset requested", zap.String("user_id", user.ID.String()))

	return nil
}

// VerifyResetToken reports whether a raw token is still usable and whose
// account it unlocks.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	record, err := s.resetRepo.GetByHash(ctx, hashToken(token))
	if err != nil {
		return "", err
	}
	if !record.IsUsable(time.Now()) {
		return "", domain.ErrInvalidResetToken
	}
	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	record, err := s.resetRepo.GetByHash(ctx, hashToken(token))
	if err != nil {
		return err
	}
	if !record.IsUsable(time.Now()) {
		return domain.ErrInvalidResetToken
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.resetRepo.MarkUsed(ctx, record.ID); err != nil {
		return err
	}

	s.log.Info("password reset completed", zap.String("user_id", user.ID.String()))
	return nil
}

// ChangePassword updates the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = string(hash)

	return s.users.Update(ctx, user)
}

func (s *AuthService) claimsFor(user *domain.User) *domain.Claims {
	return &domain.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
