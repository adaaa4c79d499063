package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/vetlink/internal/domain"
)

type ResetTokenRepository struct {
	db *gorm.DB
}

func NewResetTokenRepository(db *gorm.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, t *domain.PasswordResetToken) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("creating reset token: %w", err)
	}
	return nil
}

func (r *ResetTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	if err := r.db.WithContext(ctx).First(&t, "token_hash = ?", tokenHash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, fmt.Errorf("fetching reset token: %w", err)
	}
	return &t, nil
}

func (r *ResetTokenRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.PasswordResetToken{}).Error; err != nil {
		return fmt.Errorf("deleting reset tokens for user %s: %w", userID, err)
	}
	return nil
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.PasswordResetToken{}).
		Where("id = ? AND used = false", id).
		Update("used", true)
	if res.Error != nil {
		return fmt.Errorf("marking reset token used: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidResetToken
	}
	return nil
}
