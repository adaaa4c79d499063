package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/vetlink/internal/domain/pet"
)

type PetRepository struct {
	db *gorm.DB
}

func NewPetRepository(db *gorm.DB) *PetRepository {
	return &PetRepository{db: db}
}

func (r *PetRepository) Create(ctx context.Context, p *pet.Pet) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("creating pet: %w", err)
	}
	return nil
}

func (r *PetRepository) GetByID(ctx context.Context, id uuid.UUID) (*pet.Pet, error) {
	var p pet.Pet
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pet.ErrNotFound
		}
		return nil, fmt.Errorf("fetching pet %s: %w", id, err)
	}
	return &p, nil
}

func (r *PetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, typeFilter string) ([]pet.Pet, error) {
	q := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")
	if typeFilter != "" {
		q = q.Where("type = ?", typeFilter)
	}

	var pets []pet.Pet
	if err := q.Find(&pets).Error; err != nil {
		return nil, fmt.Errorf("listing pets for owner %s: %w", ownerID, err)
	}
	return pets, nil
}

func (r *PetRepository) ListAll(ctx context.Context, typeFilter string) ([]pet.WithOwner, error) {
	q := r.db.WithContext(ctx).
		Table("pets").
		Select("pets.*, users.username AS owner_username, users.email AS owner_email").
		Joins("LEFT JOIN users ON users.id = pets.owner_id").
		Order("pets.created_at DESC")
	if typeFilter != "" {
		q = q.Where("pets.type = ?", typeFilter)
	}

	var pets []pet.WithOwner
	if err := q.Find(&pets).Error; err != nil {
		return nil, fmt.Errorf("listing pets: %w", err)
	}
	return pets, nil
}

func (r *PetRepository) Update(ctx context.Context, p *pet.Pet) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("updating pet %s: %w", p.ID, err)
	}
	return nil
}

func (r *PetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&pet.Pet{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting pet %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return pet.ErrNotFound
	}
	return nil
}

func (r *PetRepository) CreateSkinScan(ctx context.Context, scan *pet.SkinScan) error {
	if err := r.db.WithContext(ctx).Create(scan).Error; err != nil {
		return fmt.Errorf("creating skin scan: %w", err)
	}
	return nil
}

func (r *PetRepository) ListSkinScans(ctx context.Context, petID uuid.UUID) ([]pet.SkinScan, error) {
	var scans []pet.SkinScan
	err := r.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("created_at DESC").
		Find(&scans).Error
	if err != nil {
		return nil, fmt.Errorf("listing skin scans for pet %s: %w", petID, err)
	}
	return scans, nil
}

type GaitAnalysisRepository struct {
	db *gorm.DB
}

func NewGaitAnalysisRepository(db *gorm.DB) *GaitAnalysisRepository {
	return &GaitAnalysisRepository{db: db}
}

func (r *GaitAnalysisRepository) Create(ctx context.Context, g *pet.GaitAnalysis) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("creating gait analysis: %w", err)
	}
	return nil
}

func (r *GaitAnalysisRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]pet.GaitAnalysis, error) {
	var analyses []pet.GaitAnalysis
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&analyses).Error
	if err != nil {
		return nil, fmt.Errorf("listing gait analyses for user %s: %w", userID, err)
	}
	return analyses, nil
}
