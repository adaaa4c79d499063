package pet

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, typeFilter string) ([]Pet, error)
	// ListAll joins owner identity for the vet/admin view.
	ListAll(ctx context.Context, typeFilter string) ([]WithOwner, error)
	Update(ctx context.Context, p *Pet) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSkinScan(ctx context.Context, scan *SkinScan) error
	ListSkinScans(ctx context.Context, petID uuid.UUID) ([]SkinScan, error)
}

type GaitAnalysisRepository interface {
	Create(ctx context.Context, g *GaitAnalysis) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]GaitAnalysis, error)
}
