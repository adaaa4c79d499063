package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Pharmacy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error)
	// List preloads inventory; it backs both the public listing and the
	// match search.
	List(ctx context.Context) ([]Pharmacy, error)
	Update(ctx context.Context, p *Pharmacy) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, item *InventoryItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	ListItems(ctx context.Context, pharmacyID uuid.UUID) ([]InventoryItem, error)
	UpdateItem(ctx context.Context, item *InventoryItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// RecordSale inserts the sale and decrements the matching item's
	// stock in one transaction.
	RecordSale(ctx context.Context, sale *MedicationSale) error
	ListSales(ctx context.Context, pharmacyID uuid.UUID) ([]MedicationSale, error)
}
