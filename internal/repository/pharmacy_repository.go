package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetlink/vetlink/internal/domain/pharmacy"
)

type PharmacyRepository struct {
	db *gorm.DB
}

func NewPharmacyRepository(db *gorm.DB) *PharmacyRepository {
	return &PharmacyRepository{db: db}
}

func (r *PharmacyRepository) Create(ctx context.Context, p *pharmacy.Pharmacy) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pharmacy.ErrNameTaken
		}
		return fmt.Errorf("creating pharmacy: %w", err)
	}
	return nil
}

func (r *PharmacyRepository) GetByID(ctx context.Context, id uuid.UUID) (*pharmacy.Pharmacy, error) {
	var p pharmacy.Pharmacy
	err := r.db.WithContext(ctx).Preload("Inventory").First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pharmacy.ErrNotFound
		}
		return nil, fmt.Errorf("fetching pharmacy %s: %w", id, err)
	}
	return &p, nil
}

func (r *PharmacyRepository) List(ctx context.Context) ([]pharmacy.Pharmacy, error) {
	var pharmacies []pharmacy.Pharmacy
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Order("created_at DESC").
		Find(&pharmacies).Error
	if err != nil {
		return nil, fmt.Errorf("listing pharmacies: %w", err)
	}
	return pharmacies, nil
}

func (r *PharmacyRepository) Update(ctx context.Context, p *pharmacy.Pharmacy) error {
	if err := r.db.WithContext(ctx).Omit("Inventory").Save(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pharmacy.ErrNameTaken
		}
		return fmt.Errorf("updating pharmacy %s: %w", p.ID, err)
	}
	return nil
}

func (r *PharmacyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&pharmacy.Pharmacy{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting pharmacy %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return pharmacy.ErrNotFound
	}
	return nil
}

func (r *PharmacyRepository) CreateItem(ctx context.Context, item *pharmacy.InventoryItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("creating inventory item: %w", err)
	}
	return nil
}

func (r *PharmacyRepository) GetItem(ctx context.Context, id uuid.UUID) (*pharmacy.InventoryItem, error) {
	var item pharmacy.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pharmacy.ErrItemNotFound
		}
		return nil, fmt.Errorf("fetching inventory item %s: %w", id, err)
	}
	return &item, nil
}

func (r *PharmacyRepository) ListItems(ctx context.Context, pharmacyID uuid.UUID) ([]pharmacy.InventoryItem, error) {
	var items []pharmacy.InventoryItem
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing inventory for pharmacy %s: %w", pharmacyID, err)
	}
	return items, nil
}

func (r *PharmacyRepository) UpdateItem(ctx context.Context, item *pharmacy.InventoryItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("updating inventory item %s: %w", item.ID, err)
	}
	return nil
}

func (r *PharmacyRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&pharmacy.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting inventory item %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return pharmacy.ErrItemNotFound
	}
	return nil
}

// RecordSale decrements stock and inserts the sale row atomically. The
// conditional UPDATE doubles as the out-of-stock guard under concurrency.
func (r *PharmacyRepository) RecordSale(ctx context.Context, sale *pharmacy.MedicationSale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&pharmacy.InventoryItem{}).
			Where("pharmacy_id = ? AND LOWER(name) = LOWER(?) AND stock >= ?",
				sale.PharmacyID, sale.Medication, sale.Quantity).
			Update("stock", gorm.Expr("stock - ?", sale.Quantity))
		if res.Error != nil {
			return fmt.Errorf("decrementing stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return pharmacy.ErrInsufficientStock
		}

		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("recording sale: %w", err)
		}
		return nil
	})
}

func (r *PharmacyRepository) ListSales(ctx context.Context, pharmacyID uuid.UUID) ([]pharmacy.MedicationSale, error) {
	var sales []pharmacy.MedicationSale
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("sold_at DESC").
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("listing sales for pharmacy %s: %w", pharmacyID, err)
	}
	return sales, nil
}
