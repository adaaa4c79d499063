package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/pharmacy"
)

type PharmacyService struct {
	repo pharmacy.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewPharmacyService(repo pharmacy.Repository, log *zap.Logger) *PharmacyService {
	return &PharmacyService{repo: repo, log: log, now: time.Now}
}

func (s *PharmacyService) List(ctx context.Context) ([]pharmacy.Pharmacy, error) {
	return s.repo.List(ctx)
}

func (s *PharmacyService) Get(ctx context.Context, id uuid.UUID) (*pharmacy.Pharmacy, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PharmacyService) Create(ctx context.Context, cmd *pharmacy.CreateCommand) (*pharmacy.Pharmacy, error) {
	var fields []string
	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	if cmd.Latitude == 0 && cmd.Longitude == 0 {
		fields = append(fields, "lat and lng are required")
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields...)
	}
	if cmd.Latitude < -90 || cmd.Latitude > 90 || cmd.Longitude < -180 || cmd.Longitude > 180 {
		return nil, pharmacy.ErrInvalidLocation
	}

	p := &pharmacy.Pharmacy{
		OwnerID:           cmd.OwnerID,
		Name:              strings.TrimSpace(cmd.Name),
		Address:           cmd.Address,
		Latitude:          cmd.Latitude,
		Longitude:         cmd.Longitude,
		ContactPhone:      cmd.ContactPhone,
		ContactEmail:      cmd.ContactEmail,
		PickupAvailable:   true,
		DeliveryAvailable: false,
		DeliveryFee:       cmd.DeliveryFee,
	}
	if cmd.PickupAvailable != nil {
		p.PickupAvailable = *cmd.PickupAvailable
	}
	if cmd.DeliveryAvailable != nil {
		p.DeliveryAvailable = *cmd.DeliveryAvailable
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("pharmacy registered",
		zap.String("pharmacy_id", p.ID.String()), zap.String("name", p.Name))
	return p, nil
}

func (s *PharmacyService) ListInventory(ctx context.Context, pharmacyID uuid.UUID) ([]pharmacy.InventoryItem, error) {
	if _, err := s.repo.GetByID(ctx, pharmacyID); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, pharmacyID)
}

func (s *PharmacyService) AddItem(ctx context.Context, pharmacyID uuid.UUID, caller *domain.Claims, cmd *pharmacy.ItemCommand) (*pharmacy.InventoryItem, error) {
	p, err := s.repo.GetByID(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(p, caller); err != nil {
		return nil, err
	}

	var fields []string
	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	if strings.TrimSpace(cmd.Form) == "" {
		fields = append(fields, "form is required")
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields...)
	}

	item := &pharmacy.InventoryItem{
		PharmacyID: pharmacyID,
		Name:       strings.TrimSpace(cmd.Name),
		Form:       strings.TrimSpace(cmd.Form),
		Strength:   cmd.Strength,
		Stock:      cmd.Stock,
		Price:      cmd.Price,
		ExpiryDate: cmd.ExpiryDate,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PharmacyService) UpdateItem(ctx context.Context, pharmacyID, itemID uuid.UUID, caller *domain.Claims, cmd *pharmacy.ItemUpdateCommand) (*pharmacy.InventoryItem, error) {
	p, err := s.repo.GetByID(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(p, caller); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.PharmacyID != pharmacyID {
		return nil, pharmacy.ErrItemNotFound
	}

	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) != "" {
		item.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Form != nil {
		item.Form = *cmd.Form
	}
	if cmd.Strength != nil {
		item.Strength = *cmd.Strength
	}
	if cmd.Stock != nil {
		item.Stock = *cmd.Stock
	}
	if cmd.Price != nil {
		item.Price = *cmd.Price
	}
	if cmd.ExpiryDate != nil {
		item.ExpiryDate = cmd.ExpiryDate
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PharmacyService) DeleteItem(ctx context.Context, pharmacyID, itemID uuid.UUID, caller *domain.Claims) error {
	p, err := s.repo.GetByID(ctx, pharmacyID)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(p, caller); err != nil {
		return err
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.PharmacyID != pharmacyID {
		return pharmacy.ErrItemNotFound
	}
	return s.repo.DeleteItem(ctx, itemID)
}

// RecordSale books a dispensing event and decrements stock atomically.
func (s *PharmacyService) RecordSale(ctx context.Context, pharmacyID uuid.UUID, caller *domain.Claims, cmd *pharmacy.SaleCommand) (*pharmacy.MedicationSale, error) {
	p, err := s.repo.GetByID(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(p, caller); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cmd.Medication) == "" {
		return nil, newValidationError("medication is required")
	}
	if cmd.Quantity <= 0 {
		return nil, pharmacy.ErrInvalidQuantity
	}

	soldAt := cmd.SoldAt
	if soldAt.IsZero() {
		soldAt = s.now()
	}
	sale := &pharmacy.MedicationSale{
		PharmacyID: pharmacyID,
		Medication: strings.TrimSpace(cmd.Medication),
		Quantity:   cmd.Quantity,
		Price:      cmd.Price,
		SoldAt:     soldAt,
	}
	if err := s.repo.RecordSale(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// Forecast builds the demand and stock report for one pharmacy from its
// inventory and recent sales.
func (s *PharmacyService) Forecast(ctx context.Context, pharmacyID uuid.UUID) (*pharmacy.Forecast, error) {
	if _, err := s.repo.GetByID(ctx, pharmacyID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	sales, err := s.repo.ListSales(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	return pharmacy.BuildForecast(pharmacyID, items, sales, s.now()), nil
}

// Match finds pharmacies able to fill a full medication list, nearest and
// cheapest first.
func (s *PharmacyService) Match(ctx context.Context, req pharmacy.MatchRequest) ([]pharmacy.Match, error) {
	if len(req.Items) == 0 {
		return nil, newValidationError("items are required")
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, newValidationError("every item needs a name")
		}
	}

	pharmacies, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return pharmacy.MatchPharmacies(req, pharmacies), nil
}

func (s *PharmacyService) authorizeOwner(p *pharmacy.Pharmacy, caller *domain.Claims) error {
	if caller.Role == domain.RoleSuperAdmin {
		return nil
	}
	if p.OwnerID == caller.UserID {
		return nil
	}
	return pharmacy.ErrNotOwner
}
