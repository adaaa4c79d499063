package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/domain/pharmacy"
)

type fakePharmacyRepo struct {
	mu         sync.Mutex
	pharmacies map[uuid.UUID]*pharmacy.Pharmacy
	items      map[uuid.UUID]*pharmacy.InventoryItem
	sales      []pharmacy.MedicationSale
}

func newFakePharmacyRepo() *fakePharmacyRepo {
	return &fakePharmacyRepo{
		pharmacies: make(map[uuid.UUID]*pharmacy.Pharmacy),
		items:      make(map[uuid.UUID]*pharmacy.InventoryItem),
	}
}

func (r *fakePharmacyRepo) Create(_ context.Context, p *pharmacy.Pharmacy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.pharmacies {
		if existing.Name == p.Name {
			return pharmacy.ErrNameTaken
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.pharmacies[p.ID] = &cp
	return nil
}

func (r *fakePharmacyRepo) GetByID(_ context.Context, id uuid.UUID) (*pharmacy.Pharmacy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pharmacies[id]
	if !ok {
		return nil, pharmacy.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePharmacyRepo) List(_ context.Context) ([]pharmacy.Pharmacy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pharmacy.Pharmacy
	for _, p := range r.pharmacies {
		cp := *p
		for _, it := range r.items {
			if it.PharmacyID == p.ID {
				cp.Inventory = append(cp.Inventory, *it)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *fakePharmacyRepo) Update(_ context.Context, p *pharmacy.Pharmacy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pharmacies[p.ID]; !ok {
		return pharmacy.ErrNotFound
	}
	cp := *p
	r.pharmacies[p.ID] = &cp
	return nil
}

func (r *fakePharmacyRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pharmacies[id]; !ok {
		return pharmacy.ErrNotFound
	}
	delete(r.pharmacies, id)
	return nil
}

func (r *fakePharmacyRepo) CreateItem(_ context.Context, item *pharmacy.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakePharmacyRepo) GetItem(_ context.Context, id uuid.UUID) (*pharmacy.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pharmacy.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakePharmacyRepo) ListItems(_ context.Context, pharmacyID uuid.UUID) ([]pharmacy.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pharmacy.InventoryItem
	for _, it := range r.items {
		if it.PharmacyID == pharmacyID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakePharmacyRepo) UpdateItem(_ context.Context, item *pharmacy.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return pharmacy.ErrItemNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakePharmacyRepo) DeleteItem(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pharmacy.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakePharmacyRepo) RecordSale(_ context.Context, sale *pharmacy.MedicationSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.PharmacyID == sale.PharmacyID && strings.EqualFold(it.Name, sale.Medication) {
			if it.Stock < sale.Quantity {
				return pharmacy.ErrInsufficientStock
			}
			it.Stock -= sale.Quantity
			if sale.ID == uuid.Nil {
				sale.ID = uuid.New()
			}
			r.sales = append(r.sales, *sale)
			return nil
		}
	}
	return pharmacy.ErrItemNotFound
}

func (r *fakePharmacyRepo) ListSales(_ context.Context, pharmacyID uuid.UUID) ([]pharmacy.MedicationSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pharmacy.MedicationSale
	for _, s := range r.sales {
		if s.PharmacyID == pharmacyID {
			out = append(out, s)
		}
	}
	return out, nil
}

type pharmacyFixture struct {
	svc      *PharmacyService
	repo     *fakePharmacyRepo
	owner    *domain.Claims
	admin    *domain.Claims
	stranger *domain.Claims
}

func newPharmacyFixture(t *testing.T) *pharmacyFixture {
	t.Helper()
	repo := newFakePharmacyRepo()
	return &pharmacyFixture{
		svc:      NewPharmacyService(repo, zap.NewNop()),
		repo:     repo,
		owner:    &domain.Claims{UserID: uuid.New(), Username: "pharmacist", Role: domain.RoleUser},
		admin:    &domain.Claims{UserID: uuid.New(), Username: "root", Role: domain.RoleSuperAdmin},
		stranger: &domain.Claims{UserID: uuid.New(), Username: "other", Role: domain.RoleUser},
	}
}

func (f *pharmacyFixture) create(t *testing.T) *pharmacy.Pharmacy {
	t.Helper()
	p, err := f.svc.Create(context.Background(), &pharmacy.CreateCommand{
		OwnerID:   f.owner.UserID,
		Name:      "Central Vet Pharmacy",
		Latitude:  40.0,
		Longitude: -74.0,
	})
	require.NoError(t, err)
	return p
}

func (f *pharmacyFixture) addItem(t *testing.T, pharmacyID uuid.UUID, name string, stock int, price float64) *pharmacy.InventoryItem {
	t.Helper()
	item, err := f.svc.AddItem(context.Background(), pharmacyID, f.owner, &pharmacy.ItemCommand{
		Name: name, Form: "tablet", Stock: stock, Price: price,
	})
	require.NoError(t, err)
	return item
}

func TestPharmacyCreate(t *testing.T) {
	f := newPharmacyFixture(t)

	p := f.create(t)
	assert.True(t, p.PickupAvailable, "pickup defaults on")
	assert.False(t, p.DeliveryAvailable, "delivery defaults off")

	_, err := f.svc.Create(context.Background(), &pharmacy.CreateCommand{
		OwnerID: f.owner.UserID, Name: "Central Vet Pharmacy", Latitude: 41, Longitude: -75,
	})
	assert.ErrorIs(t, err, pharmacy.ErrNameTaken)
}

func TestPharmacyCreateValidation(t *testing.T) {
	f := newPharmacyFixture(t)
	ctx := context.Background()

	var verr *ValidationError
	_, err := f.svc.Create(ctx, &pharmacy.CreateCommand{OwnerID: f.owner.UserID})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)

	_, err = f.svc.Create(ctx, &pharmacy.CreateCommand{
		OwnerID: f.owner.UserID, Name: "North Pole Pharmacy", Latitude: 95, Longitude: 10,
	})
	assert.ErrorIs(t, err, pharmacy.ErrInvalidLocation)
}

func TestPharmacyCreateDeliveryOverrides(t *testing.T) {
	f := newPharmacyFixture(t)
	pickup, delivery := false, true

	p, err := f.svc.Create(context.Background(), &pharmacy.CreateCommand{
		OwnerID:           f.owner.UserID,
		Name:              "Delivery Only Pharmacy",
		Latitude:          40,
		Longitude:         -74,
		PickupAvailable:   &pickup,
		DeliveryAvailable: &delivery,
		DeliveryFee:       4.99,
	})
	require.NoError(t, err)
	assert.False(t, p.PickupAvailable)
	assert.True(t, p.DeliveryAvailable)
	assert.Equal(t, 4.99, p.DeliveryFee)
}

func TestInventoryOwnership(t *testing.T) {
	f := newPharmacyFixture(t)
	p := f.create(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, p.ID, f.stranger, &pharmacy.ItemCommand{Name: "Carprofen", Form: "tablet"})
	assert.ErrorIs(t, err, pharmacy.ErrNotOwner)

	_, err = f.svc.AddItem(ctx, p.ID, f.admin, &pharmacy.ItemCommand{Name: "Carprofen", Form: "tablet"})
	assert.NoError(t, err, "admins manage any pharmacy")

	var verr *ValidationError
	_, err = f.svc.AddItem(ctx, p.ID, f.owner, &pharmacy.ItemCommand{})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestUpdateItemChecksPharmacyBinding(t *testing.T) {
	f := newPharmacyFixture(t)
	p := f.create(t)
	item := f.addItem(t, p.ID, "Carprofen", 10, 4.5)
	ctx := context.Background()

	other, err := f.svc.Create(ctx, &pharmacy.CreateCommand{
		OwnerID: f.owner.UserID, Name: "Second Pharmacy", Latitude: 41, Longitude: -74,
	})
	require.NoError(t, err)

	stock := 99
	_, err = f.svc.UpdateItem(ctx, other.ID, item.ID, f.owner, &pharmacy.ItemUpdateCommand{Stock: &stock})
	assert.ErrorIs(t, err, pharmacy.ErrItemNotFound, "an item cannot be edited through another pharmacy")

	updated, err := f.svc.UpdateItem(ctx, p.ID, item.ID, f.owner, &pharmacy.ItemUpdateCommand{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 99, updated.Stock)
}

func TestDeleteItem(t *testing.T) {
	f := newPharmacyFixture(t)
	p := f.create(t)
	item := f.addItem(t, p.ID, "Carprofen", 10, 4.5)
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteItem(ctx, p.ID, item.ID, f.owner))
	err := f.svc.DeleteItem(ctx, p.ID, item.ID, f.owner)
	assert.ErrorIs(t, err, pharmacy.ErrItemNotFound)
}

func TestRecordSale(t *testing.T) {
	f := newPharmacyFixture(t)
	p := f.create(t)
	item := f.addItem(t, p.ID, "Carprofen", 10, 4.5)
	ctx := context.Background()

	sale, err := f.svc.RecordSale(ctx, p.ID, f.owner, &pharmacy.SaleCommand{
		Medication: "carprofen", Quantity: 3, Price: 4.5,
	})
	require.NoError(t, err)
	assert.False(t, sale.SoldAt.IsZero(), "sale time defaults to now")

	stored, err := f.repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Stock, "stock decremented by the sale")

	_, err = f.svc.RecordSale(ctx, p.ID, f.owner, &pharmacy.SaleCommand{
		Medication: "Carprofen", Quantity: 50, Price: 4.5,
	})
	assert.ErrorIs(t, err, pharmacy.ErrInsufficientStock)

	_, err = f.svc.RecordSale(ctx, p.ID, f.owner, &pharmacy.SaleCommand{
		Medication: "Carprofen", Quantity: 0, Price: 4.5,
	})
	assert.ErrorIs(t, err, pharmacy.ErrInvalidQuantity)

	_, err = f.svc.RecordSale(ctx, p.ID, f.stranger, &pharmacy.SaleCommand{
		Medication: "Carprofen", Quantity: 1, Price: 4.5,
	})
	assert.ErrorIs(t, err, pharmacy.ErrNotOwner)
}

func TestForecastEndToEnd(t *testing.T) {
	f := newPharmacyFixture(t)
	p := f.create(t)
	f.addItem(t, p.ID, "Carprofen", 10, 4.5)
	ctx := context.Background()

	_, err := f.svc.RecordSale(ctx, p.ID, f.owner, &pharmacy.SaleCommand{
		Medication: "Carprofen", Quantity: 8, Price: 4.5,
	})
	require.NoError(t, err)

	forecast, err := f.svc.Forecast(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, forecast.Recommendations, 1)
	assert.Equal(t, 8, forecast.Recommendations[0].ForecastNext30)
	assert.Equal(t, 12, forecast.Recommendations[0].OptimalStock)
	assert.InDelta(t, 36.0, forecast.SalesOverview.TotalRevenue, 1e-9)

	_, err = f.svc.Forecast(ctx, uuid.New())
	assert.ErrorIs(t, err, pharmacy.ErrNotFound)
}

func TestMatchValidation(t *testing.T) {
	f := newPharmacyFixture(t)
	ctx := context.Background()

	var verr *ValidationError
	_, err := f.svc.Match(ctx, pharmacy.MatchRequest{})
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.Match(ctx, pharmacy.MatchRequest{Items: []pharmacy.RequestedItem{{Name: "  "}}})
	assert.ErrorAs(t, err, &verr)
}

func TestMatchEndToEnd(t *testing.T) {
	f := newPharmacyFixture(t)
	p := f.create(t)
	f.addItem(t, p.ID, "Carprofen", 10, 4.5)

	matches, err := f.svc.Match(context.Background(), pharmacy.MatchRequest{
		Items: []pharmacy.RequestedItem{{Name: "carprofen", Qty: 2}},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, p.ID, matches[0].Pharmacy.ID)
	assert.InDelta(t, 9.0, matches[0].TotalPrice, 1e-9)
}
