package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink/internal/domain/pharmacy"
	"github.com/vetlink/vetlink/internal/service"
)

type PharmacyHandler struct {
	pharmacies *service.PharmacyService
}

func NewPharmacyHandler(pharmacies *service.PharmacyService) *PharmacyHandler {
	return &PharmacyHandler{pharmacies: pharmacies}
}

func (h *PharmacyHandler) List(c *gin.Context) {
	pharmacies, err := h.pharmacies.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pharmacies)
}

func (h *PharmacyHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.pharmacies.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

type createPharmacyRequest struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lng"`
	ContactPhone string  `json:"contact_phone"`
	ContactEmail string  `json:"contact_email"`
	Delivery     *struct {
		Pickup   *bool   `json:"pickup"`
		Delivery *bool   `json:"delivery"`
		Fee      float64 `json:"fee"`
	} `json:"delivery"`
}

func (h *PharmacyHandler) Create(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}

	var req createPharmacyRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &pharmacy.CreateCommand{
		OwnerID:      claims.UserID,
		Name:         req.Name,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	}
	if req.Delivery != nil {
		cmd.PickupAvailable = req.Delivery.Pickup
		cmd.DeliveryAvailable = req.Delivery.Delivery
		cmd.DeliveryFee = req.Delivery.Fee
	}

	p, err := h.pharmacies.Create(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PharmacyHandler) ListInventory(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	items, err := h.pharmacies.ListInventory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, items)
}

type itemRequest struct {
	Name       *string  `json:"name"`
	Form       *string  `json:"form"`
	Strength   *string  `json:"strength"`
	Stock      *int     `json:"stock"`
	Price      *float64 `json:"price"`
	ExpiryDate *string  `json:"expiry_date"`
}

func (r *itemRequest) expiry(c *gin.Context) (*time.Time, bool) {
	if r.ExpiryDate == nil || *r.ExpiryDate == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *r.ExpiryDate)
	if err != nil {
		respondError(c, 400, "expiry_date must be formatted YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

func (h *PharmacyHandler) AddItem(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}
	expiry, ok := req.expiry(c)
	if !ok {
		return
	}

	cmd := &pharmacy.ItemCommand{ExpiryDate: expiry}
	if req.Name != nil {
		cmd.Name = *req.Name
	}
	if req.Form != nil {
		cmd.Form = *req.Form
	}
	if req.Strength != nil {
		cmd.Strength = *req.Strength
	}
	if req.Stock != nil {
		cmd.Stock = *req.Stock
	}
	if req.Price != nil {
		cmd.Price = *req.Price
	}

	item, err := h.pharmacies.AddItem(c.Request.Context(), id, claims, cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, item)
}

func (h *PharmacyHandler) UpdateItem(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUUID(c, "itemId")
	if !ok {
		return
	}

	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}
	expiry, ok := req.expiry(c)
	if !ok {
		return
	}

	item, err := h.pharmacies.UpdateItem(c.Request.Context(), id, itemID, claims, &pharmacy.ItemUpdateCommand{
		Name:       req.Name,
		Form:       req.Form,
		Strength:   req.Strength,
		Stock:      req.Stock,
		Price:      req.Price,
		ExpiryDate: expiry,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, item)
}

func (h *PharmacyHandler) DeleteItem(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUUID(c, "itemId")
	if !ok {
		return
	}

	if err := h.pharmacies.DeleteItem(c.Request.Context(), id, itemID, claims); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "inventory item removed")
}

type saleRequest struct {
	Medication string  `json:"medication"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	SoldAt     *string `json:"sold_at"`
}

func (h *PharmacyHandler) RecordSale(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req saleRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &pharmacy.SaleCommand{
		Medication: req.Medication,
		Quantity:   req.Quantity,
		Price:      req.Price,
	}
	if req.SoldAt != nil && *req.SoldAt != "" {
		t, err := time.Parse(time.RFC3339, *req.SoldAt)
		if err != nil {
			respondError(c, 400, "sold_at must be an RFC 3339 timestamp")
			return
		}
		cmd.SoldAt = t
	}

	sale, err := h.pharmacies.RecordSale(c.Request.Context(), id, claims, cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, sale)
}

func (h *PharmacyHandler) Forecast(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	forecast, err := h.pharmacies.Forecast(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, forecast)
}

type matchRequest struct {
	Items []struct {
		Name string `json:"name"`
		Qty  int    `json:"qty"`
	} `json:"items"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	MaxDistanceKm float64  `json:"maxDistanceKm"`
}

func (h *PharmacyHandler) Match(c *gin.Context) {
	var req matchRequest
	if !bindJSON(c, &req) {
		return
	}

	domainReq := pharmacy.MatchRequest{
		Latitude:      req.Lat,
		Longitude:     req.Lng,
		MaxDistanceKm: req.MaxDistanceKm,
	}
	for _, item := range req.Items {
		domainReq.Items = append(domainReq.Items, pharmacy.RequestedItem{Name: item.Name, Qty: item.Qty})
	}

	matches, err := h.pharmacies.Match(c.Request.Context(), domainReq)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, matches)
}
