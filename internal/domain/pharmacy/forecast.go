package pharmacy

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SalesWindowDays is the lookback for the naive demand forecast: the
	// next 30 days are assumed to sell what the last 30 days did.
	SalesWindowDays = 30

	// ExpiryHorizonDays flags stock expiring soon enough to act on.
	ExpiryHorizonDays = 60

	// DefaultMaxDistanceKm bounds the pharmacy match radius.
	DefaultMaxDistanceKm = 50.0

	minimumSafetyStock = 10
)

type Recommendation struct {
	Medication     string `json:"medication"`
	Stock          int    `json:"stock"`
	ForecastNext30 int    `json:"forecast_next_30"`
	OptimalStock   int    `json:"optimal_stock"`
}

type Alert struct {
	Type        string     `json:"type"` // low_stock or expiring
	Medication  string     `json:"medication"`
	Stock       int        `json:"stock,omitempty"`
	Recommended int        `json:"recommended,omitempty"`
	DaysLeft    int        `json:"days_left,omitempty"`
	Expiry      *time.Time `json:"expiry,omitempty"`
}

type SalesOverview struct {
	TotalRevenue float64 `json:"total_revenue"`
}

type Forecast struct {
	PharmacyID      uuid.UUID        `json:"pharmacy_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Recommendations []Recommendation `json:"recommendations"`
	Alerts          []Alert          `json:"alerts"`
	SalesOverview   SalesOverview    `json:"sales_overview"`
}

// BuildForecast projects demand per inventory item from the trailing sales
// window. Forecast = units sold in the last 30 days; optimal stock adds a
// 1.5x safety margin with a floor of 10 units. Revenue covers the whole
// sales history. Pure function of its inputs.
func BuildForecast(pharmacyID uuid.UUID, items []InventoryItem, sales []MedicationSale, now time.Time) *Forecast {
	cutoff := now.AddDate(0, 0, -SalesWindowDays)

	counts := make(map[string]int)
	totalRevenue := 0.0
	for _, s := range sales {
		if !s.SoldAt.Before(cutoff) {
			counts[strings.ToLower(s.Medication)] += s.Quantity
		}
		totalRevenue += s.Price * float64(s.Quantity)
	}

	f := &Forecast{
		PharmacyID:      pharmacyID,
		GeneratedAt:     now,
		Recommendations: make([]Recommendation, 0, len(items)),
		Alerts:          []Alert{},
		SalesOverview:   SalesOverview{TotalRevenue: totalRevenue},
	}

	for _, item := range items {
		soldLast30 := counts[strings.ToLower(item.Name)]
		forecast := soldLast30

		optimal := int(math.Ceil(float64(forecast) * 1.5))
		if optimal < minimumSafetyStock {
			optimal = minimumSafetyStock
		}

		if item.Stock < int(math.Ceil(float64(forecast)*0.5)) {
			f.Alerts = append(f.Alerts, Alert{
				Type:        "low_stock",
				Medication:  item.Name,
				Stock:       item.Stock,
				Recommended: optimal,
			})
		}

		if item.ExpiryDate != nil {
			daysLeft := int(math.Ceil(item.ExpiryDate.Sub(now).Hours() / 24))
			if daysLeft <= ExpiryHorizonDays {
				f.Alerts = append(f.Alerts, Alert{
					Type:       "expiring",
					Medication: item.Name,
					DaysLeft:   daysLeft,
					Expiry:     item.ExpiryDate,
				})
			}
		}

		f.Recommendations = append(f.Recommendations, Recommendation{
			Medication:     item.Name,
			Stock:          item.Stock,
			ForecastNext30: forecast,
			OptimalStock:   optimal,
		})
	}

	return f
}

type RequestedItem struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type MatchRequest struct {
	Items         []RequestedItem
	Latitude      *float64
	Longitude     *float64
	MaxDistanceKm float64
}

type MatchedItem struct {
	Medication string  `json:"medication"`
	Qty        int     `json:"qty"`
	UnitPrice  float64 `json:"unit_price"`
	Total      float64 `json:"total"`
}

type Match struct {
	Pharmacy   Pharmacy      `json:"pharmacy"`
	DistanceKm *float64      `json:"distance_km"`
	Items      []MatchedItem `json:"items"`
	TotalPrice float64       `json:"total_price"`
}

// MatchPharmacies returns pharmacies stocking every requested item in the
// required quantity, nearest first with total price as the tiebreaker.
// Without caller coordinates distance is unknown and those results sort
// last.
func MatchPharmacies(req MatchRequest, pharmacies []Pharmacy) []Match {
	maxDist := req.MaxDistanceKm
	if maxDist <= 0 {
		maxDist = DefaultMaxDistanceKm
	}

	matches := []Match{}
	for _, ph := range pharmacies {
		items := make([]MatchedItem, 0, len(req.Items))
		total := 0.0
		hasAll := true

		for _, want := range req.Items {
			qty := want.Qty
			if qty <= 0 {
				qty = 1
			}
			item, found := findStocked(ph.Inventory, want.Name, qty)
			if !found {
				hasAll = false
				break
			}
			items = append(items, MatchedItem{
				Medication: item.Name,
				Qty:        qty,
				UnitPrice:  item.Price,
				Total:      item.Price * float64(qty),
			})
			total += item.Price * float64(qty)
		}
		if !hasAll {
			continue
		}

		var distance *float64
		if req.Latitude != nil && req.Longitude != nil {
			d := HaversineKm(*req.Latitude, *req.Longitude, ph.Latitude, ph.Longitude)
			d = math.Round(d*100) / 100
			if d > maxDist {
				continue
			}
			distance = &d
		}

		matches = append(matches, Match{
			Pharmacy:   ph,
			DistanceKm: distance,
			Items:      items,
			TotalPrice: math.Round(total*100) / 100,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := matches[i].DistanceKm, matches[j].DistanceKm
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		case *di != *dj:
			return *di < *dj
		}
		return matches[i].TotalPrice < matches[j].TotalPrice
	})
	return matches
}

func findStocked(items []InventoryItem, name string, qty int) (InventoryItem, bool) {
	for _, it := range items {
		if strings.EqualFold(it.Name, name) && it.Stock >= qty {
			return it, true
		}
	}
	return InventoryItem{}, false
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
