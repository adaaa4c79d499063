package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

type Pharmacy struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	OwnerID uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`

	Name    string `gorm:"column:name;type:varchar(150);uniqueIndex;not null" json:"name"`
	Address string `gorm:"column:address;type:text" json:"address,omitempty"`

	Latitude  float64 `gorm:"column:latitude;not null" json:"latitude"`
	Longitude float64 `gorm:"column:longitude;not null" json:"longitude"`

	ContactPhone string `gorm:"column:contact_phone;type:varchar(30)" json:"contact_phone,omitempty"`
	ContactEmail string `gorm:"column:contact_email;type:varchar(255)" json:"contact_email,omitempty"`

	PickupAvailable   bool    `gorm:"column:pickup_available;default:true" json:"pickup_available"`
	DeliveryAvailable bool    `gorm:"column:delivery_available;default:false" json:"delivery_available"`
	DeliveryFee       float64 `gorm:"column:delivery_fee;default:0" json:"delivery_fee"`

	Inventory []InventoryItem `gorm:"foreignKey:PharmacyID" json:"inventory,omitempty"`
}

func (Pharmacy) TableName() string {
	return "pharmacies"
}

type InventoryItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	PharmacyID uuid.UUID `gorm:"column:pharmacy_id;type:uuid;not null;index" json:"pharmacy_id"`

	Name       string     `gorm:"column:name;type:varchar(150);not null;index" json:"name"`
	Form       string     `gorm:"column:form;type:varchar(50)" json:"form,omitempty"`
	Strength   string     `gorm:"column:strength;type:varchar(50)" json:"strength,omitempty"`
	Stock      int        `gorm:"column:stock;not null;default:0" json:"stock"`
	Price      float64    `gorm:"column:price;not null;default:0" json:"price"`
	ExpiryDate *time.Time `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// MedicationSale is one line of sales history, keyed by medication name so
// the forecast matches sales to inventory even after items are replaced.
type MedicationSale struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	PharmacyID uuid.UUID `gorm:"column:pharmacy_id;type:uuid;not null;index" json:"pharmacy_id"`

	Medication string    `gorm:"column:medication;type:varchar(150);not null;index" json:"medication"`
	Quantity   int       `gorm:"column:quantity;not null" json:"quantity"`
	Price      float64   `gorm:"column:price;not null" json:"price"`
	SoldAt     time.Time `gorm:"column:sold_at;not null;index" json:"sold_at"`
}

func (MedicationSale) TableName() string {
	return "medication_sales"
}

type CreateCommand struct {
	OwnerID           uuid.UUID
	Name              string
	Address           string
	Latitude          float64
	Longitude         float64
	ContactPhone      string
	ContactEmail      string
	PickupAvailable   *bool
	DeliveryAvailable *bool
	DeliveryFee       float64
}

type ItemCommand struct {
	Name       string
	Form       string
	Strength   string
	Stock      int
	Price      float64
	ExpiryDate *time.Time
}

// ItemUpdateCommand is sparse; nil fields stay untouched.
type ItemUpdateCommand struct {
	Name       *string
	Form       *string
	Strength   *string
	Stock      *int
	Price      *float64
	ExpiryDate *time.Time
}

type SaleCommand struct {
	Medication string
	Quantity   int
	Price      float64
	SoldAt     time.Time
}
