package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Investigation categories.
const (
	CategoryLab       = "lab"
	CategoryRadiology = "radiology"
)

// Service maps to the service table. Prices are in minor currency units.
type Service struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	Category  string    `db:"category" json:"category"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InvestigationType maps to the investigation_type table. Each investigation
// is backed by a billable catalog service.
type InvestigationType struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	Category  string    `db:"category" json:"category"`
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Medication maps to the medication table.
type Medication struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	UnitPrice     int64     `db:"unit_price" json:"unit_price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
