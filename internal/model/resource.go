package model

import "time"

// ResourceStatus is the stock status of a resource.
type ResourceStatus string

// Resource statuses. Maintenance is set by staff; the others are derived from
// quantity and minimum quantity.
const (
	StatusAvailable   ResourceStatus = "available"
	StatusLowStock    ResourceStatus = "low_stock"
	StatusOutOfStock  ResourceStatus = "out_of_stock"
	StatusMaintenance ResourceStatus = "maintenance"
)

// DefaultMinQuantity is the low-stock threshold used when none is given.
const DefaultMinQuantity = 5

// Resource is a quantity-tracked inventory entry (projector, laptop, chalk, ...).
type Resource struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	CategoryID    *int64         `json:"category_id,omitempty"`
	Location      string         `json:"location,omitempty"`
	Barcode       string         `json:"barcode,omitempty"`
	UnitCostCents int64          `json:"unit_cost_cents"`
	Quantity      int            `json:"quantity"`
	MinQuantity   int            `json:"min_quantity"`
	Status        ResourceStatus `json:"status"`
	Version       int64          `json:"version"`
	ImageMime     string         `json:"image_mime,omitempty"`
	CreatedBy     *int64         `json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	CategoryName string `json:"category_name,omitempty"`
}

// ValidResourceStatus reports whether s is a known resource status.
func ValidResourceStatus(s ResourceStatus) bool {
	switch s {
	case StatusAvailable, StatusLowStock, StatusOutOfStock, StatusMaintenance:
		return true
	}
	return false
}

// Category groups resources.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
