package offer

import "time"

// Offer is a producer's listing. Offers are never deleted, only deactivated.
type Offer struct {
	ID              string
	ProducerID      string
	ProductName     string
	ProductCategory string
	SKU             *string
	Description     *string
	Quantity        int
	UnitOfMeasure   string
	UnitPrice       float64
	Currency        string
	Location        string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Filters narrows List. Zero values mean "no constraint", except Active which
// defaults to true when nil.
type Filters struct {
	Query    string
	Category string
	Location string
	MinPrice *float64
	MaxPrice *float64
	Active   *bool
}

type CreateParams struct {
	ProductName     string
	ProductCategory string
	SKU             *string
	Description     *string
	Quantity        int
	UnitOfMeasure   string
	UnitPrice       float64
	Currency        string
	Location        string
	Active          *bool
}

// Patch holds the fields a producer asked to change. Nil fields are left alone.
type Patch struct {
	ProductName     *string
	ProductCategory *string
	SKU             *string
	Description     *string
	Quantity        *int
	UnitOfMeasure   *string
	UnitPrice       *float64
	Currency        *string
	Location        *string
	Active          *bool
}
