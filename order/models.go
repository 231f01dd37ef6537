package order

import "time"

// Status represents the lifecycle of an order. Only PLACED is produced today.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusConfirmed Status = "CONFIRMED"
)

// Order mirrors the orders table. UnitPriceSnapshot is the offer price at the
// moment the order was placed and never changes afterwards.
type Order struct {
	ID                string
	BuyerID           string
	OfferID           string
	Quantity          int
	UnitPriceSnapshot float64
	Status            Status
	CreatedAt         time.Time
}
