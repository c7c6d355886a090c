package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
)

// Line is one source's share of a plan.
type Line struct {
	SourceType    reservationModel.SourceKind `json:"source_type"`
	SourceID      uuid.UUID                   `json:"source_id"`
	SourceName    string                      `json:"source_name"`
	City          string                      `json:"city,omitempty"`
	Quantity      int                         `json:"quantity"`
	EstimatedDays int                         `json:"estimated_days"`
	UnitPrice     *decimal.Decimal            `json:"unit_price,omitempty"`
}

// Plan splits a requested quantity across warehouses and suppliers.
type Plan struct {
	ProductID         uuid.UUID               `json:"product_id"`
	RequestedQuantity int                     `json:"requested_quantity"`
	Lines             []Line                  `json:"lines"`
	SourceType        requestModel.SourceType `json:"source_type"`
	Explanation       string                  `json:"explanation"`
	CanFulfill        bool                    `json:"can_fulfill"`
	LocalAvailable    int                     `json:"local_available"`
	ImportAvailable   int                     `json:"import_available"`
	TotalAvailable    int                     `json:"total_available"`
	EstimatedDays     int                     `json:"estimated_days"`
	ImportCost        decimal.Decimal         `json:"import_cost"`
}

// Allocated sums the line quantities.
func (p Plan) Allocated() int {
	total := 0
	for _, l := range p.Lines {
		total += l.Quantity
	}
	return total
}

// EstimatedDelivery is now plus the slowest line.
func (p Plan) EstimatedDelivery(now time.Time) time.Time {
	return now.AddDate(0, 0, p.EstimatedDays)
}

// Options tune the planner.
type Options struct {
	SameCityDays  int
	OtherCityDays int
	// FavoredHubs are city names topped up before any other warehouse, in order.
	FavoredHubs []string
	// PreviewTTL is how long a request's plan preview is cached.
	PreviewTTL time.Duration
}

func DefaultOptions() Options {
	return Options{SameCityDays: 1, OtherCityDays: 2, PreviewTTL: 30 * time.Second}
}
