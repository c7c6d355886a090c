package model

import (
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	whModel "fulfillment-backend/internal/domains/warehouse/model"
)

// Stock is one batch of a product held in a warehouse (table stocks).
// Unique on (warehouse_id, product_id, batch_number).
type Stock struct {
	ID               uuid.UUID  `json:"id"`
	WarehouseID      uuid.UUID  `json:"warehouse_id"`
	ProductID        uuid.UUID  `json:"product_id"`
	BatchNumber      string     `json:"batch_number"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
	LocationCode     string     `json:"location_code,omitempty"`
	Quantity         int        `json:"quantity"`
	ReservedQuantity int        `json:"reserved_quantity"`
	Version          int        `json:"version"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Available never goes negative, even if reserved has drifted above quantity.
func (s Stock) Available() int {
	if a := s.Quantity - s.ReservedQuantity; a > 0 {
		return a
	}
	return 0
}

// WarehouseStock aggregates all batches of one product in one warehouse.
type WarehouseStock struct {
	Warehouse whModel.Warehouse `json:"warehouse"`
	ProductID uuid.UUID         `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Reserved  int               `json:"reserved"`
	Available int               `json:"available"`
}

// SortFEFO orders batches first-expiry-first-out. Batches without expiry go last.
func SortFEFO(rows []*Stock) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ExpiryDate, rows[j].ExpiryDate
		switch {
		case a == nil && b == nil:
			return rows[i].BatchNumber < rows[j].BatchNumber
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return rows[i].BatchNumber < rows[j].BatchNumber
	})
}

// TotalAvailable sums available over batches.
func TotalAvailable(rows []*Stock) int {
	total := 0
	for _, r := range rows {
		total += r.Available()
	}
	return total
}

// Reserve spreads qty over the batches in order. Nothing is modified when the
// batches cannot cover qty.
func Reserve(rows []*Stock, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if avail := TotalAvailable(rows); avail < qty {
		return ErrInsufficientStock.WithDetail("requested %d, available %d", qty, avail)
	}
	remaining := qty
	for _, r := range rows {
		if remaining == 0 {
			break
		}
		take := min(r.Available(), remaining)
		r.ReservedQuantity += take
		remaining -= take
	}
	return nil
}

// Release lowers reserved by qty across batches, floored at zero.
func Release(rows []*Stock, qty int) {
	remaining := qty
	for _, r := range rows {
		if remaining <= 0 {
			return
		}
		take := min(r.ReservedQuantity, remaining)
		if take < 0 {
			take = 0
		}
		r.ReservedQuantity -= take
		remaining -= take
	}
}

// Consume turns a reservation into a permanent deduction: both reserved and
// on-hand quantity drop by qty, each floored at zero.
func Consume(rows []*Stock, qty int) {
	Release(rows, qty)
	remaining := qty
	for _, r := range rows {
		if remaining <= 0 {
			return
		}
		take := min(r.Quantity, remaining)
		if take < 0 {
			take = 0
		}
		r.Quantity -= take
		remaining -= take
	}
}

// UpsertStockRequest is the warehouse intake DTO.
type UpsertStockRequest struct {
	ProductID    string     `json:"product_id"`
	BatchNumber  string     `json:"batch_number"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	LocationCode string     `json:"location_code,omitempty"`
	Quantity     int        `json:"quantity"`
}

func (r UpsertStockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.By(isUUID)),
		validation.Field(&r.BatchNumber, validation.Length(0, 100)),
		validation.Field(&r.Quantity, validation.Min(0)),
	)
}

func isUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
}
