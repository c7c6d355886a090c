package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"fulfillment-backend/internal/shared/apperror"
)

// Warehouse is a local fulfillment source (table warehouses).
type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SameCity compares cities case-insensitively, ignoring surrounding spaces.
func (w Warehouse) SameCity(city string) bool {
	a := strings.TrimSpace(w.City)
	b := strings.TrimSpace(city)
	return a != "" && strings.EqualFold(a, b)
}

type CreateWarehouseRequest struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	City    string `json:"city"`
	Address string `json:"address"`
}

func (r CreateWarehouseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Code, validation.Required, validation.Length(2, 30)),
		validation.Field(&r.City, validation.Required, validation.Length(2, 100)),
	)
}

type ListWarehouseFilter struct {
	City     string
	IsActive *bool
	Offset   int
	Limit    int
}

var (
	ErrWarehouseNotFound = apperror.NotFound("WAREHOUSE_NOT_FOUND", "warehouse not found")
	ErrWarehouseInactive = apperror.WrongState("WAREHOUSE_INACTIVE", "warehouse is not active")
	ErrInvalidWarehouse  = apperror.Validation("INVALID_WAREHOUSE", "invalid warehouse")
)
