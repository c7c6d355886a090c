package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/stock/model"
)

// Repository is the data access contract for the stocks table.
type Repository interface {
	// ListAvailableByProduct aggregates batches per active warehouse and returns
	// only warehouses with available > 0.
	ListAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]model.WarehouseStock, error)

	// LockForProduct takes row locks (FOR UPDATE) on every batch of productID in
	// warehouseID, returned in FEFO order. Empty slice when none exist.
	LockForProduct(ctx context.Context, warehouseID, productID uuid.UUID) ([]*model.Stock, error)

	// Save persists quantity and reserved_quantity, bumping version.
	Save(ctx context.Context, s *model.Stock) error

	// Upsert creates or replaces a batch by (warehouse, product, batch).
	Upsert(ctx context.Context, s *model.Stock) error

	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]model.Stock, error)
}
