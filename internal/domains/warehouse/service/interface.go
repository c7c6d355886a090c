package service

import (
	"context"

	"github.com/google/uuid"

	stockModel "fulfillment-backend/internal/domains/stock/model"
	"fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/internal/shared/actor"
)

// Service manages warehouses and the stock batches they hold.
type Service interface {
	CreateWarehouse(ctx context.Context, a actor.Actor, req model.CreateWarehouseRequest) (*model.Warehouse, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, error)

	// UpsertStock records a stock count for one batch. Operators may only
	// count their own warehouse.
	UpsertStock(ctx context.Context, a actor.Actor, warehouseID uuid.UUID, req stockModel.UpsertStockRequest) (*stockModel.Stock, error)
	ListStock(ctx context.Context, warehouseID uuid.UUID) ([]stockModel.Stock, error)

	// Availability lists active warehouses with available stock of a product.
	Availability(ctx context.Context, productID uuid.UUID) ([]stockModel.WarehouseStock, error)
}
