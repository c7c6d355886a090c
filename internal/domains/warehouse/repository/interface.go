package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/warehouse/model"
)

type Repository interface {
	Create(ctx context.Context, wh *model.Warehouse) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	List(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, error)
}
