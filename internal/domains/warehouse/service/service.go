package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	stockModel "fulfillment-backend/internal/domains/stock/model"
	"fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/logger"
)

// planCachePattern matches every cached plan preview; a stock count can
// change any of them.
const planCachePattern = "plan:*"

type warehouseService struct {
	store store.Store
	cache cache.Cache
}

// NewWarehouseService wires the warehouse service. cache may be nil.
func NewWarehouseService(st store.Store, c cache.Cache) Service {
	return &warehouseService{store: st, cache: c}
}

func (s *warehouseService) CreateWarehouse(ctx context.Context, a actor.Actor, req model.CreateWarehouseRequest) (*model.Warehouse, error) {
	if err := a.Require(actor.RoleAdmin); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, model.ErrInvalidWarehouse.WithDetail("%v", err)
	}
	now := time.Now()
	wh := &model.Warehouse{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Code:      strings.ToUpper(strings.TrimSpace(req.Code)),
		City:      strings.TrimSpace(req.City),
		Address:   strings.TrimSpace(req.Address),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		return tx.Warehouses().Create(ctx, wh)
	}); err != nil {
		return nil, err
	}
	logger.Info("warehouse created", map[string]interface{}{
		"warehouse_id": wh.ID.String(),
		"code":         wh.Code,
		"city":         wh.City,
	})
	return wh, nil
}

func (s *warehouseService) GetWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	return s.store.Read().Warehouses().GetByID(ctx, id)
}

func (s *warehouseService) ListWarehouses(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, error) {
	list, err := s.store.Read().Warehouses().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Warehouse{}
	}
	return list, nil
}

func (s *warehouseService) UpsertStock(ctx context.Context, a actor.Actor, warehouseID uuid.UUID, req stockModel.UpsertStockRequest) (*stockModel.Stock, error) {
	if err := a.Require(actor.RoleWarehouseOperator, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if err := a.RequireWarehouse(warehouseID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, stockModel.ErrInvalidStock.WithDetail("%v", err)
	}

	row := &stockModel.Stock{
		WarehouseID:  warehouseID,
		ProductID:    uuid.MustParse(req.ProductID),
		BatchNumber:  strings.TrimSpace(req.BatchNumber),
		ExpiryDate:   req.ExpiryDate,
		LocationCode: strings.TrimSpace(req.LocationCode),
		Quantity:     req.Quantity,
	}
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		wh, err := tx.Warehouses().GetByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if !wh.IsActive {
			return model.ErrWarehouseInactive
		}
		return tx.Stocks().Upsert(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	if row.ReservedQuantity > row.Quantity {
		logger.Warn("stock count is below reserved quantity", map[string]interface{}{
			"warehouse_id": warehouseID.String(),
			"product_id":   row.ProductID.String(),
			"quantity":     row.Quantity,
			"reserved":     row.ReservedQuantity,
		})
	}
	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, planCachePattern); err != nil {
			logger.Error("failed to drop cached plans", err)
		}
	}
	return row, nil
}

func (s *warehouseService) ListStock(ctx context.Context, warehouseID uuid.UUID) ([]stockModel.Stock, error) {
	read := s.store.Read()
	if _, err := read.Warehouses().GetByID(ctx, warehouseID); err != nil {
		return nil, err
	}
	rows, err := read.Stocks().ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []stockModel.Stock{}
	}
	return rows, nil
}

func (s *warehouseService) Availability(ctx context.Context, productID uuid.UUID) ([]stockModel.WarehouseStock, error) {
	rows, err := s.store.Read().Stocks().ListAvailableByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []stockModel.WarehouseStock{}
	}
	return rows, nil
}
