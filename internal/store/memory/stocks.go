package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/stock/model"
	"fulfillment-backend/internal/shared/apperror"
)

type stocks struct{ t *tx }

func (r *stocks) ListAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]model.WarehouseStock, error) {
	defer r.t.lock()()
	st := r.t.state()

	byWarehouse := make(map[uuid.UUID]*model.WarehouseStock)
	for _, s := range st.stocks {
		if s.ProductID != productID {
			continue
		}
		wh, ok := st.warehouses[s.WarehouseID]
		if !ok || !wh.IsActive {
			continue
		}
		agg, ok := byWarehouse[wh.ID]
		if !ok {
			agg = &model.WarehouseStock{Warehouse: wh, ProductID: productID}
			byWarehouse[wh.ID] = agg
		}
		agg.Quantity += s.Quantity
		agg.Reserved += s.ReservedQuantity
		agg.Available += s.Available()
	}

	var out []model.WarehouseStock
	for _, agg := range byWarehouse {
		if agg.Available > 0 {
			out = append(out, *agg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Available != out[j].Available {
			return out[i].Available > out[j].Available
		}
		return out[i].Warehouse.ID.String() < out[j].Warehouse.ID.String()
	})
	return out, nil
}

func (r *stocks) LockForProduct(ctx context.Context, warehouseID, productID uuid.UUID) ([]*model.Stock, error) {
	defer r.t.lock()()
	var out []*model.Stock
	for _, s := range r.t.state().stocks {
		if s.WarehouseID == warehouseID && s.ProductID == productID {
			row := s
			out = append(out, &row)
		}
	}
	model.SortFEFO(out)
	return out, nil
}

func (r *stocks) Save(ctx context.Context, s *model.Stock) error {
	defer r.t.lock()()
	st := r.t.state()
	cur, ok := st.stocks[s.ID]
	if !ok || cur.Version != s.Version {
		return apperror.ErrConcurrent
	}
	s.Version++
	s.UpdatedAt = time.Now()
	st.stocks[s.ID] = *s
	return nil
}

func (r *stocks) Upsert(ctx context.Context, s *model.Stock) error {
	defer r.t.lock()()
	st := r.t.state()
	if _, ok := st.warehouses[s.WarehouseID]; !ok {
		return apperror.ErrReference.WithDetail("warehouse %s", s.WarehouseID)
	}
	for id, cur := range st.stocks {
		if cur.WarehouseID == s.WarehouseID && cur.ProductID == s.ProductID && cur.BatchNumber == s.BatchNumber {
			cur.Quantity = s.Quantity
			cur.ExpiryDate = s.ExpiryDate
			cur.LocationCode = s.LocationCode
			cur.Version++
			cur.UpdatedAt = time.Now()
			st.stocks[id] = cur
			*s = cur
			return nil
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.ReservedQuantity = 0
	s.Version = 1
	s.UpdatedAt = time.Now()
	st.stocks[s.ID] = *s
	return nil
}

func (r *stocks) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]model.Stock, error) {
	defer r.t.lock()()
	var out []model.Stock
	for _, s := range r.t.state().stocks {
		if s.WarehouseID == warehouseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID.String() < out[j].ProductID.String()
		}
		return out[i].BatchNumber < out[j].BatchNumber
	})
	return out, nil
}
