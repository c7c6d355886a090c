package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	supplierModel "fulfillment-backend/internal/domains/supplier/model"
	warehouseModel "fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/internal/shared/apperror"
)

type warehouses struct{ t *tx }

func (r *warehouses) Create(ctx context.Context, wh *warehouseModel.Warehouse) error {
	defer r.t.lock()()
	st := r.t.state()
	for _, cur := range st.warehouses {
		if strings.EqualFold(cur.Code, wh.Code) {
			return apperror.ErrDuplicate.WithDetail("warehouse code %s", wh.Code)
		}
	}
	if wh.ID == uuid.Nil {
		wh.ID = uuid.New()
	}
	now := time.Now()
	wh.Version = 1
	wh.CreatedAt, wh.UpdatedAt = now, now
	st.warehouses[wh.ID] = *wh
	return nil
}

func (r *warehouses) GetByID(ctx context.Context, id uuid.UUID) (*warehouseModel.Warehouse, error) {
	defer r.t.lock()()
	wh, ok := r.t.state().warehouses[id]
	if !ok {
		return nil, warehouseModel.ErrWarehouseNotFound
	}
	return &wh, nil
}

func (r *warehouses) List(ctx context.Context, filter warehouseModel.ListWarehouseFilter) ([]warehouseModel.Warehouse, error) {
	defer r.t.lock()()
	var out []warehouseModel.Warehouse
	for _, wh := range r.t.state().warehouses {
		if filter.City != "" && !wh.SameCity(filter.City) {
			continue
		}
		if filter.IsActive != nil && wh.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, wh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	start := min(filter.Offset, len(out))
	end := min(start+limit, len(out))
	return out[start:end], nil
}

type suppliers struct{ t *tx }

func (r *suppliers) Create(ctx context.Context, s *supplierModel.Supplier) error {
	defer r.t.lock()()
	st := r.t.state()
	for _, cur := range st.suppliers {
		if strings.EqualFold(cur.Code, s.Code) {
			return apperror.ErrDuplicate.WithDetail("supplier code %s", s.Code)
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	st.suppliers[s.ID] = *s
	return nil
}

func (r *suppliers) GetByID(ctx context.Context, id uuid.UUID) (*supplierModel.Supplier, error) {
	defer r.t.lock()()
	s, ok := r.t.state().suppliers[id]
	if !ok {
		return nil, supplierModel.ErrSupplierNotFound
	}
	return &s, nil
}

func (r *suppliers) List(ctx context.Context) ([]supplierModel.Supplier, error) {
	defer r.t.lock()()
	var out []supplierModel.Supplier
	for _, s := range r.t.state().suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *suppliers) UpsertCatalogItem(ctx context.Context, item *supplierModel.CatalogItem) error {
	defer r.t.lock()()
	st := r.t.state()
	if _, ok := st.suppliers[item.SupplierID]; !ok {
		return apperror.ErrReference.WithDetail("supplier %s", item.SupplierID)
	}
	item.UpdatedAt = time.Now()
	for id, cur := range st.catalog {
		if cur.SupplierID == item.SupplierID && cur.ProductID == item.ProductID {
			item.ID = id
			st.catalog[id] = *item
			return nil
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	st.catalog[item.ID] = *item
	return nil
}

func (r *suppliers) ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]supplierModel.Offer, error) {
	defer r.t.lock()()
	st := r.t.state()
	var out []supplierModel.Offer
	for _, item := range st.catalog {
		if item.ProductID != productID || !item.IsActive || item.AvailableQuantity <= 0 {
			continue
		}
		s, ok := st.suppliers[item.SupplierID]
		if !ok || !s.IsActive {
			continue
		}
		out = append(out, supplierModel.Offer{Supplier: s, Item: item})
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := out[i].LeadTimeDays(), out[j].LeadTimeDays(); a != b {
			return a < b
		}
		if a, b := out[i].Item.AvailableQuantity, out[j].Item.AvailableQuantity; a != b {
			return a > b
		}
		return out[i].Supplier.ID.String() < out[j].Supplier.ID.String()
	})
	return out, nil
}

func (r *suppliers) LockOffer(ctx context.Context, supplierID, productID uuid.UUID) (*supplierModel.Offer, error) {
	defer r.t.lock()()
	st := r.t.state()
	for _, item := range st.catalog {
		if item.SupplierID == supplierID && item.ProductID == productID {
			s, ok := st.suppliers[supplierID]
			if !ok {
				break
			}
			return &supplierModel.Offer{Supplier: s, Item: item}, nil
		}
	}
	return nil, supplierModel.ErrOfferNotFound
}

func (r *suppliers) RecordIssue(ctx context.Context, supplierID uuid.UUID) error {
	defer r.t.lock()()
	st := r.t.state()
	s, ok := st.suppliers[supplierID]
	if !ok {
		return supplierModel.ErrSupplierNotFound
	}
	s.IssueCount++
	s.UpdatedAt = time.Now()
	st.suppliers[supplierID] = s
	return nil
}
