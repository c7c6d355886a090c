package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment-backend/internal/domains/supplier/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/logger"
)

const planCachePattern = "plan:*"

type supplierService struct {
	store store.Store
	cache cache.Cache
}

// NewSupplierService wires the supplier service. cache may be nil.
func NewSupplierService(st store.Store, c cache.Cache) Service {
	return &supplierService{store: st, cache: c}
}

func (s *supplierService) CreateSupplier(ctx context.Context, a actor.Actor, req model.CreateSupplierRequest) (*model.Supplier, error) {
	if err := a.Require(actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, model.ErrInvalidSupplier.WithDetail("%v", err)
	}

	score := model.DefaultReliabilityScore
	if req.ReliabilityScore != nil {
		score = decimal.RequireFromString(*req.ReliabilityScore)
	}
	lead := req.LeadTimeDays
	if lead == 0 {
		lead = model.DefaultLeadTimeDays
	}
	sup := &model.Supplier{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(req.Name),
		Code:             strings.ToUpper(strings.TrimSpace(req.Code)),
		City:             strings.TrimSpace(req.City),
		Country:          strings.TrimSpace(req.Country),
		LeadTimeDays:     lead,
		ReliabilityScore: score,
		IsActive:         true,
	}
	if err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		return tx.Suppliers().Create(ctx, sup)
	}); err != nil {
		return nil, err
	}
	logger.Info("supplier created", map[string]interface{}{
		"supplier_id": sup.ID.String(),
		"code":        sup.Code,
		"score":       sup.ReliabilityScore.String(),
	})
	return sup, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	return s.store.Read().Suppliers().GetByID(ctx, id)
}

func (s *supplierService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	list, err := s.store.Read().Suppliers().List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Supplier{}
	}
	return list, nil
}

func (s *supplierService) UpsertCatalogItem(ctx context.Context, a actor.Actor, supplierID uuid.UUID, req model.UpsertCatalogRequest) (*model.CatalogItem, error) {
	if err := a.Require(actor.RoleSupplier, actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if err := a.RequireSupplier(supplierID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, model.ErrInvalidSupplier.WithDetail("%v", err)
	}

	item := &model.CatalogItem{
		SupplierID:         supplierID,
		ProductID:          uuid.MustParse(req.ProductID),
		UnitPrice:          decimal.RequireFromString(req.UnitPrice),
		AvailableQuantity:  req.AvailableQuantity,
		MinOrderQuantity:   req.MinOrderQuantity,
		CustomLeadTimeDays: req.CustomLeadTimeDays,
		IsActive:           true,
	}
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Suppliers().GetByID(ctx, supplierID); err != nil {
			return err
		}
		return tx.Suppliers().UpsertCatalogItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, planCachePattern); err != nil {
			logger.Error("failed to drop cached plans", err)
		}
	}
	return item, nil
}

func (s *supplierService) Offers(ctx context.Context, productID uuid.UUID) ([]model.Offer, error) {
	offers, err := s.store.Read().Suppliers().ListOffersByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []model.Offer{}
	}
	return offers, nil
}
