package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	completion "fulfillment-backend/internal/domains/completion/service"
	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/sourcing/model"
	supplierModel "fulfillment-backend/internal/domains/supplier/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/logger"
)

// PreviewCacheKey is where a request's plan preview is cached.
func PreviewCacheKey(requestID uuid.UUID) string {
	return "plan:" + requestID.String()
}

type sourcingService struct {
	store       store.Store
	options     model.Options
	autoConfirm supplierModel.AutoConfirm
	completion  completion.Trigger
	cache       cache.Cache
}

// NewSourcingService wires the planner. cache may be nil.
func NewSourcingService(
	st store.Store,
	options model.Options,
	autoConfirm supplierModel.AutoConfirm,
	trigger completion.Trigger,
	c cache.Cache,
) Service {
	return &sourcingService{
		store:       st,
		options:     options,
		autoConfirm: autoConfirm,
		completion:  trigger,
		cache:       c,
	}
}

func (s *sourcingService) Quote(ctx context.Context, productID uuid.UUID, quantity int, deliveryCity string) (*model.Plan, error) {
	return s.plan(ctx, s.store.Read(), productID, quantity, deliveryCity)
}

func (s *sourcingService) Preview(ctx context.Context, requestID uuid.UUID) (*model.Plan, error) {
	key := PreviewCacheKey(requestID)
	if s.cache != nil {
		var cached model.Plan
		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	read := s.store.Read()
	req, err := read.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan(ctx, read, req.ProductID, req.Quantity, req.DeliveryCity)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, plan, s.options.PreviewTTL); err != nil {
			logger.Error("failed to cache plan preview", err)
		}
	}
	return plan, nil
}

func (s *sourcingService) Recommend(ctx context.Context, a actor.Actor, requestID uuid.UUID) (*model.Plan, error) {
	if err := a.Require(actor.RoleDealer, actor.RoleProcurementManager, actor.RoleAdmin, actor.RoleSystem); err != nil {
		return nil, err
	}

	var plan *model.Plan
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		req, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.Authorize(a); err != nil {
			return err
		}
		switch req.Status {
		case requestModel.StatusPending, requestModel.StatusAwaitingRecommendation:
		default:
			return requestModel.ErrInvalidTransition.WithDetail("cannot recommend in %s", req.Status)
		}

		plan, err = s.plan(ctx, tx, req.ProductID, req.Quantity, req.DeliveryCity)
		if err != nil {
			return err
		}

		now := time.Now()
		sourceType := plan.SourceType
		eta := plan.EstimatedDelivery(now)
		req.RecommendedSource = &sourceType
		req.RecommendationExplanation = plan.Explanation
		req.EstimatedDeliveryDate = &eta
		req.UpdatedAt = now

		if req.Status == requestModel.StatusPending {
			h, err := req.Transition(requestModel.StatusAwaitingRecommendation, a.UserRef(), "sourcing recommendation", now)
			if err != nil {
				return err
			}
			if err := tx.Requests().AddHistory(ctx, h); err != nil {
				return err
			}
		}
		return tx.Requests().Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *sourcingService) Commit(ctx context.Context, a actor.Actor, requestID uuid.UUID, plan *model.Plan) ([]reservationModel.Reservation, error) {
	if err := a.Require(actor.RoleDealer, actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}

	var created []reservationModel.Reservation
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		created = nil

		req, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.Authorize(a); err != nil {
			return err
		}
		switch req.Status {
		case requestModel.StatusAwaitingRecommendation, requestModel.StatusAwaitingProcurementApproval:
		default:
			return model.ErrNotCommittable.WithDetail("status %s", req.Status)
		}

		if plan == nil {
			plan, err = s.plan(ctx, tx, req.ProductID, req.Quantity, req.DeliveryCity)
			if err != nil {
				return err
			}
		}
		if err := validatePlan(plan, req); err != nil {
			return err
		}

		now := time.Now()
		for i, line := range plan.Lines {
			res, err := s.commitLine(ctx, tx, req, line, now)
			if err != nil {
				return fmt.Errorf("line %d (%s %s): %w", i+1, line.SourceType, line.SourceID, err)
			}
			created = append(created, *res)
		}

		h, err := req.Transition(requestModel.StatusReserved, a.UserRef(), fmt.Sprintf("%d reservation(s) created", len(created)), now)
		if err != nil {
			return err
		}
		if err := tx.Requests().Update(ctx, req); err != nil {
			return err
		}
		return tx.Requests().AddHistory(ctx, h)
	})
	if err != nil {
		logger.ErrorWithFields("commit plan failed", err, map[string]interface{}{
			"request_id": requestID.String(),
			"actor":      a.String(),
		})
		return nil, err
	}

	logger.Info("plan committed", map[string]interface{}{
		"request_id":   requestID.String(),
		"reservations": len(created),
		"source_type":  plan.SourceType,
	})

	if s.completion != nil {
		s.completion.Trigger(ctx, requestID)
	}
	return created, nil
}

func (s *sourcingService) commitLine(ctx context.Context, tx store.Tx, req *requestModel.Request, line model.Line, now time.Time) (*reservationModel.Reservation, error) {
	var (
		res *reservationModel.Reservation
		err error
	)

	switch line.SourceType {
	case reservationModel.SourceWarehouse:
		if err := store.ReserveStock(ctx, tx, line.SourceID, req.ProductID, line.Quantity); err != nil {
			return nil, err
		}
		res, err = reservationModel.NewWarehouseReservation(req.ID, req.ProductID, line.SourceID, line.Quantity, line.EstimatedDays, now)
		if err != nil {
			return nil, err
		}

	case reservationModel.SourceSupplier:
		offer, err := tx.Suppliers().LockOffer(ctx, line.SourceID, req.ProductID)
		if err != nil {
			return nil, err
		}
		if !offer.Item.IsActive || !offer.Supplier.IsActive || offer.Item.AvailableQuantity < line.Quantity {
			return nil, supplierModel.ErrSupplierShort.WithDetail("requested %d, available %d",
				line.Quantity, offer.Item.AvailableQuantity)
		}
		confirmed := s.autoConfirm.Decide(supplierModel.CreatedByPlanner, offer.Supplier)
		res, err = reservationModel.NewSupplierReservation(req.ID, req.ProductID, line.SourceID, line.Quantity, line.EstimatedDays, confirmed, now)
		if err != nil {
			return nil, err
		}

	default:
		return nil, model.ErrInvalidLine.WithDetail("unknown source type %q", line.SourceType)
	}

	if err = tx.Reservations().Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func validatePlan(plan *model.Plan, req *requestModel.Request) error {
	if len(plan.Lines) == 0 {
		return model.ErrEmptyPlan
	}
	if plan.ProductID != uuid.Nil && plan.ProductID != req.ProductID {
		return model.ErrInvalidLine.WithDetail("plan is for product %s", plan.ProductID)
	}
	total := 0
	for i, l := range plan.Lines {
		if l.Quantity <= 0 {
			return model.ErrInvalidLine.WithDetail("line %d has quantity %d", i+1, l.Quantity)
		}
		if l.SourceID == uuid.Nil {
			return model.ErrInvalidLine.WithDetail("line %d has no source", i+1)
		}
		total += l.Quantity
	}
	if total > req.Quantity {
		return model.ErrInvalidLine.WithDetail("plan allocates %d, request is for %d", total, req.Quantity)
	}
	return nil
}

func (s *sourcingService) plan(ctx context.Context, tx store.Tx, productID uuid.UUID, quantity int, city string) (*model.Plan, error) {
	if productID == uuid.Nil {
		return nil, model.ErrMissingProduct
	}
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity.WithDetail("got %d", quantity)
	}
	warehouses, err := tx.Stocks().ListAvailableByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	offers, err := tx.Suppliers().ListOffersByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return BuildPlan(PlanInput{
		ProductID:    productID,
		Quantity:     quantity,
		DeliveryCity: city,
		Warehouses:   warehouses,
		Offers:       offers,
	}, s.options)
}
