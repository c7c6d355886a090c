package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	completion "fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	sourcingModel "fulfillment-backend/internal/domains/sourcing/model"
	sourcing "fulfillment-backend/internal/domains/sourcing/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/logger"
)

type requestService struct {
	store    store.Store
	sourcing sourcing.Service
	cache    cache.Cache
}

// NewRequestService wires the lifecycle. cache may be nil; when set, the
// completion status entry is dropped on every status change.
func NewRequestService(st store.Store, sourcingSvc sourcing.Service, c cache.Cache) Service {
	return &requestService{store: st, sourcing: sourcingSvc, cache: c}
}

func (s *requestService) Create(ctx context.Context, a actor.Actor, in model.CreateRequest) (*model.Request, error) {
	if err := a.Require(actor.RoleDealer); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, model.ErrInvalidRequest.WithDetail("%v", err)
	}
	productID, err := uuid.Parse(in.ProductID)
	if err != nil {
		return nil, model.ErrInvalidRequest.WithDetail("product_id: %v", err)
	}

	now := time.Now()
	req := &model.Request{
		ID:                    uuid.New(),
		RequestNumber:         model.NewRequestNumber(now),
		DealerID:              a.UserID,
		ProductID:             productID,
		Quantity:              in.Quantity,
		DeliveryLocation:      strings.TrimSpace(in.DeliveryLocation),
		DeliveryCity:          strings.TrimSpace(in.DeliveryCity),
		Status:                model.StatusPending,
		RequestedDeliveryDate: in.RequestedDeliveryDate,
		DealerNotes:           strings.TrimSpace(in.Notes),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		return tx.Requests().Create(ctx, req)
	}); err != nil {
		return nil, err
	}

	logger.Info("request created", map[string]interface{}{
		"request_id":     req.ID.String(),
		"request_number": req.RequestNumber,
		"quantity":       req.Quantity,
	})
	return req, nil
}

func (s *requestService) Get(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error) {
	req, err := s.store.Read().Requests().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Authorize(a); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, a actor.Actor, q model.ListQuery) (*model.ListResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, model.ErrInvalidRequest.WithDetail("%v", err)
	}
	filter := q.Filter()
	if a.Role == actor.RoleDealer {
		dealer := a.UserID
		filter.DealerID = &dealer
	}
	items, total, err := s.store.Read().Requests().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Request{}
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return &model.ListResponse{Items: items, Total: total, Page: page, Limit: filter.Limit}, nil
}

func (s *requestService) History(ctx context.Context, a actor.Actor, id uuid.UUID) ([]model.StatusHistory, error) {
	if _, err := s.Get(ctx, a, id); err != nil {
		return nil, err
	}
	rows, err := s.store.Read().Requests().ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.StatusHistory{}
	}
	return rows, nil
}

func (s *requestService) Recommend(ctx context.Context, a actor.Actor, id uuid.UUID) (*sourcingModel.Plan, error) {
	plan, err := s.sourcing.Recommend(ctx, a, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return plan, nil
}

func (s *requestService) Confirm(ctx context.Context, a actor.Actor, id uuid.UUID) ([]reservationModel.Reservation, error) {
	if err := a.Require(actor.RoleDealer, actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	req, err := s.Get(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if req.Status == model.StatusPending {
		return nil, model.ErrNoRecommendation
	}
	if req.Status != model.StatusAwaitingRecommendation {
		return nil, model.ErrInvalidTransition.WithDetail("cannot confirm in %s", req.Status)
	}
	created, err := s.sourcing.Commit(ctx, a, id, nil)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return created, nil
}

func (s *requestService) SendToProcurement(ctx context.Context, a actor.Actor, id uuid.UUID, notes string) (*model.Request, error) {
	if err := a.Require(actor.RoleDealer, actor.RoleAdmin); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	return s.move(ctx, a, id, model.StatusAwaitingProcurementApproval, "sent to procurement", func(tx store.Tx, req *model.Request) error {
		if err := req.Authorize(a); err != nil {
			return err
		}
		if req.Status == model.StatusPending {
			return model.ErrNoRecommendation
		}
		if notes != "" {
			if req.DealerNotes != "" {
				req.DealerNotes += "\n"
			}
			req.DealerNotes += notes
		}
		return nil
	})
}

func (s *requestService) Approve(ctx context.Context, a actor.Actor, id uuid.UUID) ([]reservationModel.Reservation, error) {
	if err := a.Require(actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	req, err := s.store.Read().Requests().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusAwaitingProcurementApproval {
		return nil, model.ErrNotAwaitingReview.WithDetail("request is %s", req.Status)
	}
	created, err := s.sourcing.Commit(ctx, a, id, nil)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return created, nil
}

func (s *requestService) Cancel(ctx context.Context, a actor.Actor, id uuid.UUID, reason string) (*model.Request, error) {
	if err := a.Require(actor.RoleDealer, actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	in := model.CancelRequest{Reason: strings.TrimSpace(reason)}
	if err := in.Validate(); err != nil {
		return nil, model.ErrInvalidRequest.WithDetail("%v", err)
	}

	released := 0
	req, err := s.move(ctx, a, id, model.StatusCancelled, in.Reason, func(tx store.Tx, req *model.Request) error {
		released = 0
		if err := req.Authorize(a); err != nil {
			return err
		}
		if !req.Status.IsCancellable() {
			return model.ErrInvalidTransition.WithDetail("cannot cancel in %s", req.Status)
		}
		return s.eachLiveWarehouse(ctx, tx, req.ID, false, func(r reservationModel.Reservation) error {
			released += r.Quantity
			return store.ReleaseStock(ctx, tx, *r.WarehouseID, r.ProductID, r.Quantity)
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Info("request cancelled", map[string]interface{}{
		"request_id":     id.String(),
		"released_units": released,
	})
	return req, nil
}

func (s *requestService) StartPicking(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error) {
	if err := a.Require(actor.RoleWarehouseOperator, actor.RoleAdmin); err != nil {
		return nil, err
	}
	return s.move(ctx, a, id, model.StatusPicking, "picking started", func(tx store.Tx, req *model.Request) error {
		switch req.Status {
		case model.StatusReserved, model.StatusWaitingForAllPickups:
		default:
			return model.ErrInvalidTransition.WithDetail("cannot start picking in %s", req.Status)
		}
		if a.Role == actor.RoleAdmin {
			return nil
		}
		assigned := false
		err := s.eachLiveWarehouse(ctx, tx, req.ID, false, func(r reservationModel.Reservation) error {
			if a.RequireWarehouse(*r.WarehouseID) == nil {
				assigned = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !assigned {
			return model.ErrNotAssigned
		}
		return nil
	})
}

func (s *requestService) Allocate(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error) {
	if err := a.Require(actor.RoleLogisticsPlanner, actor.RoleAdmin); err != nil {
		return nil, err
	}
	return s.move(ctx, a, id, model.StatusAllocated, "allocated for shipment", nil)
}

func (s *requestService) Dispatch(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error) {
	if err := a.Require(actor.RoleLogisticsPlanner, actor.RoleAdmin); err != nil {
		return nil, err
	}
	return s.move(ctx, a, id, model.StatusInTransit, "dispatched", nil)
}

func (s *requestService) Complete(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error) {
	if err := a.Require(actor.RoleLogisticsPlanner, actor.RoleAdmin); err != nil {
		return nil, err
	}
	return s.move(ctx, a, id, model.StatusCompleted, "delivered", func(tx store.Tx, req *model.Request) error {
		if req.Status != model.StatusInTransit {
			return model.ErrInvalidTransition.WithDetail("%s -> %s", req.Status, model.StatusCompleted)
		}
		return s.eachLiveWarehouse(ctx, tx, req.ID, true, func(r reservationModel.Reservation) error {
			return store.ConsumeStock(ctx, tx, *r.WarehouseID, r.ProductID, r.Quantity)
		})
	})
}

// move locks the request, runs check for extra rules and side effects, then
// transitions and records history, all in one transaction.
func (s *requestService) move(
	ctx context.Context,
	a actor.Actor,
	id uuid.UUID,
	to model.Status,
	reason string,
	check func(tx store.Tx, req *model.Request) error,
) (*model.Request, error) {
	var out *model.Request
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		req, err := tx.Requests().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(tx, req); err != nil {
				return err
			}
		}
		from := req.Status
		h, err := req.Transition(to, a.UserRef(), reason, time.Now())
		if err != nil {
			return err
		}
		if err := tx.Requests().Update(ctx, req); err != nil {
			return err
		}
		if err := tx.Requests().AddHistory(ctx, h); err != nil {
			return err
		}
		logger.Info("request status changed", map[string]interface{}{
			"request_id": id.String(),
			"from":       from,
			"to":         to,
			"actor":      a.String(),
		})
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return out, nil
}

// eachLiveWarehouse calls fn for every live warehouse reservation of the
// request, skipping blocked ones when unblockedOnly is set.
func (s *requestService) eachLiveWarehouse(ctx context.Context, tx store.Tx, requestID uuid.UUID, unblockedOnly bool, fn func(reservationModel.Reservation) error) error {
	all, err := tx.Reservations().ListByRequest(ctx, requestID)
	if err != nil {
		return err
	}
	for _, r := range reservationModel.Live(all) {
		if r.Source() != reservationModel.SourceWarehouse {
			continue
		}
		if unblockedOnly && r.IsBlocked {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *requestService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, completion.CacheKey(id), sourcing.PreviewCacheKey(id)); err != nil {
		logger.Warn("failed to drop cached request state", map[string]interface{}{
			"request_id": id.String(),
			"error":      err.Error(),
		})
	}
}
