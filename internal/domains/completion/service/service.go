package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/completion/model"
	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/infrastructure/events"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/logger"
)

const cacheKeyPrefix = "completion:"

// maxStatusCacheTTL bounds how long a status read that raced a check can be served.
const maxStatusCacheTTL = 10 * time.Second

func CacheKey(requestID uuid.UUID) string {
	return cacheKeyPrefix + requestID.String()
}

type service struct {
	store     store.Store
	cache     cache.Cache
	cacheTTL  time.Duration
	publisher events.Publisher
	recheck   RecheckQueue
}

// NewService wires the coordinator. cache and recheck may be nil.
func NewService(st store.Store, c cache.Cache, cacheTTL time.Duration, pub events.Publisher, recheck RecheckQueue) Service {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if cacheTTL <= 0 || cacheTTL > maxStatusCacheTTL {
		cacheTTL = maxStatusCacheTTL
	}
	return &service{
		store:     st,
		cache:     c,
		cacheTTL:  cacheTTL,
		publisher: pub,
		recheck:   recheck,
	}
}

// outcome carries what happened inside the transaction to the post-commit steps.
type outcome struct {
	ready        bool
	transitioned bool
	from, to     requestModel.Status
	readyCount   int
	liveCount    int
	request      requestModel.Request
}

func (s *service) CheckAllSourcesReady(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var out outcome
	// Drop the cached status even when the check fails part way.
	defer s.invalidate(ctx, requestID)

	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		out = outcome{}

		req, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		out.from, out.to = req.Status, req.Status

		if req.Status == requestModel.StatusReadyForAllocation {
			out.ready = true
			return nil
		}
		if !req.Status.IsCompletionEligible() {
			return nil
		}

		all, err := tx.Reservations().ListByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		live := reservationModel.Live(all)
		if len(live) == 0 {
			return nil
		}

		blocked := 0
		for _, r := range live {
			if reservationModel.IsReady(r) {
				out.readyCount++
			}
			if r.IsBlocked {
				blocked++
			}
		}
		out.liveCount = len(live)

		target := model.WaitingStatus(blocked, len(live))
		if out.readyCount == len(live) {
			target = requestModel.StatusReadyForAllocation
			out.ready = true
		}
		if target == req.Status {
			return nil
		}

		h, err := req.Transition(target, nil, model.Summarize(out.readyCount, out.liveCount), time.Now())
		if err != nil {
			return err
		}
		if err := tx.Requests().Update(ctx, req); err != nil {
			return err
		}
		if err := tx.Requests().AddHistory(ctx, h); err != nil {
			return err
		}
		out.to = target
		out.transitioned = target == requestModel.StatusReadyForAllocation
		out.request = *req
		return nil
	})
	if err != nil {
		return false, err
	}

	if out.liveCount > 0 {
		logger.Info(model.Summarize(out.readyCount, out.liveCount), map[string]interface{}{
			"request_id": requestID.String(),
			"from":       out.from,
			"to":         out.to,
		})
	}

	if out.transitioned {
		s.publishReady(ctx, out)
	}
	return out.ready, nil
}

func (s *service) Trigger(ctx context.Context, requestID uuid.UUID) bool {
	ready, err := s.CheckAllSourcesReady(ctx, requestID)
	if err == nil {
		return ready
	}

	logger.ErrorWithFields("completion check failed", err, map[string]interface{}{
		"request_id": requestID.String(),
	})
	if s.recheck != nil {
		if qErr := s.recheck.EnqueueRecheck(ctx, requestID, err.Error()); qErr != nil {
			logger.ErrorWithFields("failed to enqueue completion recheck", qErr, map[string]interface{}{
				"request_id": requestID.String(),
			})
		}
	}
	return false
}

func (s *service) GetCompletionStatus(ctx context.Context, requestID uuid.UUID) (*model.CompletionStatus, error) {
	if s.cache != nil {
		var cached model.CompletionStatus
		if found, err := s.cache.Get(ctx, CacheKey(requestID), &cached); err == nil && found {
			return &cached, nil
		}
	}

	read := s.store.Read()
	req, err := read.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	all, err := read.Reservations().ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	status := &model.CompletionStatus{
		RequestID:     requestID,
		RequestStatus: req.Status,
		Sources:       []model.SourceStatus{},
	}
	for _, r := range reservationModel.Live(all) {
		ready := reservationModel.IsReady(r)
		status.Sources = append(status.Sources, model.SourceStatus{
			ReservationID:       r.ID,
			SourceType:          r.Source(),
			SourceID:            r.SourceID(),
			SourceName:          s.sourceName(ctx, read, r),
			Quantity:            r.Quantity,
			IsReady:             ready,
			Status:              r.Status,
			IsPicked:            r.IsPicked,
			AIConfirmed:         r.AIConfirmed,
			ProcurementResolved: r.ProcurementResolved,
			IsBlocked:           r.IsBlocked,
			BlockReason:         r.BlockReason,
		})
		if ready {
			status.ReadyCount++
		}
		if r.IsBlocked {
			status.BlockedCount++
		}
	}
	status.TotalCount = len(status.Sources)
	status.IsComplete = req.Status == requestModel.StatusReadyForAllocation ||
		(status.TotalCount > 0 && status.ReadyCount == status.TotalCount)
	status.Summary = model.Summarize(status.ReadyCount, status.TotalCount)

	if s.cache != nil {
		if err := s.cache.Set(ctx, CacheKey(requestID), status, s.cacheTTL); err != nil {
			logger.Error("failed to cache completion status", err)
		}
	}
	return status, nil
}

func (s *service) sourceName(ctx context.Context, read store.Tx, r reservationModel.Reservation) string {
	switch r.Source() {
	case reservationModel.SourceWarehouse:
		if wh, err := read.Warehouses().GetByID(ctx, *r.WarehouseID); err == nil {
			return wh.Name
		}
	case reservationModel.SourceSupplier:
		if sup, err := read.Suppliers().GetByID(ctx, *r.SupplierID); err == nil {
			return sup.Name
		}
	case reservationModel.SourceUnknown:
	}
	return ""
}

func (s *service) invalidate(ctx context.Context, requestID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKey(requestID)); err != nil {
		logger.Error("failed to invalidate completion status", err)
	}
}

func (s *service) publishReady(ctx context.Context, out outcome) {
	evt := events.Event{
		Type:       events.TypeRequestReady,
		Key:        out.request.ID.String(),
		OccurredAt: time.Now().UTC(),
		Payload: events.RequestReadyPayload{
			RequestID:     out.request.ID.String(),
			RequestNumber: out.request.RequestNumber,
			ProductID:     out.request.ProductID.String(),
			Quantity:      out.request.Quantity,
			Sources:       out.liveCount,
		},
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.ErrorWithFields("failed to publish ready event", err, map[string]interface{}{
			"request_id": out.request.ID.String(),
		})
	}
}

