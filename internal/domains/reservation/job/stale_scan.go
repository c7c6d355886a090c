package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	completion "fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/domains/reservation/repository"
	"fulfillment-backend/internal/infrastructure/events"
	"fulfillment-backend/internal/shared"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/logger"
)

// StaleScanHandler reports live warehouse reservations that nobody picked
// within the configured window. It never mutates a reservation.
type StaleScanHandler struct {
	store      store.Store
	publisher  events.Publisher
	recheck    completion.RecheckQueue
	defaultAge time.Duration
}

func NewStaleScanHandler(st store.Store, pub events.Publisher, recheck completion.RecheckQueue, defaultAge time.Duration) *StaleScanHandler {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &StaleScanHandler{
		store:      st,
		publisher:  pub,
		recheck:    recheck,
		defaultAge: defaultAge,
	}
}

func (h *StaleScanHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.StaleScanPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("Unmarshal stale scan payload failed", err)
			return err
		}
	}
	age := h.defaultAge
	if payload.OlderThanHours > 0 {
		age = time.Duration(payload.OlderThanHours) * time.Hour
	}

	_, err := h.Scan(ctx, time.Now().Add(-age), payload.Limit)
	return err
}

// Scan returns the number of stale reservations found before cutoff.
func (h *StaleScanHandler) Scan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := h.store.Read().Reservations().ListStale(ctx, repository.StaleFilter{
		CreatedBefore: cutoff,
		Limit:         limit,
	})
	if err != nil {
		logger.Error("List stale reservations failed", err)
		return 0, err
	}

	requests := make(map[uuid.UUID]bool)
	for _, r := range stale {
		log.Warn().
			Str("reservation_id", r.ID.String()).
			Str("request_id", r.RequestID.String()).
			Str("warehouse_id", r.SourceID().String()).
			Time("created_at", r.CreatedAt).
			Msg("Reservation not picked in time")

		evt := events.Event{
			Type: events.TypeReservationStale,
			Key:  r.RequestID.String(),
			Payload: events.ReservationStalePayload{
				ReservationID: r.ID.String(),
				RequestID:     r.RequestID.String(),
				WarehouseID:   r.SourceID().String(),
				Quantity:      r.Quantity,
				CreatedAt:     r.CreatedAt,
			},
		}
		if err := h.publisher.Publish(ctx, evt); err != nil {
			logger.Error("Publish stale reservation event failed", err)
		}
		requests[r.RequestID] = true
	}

	if h.recheck != nil {
		for id := range requests {
			if err := h.recheck.EnqueueRecheck(ctx, id, "stale reservation scan"); err != nil {
				logger.Error("Enqueue recheck after stale scan failed", err)
			}
		}
	}

	log.Info().
		Int("stale", len(stale)).
		Int("requests", len(requests)).
		Time("cutoff", cutoff).
		Msg("Stale reservation scan finished")
	return len(stale), nil
}
