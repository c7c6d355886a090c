package job

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	requestModel "fulfillment-backend/internal/domains/request/model"
	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/infrastructure/events"
	"fulfillment-backend/internal/shared"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store/memory"
)

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type captureQueue struct {
	ids []uuid.UUID
}

func (q *captureQueue) EnqueueRecheck(_ context.Context, requestID uuid.UUID, _ string) error {
	q.ids = append(q.ids, requestID)
	return nil
}

func TestStaleScan(t *testing.T) {
	st := memory.New()
	seed := st.Seed()
	product := uuid.New()
	wh := seed.Warehouse("Saigon", "SGN", "Ho Chi Minh City")
	sup := seed.Supplier("Pacific", 5, "0.90")
	active := seed.Request(uuid.New(), product, 30, "Hue", requestModel.StatusReserved)
	cancelled := seed.Request(uuid.New(), product, 10, "Hue", requestModel.StatusCancelled)

	old := time.Now().Add(-72 * time.Hour)
	add := func(requestID uuid.UUID, created time.Time, picked bool) *model.Reservation {
		res, err := model.NewWarehouseReservation(requestID, product, wh.ID, 10, 1, created)
		require.NoError(t, err)
		if picked {
			require.NoError(t, res.Pick(actor.Actor{UserID: uuid.New(), Role: actor.RoleAdmin}, created))
		}
		seed.Reservation(res)
		return res
	}
	stale := add(active.ID, old, false)
	add(active.ID, old, true)
	add(active.ID, time.Now(), false)
	add(cancelled.ID, old, false)
	imported, err := model.NewSupplierReservation(active.ID, product, sup.ID, 10, 5, false, old)
	require.NoError(t, err)
	seed.Reservation(imported)

	pub := &capturePublisher{}
	queue := &captureQueue{}
	h := NewStaleScanHandler(st, pub, queue, 48*time.Hour)

	n, err := h.Scan(context.Background(), time.Now().Add(-48*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeReservationStale, pub.events[0].Type)
	payload, ok := pub.events[0].Payload.(events.ReservationStalePayload)
	require.True(t, ok)
	assert.Equal(t, stale.ID.String(), payload.ReservationID)
	assert.Equal(t, wh.ID.String(), payload.WarehouseID)
	assert.Equal(t, []uuid.UUID{active.ID}, queue.ids)

	got, err := st.Read().Reservations().GetByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status, "scan never mutates reservations")
}

func TestStaleScan_ProcessTaskUsesPayloadAge(t *testing.T) {
	st := memory.New()
	seed := st.Seed()
	product := uuid.New()
	wh := seed.Warehouse("Saigon", "SGN", "Ho Chi Minh City")
	req := seed.Request(uuid.New(), product, 10, "Hue", requestModel.StatusReserved)
	res, err := model.NewWarehouseReservation(req.ID, product, wh.ID, 10, 1, time.Now().Add(-3*time.Hour))
	require.NoError(t, err)
	seed.Reservation(res)

	pub := &capturePublisher{}
	h := NewStaleScanHandler(st, pub, nil, 48*time.Hour)

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeStaleReservationScan, nil)))
	assert.Empty(t, pub.events, "default window is 48h")

	body, err := json.Marshal(shared.StaleScanPayload{OlderThanHours: 2})
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeStaleReservationScan, body)))
	assert.Len(t, pub.events, 1)

	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeStaleReservationScan, []byte("{")))
	assert.Error(t, err)
}
