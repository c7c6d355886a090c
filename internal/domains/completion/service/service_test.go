package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfillment-backend/internal/domains/completion/model"
	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/infrastructure/events"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/internal/store/memory"
	"fulfillment-backend/pkg/cache"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingQueue struct {
	requests []uuid.UUID
}

func (q *recordingQueue) EnqueueRecheck(_ context.Context, requestID uuid.UUID, _ string) error {
	q.requests = append(q.requests, requestID)
	return nil
}

type fixture struct {
	store     *memory.Store
	seed      *memory.Seeder
	cache     *cache.Memory
	publisher *recordingPublisher
	queue     *recordingQueue
	svc       Service
	product   uuid.UUID
	dealer    uuid.UUID
	operator  actor.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	f := &fixture{
		store:     st,
		seed:      st.Seed(),
		cache:     cache.NewMemory(),
		publisher: &recordingPublisher{},
		queue:     &recordingQueue{},
		product:   uuid.New(),
		dealer:    uuid.New(),
		operator:  actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator},
	}
	f.svc = NewService(st, f.cache, time.Minute, f.publisher, f.queue)
	return f
}

func (f *fixture) warehouseRes(t *testing.T, requestID uuid.UUID, qty int, steps ...func(*reservationModel.Reservation)) *reservationModel.Reservation {
	t.Helper()
	wh := f.seed.Warehouse("WH", "WH-"+uuid.NewString()[:4], "Da Nang")
	res, err := reservationModel.NewWarehouseReservation(requestID, f.product, wh.ID, qty, 2, time.Now())
	require.NoError(t, err)
	for _, step := range steps {
		step(res)
	}
	f.seed.Reservation(res)
	return res
}

func (f *fixture) supplierRes(t *testing.T, requestID uuid.UUID, qty int, confirmed bool) *reservationModel.Reservation {
	t.Helper()
	sup := f.seed.Supplier("Sup", 5, "0.90")
	res, err := reservationModel.NewSupplierReservation(requestID, f.product, sup.ID, qty, 5, confirmed, time.Now())
	require.NoError(t, err)
	f.seed.Reservation(res)
	return res
}

func (f *fixture) picked(t *testing.T) func(*reservationModel.Reservation) {
	return func(r *reservationModel.Reservation) {
		require.NoError(t, r.Pick(f.operator, time.Now()))
	}
}

func verdict(t *testing.T, o reservationModel.Outcome) func(*reservationModel.Reservation) {
	return func(r *reservationModel.Reservation) {
		require.NoError(t, r.ApplyVerdict(o, time.Now()))
	}
}

func (f *fixture) status(t *testing.T, requestID uuid.UUID) requestModel.Status {
	t.Helper()
	req, err := f.store.Read().Requests().GetByID(context.Background(), requestID)
	require.NoError(t, err)
	return req.Status
}

func (f *fixture) update(t *testing.T, res *reservationModel.Reservation, fn func(*reservationModel.Reservation)) {
	t.Helper()
	err := f.store.RunInTx(context.Background(), func(tx store.Tx) error {
		cur, err := tx.Reservations().GetForUpdate(context.Background(), res.ID)
		if err != nil {
			return err
		}
		fn(cur)
		return tx.Reservations().Update(context.Background(), cur)
	})
	require.NoError(t, err)
}

func TestCheck_SingleDamagedSourceBlocksRequest(t *testing.T) {
	f := newFixture(t)
	req := f.seed.Request(f.dealer, f.product, 100, "Hue", requestModel.StatusInspectionPending)
	f.warehouseRes(t, req.ID, 100, f.picked(t), verdict(t, reservationModel.OutcomeDamaged))

	ready, err := f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, requestModel.StatusBlocked, f.status(t, req.ID))
	assert.Empty(t, f.publisher.events)
}

func TestCheck_OneOfTwoBlockedIsPartial(t *testing.T) {
	f := newFixture(t)
	req := f.seed.Request(f.dealer, f.product, 100, "Hue", requestModel.StatusPicking)
	f.warehouseRes(t, req.ID, 60, f.picked(t), verdict(t, reservationModel.OutcomeLowConfidence))
	f.warehouseRes(t, req.ID, 40, f.picked(t), verdict(t, reservationModel.OutcomePass))

	ready, err := f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, requestModel.StatusPartiallyBlocked, f.status(t, req.ID))
}

func TestCheck_ReplacedSourceWaitsForNewPick(t *testing.T) {
	f := newFixture(t)
	manager := actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager}
	req := f.seed.Request(f.dealer, f.product, 100, "Hue", requestModel.StatusBlocked)

	original := f.warehouseRes(t, req.ID, 100, f.picked(t), verdict(t, reservationModel.OutcomeDamaged))
	warehouseC := f.seed.Warehouse("C", "C-01", "Can Tho")
	var replacement *reservationModel.Reservation
	f.update(t, original, func(r *reservationModel.Reservation) {
		next, err := r.Replacement(r.Quantity, &warehouseC.ID, nil, 2, false, time.Now())
		require.NoError(t, err)
		require.NoError(t, r.Retire(manager, "damaged pallet", time.Now()))
		replacement = next
	})
	f.seed.Reservation(replacement)

	ready, err := f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, requestModel.StatusWaitingForAllPickups, f.status(t, req.ID))

	kept, err := f.store.Read().Reservations().GetByID(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, kept.Quantity)
	assert.True(t, kept.Retired)
	assert.Equal(t, reservationModel.StatusProcurementResolved, kept.Status)
	require.NotNil(t, replacement.ReplacesID)
	assert.Equal(t, original.ID, *replacement.ReplacesID)

	f.update(t, replacement, func(r *reservationModel.Reservation) {
		f.picked(t)(r)
		verdict(t, reservationModel.OutcomePass)(r)
	})
	ready, err = f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, requestModel.StatusReadyForAllocation, f.status(t, req.ID))
}

func TestCheck_WarehouseAndSupplierJointWait(t *testing.T) {
	f := newFixture(t)
	req := f.seed.Request(f.dealer, f.product, 100, "Hue", requestModel.StatusInspectionPending)
	f.warehouseRes(t, req.ID, 60, f.picked(t), verdict(t, reservationModel.OutcomePass))
	sup := f.supplierRes(t, req.ID, 40, false)

	ready, err := f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, requestModel.StatusWaitingForAllPickups, f.status(t, req.ID))

	supplierActor := actor.Actor{UserID: uuid.New(), Role: actor.RoleSupplier, SupplierID: sup.SupplierID}
	f.update(t, sup, func(r *reservationModel.Reservation) {
		require.NoError(t, r.ConfirmSupplier(supplierActor, time.Now()))
	})

	ready, err = f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, requestModel.StatusReadyForAllocation, f.status(t, req.ID))

	require.Len(t, f.publisher.events, 1)
	evt := f.publisher.events[0]
	assert.Equal(t, events.TypeRequestReady, evt.Type)
	assert.Equal(t, req.ID.String(), evt.Key)
	payload, ok := evt.Payload.(events.RequestReadyPayload)
	require.True(t, ok)
	assert.Equal(t, 2, payload.Sources)
}

func TestCheck_ReadyIsStable(t *testing.T) {
	f := newFixture(t)
	req := f.seed.Request(f.dealer, f.product, 10, "Hue", requestModel.StatusReserved)
	f.supplierRes(t, req.ID, 10, true)
	ctx := context.Background()

	ready, err := f.svc.CheckAllSourcesReady(ctx, req.ID)
	require.NoError(t, err)
	require.True(t, ready)

	for i := 0; i < 3; i++ {
		ready, err = f.svc.CheckAllSourcesReady(ctx, req.ID)
		require.NoError(t, err)
		assert.True(t, ready)
	}
	assert.Equal(t, requestModel.StatusReadyForAllocation, f.status(t, req.ID))
	assert.Len(t, f.publisher.events, 1)

	history, err := f.store.Read().Requests().ListHistory(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCheck_ConcurrentCallsTransitionOnce(t *testing.T) {
	f := newFixture(t)
	req := f.seed.Request(f.dealer, f.product, 10, "Hue", requestModel.StatusReserved)
	f.supplierRes(t, req.ID, 5, true)
	f.supplierRes(t, req.ID, 5, true)

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.svc.Trigger(context.Background(), req.ID)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r)
	}
	assert.Len(t, f.publisher.events, 1)
}

func TestCheck_IneligibleStatusIsNoop(t *testing.T) {
	for _, status := range []requestModel.Status{
		requestModel.StatusPending,
		requestModel.StatusAwaitingProcurementApproval,
		requestModel.StatusAllocated,
		requestModel.StatusCompleted,
		requestModel.StatusCancelled,
	} {
		f := newFixture(t)
		req := f.seed.Request(f.dealer, f.product, 10, "Hue", status)
		f.supplierRes(t, req.ID, 10, true)

		ready, err := f.svc.CheckAllSourcesReady(context.Background(), req.ID)
		require.NoError(t, err)
		assert.False(t, ready, status)
		assert.Equal(t, status, f.status(t, req.ID))
	}
}

func TestCheck_NoLiveSourcesIsNotReady(t *testing.T) {
	f := newFixture(t)
	manager := actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager}
	req := f.seed.Request(f.dealer, f.product, 10, "Hue", requestModel.StatusReserved)

	ready, err := f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, ready)

	f.warehouseRes(t, req.ID, 10, f.picked(t), verdict(t, reservationModel.OutcomeExpired), func(r *reservationModel.Reservation) {
		require.NoError(t, r.Retire(manager, "expired", time.Now()))
	})
	ready, err = f.svc.CheckAllSourcesReady(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, requestModel.StatusReserved, f.status(t, req.ID))
}

func TestTrigger_QueuesRecheckOnFailure(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()

	assert.False(t, f.svc.Trigger(context.Background(), missing))
	assert.Equal(t, []uuid.UUID{missing}, f.queue.requests)
}

func TestGetCompletionStatus(t *testing.T) {
	f := newFixture(t)
	req := f.seed.Request(f.dealer, f.product, 100, "Hue", requestModel.StatusPicking)
	blocked := f.warehouseRes(t, req.ID, 50, f.picked(t), verdict(t, reservationModel.OutcomeDamaged))
	f.supplierRes(t, req.ID, 50, true)
	ctx := context.Background()

	status, err := f.svc.GetCompletionStatus(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalCount)
	assert.Equal(t, 1, status.ReadyCount)
	assert.Equal(t, 1, status.BlockedCount)
	assert.False(t, status.IsComplete)
	assert.Equal(t, "1/2 sources ready", status.Summary)
	for _, src := range status.Sources {
		if src.SourceType == reservationModel.SourceWarehouse {
			assert.Equal(t, "WH", src.SourceName)
			assert.Equal(t, string(reservationModel.OutcomeDamaged), src.BlockReason)
		} else {
			assert.Equal(t, "Sup", src.SourceName)
			assert.True(t, src.IsReady)
		}
	}

	var cached any
	found, err := f.cache.Get(ctx, CacheKey(req.ID), &cached)
	require.NoError(t, err)
	assert.True(t, found)

	f.update(t, blocked, func(r *reservationModel.Reservation) {
		require.NoError(t, r.Resolve(actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager}, "ok", time.Now()))
	})
	ready, err := f.svc.CheckAllSourcesReady(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, ready)

	status, err = f.svc.GetCompletionStatus(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, status.IsComplete)
	assert.Equal(t, requestModel.StatusReadyForAllocation, status.RequestStatus)
	assert.Equal(t, "All sources ready for logistics", status.Summary)
}

func TestCheck_FailedCheckStillDropsCachedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()
	require.NoError(t, f.cache.Set(ctx, CacheKey(missing), model.CompletionStatus{RequestID: missing}, time.Minute))

	_, err := f.svc.CheckAllSourcesReady(ctx, missing)
	require.Error(t, err)

	var cached model.CompletionStatus
	found, err := f.cache.Get(ctx, CacheKey(missing), &cached)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewService_BoundsStatusTTL(t *testing.T) {
	st := memory.New()
	for _, ttl := range []time.Duration{0, -time.Second, time.Hour} {
		svc := NewService(st, cache.NewMemory(), ttl, nil, nil).(*service)
		assert.Equal(t, maxStatusCacheTTL, svc.cacheTTL, "ttl %s", ttl)
	}
	svc := NewService(st, cache.NewMemory(), 3*time.Second, nil, nil).(*service)
	assert.Equal(t, 3*time.Second, svc.cacheTTL)
}
