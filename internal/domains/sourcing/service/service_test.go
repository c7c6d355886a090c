package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	completion "fulfillment-backend/internal/domains/completion/service"
	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/sourcing/model"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	supplierModel "fulfillment-backend/internal/domains/supplier/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/internal/store/memory"
	"fulfillment-backend/pkg/cache"
)

type countingTrigger struct {
	mu    sync.Mutex
	calls []uuid.UUID
	next  completion.Trigger
}

func (c *countingTrigger) Trigger(ctx context.Context, requestID uuid.UUID) bool {
	c.mu.Lock()
	c.calls = append(c.calls, requestID)
	c.mu.Unlock()
	return c.next.Trigger(ctx, requestID)
}

type fixture struct {
	store   *memory.Store
	seed    *memory.Seeder
	cache   *cache.Memory
	trigger *countingTrigger
	svc     Service
	product uuid.UUID
	dealer  actor.Actor
	manager actor.Actor
}

func newFixture(t *testing.T, confirm supplierModel.AutoConfirm) *fixture {
	t.Helper()
	st := memory.New()
	c := cache.NewMemory()
	trigger := &countingTrigger{next: completion.NewService(st, c, time.Minute, nil, nil)}
	return &fixture{
		store:   st,
		seed:    st.Seed(),
		cache:   c,
		trigger: trigger,
		svc:     NewSourcingService(st, model.DefaultOptions(), confirm, trigger, c),
		product: uuid.New(),
		dealer:  actor.Actor{UserID: uuid.New(), Role: actor.RoleDealer},
		manager: actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager},
	}
}

func (f *fixture) reserved(t *testing.T, warehouseID uuid.UUID) (qty, reserved int) {
	t.Helper()
	rows, err := f.store.Read().Stocks().ListByWarehouse(context.Background(), warehouseID)
	require.NoError(t, err)
	for _, r := range rows {
		if r.ProductID == f.product {
			qty += r.Quantity
			reserved += r.ReservedQuantity
		}
	}
	return qty, reserved
}

func (f *fixture) reservations(t *testing.T, requestID uuid.UUID) []reservationModel.Reservation {
	t.Helper()
	list, err := f.store.Read().Reservations().ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	return list
}

func warehouseLine(id uuid.UUID, qty int) model.Line {
	return model.Line{SourceType: reservationModel.SourceWarehouse, SourceID: id, Quantity: qty, EstimatedDays: 2}
}

func TestQuote(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	wh := f.seed.Warehouse("Saigon", "SGN", "Ho Chi Minh City")
	f.seed.Stock(wh.ID, f.product, 30, 10)

	plan, err := f.svc.Quote(context.Background(), f.product, 15, "Ho Chi Minh City")
	require.NoError(t, err)
	assert.Equal(t, 20, plan.LocalAvailable)
	require.Len(t, plan.Lines, 1)
	assert.Equal(t, 15, plan.Lines[0].Quantity)
	assert.Equal(t, 1, plan.Lines[0].EstimatedDays)

	_, err = f.svc.Quote(context.Background(), f.product, 0, "")
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
}

func TestPreview_CachesAndPersistsNothing(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	wh := f.seed.Warehouse("Saigon", "SGN", "Ho Chi Minh City")
	f.seed.Stock(wh.ID, f.product, 30, 0)
	req := f.seed.Request(f.dealer.UserID, f.product, 10, "Ho Chi Minh City", requestModel.StatusPending)
	ctx := context.Background()

	plan, err := f.svc.Preview(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, plan.CanFulfill)

	var cached model.Plan
	found, err := f.cache.Get(ctx, PreviewCacheKey(req.ID), &cached)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, plan.Allocated(), cached.Allocated())

	got, err := f.store.Read().Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requestModel.StatusPending, got.Status)
	assert.Nil(t, got.RecommendedSource)
	assert.Empty(t, f.reservations(t, req.ID))
	_, reserved := f.reserved(t, wh.ID)
	assert.Zero(t, reserved)
}

func TestRecommend(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	sup := f.seed.Supplier("Pacific", 4, "0.90")
	f.seed.Offer(sup.ID, f.product, 100, "2.00")
	req := f.seed.Request(f.dealer.UserID, f.product, 10, "Hue", requestModel.StatusPending)
	ctx := context.Background()

	plan, err := f.svc.Recommend(ctx, f.dealer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requestModel.SourceImport, plan.SourceType)

	got, err := f.store.Read().Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requestModel.StatusAwaitingRecommendation, got.Status)
	require.NotNil(t, got.RecommendedSource)
	assert.Equal(t, requestModel.SourceImport, *got.RecommendedSource)
	assert.Equal(t, plan.Explanation, got.RecommendationExplanation)
	require.NotNil(t, got.EstimatedDeliveryDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 4), *got.EstimatedDeliveryDate, time.Minute)

	other := actor.Actor{UserID: uuid.New(), Role: actor.RoleDealer}
	_, err = f.svc.Recommend(ctx, other, req.ID)
	assert.ErrorIs(t, err, requestModel.ErrNotOwner)

	operator := actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator}
	_, err = f.svc.Recommend(ctx, operator, req.ID)
	assert.ErrorIs(t, err, apperror.ErrForbiddenRole)
}

func TestCommit_MixedPlan(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	wh := f.seed.Warehouse("Da Nang", "DAD", "Da Nang")
	f.seed.Stock(wh.ID, f.product, 60, 0)
	sup := f.seed.Supplier("Pacific", 9, "0.50")
	f.seed.Offer(sup.ID, f.product, 100, "2.00")
	req := f.seed.Request(f.dealer.UserID, f.product, 100, "Hue", requestModel.StatusAwaitingRecommendation)
	ctx := context.Background()

	created, err := f.svc.Commit(ctx, f.dealer, req.ID, nil)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, reservationModel.SourceWarehouse, created[0].Source())
	assert.Equal(t, 60, created[0].Quantity)
	assert.Equal(t, reservationModel.StatusPending, created[0].Status)
	assert.Equal(t, reservationModel.SourceSupplier, created[1].Source())
	assert.Equal(t, 40, created[1].Quantity)
	assert.Equal(t, reservationModel.StatusSupplierConfirmed, created[1].Status, "planner path auto-confirms")
	assert.True(t, created[1].AutoConfirmed)

	qty, reserved := f.reserved(t, wh.ID)
	assert.Equal(t, 60, qty)
	assert.Equal(t, 60, reserved)

	got, err := f.store.Read().Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requestModel.StatusWaitingForAllPickups, got.Status)
	assert.Equal(t, []uuid.UUID{req.ID}, f.trigger.calls)

	offers, err := f.store.Read().Suppliers().ListOffersByProduct(ctx, f.product)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, 100, offers[0].Item.AvailableQuantity, "supplier stock is checked, not decremented")
}

func TestCommit_TrustPolicyForPlannerPath(t *testing.T) {
	confirm := supplierModel.DefaultAutoConfirm()
	confirm.Planner = supplierModel.PolicyTrust
	f := newFixture(t, confirm)
	sup := f.seed.Supplier("Shaky", 3, "0.50")
	f.seed.Offer(sup.ID, f.product, 100, "2.00")
	req := f.seed.Request(f.dealer.UserID, f.product, 10, "Hue", requestModel.StatusAwaitingRecommendation)

	created, err := f.svc.Commit(context.Background(), f.manager, req.ID, nil)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, reservationModel.StatusSupplierPending, created[0].Status)
	assert.False(t, created[0].AutoConfirmed)
}

func TestCommit_AllOrNothing(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	a := f.seed.Warehouse("A", "A-01", "Da Nang")
	b := f.seed.Warehouse("B", "B-01", "Hue")
	f.seed.Stock(a.ID, f.product, 50, 0)
	f.seed.Stock(b.ID, f.product, 20, 5)
	req := f.seed.Request(f.dealer.UserID, f.product, 70, "Hue", requestModel.StatusAwaitingRecommendation)

	plan := &model.Plan{
		ProductID: f.product,
		Lines:     []model.Line{warehouseLine(a.ID, 50), warehouseLine(b.ID, 20)},
	}
	_, err := f.svc.Commit(context.Background(), f.dealer, req.ID, plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, stockModel.ErrInsufficientStock)
	assert.True(t, apperror.IsRetryable(err))
	assert.Contains(t, err.Error(), "line 2")

	assert.Empty(t, f.reservations(t, req.ID))
	_, reservedA := f.reserved(t, a.ID)
	_, reservedB := f.reserved(t, b.ID)
	assert.Zero(t, reservedA)
	assert.Equal(t, 5, reservedB)

	got, err := f.store.Read().Requests().GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, requestModel.StatusAwaitingRecommendation, got.Status)
	assert.Empty(t, f.trigger.calls)
}

func TestCommit_SupplierShortRollsBackWarehouseLines(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	wh := f.seed.Warehouse("A", "A-01", "Da Nang")
	f.seed.Stock(wh.ID, f.product, 50, 0)
	sup := f.seed.Supplier("Pacific", 9, "0.90")
	f.seed.Offer(sup.ID, f.product, 10, "2.00")
	req := f.seed.Request(f.dealer.UserID, f.product, 80, "Hue", requestModel.StatusAwaitingRecommendation)

	plan := &model.Plan{
		ProductID: f.product,
		Lines: []model.Line{
			warehouseLine(wh.ID, 50),
			{SourceType: reservationModel.SourceSupplier, SourceID: sup.ID, Quantity: 30, EstimatedDays: 9},
		},
	}
	_, err := f.svc.Commit(context.Background(), f.dealer, req.ID, plan)
	assert.ErrorIs(t, err, supplierModel.ErrSupplierShort)

	assert.Empty(t, f.reservations(t, req.ID))
	_, reserved := f.reserved(t, wh.ID)
	assert.Zero(t, reserved)
}

func TestCommit_RejectsInvalidPlans(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	wh := f.seed.Warehouse("A", "A-01", "Da Nang")
	f.seed.Stock(wh.ID, f.product, 50, 0)
	req := f.seed.Request(f.dealer.UserID, f.product, 10, "Hue", requestModel.StatusAwaitingRecommendation)
	ctx := context.Background()

	cases := map[string]struct {
		plan *model.Plan
		want error
	}{
		"empty":         {&model.Plan{}, model.ErrEmptyPlan},
		"over request":  {&model.Plan{Lines: []model.Line{warehouseLine(wh.ID, 11)}}, model.ErrInvalidLine},
		"zero quantity": {&model.Plan{Lines: []model.Line{warehouseLine(wh.ID, 0)}}, model.ErrInvalidLine},
		"no source":     {&model.Plan{Lines: []model.Line{warehouseLine(uuid.Nil, 5)}}, model.ErrInvalidLine},
		"other product": {&model.Plan{ProductID: uuid.New(), Lines: []model.Line{warehouseLine(wh.ID, 5)}}, model.ErrInvalidLine},
		"unknown kind":  {&model.Plan{Lines: []model.Line{{SourceType: "TRUCK", SourceID: wh.ID, Quantity: 5}}}, model.ErrInvalidLine},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Commit(ctx, f.dealer, req.ID, tc.plan)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.reservations(t, req.ID))
		})
	}
}

func TestCommit_WrongState(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	req := f.seed.Request(f.dealer.UserID, f.product, 10, "Hue", requestModel.StatusPending)

	_, err := f.svc.Commit(context.Background(), f.dealer, req.ID, nil)
	assert.ErrorIs(t, err, model.ErrNotCommittable)
	assert.Equal(t, apperror.KindWrongState, apperror.KindOf(err))
}

func TestCommit_ConcurrentNeverOverbooks(t *testing.T) {
	f := newFixture(t, supplierModel.DefaultAutoConfirm())
	wh := f.seed.Warehouse("A", "A-01", "Da Nang")
	f.seed.Stock(wh.ID, f.product, 100, 0)

	const n = 4
	requests := make([]requestModel.Request, n)
	for i := range requests {
		requests[i] = f.seed.Request(f.dealer.UserID, f.product, 60, "Hue", requestModel.StatusAwaitingRecommendation)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plan := &model.Plan{ProductID: f.product, Lines: []model.Line{warehouseLine(wh.ID, 60)}}
			_, errs[i] = f.svc.Commit(context.Background(), f.dealer, requests[i].ID, plan)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	qty, reserved := f.reserved(t, wh.ID)
	assert.Equal(t, 100, qty)
	assert.Equal(t, 60, reserved)
}
