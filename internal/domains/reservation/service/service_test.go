package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	completion "fulfillment-backend/internal/domains/completion/service"
	requestModel "fulfillment-backend/internal/domains/request/model"
	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/internal/store/memory"
)

type fixture struct {
	store   *memory.Store
	seed    *memory.Seeder
	svc     Service
	product uuid.UUID
	dealer  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	return &fixture{
		store:   st,
		seed:    st.Seed(),
		svc:     NewReservationService(st, completion.NewService(st, nil, 0, nil, nil)),
		product: uuid.New(),
		dealer:  uuid.New(),
	}
}

func (f *fixture) requestStatus(t *testing.T, id uuid.UUID) requestModel.Status {
	t.Helper()
	req, err := f.store.Read().Requests().GetByID(context.Background(), id)
	require.NoError(t, err)
	return req.Status
}

func TestPick(t *testing.T) {
	f := newFixture(t)
	wh := f.seed.Warehouse("Saigon", "SGN", "Ho Chi Minh City")
	other := f.seed.Warehouse("Hanoi", "HAN", "Ha Noi")
	req := f.seed.Request(f.dealer, f.product, 10, "Ho Chi Minh City", requestModel.StatusReserved)
	res, err := model.NewWarehouseReservation(req.ID, f.product, wh.ID, 10, 1, time.Now())
	require.NoError(t, err)
	f.seed.Reservation(res)
	ctx := context.Background()

	stranger := actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator, WarehouseID: &other.ID}
	_, err = f.svc.Pick(ctx, stranger, res.ID)
	assert.ErrorIs(t, err, apperror.ErrSourceMismatch)

	dealer := actor.Actor{UserID: f.dealer, Role: actor.RoleDealer}
	_, err = f.svc.Pick(ctx, dealer, res.ID)
	assert.ErrorIs(t, err, apperror.ErrForbiddenRole)

	operator := actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator, WarehouseID: &wh.ID}
	picked, err := f.svc.Pick(ctx, operator, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPicked, picked.Status)
	assert.True(t, picked.IsPicked)
	require.NotNil(t, picked.PickedBy)
	assert.Equal(t, operator.UserID, *picked.PickedBy)

	// picked but not inspected yet
	assert.Equal(t, requestModel.StatusWaitingForAllPickups, f.requestStatus(t, req.ID))

	_, err = f.svc.Pick(ctx, operator, res.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyPicked)
	assert.Equal(t, apperror.KindWrongState, apperror.KindOf(err))
}

func TestPick_SupplierReservationRejected(t *testing.T) {
	f := newFixture(t)
	sup := f.seed.Supplier("Pacific", 5, "0.90")
	req := f.seed.Request(f.dealer, f.product, 10, "Hue", requestModel.StatusReserved)
	res, err := model.NewSupplierReservation(req.ID, f.product, sup.ID, 10, 5, false, time.Now())
	require.NoError(t, err)
	f.seed.Reservation(res)

	admin := actor.Actor{UserID: uuid.New(), Role: actor.RoleAdmin}
	_, err = f.svc.Pick(context.Background(), admin, res.ID)
	assert.ErrorIs(t, err, model.ErrNotWarehouseSource)
}

func TestPick_RequestNoLongerSourcing(t *testing.T) {
	f := newFixture(t)
	wh := f.seed.Warehouse("Saigon", "SGN", "Ho Chi Minh City")
	req := f.seed.Request(f.dealer, f.product, 10, "Hue", requestModel.StatusCancelled)
	res, err := model.NewWarehouseReservation(req.ID, f.product, wh.ID, 10, 1, time.Now())
	require.NoError(t, err)
	f.seed.Reservation(res)

	operator := actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator, WarehouseID: &wh.ID}
	_, err = f.svc.Pick(context.Background(), operator, res.ID)
	assert.ErrorIs(t, err, requestModel.ErrNotSourcing)

	_, err = f.svc.Pick(context.Background(), operator, uuid.New())
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestConfirmSupplier(t *testing.T) {
	f := newFixture(t)
	sup := f.seed.Supplier("Pacific", 5, "0.90")
	otherSup := f.seed.Supplier("Atlantic", 5, "0.90")
	req := f.seed.Request(f.dealer, f.product, 10, "Hue", requestModel.StatusReserved)
	res, err := model.NewSupplierReservation(req.ID, f.product, sup.ID, 10, 5, false, time.Now())
	require.NoError(t, err)
	f.seed.Reservation(res)
	ctx := context.Background()

	wrong := actor.Actor{UserID: uuid.New(), Role: actor.RoleSupplier, SupplierID: &otherSup.ID}
	_, err = f.svc.ConfirmSupplier(ctx, wrong, res.ID)
	assert.ErrorIs(t, err, apperror.ErrSourceMismatch)

	supplier := actor.Actor{UserID: uuid.New(), Role: actor.RoleSupplier, SupplierID: &sup.ID}
	confirmed, err := f.svc.ConfirmSupplier(ctx, supplier, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSupplierConfirmed, confirmed.Status)
	assert.False(t, confirmed.AutoConfirmed)
	assert.Equal(t, requestModel.StatusReadyForAllocation, f.requestStatus(t, req.ID))

	// the request left the sourcing states, so a second confirm is refused
	_, err = f.svc.ConfirmSupplier(ctx, supplier, res.ID)
	assert.ErrorIs(t, err, requestModel.ErrNotSourcing)
}

func TestConfirmSupplier_Twice(t *testing.T) {
	f := newFixture(t)
	wh := f.seed.Warehouse("Saigon", "SGN", "Ho Chi Minh City")
	sup := f.seed.Supplier("Pacific", 5, "0.90")
	req := f.seed.Request(f.dealer, f.product, 20, "Hue", requestModel.StatusReserved)
	local, err := model.NewWarehouseReservation(req.ID, f.product, wh.ID, 10, 1, time.Now())
	require.NoError(t, err)
	f.seed.Reservation(local)
	res, err := model.NewSupplierReservation(req.ID, f.product, sup.ID, 10, 5, false, time.Now())
	require.NoError(t, err)
	f.seed.Reservation(res)

	manager := actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager}
	_, err = f.svc.ConfirmSupplier(context.Background(), manager, res.ID)
	require.NoError(t, err)
	assert.Equal(t, requestModel.StatusWaitingForAllPickups, f.requestStatus(t, req.ID))

	_, err = f.svc.ConfirmSupplier(context.Background(), manager, res.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyConfirmed)
}

func TestListByRequestAndLineage(t *testing.T) {
	f := newFixture(t)
	a := f.seed.Warehouse("A", "A-01", "Da Nang")
	b := f.seed.Warehouse("B", "B-01", "Hue")
	req := f.seed.Request(f.dealer, f.product, 10, "Hue", requestModel.StatusReserved)
	ctx := context.Background()

	empty, err := f.svc.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = f.svc.ListByRequest(ctx, uuid.New())
	assert.ErrorIs(t, err, requestModel.ErrRequestNotFound)

	start := time.Now()
	first, err := model.NewWarehouseReservation(req.ID, f.product, a.ID, 10, 2, start)
	require.NoError(t, err)
	second, err := first.Replacement(10, &b.ID, nil, 2, false, start.Add(time.Second))
	require.NoError(t, err)
	f.seed.Reservation(first)
	f.seed.Reservation(second)

	list, err := f.svc.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	chain, err := f.svc.Lineage(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, first.ID, chain[0].ID)
	assert.Equal(t, second.ID, chain[1].ID)

	got, err := f.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReplacesID)
	assert.Equal(t, first.ID, *got.ReplacesID)
}
