package model

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/apperror"
)

var (
	now      = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	operator = actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator}
	manager  = actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager}
)

func warehouseRes(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewWarehouseReservation(uuid.New(), uuid.New(), uuid.New(), 10, 1, now)
	require.NoError(t, err)
	return r
}

func supplierRes(t *testing.T, confirmed bool) *Reservation {
	t.Helper()
	r, err := NewSupplierReservation(uuid.New(), uuid.New(), uuid.New(), 10, 3, confirmed, now)
	require.NoError(t, err)
	return r
}

func TestTransitionTable_CoversEveryStatus(t *testing.T) {
	for _, s := range AllStatuses {
		_, ok := transitions[s]
		assert.True(t, ok, "status %s has no transition entry", s)
	}
	assert.Len(t, transitions, len(AllStatuses))
}

func TestPick(t *testing.T) {
	r := warehouseRes(t)

	require.NoError(t, r.Pick(operator, now))
	assert.Equal(t, StatusPicked, r.Status)
	assert.True(t, r.IsPicked)
	assert.Equal(t, operator.UserID, *r.PickedBy)

	err := r.Pick(operator, now)
	assert.True(t, errors.Is(err, ErrAlreadyPicked))
	assert.Equal(t, apperror.KindWrongState, apperror.KindOf(err))
}

func TestPick_SupplierRejected(t *testing.T) {
	r := supplierRes(t, false)
	assert.ErrorIs(t, r.Pick(operator, now), ErrNotWarehouseSource)
}

func TestApplyVerdict(t *testing.T) {
	tests := []struct {
		outcome     Outcome
		wantStatus  Status
		wantBlocked bool
		wantReady   bool
	}{
		{OutcomePass, StatusAIConfirmed, false, true},
		{OutcomeDamaged, StatusAIDamaged, true, false},
		{OutcomeExpired, StatusAIDamaged, true, false},
		{OutcomeLowConfidence, StatusAILowConfidence, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			r := warehouseRes(t)
			require.NoError(t, r.Pick(operator, now))
			require.NoError(t, r.ApplyVerdict(tt.outcome, now))

			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Equal(t, tt.wantBlocked, r.IsBlocked)
			assert.Equal(t, tt.wantReady, IsReady(*r))
		})
	}
}

func TestApplyVerdict_LaterPhotoOnlyDemotes(t *testing.T) {
	r := warehouseRes(t)
	require.NoError(t, r.Pick(operator, now))
	require.NoError(t, r.ApplyVerdict(OutcomePass, now))

	require.NoError(t, r.ApplyVerdict(OutcomePass, now))
	assert.Equal(t, StatusAIConfirmed, r.Status)

	require.NoError(t, r.ApplyVerdict(OutcomeExpired, now))
	assert.Equal(t, StatusAIDamaged, r.Status)
	assert.False(t, r.AcceptsVerdict())
	assert.ErrorIs(t, r.ApplyVerdict(OutcomePass, now), ErrInvalidTransition)
}

func TestApplyVerdict_RequiresPick(t *testing.T) {
	r := warehouseRes(t)
	assert.ErrorIs(t, r.ApplyVerdict(OutcomePass, now), ErrInvalidTransition)
	assert.ErrorIs(t, r.ApplyVerdict(Outcome("MAYBE"), now), ErrInvalidOutcome)
}

func TestResolve(t *testing.T) {
	r := warehouseRes(t)
	require.NoError(t, r.Pick(operator, now))
	assert.ErrorIs(t, r.Resolve(manager, "fine", now), ErrNotBlocked)

	require.NoError(t, r.ApplyVerdict(OutcomeDamaged, now))
	require.NoError(t, r.Resolve(manager, "minor dent, dealer accepts", now))

	assert.Equal(t, StatusProcurementResolved, r.Status)
	assert.False(t, r.IsBlocked)
	assert.True(t, r.ProcurementResolved)
	assert.True(t, IsReady(*r))
}

func TestResolve_BlockedBeforePickGoesBackToPending(t *testing.T) {
	r := warehouseRes(t)
	require.NoError(t, r.Block("wrong shelf", now))
	require.NoError(t, r.Resolve(manager, "shelf fixed", now))

	assert.Equal(t, StatusPending, r.Status)
	assert.False(t, r.IsBlocked)
	assert.False(t, r.ProcurementResolved)
	assert.False(t, IsReady(*r))

	require.NoError(t, r.Pick(operator, now))
	assert.Equal(t, StatusPicked, r.Status)
	require.NoError(t, r.ApplyVerdict(OutcomePass, now))
	assert.True(t, IsReady(*r))
}

func TestReduce(t *testing.T) {
	r := warehouseRes(t)
	assert.ErrorIs(t, r.Reduce(4, "split", now), ErrNotBlocked)

	require.NoError(t, r.Pick(operator, now))
	require.NoError(t, r.ApplyVerdict(OutcomeDamaged, now))

	assert.ErrorIs(t, r.Reduce(0, "split", now), ErrInvalidQuantity)
	assert.ErrorIs(t, r.Reduce(r.Quantity, "split", now), ErrInvalidQuantity)

	require.NoError(t, r.Reduce(4, "4 units moved", now))
	assert.Equal(t, 6, r.Quantity)
	assert.True(t, r.IsBlocked)
	assert.True(t, r.IsLive())
	assert.Equal(t, StatusAIDamaged, r.Status)
}

func TestRetireAndReplace(t *testing.T) {
	r := warehouseRes(t)
	require.NoError(t, r.Pick(operator, now))
	require.NoError(t, r.ApplyVerdict(OutcomeDamaged, now))

	other := uuid.New()
	next, err := r.Replacement(r.Quantity, &other, nil, 1, false, now)
	require.NoError(t, err)
	require.NoError(t, r.Retire(manager, "replaced", now))

	assert.True(t, r.Retired)
	assert.Equal(t, 0, r.Quantity)
	assert.Equal(t, StatusProcurementResolved, r.Status)
	assert.False(t, r.IsLive())

	assert.Equal(t, StatusPending, next.Status)
	assert.Equal(t, 10, next.Quantity)
	assert.Equal(t, r.ID, *next.ReplacesID)
	assert.Equal(t, other, *next.WarehouseID)

	assert.ErrorIs(t, r.Pick(operator, now), ErrRetired)
	assert.ErrorIs(t, r.Retire(manager, "again", now), ErrRetired)
}

func TestReplacement_RequiresOneSource(t *testing.T) {
	r := warehouseRes(t)
	a, b := uuid.New(), uuid.New()
	_, err := r.Replacement(5, &a, &b, 1, false, now)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestConfirmSupplier(t *testing.T) {
	r := supplierRes(t, false)
	assert.False(t, IsReady(*r))

	require.NoError(t, r.ConfirmSupplier(operator, now))
	assert.True(t, IsReady(*r))
	assert.ErrorIs(t, r.ConfirmSupplier(operator, now), ErrAlreadyConfirmed)

	auto := supplierRes(t, true)
	assert.True(t, auto.AutoConfirmed)
	assert.ErrorIs(t, auto.ConfirmSupplier(operator, now), ErrAlreadyConfirmed)
}

func TestForceReady(t *testing.T) {
	r := warehouseRes(t)
	assert.ErrorIs(t, r.ForceReady(manager, " ", now), ErrReasonRequired)

	require.NoError(t, r.ForceReady(manager, "picked by hand, scanner down", now))
	assert.Equal(t, StatusReady, r.Status)
	assert.True(t, IsReady(*r))
	assert.ErrorIs(t, r.ForceReady(manager, "again", now), ErrAlreadyReady)
}

func TestOverride(t *testing.T) {
	t.Run("pass on low confidence resolves", func(t *testing.T) {
		r := warehouseRes(t)
		require.NoError(t, r.Pick(operator, now))
		require.NoError(t, r.ApplyVerdict(OutcomeLowConfidence, now))
		require.NoError(t, r.ApplyOverride(manager, OutcomePass, "photo was blurry, item fine", now))
		assert.Equal(t, StatusProcurementResolved, r.Status)
		assert.True(t, IsReady(*r))
	})

	t.Run("damage on confirmed blocks", func(t *testing.T) {
		r := warehouseRes(t)
		require.NoError(t, r.Pick(operator, now))
		require.NoError(t, r.ApplyVerdict(OutcomePass, now))
		require.NoError(t, r.ApplyOverride(manager, OutcomeDamaged, "torn seal visible", now))
		assert.Equal(t, StatusAIDamaged, r.Status)
		assert.False(t, r.AIConfirmed)
		assert.False(t, IsReady(*r))
	})

	t.Run("reason required", func(t *testing.T) {
		r := warehouseRes(t)
		assert.ErrorIs(t, r.ApplyOverride(manager, OutcomePass, "", now), ErrReasonRequired)
	})
}

func TestResetForReinspection(t *testing.T) {
	r := warehouseRes(t)
	require.NoError(t, r.Pick(operator, now))
	require.NoError(t, r.ApplyVerdict(OutcomeLowConfidence, now))
	require.NoError(t, r.ResetForReinspection(now))

	assert.Equal(t, StatusPending, r.Status)
	assert.False(t, r.IsPicked)
	assert.False(t, r.IsBlocked)
	require.NoError(t, r.Pick(operator, now))
}

func TestIsReady_Table(t *testing.T) {
	wh := uuid.New()
	sup := uuid.New()

	tests := []struct {
		name string
		r    Reservation
		want bool
	}{
		{"warehouse pending", Reservation{WarehouseID: &wh, Status: StatusPending}, false},
		{"warehouse picked only", Reservation{WarehouseID: &wh, IsPicked: true, Status: StatusPicked}, false},
		{"warehouse ai confirmed flag", Reservation{WarehouseID: &wh, IsPicked: true, AIConfirmed: true}, true},
		{"warehouse resolved flag", Reservation{WarehouseID: &wh, IsPicked: true, ProcurementResolved: true}, true},
		{"warehouse ready status", Reservation{WarehouseID: &wh, IsPicked: true, Status: StatusReady}, true},
		{"warehouse confirmed not picked", Reservation{WarehouseID: &wh, AIConfirmed: true}, false},
		{"supplier pending", Reservation{SupplierID: &sup, Status: StatusSupplierPending}, false},
		{"supplier confirmed", Reservation{SupplierID: &sup, Status: StatusSupplierConfirmed}, true},
		{"supplier legacy resolved", Reservation{SupplierID: &sup, ProcurementResolved: true}, true},
		{"no source", Reservation{Status: StatusReady, IsPicked: true, AIConfirmed: true}, false},
		{"both sources", Reservation{WarehouseID: &wh, SupplierID: &sup, Status: StatusReady, IsPicked: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReady(tt.r))
		})
	}
}

// Blocking dominates every other field combination.
func TestIsReady_BlockDominates(t *testing.T) {
	wh := uuid.New()
	sup := uuid.New()
	sources := []struct{ wh, sup *uuid.UUID }{{&wh, nil}, {nil, &sup}, {nil, nil}, {&wh, &sup}}
	bools := []bool{false, true}

	for _, src := range sources {
		for _, status := range AllStatuses {
			for _, picked := range bools {
				for _, ai := range bools {
					for _, resolved := range bools {
						r := Reservation{
							WarehouseID: src.wh, SupplierID: src.sup, Status: status,
							IsPicked: picked, AIConfirmed: ai, ProcurementResolved: resolved,
							IsBlocked: true, Quantity: 5,
						}
						assert.False(t, IsReady(r), "blocked reservation ready: %+v", r)
					}
				}
			}
		}
	}
}

// Random walks through the public transitions never leave the predicate
// undefined and never produce a ready blocked reservation.
func TestIsReady_TotalOverRandomWalks(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	outcomes := []Outcome{OutcomePass, OutcomeDamaged, OutcomeExpired, OutcomeLowConfidence}

	for walk := 0; walk < 500; walk++ {
		var r *Reservation
		if rng.Intn(2) == 0 {
			r = warehouseRes(t)
		} else {
			r = supplierRes(t, rng.Intn(2) == 0)
		}
		for step := 0; step < 12; step++ {
			switch rng.Intn(9) {
			case 0:
				_ = r.Pick(operator, now)
			case 1:
				_ = r.ApplyVerdict(outcomes[rng.Intn(len(outcomes))], now)
			case 2:
				_ = r.ApplyOverride(manager, outcomes[rng.Intn(len(outcomes))], "review", now)
			case 3:
				_ = r.Resolve(manager, "ok", now)
			case 4:
				_ = r.Retire(manager, "replace", now)
			case 5:
				_ = r.ConfirmSupplier(operator, now)
			case 6:
				_ = r.Block("rejected", now)
			case 7:
				_ = r.ForceReady(manager, "stuck", now)
			case 8:
				_ = r.ResetForReinspection(now)
			}

			assert.True(t, r.Status.IsValid(), "invalid status %q", r.Status)
			ready := IsReady(*r)
			if r.IsBlocked {
				assert.False(t, ready)
			}
			if r.Retired {
				assert.Equal(t, 0, r.Quantity)
				assert.False(t, r.IsLive())
			}
		}
	}
}

func TestLineage(t *testing.T) {
	a := Reservation{ID: uuid.New()}
	b := Reservation{ID: uuid.New(), ReplacesID: &a.ID}
	c := Reservation{ID: uuid.New(), ReplacesID: &b.ID}
	unrelated := Reservation{ID: uuid.New()}

	chain := Lineage([]Reservation{c, unrelated, a, b}, c.ID)
	require.Len(t, chain, 3)
	assert.Equal(t, a.ID, chain[0].ID)
	assert.Equal(t, c.ID, chain[2].ID)

	assert.Empty(t, Lineage(nil, uuid.New()))
}

func TestLive(t *testing.T) {
	wh := uuid.New()
	all := []Reservation{
		{ID: uuid.New(), WarehouseID: &wh, Quantity: 5},
		{ID: uuid.New(), WarehouseID: &wh, Quantity: 0},
		{ID: uuid.New(), WarehouseID: &wh, Quantity: 5, Retired: true},
	}
	assert.Len(t, Live(all), 1)
}
