package actor

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fulfillment-backend/internal/shared/apperror"
)

func TestActor_Require(t *testing.T) {
	a := Actor{UserID: uuid.New(), Role: RoleDealer}

	assert.NoError(t, a.Require(RoleDealer, RoleAdmin))

	err := a.Require(RoleProcurementManager)
	assert.True(t, errors.Is(err, apperror.ErrForbiddenRole))
	assert.Equal(t, apperror.KindWrongRole, apperror.KindOf(err))
}

func TestActor_RequireWarehouse(t *testing.T) {
	wh := uuid.New()
	other := uuid.New()

	op := Actor{UserID: uuid.New(), Role: RoleWarehouseOperator, WarehouseID: &wh}
	assert.NoError(t, op.RequireWarehouse(wh))
	assert.True(t, errors.Is(op.RequireWarehouse(other), apperror.ErrSourceMismatch))

	unassigned := Actor{UserID: uuid.New(), Role: RoleWarehouseOperator}
	assert.Error(t, unassigned.RequireWarehouse(wh))

	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}
	assert.NoError(t, admin.RequireWarehouse(other))
}

func TestActor_RequireSupplier(t *testing.T) {
	sup := uuid.New()

	s := Actor{UserID: uuid.New(), Role: RoleSupplier, SupplierID: &sup}
	assert.NoError(t, s.RequireSupplier(sup))
	assert.Error(t, s.RequireSupplier(uuid.New()))

	pm := Actor{UserID: uuid.New(), Role: RoleProcurementManager}
	assert.NoError(t, pm.RequireSupplier(sup))
}

func TestSystemActor(t *testing.T) {
	sys := System()
	assert.Nil(t, sys.UserRef())
	assert.True(t, sys.Role.IsValid())
	assert.False(t, Role("GUEST").IsValid())
}
