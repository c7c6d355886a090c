package actor

import (
	"fmt"

	"github.com/google/uuid"

	"fulfillment-backend/internal/shared/apperror"
)

type Role string

const (
	RoleDealer             Role = "DEALER"
	RoleWarehouseOperator  Role = "WAREHOUSE_OPERATOR"
	RoleProcurementManager Role = "PROCUREMENT_MANAGER"
	RoleSupplier           Role = "SUPPLIER"
	RoleLogisticsPlanner   Role = "LOGISTICS_PLANNER"
	RoleAdmin              Role = "ADMIN"
	// RoleSystem is used by the worker for rechecks and scans.
	RoleSystem Role = "SYSTEM"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleDealer, RoleWarehouseOperator, RoleProcurementManager,
		RoleSupplier, RoleLogisticsPlanner, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor is the principal performing a mutation. It is passed explicitly into
// every lifecycle method.
type Actor struct {
	UserID      uuid.UUID
	Role        Role
	WarehouseID *uuid.UUID
	SupplierID  *uuid.UUID
}

// System returns the actor used by background jobs.
func System() Actor {
	return Actor{UserID: uuid.Nil, Role: RoleSystem}
}

func (a Actor) String() string {
	return fmt.Sprintf("%s(%s)", a.Role, a.UserID)
}

func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Require returns a WRONG_ROLE error unless the actor holds one of roles.
func (a Actor) Require(roles ...Role) error {
	if a.HasRole(roles...) {
		return nil
	}
	return apperror.ErrForbiddenRole.WithDetail("role %s, need one of %v", a.Role, roles)
}

// RequireWarehouse checks the actor is assigned to warehouseID.
// Admins pass for any warehouse.
func (a Actor) RequireWarehouse(warehouseID uuid.UUID) error {
	if a.Role == RoleAdmin {
		return nil
	}
	if a.WarehouseID == nil || *a.WarehouseID != warehouseID {
		return apperror.ErrSourceMismatch.WithDetail("warehouse %s", warehouseID)
	}
	return nil
}

// RequireSupplier checks the actor is assigned to supplierID.
// Procurement managers and admins may confirm on the supplier's behalf.
func (a Actor) RequireSupplier(supplierID uuid.UUID) error {
	if a.HasRole(RoleAdmin, RoleProcurementManager) {
		return nil
	}
	if a.SupplierID == nil || *a.SupplierID != supplierID {
		return apperror.ErrSourceMismatch.WithDetail("supplier %s", supplierID)
	}
	return nil
}

// UserRef returns a pointer to the user id, nil for the system actor.
func (a Actor) UserRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
