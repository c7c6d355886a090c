// Package store groups the domain repositories behind one transactional unit.
package store

import (
	"context"

	inspectionRepo "fulfillment-backend/internal/domains/inspection/repository"
	requestRepo "fulfillment-backend/internal/domains/request/repository"
	reservationRepo "fulfillment-backend/internal/domains/reservation/repository"
	stockRepo "fulfillment-backend/internal/domains/stock/repository"
	supplierRepo "fulfillment-backend/internal/domains/supplier/repository"
	warehouseRepo "fulfillment-backend/internal/domains/warehouse/repository"
)

// Tx exposes every repository bound to the same transaction.
type Tx interface {
	Requests() requestRepo.Repository
	Reservations() reservationRepo.Repository
	Stocks() stockRepo.Repository
	Warehouses() warehouseRepo.Repository
	Suppliers() supplierRepo.Repository
	Inspections() inspectionRepo.Repository
}

// Store runs fn atomically. Returning an error from fn rolls back all of its writes.
// Read-only callers may use Read, which does not take row locks.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	Read() Tx
}
