// Package memory is an in-process Store used by tests and local runs without Postgres.
// One mutex serializes every transaction; a failed transaction restores the snapshot
// taken when it began.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	inspectionModel "fulfillment-backend/internal/domains/inspection/model"
	inspectionRepo "fulfillment-backend/internal/domains/inspection/repository"
	requestModel "fulfillment-backend/internal/domains/request/model"
	requestRepo "fulfillment-backend/internal/domains/request/repository"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	reservationRepo "fulfillment-backend/internal/domains/reservation/repository"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	stockRepo "fulfillment-backend/internal/domains/stock/repository"
	supplierModel "fulfillment-backend/internal/domains/supplier/model"
	supplierRepo "fulfillment-backend/internal/domains/supplier/repository"
	warehouseModel "fulfillment-backend/internal/domains/warehouse/model"
	warehouseRepo "fulfillment-backend/internal/domains/warehouse/repository"
	"fulfillment-backend/internal/store"
)

type state struct {
	requests     map[uuid.UUID]requestModel.Request
	history      []requestModel.StatusHistory
	reservations map[uuid.UUID]reservationModel.Reservation
	stocks       map[uuid.UUID]stockModel.Stock
	warehouses   map[uuid.UUID]warehouseModel.Warehouse
	suppliers    map[uuid.UUID]supplierModel.Supplier
	catalog      map[uuid.UUID]supplierModel.CatalogItem
	inspections  map[uuid.UUID]inspectionModel.Inspection
}

func newState() *state {
	return &state{
		requests:     make(map[uuid.UUID]requestModel.Request),
		reservations: make(map[uuid.UUID]reservationModel.Reservation),
		stocks:       make(map[uuid.UUID]stockModel.Stock),
		warehouses:   make(map[uuid.UUID]warehouseModel.Warehouse),
		suppliers:    make(map[uuid.UUID]supplierModel.Supplier),
		catalog:      make(map[uuid.UUID]supplierModel.CatalogItem),
		inspections:  make(map[uuid.UUID]inspectionModel.Inspection),
	}
}

// clone copies every table. Rows are values, so the copy is independent.
func (s *state) clone() *state {
	return &state{
		requests:     maps.Clone(s.requests),
		history:      append([]requestModel.StatusHistory(nil), s.history...),
		reservations: maps.Clone(s.reservations),
		stocks:       maps.Clone(s.stocks),
		warehouses:   maps.Clone(s.warehouses),
		suppliers:    maps.Clone(s.suppliers),
		catalog:      maps.Clone(s.catalog),
		inspections:  maps.Clone(s.inspections),
	}
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(&tx{s: s, inTx: true})
}

func (s *Store) Read() store.Tx {
	return &tx{s: s}
}

// tx hands out repositories. Outside RunInTx every call takes the mutex itself.
type tx struct {
	s    *Store
	inTx bool
}

func (t *tx) lock() func() {
	if t.inTx {
		return func() {}
	}
	t.s.mu.Lock()
	return t.s.mu.Unlock
}

func (t *tx) state() *state { return t.s.st }

func (t *tx) Requests() requestRepo.Repository { return &requests{t} }
func (t *tx) Reservations() reservationRepo.Repository { return &reservations{t} }
func (t *tx) Stocks() stockRepo.Repository { return &stocks{t} }
func (t *tx) Warehouses() warehouseRepo.Repository { return &warehouses{t} }
func (t *tx) Suppliers() supplierRepo.Repository { return &suppliers{t} }
func (t *tx) Inspections() inspectionRepo.Repository { return &inspections{t} }

var _ store.Store = (*Store)(nil)
