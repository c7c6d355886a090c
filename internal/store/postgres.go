package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	inspectionRepo "fulfillment-backend/internal/domains/inspection/repository"
	requestRepo "fulfillment-backend/internal/domains/request/repository"
	reservationRepo "fulfillment-backend/internal/domains/reservation/repository"
	stockRepo "fulfillment-backend/internal/domains/stock/repository"
	supplierRepo "fulfillment-backend/internal/domains/supplier/repository"
	warehouseRepo "fulfillment-backend/internal/domains/warehouse/repository"
	"fulfillment-backend/pkg/database"
)

type pgTx struct {
	db database.DBTX
}

func (t pgTx) Requests() requestRepo.Repository {
	return requestRepo.NewPostgresRepository(t.db)
}

func (t pgTx) Reservations() reservationRepo.Repository {
	return reservationRepo.NewPostgresRepository(t.db)
}

func (t pgTx) Stocks() stockRepo.Repository {
	return stockRepo.NewPostgresRepository(t.db)
}

func (t pgTx) Warehouses() warehouseRepo.Repository {
	return warehouseRepo.NewPostgresRepository(t.db)
}

func (t pgTx) Suppliers() supplierRepo.Repository {
	return supplierRepo.NewPostgresRepository(t.db)
}

func (t pgTx) Inspections() inspectionRepo.Repository {
	return inspectionRepo.NewPostgresRepository(t.db)
}

// PostgresStore runs each unit of work in a READ COMMITTED transaction; the
// row locks taken by the repositories provide the serialization.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	return database.WithTransactionOptions(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(pgTx{db: tx})
	})
}

func (s *PostgresStore) Read() Tx {
	return pgTx{db: s.pool}
}

var _ Store = (*PostgresStore)(nil)
