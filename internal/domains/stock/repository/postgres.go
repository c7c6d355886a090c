package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/stock/model"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/pkg/database"
)

const stockColumns = `id, warehouse_id, product_id, batch_number, expiry_date, location_code,
	quantity, reserved_quantity, version, updated_at`

type postgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]model.WarehouseStock, error) {
	query := `
		SELECT w.id, w.name, w.code, w.city, w.address, w.is_active, w.version, w.created_at, w.updated_at,
			SUM(s.quantity) AS quantity,
			SUM(s.reserved_quantity) AS reserved,
			SUM(GREATEST(s.quantity - s.reserved_quantity, 0)) AS available
		FROM stocks s
		INNER JOIN warehouses w ON w.id = s.warehouse_id
		WHERE s.product_id = $1 AND w.is_active
		GROUP BY w.id
		HAVING SUM(GREATEST(s.quantity - s.reserved_quantity, 0)) > 0
		ORDER BY available DESC, w.id`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list stock by product: %w", err), nil)
	}
	defer rows.Close()

	var result []model.WarehouseStock
	for rows.Next() {
		ws := model.WarehouseStock{ProductID: productID}
		w := &ws.Warehouse
		if err := rows.Scan(
			&w.ID, &w.Name, &w.Code, &w.City, &w.Address, &w.IsActive, &w.Version, &w.CreatedAt, &w.UpdatedAt,
			&ws.Quantity, &ws.Reserved, &ws.Available,
		); err != nil {
			return nil, fmt.Errorf("scan warehouse stock: %w", err)
		}
		result = append(result, ws)
	}
	return result, rows.Err()
}

func (r *postgresRepository) LockForProduct(ctx context.Context, warehouseID, productID uuid.UUID) ([]*model.Stock, error) {
	// Pessimistic lock for the duration of the caller's transaction.
	query := `SELECT ` + stockColumns + `
		FROM stocks
		WHERE warehouse_id = $1 AND product_id = $2
		ORDER BY expiry_date ASC NULLS LAST, batch_number ASC
		FOR UPDATE`

	rows, err := r.db.Query(ctx, query, warehouseID, productID)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("lock stock: %w", err), nil)
	}
	defer rows.Close()

	var result []*model.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, database.MapError(err, nil)
	}
	return result, nil
}

func (r *postgresRepository) Save(ctx context.Context, s *model.Stock) error {
	query := `
		UPDATE stocks
		SET quantity = $2, reserved_quantity = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $4
		RETURNING version, updated_at`

	err := r.db.QueryRow(ctx, query, s.ID, s.Quantity, s.ReservedQuantity, s.Version).
		Scan(&s.Version, &s.UpdatedAt)
	if err != nil {
		// No row means the version moved underneath us.
		return database.MapError(err, apperror.ErrConcurrent)
	}
	return nil
}

func (r *postgresRepository) Upsert(ctx context.Context, s *model.Stock) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	query := `
		INSERT INTO stocks (id, warehouse_id, product_id, batch_number, expiry_date, location_code, quantity, reserved_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		ON CONFLICT (warehouse_id, product_id, batch_number) DO UPDATE
		SET quantity = EXCLUDED.quantity,
			expiry_date = EXCLUDED.expiry_date,
			location_code = EXCLUDED.location_code,
			version = stocks.version + 1,
			updated_at = NOW()
		RETURNING id, reserved_quantity, version, updated_at`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.WarehouseID, s.ProductID, s.BatchNumber, s.ExpiryDate, s.LocationCode, s.Quantity,
	).Scan(&s.ID, &s.ReservedQuantity, &s.Version, &s.UpdatedAt)
	if err != nil {
		return database.MapError(fmt.Errorf("upsert stock: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]model.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE warehouse_id = $1 ORDER BY product_id, batch_number`

	rows, err := r.db.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list stock: %w", err), nil)
	}
	defer rows.Close()

	var result []model.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStock(row scanner) (*model.Stock, error) {
	var s model.Stock
	if err := row.Scan(
		&s.ID, &s.WarehouseID, &s.ProductID, &s.BatchNumber, &s.ExpiryDate, &s.LocationCode,
		&s.Quantity, &s.ReservedQuantity, &s.Version, &s.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan stock: %w", err)
	}
	return &s, nil
}
