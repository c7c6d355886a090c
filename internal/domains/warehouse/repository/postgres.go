package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/pkg/database"
)

const warehouseColumns = `id, name, code, city, address, is_active, version, created_at, updated_at`

type postgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, wh *model.Warehouse) error {
	if wh.ID == uuid.Nil {
		wh.ID = uuid.New()
	}
	query := `INSERT INTO warehouses (id, name, code, city, address, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING is_active, version, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, wh.ID, wh.Name, wh.Code, wh.City, wh.Address).
		Scan(&wh.IsActive, &wh.Version, &wh.CreatedAt, &wh.UpdatedAt)
	if err != nil {
		return database.MapError(fmt.Errorf("create warehouse: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = $1`

	var wh model.Warehouse
	err := r.db.QueryRow(ctx, query, id).Scan(
		&wh.ID, &wh.Name, &wh.Code, &wh.City, &wh.Address,
		&wh.IsActive, &wh.Version, &wh.CreatedAt, &wh.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapError(err, model.ErrWarehouseNotFound)
	}
	return &wh, nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListWarehouseFilter) ([]model.Warehouse, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1
	if filter.City != "" {
		where = append(where, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *filter.IsActive)
		idx++
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM warehouses WHERE %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		warehouseColumns, strings.Join(where, " AND "), idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list warehouses: %w", err), nil)
	}
	defer rows.Close()

	var result []model.Warehouse
	for rows.Next() {
		var wh model.Warehouse
		if err := rows.Scan(
			&wh.ID, &wh.Name, &wh.Code, &wh.City, &wh.Address,
			&wh.IsActive, &wh.Version, &wh.CreatedAt, &wh.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		result = append(result, wh)
	}
	return result, rows.Err()
}
