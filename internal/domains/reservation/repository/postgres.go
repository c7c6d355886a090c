package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/pkg/database"
)

const reservationColumns = `id, request_id, product_id, quantity, warehouse_id, supplier_id, is_local,
	status, estimated_days, is_blocked, block_reason,
	is_picked, picked_at, picked_by,
	ai_confirmed, ai_confirmed_at,
	procurement_resolved, procurement_resolved_at, procurement_notes,
	supplier_confirmed_at, auto_confirmed,
	retired, retired_at, replaces_id,
	force_ready_reason, forced_by,
	version, created_at, updated_at`

type postgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, 1, $27, $28)
		RETURNING version`

	err := r.db.QueryRow(ctx, query,
		res.ID, res.RequestID, res.ProductID, res.Quantity, res.WarehouseID, res.SupplierID, res.IsLocal,
		res.Status, res.EstimatedDays, res.IsBlocked, res.BlockReason,
		res.IsPicked, res.PickedAt, res.PickedBy,
		res.AIConfirmed, res.AIConfirmedAt,
		res.ProcurementResolved, res.ProcurementResolvedAt, res.ProcurementNotes,
		res.SupplierConfirmedAt, res.AutoConfirmed,
		res.Retired, res.RetiredAt, res.ReplacesID,
		res.ForceReadyReason, res.ForcedBy,
		res.CreatedAt, res.UpdatedAt,
	).Scan(&res.Version)
	if err != nil {
		return database.MapError(fmt.Errorf("insert reservation: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, database.MapError(err, model.ErrReservationNotFound)
	}
	return res, nil
}

func (r *postgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, database.MapError(err, model.ErrReservationNotFound)
	}
	return res, nil
}

func (r *postgresRepository) Update(ctx context.Context, res *model.Reservation) error {
	query := `
		UPDATE reservations SET
			quantity = $2, status = $3, is_blocked = $4, block_reason = $5,
			is_picked = $6, picked_at = $7, picked_by = $8,
			ai_confirmed = $9, ai_confirmed_at = $10,
			procurement_resolved = $11, procurement_resolved_at = $12, procurement_notes = $13,
			supplier_confirmed_at = $14, auto_confirmed = $15,
			retired = $16, retired_at = $17,
			force_ready_reason = $18, forced_by = $19,
			version = version + 1, updated_at = $20
		WHERE id = $1 AND version = $21
		RETURNING version`

	err := r.db.QueryRow(ctx, query,
		res.ID, res.Quantity, res.Status, res.IsBlocked, res.BlockReason,
		res.IsPicked, res.PickedAt, res.PickedBy,
		res.AIConfirmed, res.AIConfirmedAt,
		res.ProcurementResolved, res.ProcurementResolvedAt, res.ProcurementNotes,
		res.SupplierConfirmedAt, res.AutoConfirmed,
		res.Retired, res.RetiredAt,
		res.ForceReadyReason, res.ForcedBy,
		res.UpdatedAt, res.Version,
	).Scan(&res.Version)
	if err != nil {
		return database.MapError(err, apperror.ErrConcurrent)
	}
	return nil
}

func (r *postgresRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations WHERE request_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, requestID)
}

func (r *postgresRepository) ListStale(ctx context.Context, f StaleFilter) ([]model.Reservation, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	query := `SELECT ` + prefixed("res") + `
		FROM reservations res
		INNER JOIN product_requests pr ON pr.id = res.request_id
		WHERE res.warehouse_id IS NOT NULL
			AND NOT res.retired AND res.quantity > 0
			AND NOT res.is_picked
			AND res.created_at < $1
			AND pr.status IN ('RESERVED', 'PICKING', 'INSPECTION_PENDING',
				'PARTIALLY_BLOCKED', 'BLOCKED', 'WAITING_FOR_ALL_PICKUPS')
		ORDER BY res.created_at
		LIMIT $2`
	return r.list(ctx, query, f.CreatedBefore, limit)
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list reservations: %w", err), nil)
	}
	defer rows.Close()

	var result []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		result = append(result, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, database.MapError(err, nil)
	}
	return result, nil
}

func prefixed(alias string) string {
	cols := []string{
		"id", "request_id", "product_id", "quantity", "warehouse_id", "supplier_id", "is_local",
		"status", "estimated_days", "is_blocked", "block_reason",
		"is_picked", "picked_at", "picked_by",
		"ai_confirmed", "ai_confirmed_at",
		"procurement_resolved", "procurement_resolved_at", "procurement_notes",
		"supplier_confirmed_at", "auto_confirmed",
		"retired", "retired_at", "replaces_id",
		"force_ready_reason", "forced_by",
		"version", "created_at", "updated_at",
	}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(row scanner) (*model.Reservation, error) {
	var res model.Reservation
	if err := row.Scan(
		&res.ID, &res.RequestID, &res.ProductID, &res.Quantity, &res.WarehouseID, &res.SupplierID, &res.IsLocal,
		&res.Status, &res.EstimatedDays, &res.IsBlocked, &res.BlockReason,
		&res.IsPicked, &res.PickedAt, &res.PickedBy,
		&res.AIConfirmed, &res.AIConfirmedAt,
		&res.ProcurementResolved, &res.ProcurementResolvedAt, &res.ProcurementNotes,
		&res.SupplierConfirmedAt, &res.AutoConfirmed,
		&res.Retired, &res.RetiredAt, &res.ReplacesID,
		&res.ForceReadyReason, &res.ForcedBy,
		&res.Version, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}
