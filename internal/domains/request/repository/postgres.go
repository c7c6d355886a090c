package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/request/model"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/pkg/database"
)

const requestColumns = `id, request_number, dealer_id, product_id, quantity,
	delivery_location, delivery_city, status,
	recommended_source, recommendation_explanation,
	requested_delivery_date, estimated_delivery_date,
	dealer_notes, procurement_notes,
	version, created_at, updated_at, confirmed_at, completed_at`

type postgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, req *model.Request) error {
	query := `
		INSERT INTO product_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15, $16, $17, $18)
		RETURNING version`

	err := r.db.QueryRow(ctx, query,
		req.ID, req.RequestNumber, req.DealerID, req.ProductID, req.Quantity,
		req.DeliveryLocation, req.DeliveryCity, req.Status,
		req.RecommendedSource, req.RecommendationExplanation,
		req.RequestedDeliveryDate, req.EstimatedDeliveryDate,
		req.DealerNotes, req.ProcurementNotes,
		req.CreatedAt, req.UpdatedAt, req.ConfirmedAt, req.CompletedAt,
	).Scan(&req.Version)
	if err != nil {
		return database.MapError(fmt.Errorf("insert request: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM product_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, database.MapError(err, model.ErrRequestNotFound)
	}
	return req, nil
}

func (r *postgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM product_requests WHERE id = $1 FOR UPDATE`
	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, database.MapError(err, model.ErrRequestNotFound)
	}
	return req, nil
}

func (r *postgresRepository) Update(ctx context.Context, req *model.Request) error {
	query := `
		UPDATE product_requests SET
			status = $2,
			recommended_source = $3, recommendation_explanation = $4,
			estimated_delivery_date = $5,
			dealer_notes = $6, procurement_notes = $7,
			confirmed_at = $8, completed_at = $9,
			version = version + 1, updated_at = $10
		WHERE id = $1 AND version = $11
		RETURNING version`

	err := r.db.QueryRow(ctx, query,
		req.ID, req.Status,
		req.RecommendedSource, req.RecommendationExplanation,
		req.EstimatedDeliveryDate,
		req.DealerNotes, req.ProcurementNotes,
		req.ConfirmedAt, req.CompletedAt,
		req.UpdatedAt, req.Version,
	).Scan(&req.Version)
	if err != nil {
		return database.MapError(err, apperror.ErrConcurrent)
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Request, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.DealerID != nil {
		args = append(args, *filter.DealerID)
		where = append(where, fmt.Sprintf("dealer_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM product_requests`+clause, args...).Scan(&total); err != nil {
		return nil, 0, database.MapError(fmt.Errorf("count requests: %w", err), nil)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM product_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		requestColumns, clause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, database.MapError(fmt.Errorf("list requests: %w", err), nil)
	}
	defer rows.Close()

	var result []model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan request: %w", err)
		}
		result = append(result, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.MapError(err, nil)
	}
	return result, total, nil
}

func (r *postgresRepository) AddHistory(ctx context.Context, h *model.StatusHistory) error {
	query := `
		INSERT INTO request_status_history (id, request_id, from_status, to_status, changed_by, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query, h.ID, h.RequestID, h.From, h.To, h.ChangedBy, h.Reason, h.CreatedAt)
	if err != nil {
		return database.MapError(fmt.Errorf("insert status history: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) ListHistory(ctx context.Context, requestID uuid.UUID) ([]model.StatusHistory, error) {
	query := `
		SELECT id, request_id, from_status, to_status, changed_by, reason, created_at
		FROM request_status_history
		WHERE request_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list status history: %w", err), nil)
	}
	defer rows.Close()

	var result []model.StatusHistory
	for rows.Next() {
		var h model.StatusHistory
		if err := rows.Scan(&h.ID, &h.RequestID, &h.From, &h.To, &h.ChangedBy, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*model.Request, error) {
	var req model.Request
	if err := row.Scan(
		&req.ID, &req.RequestNumber, &req.DealerID, &req.ProductID, &req.Quantity,
		&req.DeliveryLocation, &req.DeliveryCity, &req.Status,
		&req.RecommendedSource, &req.RecommendationExplanation,
		&req.RequestedDeliveryDate, &req.EstimatedDeliveryDate,
		&req.DealerNotes, &req.ProcurementNotes,
		&req.Version, &req.CreatedAt, &req.UpdatedAt, &req.ConfirmedAt, &req.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
