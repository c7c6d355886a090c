package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/inspection/model"
	"fulfillment-backend/pkg/database"
)

const inspectionColumns = `id, request_id, reservation_id, uploaded_by,
	image_key, image_kind, content_type, size_bytes,
	verdict, confidence, damage_detected, damage_type, damage_severity,
	expiry_date, is_expired, seal_intact, spoilage_detected, raw_response,
	override_verdict, override_reason, overridden_by, overridden_at,
	created_at, processed_at`

type postgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, i *model.Inspection) error {
	query := `
		INSERT INTO inspections (` + inspectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24)`

	_, err := r.db.Exec(ctx, query,
		i.ID, i.RequestID, i.ReservationID, i.UploadedBy,
		i.ImageKey, i.ImageKind, i.ContentType, i.SizeBytes,
		i.Verdict, i.Confidence, i.DamageDetected, i.DamageType, i.DamageSeverity,
		i.ExpiryDate, i.IsExpired, i.SealIntact, i.Spoilage, i.RawResponse,
		i.OverrideVerdict, i.OverrideReason, i.OverriddenBy, i.OverriddenAt,
		i.CreatedAt, i.ProcessedAt,
	)
	if err != nil {
		return database.MapError(fmt.Errorf("insert inspection: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = $1`
	i, err := scanInspection(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, database.MapError(err, model.ErrInspectionNotFound)
	}
	return i, nil
}

func (r *postgresRepository) Update(ctx context.Context, i *model.Inspection) error {
	query := `
		UPDATE inspections SET
			verdict = $2, confidence = $3, damage_detected = $4, damage_type = $5, damage_severity = $6,
			expiry_date = $7, is_expired = $8, seal_intact = $9, spoilage_detected = $10, raw_response = $11,
			override_verdict = $12, override_reason = $13, overridden_by = $14, overridden_at = $15,
			processed_at = $16
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		i.ID,
		i.Verdict, i.Confidence, i.DamageDetected, i.DamageType, i.DamageSeverity,
		i.ExpiryDate, i.IsExpired, i.SealIntact, i.Spoilage, i.RawResponse,
		i.OverrideVerdict, i.OverrideReason, i.OverriddenBy, i.OverriddenAt,
		i.ProcessedAt,
	)
	if err != nil {
		return database.MapError(fmt.Errorf("update inspection: %w", err), nil)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInspectionNotFound
	}
	return nil
}

func (r *postgresRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE request_id = $1 ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list inspections: %w", err), nil)
	}
	defer rows.Close()

	var result []model.Inspection
	for rows.Next() {
		i, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}
		result = append(result, *i)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInspection(row scanner) (*model.Inspection, error) {
	var i model.Inspection
	if err := row.Scan(
		&i.ID, &i.RequestID, &i.ReservationID, &i.UploadedBy,
		&i.ImageKey, &i.ImageKind, &i.ContentType, &i.SizeBytes,
		&i.Verdict, &i.Confidence, &i.DamageDetected, &i.DamageType, &i.DamageSeverity,
		&i.ExpiryDate, &i.IsExpired, &i.SealIntact, &i.Spoilage, &i.RawResponse,
		&i.OverrideVerdict, &i.OverrideReason, &i.OverriddenBy, &i.OverriddenAt,
		&i.CreatedAt, &i.ProcessedAt,
	); err != nil {
		return nil, err
	}
	return &i, nil
}
