package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/supplier/model"
	"fulfillment-backend/pkg/database"
)

const supplierColumns = `s.id, s.name, s.code, s.city, s.country, s.lead_time_days, s.reliability_score,
	s.issue_count, s.is_active, s.created_at, s.updated_at`

const offerColumns = supplierColumns + `,
	sp.id, sp.supplier_id, sp.product_id, sp.unit_price, sp.available_quantity, sp.min_order_quantity,
	sp.custom_lead_time_days, sp.is_active, sp.updated_at`

type postgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	query := `INSERT INTO suppliers (id, name, code, city, country, lead_time_days, reliability_score, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING issue_count, is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, s.ID, s.Name, s.Code, s.City, s.Country, s.LeadTimeDays, s.ReliabilityScore).
		Scan(&s.IssueCount, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return database.MapError(fmt.Errorf("create supplier: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers s WHERE s.id = $1`

	s, err := scanSupplier(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, database.MapError(err, model.ErrSupplierNotFound)
	}
	return s, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]model.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers s ORDER BY s.name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list suppliers: %w", err), nil)
	}
	defer rows.Close()

	var result []model.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *postgresRepository) UpsertCatalogItem(ctx context.Context, item *model.CatalogItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	query := `
		INSERT INTO supplier_products (id, supplier_id, product_id, unit_price, available_quantity,
			min_order_quantity, custom_lead_time_days, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (supplier_id, product_id) DO UPDATE
		SET unit_price = EXCLUDED.unit_price,
			available_quantity = EXCLUDED.available_quantity,
			min_order_quantity = EXCLUDED.min_order_quantity,
			custom_lead_time_days = EXCLUDED.custom_lead_time_days,
			updated_at = NOW()
		RETURNING id, is_active, updated_at`

	err := r.db.QueryRow(ctx, query,
		item.ID, item.SupplierID, item.ProductID, item.UnitPrice, item.AvailableQuantity,
		item.MinOrderQuantity, item.CustomLeadTimeDays,
	).Scan(&item.ID, &item.IsActive, &item.UpdatedAt)
	if err != nil {
		return database.MapError(fmt.Errorf("upsert catalog item: %w", err), nil)
	}
	return nil
}

func (r *postgresRepository) ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]model.Offer, error) {
	query := `SELECT ` + offerColumns + `
		FROM supplier_products sp
		INNER JOIN suppliers s ON s.id = sp.supplier_id
		WHERE sp.product_id = $1 AND sp.is_active AND s.is_active AND sp.available_quantity > 0
		ORDER BY COALESCE(sp.custom_lead_time_days, s.lead_time_days) ASC, sp.available_quantity DESC`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, database.MapError(fmt.Errorf("list offers: %w", err), nil)
	}
	defer rows.Close()

	var result []model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func (r *postgresRepository) LockOffer(ctx context.Context, supplierID, productID uuid.UUID) (*model.Offer, error) {
	query := `SELECT ` + offerColumns + `
		FROM supplier_products sp
		INNER JOIN suppliers s ON s.id = sp.supplier_id
		WHERE sp.supplier_id = $1 AND sp.product_id = $2
		FOR UPDATE OF sp`

	o, err := scanOffer(r.db.QueryRow(ctx, query, supplierID, productID))
	if err != nil {
		return nil, database.MapError(err, model.ErrOfferNotFound)
	}
	return o, nil
}

func (r *postgresRepository) RecordIssue(ctx context.Context, supplierID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE suppliers SET issue_count = issue_count + 1, updated_at = NOW() WHERE id = $1`, supplierID)
	if err != nil {
		return database.MapError(fmt.Errorf("record supplier issue: %w", err), nil)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSupplierNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSupplier(row scanner) (*model.Supplier, error) {
	var s model.Supplier
	err := row.Scan(
		&s.ID, &s.Name, &s.Code, &s.City, &s.Country, &s.LeadTimeDays, &s.ReliabilityScore,
		&s.IssueCount, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanOffer(row scanner) (*model.Offer, error) {
	var o model.Offer
	s, it := &o.Supplier, &o.Item
	err := row.Scan(
		&s.ID, &s.Name, &s.Code, &s.City, &s.Country, &s.LeadTimeDays, &s.ReliabilityScore,
		&s.IssueCount, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		&it.ID, &it.SupplierID, &it.ProductID, &it.UnitPrice, &it.AvailableQuantity, &it.MinOrderQuantity,
		&it.CustomLeadTimeDays, &it.IsActive, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
