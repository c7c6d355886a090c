package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/supplier/model"
)

type Repository interface {
	Create(ctx context.Context, s *model.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context) ([]model.Supplier, error)

	UpsertCatalogItem(ctx context.Context, item *model.CatalogItem) error

	// ListOffersByProduct returns active offers with available > 0 from active suppliers.
	ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]model.Offer, error)

	// LockOffer locks the catalog row (FOR UPDATE) for a re-check at commit.
	LockOffer(ctx context.Context, supplierID, productID uuid.UUID) (*model.Offer, error)

	// RecordIssue increments the supplier's issue counter used by the trust rule.
	RecordIssue(ctx context.Context, supplierID uuid.UUID) error
}
