package service

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/supplier/model"
	"fulfillment-backend/internal/shared/actor"
)

type Service interface {
	CreateSupplier(ctx context.Context, a actor.Actor, req model.CreateSupplierRequest) (*model.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)

	// UpsertCatalogItem sets what a supplier offers for one product.
	// Suppliers maintain their own catalog; procurement may edit any.
	UpsertCatalogItem(ctx context.Context, a actor.Actor, supplierID uuid.UUID, req model.UpsertCatalogRequest) (*model.CatalogItem, error)

	Offers(ctx context.Context, productID uuid.UUID) ([]model.Offer, error)
}
