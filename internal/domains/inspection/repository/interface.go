package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/inspection/model"
)

type Repository interface {
	Create(ctx context.Context, i *model.Inspection) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Inspection, error)
	// Update writes the classification and override columns.
	Update(ctx context.Context, i *model.Inspection) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Inspection, error)
}
