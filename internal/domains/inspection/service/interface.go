package service

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/inspection/model"
	"fulfillment-backend/internal/shared/actor"
)

type SubmitInput struct {
	ReservationID uuid.UUID
	Kind          model.ImageKind
	Image         []byte
}

type Service interface {
	// Submit stores the photo, classifies it and applies the verdict to the reservation.
	Submit(ctx context.Context, a actor.Actor, in SubmitInput) (*model.Inspection, error)
	// Override replaces the classifier verdict with a manager's judgement.
	Override(ctx context.Context, a actor.Actor, inspectionID uuid.UUID, req model.OverrideRequest) (*model.Inspection, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Inspection, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Inspection, error)

	// Image returns the stored photo and its content type. Dealers only see
	// photos of their own requests.
	Image(ctx context.Context, a actor.Actor, inspectionID uuid.UUID) ([]byte, string, error)
}

// ImageStore is the object storage the photos are written to.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ImageProcessor validates uploads and prepares them for the classifier.
type ImageProcessor interface {
	ValidateImage(data []byte) (string, error)
	PrepareForClassifier(data []byte, contentType string) ([]byte, string, error)
}
