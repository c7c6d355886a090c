package service

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/shared/actor"
)

type Service interface {
	// Pick marks a warehouse reservation picked. Only the assigned warehouse may pick.
	Pick(ctx context.Context, a actor.Actor, reservationID uuid.UUID) (*model.Reservation, error)

	// ConfirmSupplier records the supplier's confirmation.
	ConfirmSupplier(ctx context.Context, a actor.Actor, reservationID uuid.UUID) (*model.Reservation, error)

	Get(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Reservation, error)

	// Lineage returns the replacement chain ending at reservationID, oldest first.
	Lineage(ctx context.Context, reservationID uuid.UUID) ([]model.Reservation, error)
}
