package service

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/completion/model"
)

// Service is the single place that decides whether a request is ready for
// allocation.
type Service interface {
	// CheckAllSourcesReady recomputes readiness under the request row lock and
	// moves the request to READY_FOR_ALLOCATION or to a waiting status.
	CheckAllSourcesReady(ctx context.Context, requestID uuid.UUID) (bool, error)

	Trigger(ctx context.Context, requestID uuid.UUID) bool

	GetCompletionStatus(ctx context.Context, requestID uuid.UUID) (*model.CompletionStatus, error)
}

// Trigger is the post-mutation hook the other domains call after commit.
// Failures are logged and queued for a recheck, never returned.
type Trigger interface {
	Trigger(ctx context.Context, requestID uuid.UUID) bool
}

// RecheckQueue schedules a later completion check.
type RecheckQueue interface {
	EnqueueRecheck(ctx context.Context, requestID uuid.UUID, reason string) error
}
