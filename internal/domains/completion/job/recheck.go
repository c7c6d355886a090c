package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/shared"
	"fulfillment-backend/pkg/logger"
)

// NewRecheckTask builds a completion:recheck task. The task id dedupes
// rechecks for the same request while one is still queued.
func NewRecheckTask(requestID uuid.UUID, reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(shared.CompletionRecheckPayload{
		RequestID:   requestID.String(),
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(shared.TypeCompletionRecheck, payload,
		asynq.Queue(shared.QueueCritical),
		asynq.MaxRetry(10),
		asynq.Timeout(30*time.Second),
		asynq.TaskID("recheck:"+requestID.String()),
	), nil
}

// Enqueuer implements service.RecheckQueue on an asynq client.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueRecheck(ctx context.Context, requestID uuid.UUID, reason string) error {
	task, err := NewRecheckTask(requestID, reason)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue recheck: %w", err)
	}
	return nil
}

var _ service.RecheckQueue = (*Enqueuer)(nil)

type RecheckHandler struct {
	completion service.Service
}

func NewRecheckHandler(completion service.Service) *RecheckHandler {
	return &RecheckHandler{completion: completion}
}

// ProcessTask reruns the check. A returned error makes asynq retry with backoff.
func (h *RecheckHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.CompletionRecheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("Unmarshal recheck payload failed", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	requestID, err := uuid.Parse(payload.RequestID)
	if err != nil {
		return fmt.Errorf("invalid request id %q: %w", payload.RequestID, asynq.SkipRetry)
	}

	ready, err := h.completion.CheckAllSourcesReady(ctx, requestID)
	if err != nil {
		logger.ErrorWithFields("completion recheck failed", err, map[string]interface{}{
			"request_id": payload.RequestID,
		})
		return err
	}

	logger.Info("completion recheck done", map[string]interface{}{
		"request_id": payload.RequestID,
		"ready":      ready,
		"reason":     payload.Reason,
	})
	return nil
}
