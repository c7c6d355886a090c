package main

import (
	"github.com/hibiken/asynq"

	completionJob "fulfillment-backend/internal/domains/completion/job"
	reservationJob "fulfillment-backend/internal/domains/reservation/job"
	"fulfillment-backend/internal/shared"
	"fulfillment-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	recheck   *completionJob.RecheckHandler
	staleScan *reservationJob.StaleScanHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		recheck: completionJob.NewRecheckHandler(c.CompletionService),
		staleScan: reservationJob.NewStaleScanHandler(
			c.Store,
			c.Events,
			completionJob.NewEnqueuer(c.Asynq),
			c.Config.Worker.StaleReservationAge,
		),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeCompletionRecheck, h.recheck.ProcessTask)
	mux.HandleFunc(shared.TypeStaleReservationScan, h.staleScan.ProcessTask)
}
