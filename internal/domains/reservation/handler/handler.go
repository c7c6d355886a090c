package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/reservation/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

type ReservationHandler struct {
	svc service.Service
}

func NewReservationHandler(svc service.Service) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

func (h *ReservationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/requests/:id/reservations", h.ListByRequest)

	reservations := router.Group("/reservations")
	{
		reservations.GET("/:id", h.Get)
		reservations.GET("/:id/lineage", h.Lineage)
		reservations.POST("/:id/pick", h.Pick)
		reservations.POST("/:id/confirm", h.ConfirmSupplier)
	}
}

func (h *ReservationHandler) ListByRequest(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.ListByRequest(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Lineage returns the replacement chain, original first.
// GET /api/v1/reservations/:id/lineage
func (h *ReservationHandler) Lineage(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Lineage(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Pick
// POST /api/v1/reservations/:id/pick
func (h *ReservationHandler) Pick(c *gin.Context) {
	h.mutate(c, h.svc.Pick)
}

// ConfirmSupplier
// POST /api/v1/reservations/:id/confirm
func (h *ReservationHandler) ConfirmSupplier(c *gin.Context) {
	h.mutate(c, h.svc.ConfirmSupplier)
}

func (h *ReservationHandler) mutate(c *gin.Context, fn mutation) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	out, err := fn(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

type mutation func(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Reservation, error)
