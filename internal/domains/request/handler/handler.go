package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/request/model"
	"fulfillment-backend/internal/domains/request/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

type RequestHandler struct {
	svc service.Service
}

func NewRequestHandler(svc service.Service) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// RegisterRoutes expects router to be behind AuthMiddleware.
func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.POST("", h.Create)                                    // POST /api/v1/requests
		requests.GET("", h.List)                                       // GET /api/v1/requests?status=&page=&limit=
		requests.GET("/:id", h.Get)                                    // GET /api/v1/requests/:id
		requests.GET("/:id/history", h.History)                        // GET /api/v1/requests/:id/history
		requests.POST("/:id/recommend", h.Recommend)                   // POST /api/v1/requests/:id/recommend
		requests.POST("/:id/confirm", h.Confirm)                       // POST /api/v1/requests/:id/confirm
		requests.POST("/:id/send-to-procurement", h.SendToProcurement) // POST /api/v1/requests/:id/send-to-procurement
		requests.POST("/:id/approve", h.Approve)                       // POST /api/v1/requests/:id/approve
		requests.POST("/:id/cancel", h.Cancel)                         // POST /api/v1/requests/:id/cancel
		requests.POST("/:id/start-picking", h.StartPicking)            // POST /api/v1/requests/:id/start-picking
		requests.POST("/:id/allocate", h.Allocate)                     // POST /api/v1/requests/:id/allocate
		requests.POST("/:id/dispatch", h.Dispatch)                     // POST /api/v1/requests/:id/dispatch
		requests.POST("/:id/complete", h.Complete)                     // POST /api/v1/requests/:id/complete
	}
}

// Create
// POST /api/v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req model.CreateRequest
	if !response.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), a, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, out)
}

// List returns dealers their own requests and everyone else all of them.
// GET /api/v1/requests
func (h *RequestHandler) List(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var q model.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	out, err := h.svc.List(c.Request.Context(), a, q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, out.Items, &response.Meta{
		Page:  out.Page,
		Limit: out.Limit,
		Total: out.Total,
	})
}

func (h *RequestHandler) Get(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Get(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *RequestHandler) History(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.History(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *RequestHandler) Recommend(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.svc.Recommend(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, plan)
}

func (h *RequestHandler) Confirm(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	created, err := h.svc.Confirm(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// SendToProcurement
// POST /api/v1/requests/:id/send-to-procurement  {"notes": "..."}
func (h *RequestHandler) SendToProcurement(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var body model.NotesRequest
	if c.Request.ContentLength > 0 && !response.BindJSON(c, &body) {
		return
	}
	if err := body.Validate(); err != nil {
		response.Fail(c, model.ErrInvalidRequest.WithDetail("%v", err))
		return
	}
	out, err := h.svc.SendToProcurement(c.Request.Context(), a, id, body.Notes)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *RequestHandler) Approve(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	created, err := h.svc.Approve(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// Cancel
// POST /api/v1/requests/:id/cancel  {"reason": "..."}
func (h *RequestHandler) Cancel(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var body model.CancelRequest
	if !response.BindJSON(c, &body) {
		return
	}
	out, err := h.svc.Cancel(c.Request.Context(), a, id, body.Reason)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *RequestHandler) StartPicking(c *gin.Context) {
	h.transition(c, h.svc.StartPicking)
}

func (h *RequestHandler) Allocate(c *gin.Context) {
	h.transition(c, h.svc.Allocate)
}

func (h *RequestHandler) Dispatch(c *gin.Context) {
	h.transition(c, h.svc.Dispatch)
}

func (h *RequestHandler) Complete(c *gin.Context) {
	h.transition(c, h.svc.Complete)
}

type transitionFunc func(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error)

func (h *RequestHandler) transition(c *gin.Context, fn transitionFunc) {
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
