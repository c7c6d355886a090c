package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

type CompletionHandler struct {
	svc service.Service
}

func NewCompletionHandler(svc service.Service) *CompletionHandler {
	return &CompletionHandler{svc: svc}
}

func (h *CompletionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/requests/:id/completion", h.Status)
	router.POST("/requests/:id/completion/check",
		middleware.RequireRoles(actor.RoleProcurementManager, actor.RoleLogisticsPlanner, actor.RoleAdmin),
		h.Check)
}

// Status reports per-source readiness.
// GET /api/v1/requests/:id/completion
func (h *CompletionHandler) Status(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	status, err := h.svc.GetCompletionStatus(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// Check reruns the coordinator, e.g. after a manual data fix.
// POST /api/v1/requests/:id/completion/check
func (h *CompletionHandler) Check(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	ready, err := h.svc.CheckAllSourcesReady(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request_id": id, "ready": ready})
}
