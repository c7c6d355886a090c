package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfillment-backend/internal/domains/procurement/model"
	"fulfillment-backend/internal/domains/procurement/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

type ProcurementHandler struct {
	svc service.Service
}

func NewProcurementHandler(svc service.Service) *ProcurementHandler {
	return &ProcurementHandler{svc: svc}
}

func (h *ProcurementHandler) RegisterRoutes(router *gin.RouterGroup) {
	procurement := router.Group("/procurement",
		middleware.RequireRoles(actor.RoleProcurementManager, actor.RoleAdmin))
	{
		procurement.GET("/issues", h.ListIssues)
		procurement.POST("/requests/:id/resolve", h.Resolve)
		procurement.GET("/requests/:id/replacement-options", h.ReplacementOptions)
	}
}

// ListIssues
// GET /api/v1/procurement/issues
func (h *ProcurementHandler) ListIssues(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)
	issues, err := h.svc.ListIssues(c.Request.Context(), a)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, issues)
}

// Resolve applies one procurement action.
// POST /api/v1/procurement/requests/:id/resolve
//
//	{"action": "replace", "reservation_id": "...", "warehouse_id": "...", "notes": "..."}
func (h *ProcurementHandler) Resolve(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.ResolveRequest
	if !response.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.Resolve(c.Request.Context(), a, id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *ProcurementHandler) ReplacementOptions(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.ReplacementOptions(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}
