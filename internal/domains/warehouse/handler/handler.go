package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	stockModel "fulfillment-backend/internal/domains/stock/model"
	"fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/internal/domains/warehouse/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

type WarehouseHandler struct {
	svc service.Service
}

func NewWarehouseHandler(svc service.Service) *WarehouseHandler {
	return &WarehouseHandler{svc: svc}
}

func (h *WarehouseHandler) RegisterRoutes(router *gin.RouterGroup) {
	warehouses := router.Group("/warehouses")
	{
		warehouses.GET("", h.ListWarehouses)
		warehouses.GET("/:id", h.GetWarehouse)
		warehouses.GET("/:id/stock", h.ListStock)
		warehouses.PUT("/:id/stock",
			middleware.RequireRoles(actor.RoleWarehouseOperator, actor.RoleAdmin),
			h.UpsertStock)
	}
	router.POST("/admin/warehouses", middleware.RequireRoles(actor.RoleAdmin), h.CreateWarehouse)
	router.GET("/products/:id/availability", h.Availability)
}

// CreateWarehouse
// POST /api/v1/admin/warehouses
func (h *WarehouseHandler) CreateWarehouse(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)
	var req model.CreateWarehouseRequest
	if !response.BindJSON(c, &req) {
		return
	}
	wh, err := h.svc.CreateWarehouse(c.Request.Context(), a, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, wh)
}

// GetWarehouse
// GET /api/v1/warehouses/:id
func (h *WarehouseHandler) GetWarehouse(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	wh, err := h.svc.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, wh)
}

// ListWarehouses
// GET /api/v1/warehouses?city=&is_active=&limit=&offset=
func (h *WarehouseHandler) ListWarehouses(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var isActive *bool
	if v := c.Query("is_active"); v != "" {
		val := v == "true"
		isActive = &val
	}

	list, err := h.svc.ListWarehouses(c.Request.Context(), model.ListWarehouseFilter{
		City:     c.Query("city"),
		IsActive: isActive,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// UpsertStock records a batch count.
// PUT /v1/warehouses/:id/stock
func (h *WarehouseHandler) UpsertStock(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req stockModel.UpsertStockRequest
	if !response.BindJSON(c, &req) {
		return
	}
	row, err := h.svc.UpsertStock(c.Request.Context(), a, id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, row)
}

func (h *WarehouseHandler) ListStock(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.svc.ListStock(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// Availability
// GET /api/v1/products/:id/availability
func (h *WarehouseHandler) Availability(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.svc.Availability(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}
