package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfillment-backend/internal/domains/supplier/model"
	"fulfillment-backend/internal/domains/supplier/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

type SupplierHandler struct {
	svc service.Service
}

func NewSupplierHandler(svc service.Service) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/suppliers")
	{
		suppliers.GET("", h.ListSuppliers)
		suppliers.GET("/:id", h.GetSupplier)
		suppliers.POST("",
			middleware.RequireRoles(actor.RoleProcurementManager, actor.RoleAdmin),
			h.CreateSupplier)
		suppliers.PUT("/:id/catalog",
			middleware.RequireRoles(actor.RoleSupplier, actor.RoleProcurementManager, actor.RoleAdmin),
			h.UpsertCatalogItem)
	}
	router.GET("/products/:id/offers", h.Offers)
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)
	var req model.CreateSupplierRequest
	if !response.BindJSON(c, &req) {
		return
	}
	sup, err := h.svc.CreateSupplier(c.Request.Context(), a, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sup)
}

func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	sup, err := h.svc.GetSupplier(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, sup)
}

func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	list, err := h.svc.ListSuppliers(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// UpsertCatalogItem
// PUT /v1/suppliers/:id/catalog
func (h *SupplierHandler) UpsertCatalogItem(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpsertCatalogRequest
	if !response.BindJSON(c, &req) {
		return
	}
	item, err := h.svc.UpsertCatalogItem(c.Request.Context(), a, id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// Offers lists active supplier offers for a product, fastest first.
// GET /api/v1/products/:id/offers
func (h *SupplierHandler) Offers(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	offers, err := h.svc.Offers(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, offers)
}
