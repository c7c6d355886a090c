package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/sourcing/service"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/internal/shared/response"
)

type SourcingHandler struct {
	svc service.Service
}

func NewSourcingHandler(svc service.Service) *SourcingHandler {
	return &SourcingHandler{svc: svc}
}

func (h *SourcingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/requests/:id/plan", h.Preview) // GET /api/v1/requests/:id/plan
	router.POST("/sourcing/quote", h.Quote)     // POST /api/v1/sourcing/quote
}

type QuoteRequest struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	DeliveryCity string `json:"delivery_city"`
}

func (r QuoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.By(func(value interface{}) error {
			if _, err := uuid.Parse(value.(string)); err != nil {
				return validation.NewError("validation_is_uuid", "must be a valid UUID")
			}
			return nil
		})),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.DeliveryCity, validation.Length(0, 100)),
	)
}

var errInvalidQuote = apperror.Validation("INVALID_QUOTE", "invalid quote request")

// Preview plans an existing request without reserving anything.
func (h *SourcingHandler) Preview(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.svc.Preview(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, plan)
}

func (h *SourcingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !response.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.Fail(c, errInvalidQuote.WithDetail("%v", err))
		return
	}
	plan, err := h.svc.Quote(c.Request.Context(), uuid.MustParse(req.ProductID), req.Quantity, req.DeliveryCity)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, plan)
}
