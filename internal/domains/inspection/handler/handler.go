package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfillment-backend/internal/domains/inspection/model"
	"fulfillment-backend/internal/domains/inspection/service"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
)

const defaultMaxImageBytes = 10 << 20

type InspectionHandler struct {
	svc      service.Service
	maxBytes int64
}

// NewInspectionHandler limits uploads to maxBytes; zero means 10MB.
func NewInspectionHandler(svc service.Service, maxBytes int64) *InspectionHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &InspectionHandler{svc: svc, maxBytes: maxBytes}
}

func (h *InspectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/reservations/:id/inspections", h.Submit)   // multipart: image, image_type
	router.GET("/requests/:id/inspections", h.ListByRequest) // GET /api/v1/requests/:id/inspections
	router.GET("/inspections/:id", h.Get)                    // GET /api/v1/inspections/:id
	router.GET("/inspections/:id/image", h.Image)            // GET /api/v1/inspections/:id/image
	router.POST("/inspections/:id/override", h.Override)     // POST /api/v1/inspections/:id/override
}

// Submit uploads a photo of a picked reservation and returns the
// classified inspection record.
// POST /api/v1/reservations/:id/inspections
func (h *InspectionHandler) Submit(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.Fail(c, model.ErrInvalidImage.WithDetail("missing image file"))
		return
	}
	if file.Size > h.maxBytes {
		response.Fail(c, model.ErrInvalidImage.WithDetail("image is %d bytes, limit is %d", file.Size, h.maxBytes))
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Fail(c, model.ErrInvalidImage.WithDetail("cannot read upload"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		response.Fail(c, model.ErrInvalidImage.WithDetail("cannot read upload"))
		return
	}
	if int64(len(data)) > h.maxBytes {
		response.Fail(c, model.ErrInvalidImage.WithDetail("image exceeds %d bytes", h.maxBytes))
		return
	}

	insp, err := h.svc.Submit(c.Request.Context(), a, service.SubmitInput{
		ReservationID: id,
		Kind:          model.ImageKind(c.PostForm("image_type")),
		Image:         data,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, insp)
}

func (h *InspectionHandler) Get(c *gin.Context) {
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	insp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, insp)
}

// Image streams the stored photo back with its original content type.
func (h *InspectionHandler) Image(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	data, contentType, err := h.svc.Image(c.Request.Context(), a, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}

func (h *InspectionHandler) ListByRequest(c *gin.Context) {
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

// Override
// POST /api/v1/inspections/:id/override  {"verdict": "OK", "reason": "..."}
func (h *InspectionHandler) Override(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := response.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.OverrideRequest
	if !response.BindJSON(c, &req) {
		return
	}
	insp, err := h.svc.Override(c.Request.Context(), a, id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, insp)
}
