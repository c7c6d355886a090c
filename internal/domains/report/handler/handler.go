package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	requestModel "fulfillment-backend/internal/domains/request/model"
	"fulfillment-backend/internal/domains/report/service"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/internal/shared/middleware"
	"fulfillment-backend/internal/shared/response"
	"fulfillment-backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errInvalidStatus = apperror.Validation("INVALID_STATUS_FILTER", "unknown request status in filter")

type ReportHandler struct {
	svc service.Service
}

func NewReportHandler(svc service.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports",
		middleware.RequireRoles(actor.RoleProcurementManager, actor.RoleLogisticsPlanner, actor.RoleAdmin))
	{
		reports.GET("/reservations.xlsx", h.Reservations)
	}
}

// Reservations streams the reservation and stock workbook.
// GET /api/v1/reports/reservations.xlsx?status=BLOCKED,PARTIALLY_BLOCKED
func (h *ReportHandler) Reservations(c *gin.Context) {
	a, _ := middleware.CurrentActor(c)

	var statuses []requestModel.Status
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			s, err := requestModel.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				response.Fail(c, errInvalidStatus.WithDetail("%s", part))
				return
			}
			statuses = append(statuses, s)
		}
	}

	f, err := h.svc.ReservationReport(c.Request.Context(), a, statuses)
	if err != nil {
		response.Fail(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("reservations-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(c.Writer); err != nil {
		logger.Error("failed to write report", err)
	}
}
