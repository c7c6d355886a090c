package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	warehouseModel "fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
)

const (
	reservationSheet = "Reservations"
	stockSheet       = "Stock"

	pageSize = 100
	// maxRequests bounds one export.
	maxRequests = 2000
)

var reservationHeaders = []string{
	"Request",
	"Request Status",
	"Reservation ID",
	"Source",
	"Source Name",
	"Quantity",
	"Status",
	"Picked",
	"Blocked",
	"Ready",
	"Retired",
	"Replaces",
	"Estimated Days",
	"Created At",
}

var stockHeaders = []string{
	"Warehouse",
	"City",
	"Product ID",
	"Batch",
	"Expiry",
	"Quantity",
	"Reserved",
	"Available",
}

type Service interface {
	// ReservationReport builds a workbook with one row per reservation of the
	// selected requests and one row per stock batch.
	ReservationReport(ctx context.Context, a actor.Actor, statuses []requestModel.Status) (*excelize.File, error)
}

type reportService struct {
	store store.Store
}

func NewReportService(st store.Store) Service {
	return &reportService{store: st}
}

func (s *reportService) ReservationReport(ctx context.Context, a actor.Actor, statuses []requestModel.Status) (*excelize.File, error) {
	if err := a.Require(actor.RoleProcurementManager, actor.RoleLogisticsPlanner, actor.RoleAdmin); err != nil {
		return nil, err
	}

	read := s.store.Read()
	var requests []requestModel.Request
	for offset := 0; offset < maxRequests; offset += pageSize {
		page, total, err := read.Requests().List(ctx, requestModel.ListFilter{
			Statuses: statuses,
			Offset:   offset,
			Limit:    pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list requests: %w", err)
		}
		requests = append(requests, page...)
		if offset+pageSize >= total {
			break
		}
	}
	warehouses, err := read.Warehouses().List(ctx, warehouseModel.ListWarehouseFilter{Limit: pageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	suppliers, err := read.Suppliers().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	names := make(map[uuid.UUID]string, len(warehouses)+len(suppliers))
	for _, wh := range warehouses {
		names[wh.ID] = wh.Code
	}
	for _, sup := range suppliers {
		names[sup.ID] = sup.Name
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", reservationSheet)
	if _, err := f.NewSheet(stockSheet); err != nil {
		return nil, err
	}
	writeHeader(f, reservationSheet, reservationHeaders)
	writeHeader(f, stockSheet, stockHeaders)

	row := 2
	for _, req := range requests {
		list, err := read.Reservations().ListByRequest(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list reservations of %s: %w", req.RequestNumber, err)
		}
		for _, r := range list {
			writeRow(f, reservationSheet, row, reservationRow(req, r, names))
			row++
		}
	}

	row = 2
	for _, wh := range warehouses {
		batches, err := read.Stocks().ListByWarehouse(ctx, wh.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list stock of %s: %w", wh.Code, err)
		}
		for _, b := range batches {
			expiry := ""
			if b.ExpiryDate != nil {
				expiry = b.ExpiryDate.Format("2006-01-02")
			}
			writeRow(f, stockSheet, row, []interface{}{
				wh.Code, wh.City, b.ProductID.String(), b.BatchNumber, expiry,
				b.Quantity, b.ReservedQuantity, b.Available(),
			})
			row++
		}
	}
	return f, nil
}

func reservationRow(req requestModel.Request, r reservationModel.Reservation, names map[uuid.UUID]string) []interface{} {
	source, name := "", ""
	switch {
	case r.WarehouseID != nil:
		source, name = "WAREHOUSE", names[*r.WarehouseID]
	case r.SupplierID != nil:
		source, name = "SUPPLIER", names[*r.SupplierID]
	}
	replaces := ""
	if r.ReplacesID != nil {
		replaces = r.ReplacesID.String()
	}
	return []interface{}{
		req.RequestNumber,
		string(req.Status),
		r.ID.String(),
		source,
		name,
		r.Quantity,
		string(r.Status),
		r.IsPicked,
		r.IsBlocked,
		reservationModel.IsReady(r),
		r.Retired,
		replaces,
		r.EstimatedDays,
		r.CreatedAt.Format(time.RFC3339),
	}
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}
