package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/internal/store/memory"
)

func TestReservationReport(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seed := st.Seed()
	product := uuid.New()

	wh := seed.Warehouse("Hub", "HN-01", "Ha Noi")
	seed.Stock(wh.ID, product, 50, 10)
	sup := seed.Supplier("Pacific Imports", 5, "0.97")

	blocked := seed.Request(uuid.New(), product, 10, "Ha Noi", requestModel.StatusBlocked)
	res, err := reservationModel.NewWarehouseReservation(blocked.ID, product, wh.ID, 10, 1, time.Now())
	require.NoError(t, err)
	seed.Reservation(res)

	reserved := seed.Request(uuid.New(), product, 5, "Ha Noi", requestModel.StatusReserved)
	imp, err := reservationModel.NewSupplierReservation(reserved.ID, product, sup.ID, 5, 5, true, time.Now())
	require.NoError(t, err)
	seed.Reservation(imp)

	svc := NewReportService(st)
	manager := actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager}

	t.Run("all requests", func(t *testing.T) {
		f, err := svc.ReservationReport(ctx, manager, nil)
		require.NoError(t, err)
		rows, err := f.GetRows(reservationSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, reservationHeaders, rows[0])

		stock, err := f.GetRows(stockSheet)
		require.NoError(t, err)
		require.Len(t, stock, 2)
		assert.Equal(t, "HN-01", stock[1][0])
		assert.Equal(t, "40", stock[1][7])
	})

	t.Run("status filter", func(t *testing.T) {
		f, err := svc.ReservationReport(ctx, manager, []requestModel.Status{requestModel.StatusReserved})
		require.NoError(t, err)
		rows, err := f.GetRows(reservationSheet)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "SUPPLIER", rows[1][3])
		assert.Equal(t, "Pacific Imports", rows[1][4])
	})

	t.Run("writes a workbook", func(t *testing.T) {
		f, err := svc.ReservationReport(ctx, manager, nil)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, f.Write(&buf))

		back, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		assert.Equal(t, []string{reservationSheet, stockSheet}, back.GetSheetList())
	})
}

func TestReservationReport_Forbidden(t *testing.T) {
	dealer := actor.Actor{UserID: uuid.New(), Role: actor.RoleDealer}
	_, err := NewReportService(memory.New()).ReservationReport(context.Background(), dealer, nil)
	assert.ErrorIs(t, err, apperror.ErrForbiddenRole)
}
