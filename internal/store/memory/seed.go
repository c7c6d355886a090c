package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	supplierModel "fulfillment-backend/internal/domains/supplier/model"
	warehouseModel "fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/internal/store"
)

// Seeder writes fixture rows through the regular repositories. It panics on
// failure since seed data is fixed by the caller.
type Seeder struct {
	s *Store
}

func (s *Store) Seed() *Seeder {
	return &Seeder{s: s}
}

func (sd *Seeder) run(fn func(tx store.Tx) error) {
	if err := sd.s.RunInTx(context.Background(), fn); err != nil {
		panic(fmt.Sprintf("seed: %v", err))
	}
}

func (sd *Seeder) Warehouse(name, code, city string) warehouseModel.Warehouse {
	wh := warehouseModel.Warehouse{Name: name, Code: code, City: city, IsActive: true}
	sd.run(func(tx store.Tx) error { return tx.Warehouses().Create(context.Background(), &wh) })
	return wh
}

// Stock adds a batch with qty on hand, reserved of it already held.
func (sd *Seeder) Stock(warehouseID, productID uuid.UUID, qty, reserved int) stockModel.Stock {
	st := stockModel.Stock{
		WarehouseID: warehouseID,
		ProductID:   productID,
		BatchNumber: "B-" + uuid.NewString()[:8],
		Quantity:    qty,
	}
	sd.run(func(tx store.Tx) error {
		ctx := context.Background()
		if err := tx.Stocks().Upsert(ctx, &st); err != nil {
			return err
		}
		if reserved == 0 {
			return nil
		}
		st.ReservedQuantity = reserved
		return tx.Stocks().Save(ctx, &st)
	})
	return st
}

func (sd *Seeder) Supplier(name string, leadDays int, score string) supplierModel.Supplier {
	sup := supplierModel.Supplier{
		Name:             name,
		Code:             "SUP-" + uuid.NewString()[:6],
		LeadTimeDays:     leadDays,
		ReliabilityScore: decimal.RequireFromString(score),
		IsActive:         true,
	}
	sd.run(func(tx store.Tx) error { return tx.Suppliers().Create(context.Background(), &sup) })
	return sup
}

func (sd *Seeder) Offer(supplierID, productID uuid.UUID, available int, price string) supplierModel.CatalogItem {
	item := supplierModel.CatalogItem{
		SupplierID:        supplierID,
		ProductID:         productID,
		UnitPrice:         decimal.RequireFromString(price),
		AvailableQuantity: available,
		IsActive:          true,
	}
	sd.run(func(tx store.Tx) error { return tx.Suppliers().UpsertCatalogItem(context.Background(), &item) })
	return item
}

// Request inserts a request directly in the given status.
func (sd *Seeder) Request(dealerID, productID uuid.UUID, qty int, city string, status requestModel.Status) requestModel.Request {
	now := time.Now()
	req := requestModel.Request{
		ID:               uuid.New(),
		RequestNumber:    requestModel.NewRequestNumber(now),
		DealerID:         dealerID,
		ProductID:        productID,
		Quantity:         qty,
		DeliveryLocation: "Dock 1, " + city,
		DeliveryCity:     city,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	sd.run(func(tx store.Tx) error { return tx.Requests().Create(context.Background(), &req) })
	return req
}

func (sd *Seeder) Reservation(res *reservationModel.Reservation) {
	sd.run(func(tx store.Tx) error { return tx.Reservations().Create(context.Background(), res) })
}

// Demo loads a small catalog for local runs with APP_STORE=memory.
func (sd *Seeder) Demo() uuid.UUID {
	product := uuid.MustParse("00000000-0000-0000-0000-00000000a001")
	hcm := sd.Warehouse("Ho Chi Minh Hub", "HCM-01", "Ho Chi Minh City")
	hn := sd.Warehouse("Ha Noi Hub", "HN-01", "Ha Noi")
	sd.Stock(hcm.ID, product, 40, 0)
	sd.Stock(hn.ID, product, 25, 0)
	sup := sd.Supplier("Pacific Imports", 5, "0.97")
	sd.Offer(sup.ID, product, 500, "12.50")
	return product
}
