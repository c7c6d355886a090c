package store

import (
	"context"

	"github.com/google/uuid"

	stockModel "fulfillment-backend/internal/domains/stock/model"
)

// ReserveStock locks every batch of the product in the warehouse and reserves
// qty across them in FEFO order.
func ReserveStock(ctx context.Context, tx Tx, warehouseID, productID uuid.UUID, qty int) error {
	return adjustStock(ctx, tx, warehouseID, productID, func(rows []*stockModel.Stock) error {
		return stockModel.Reserve(rows, qty)
	})
}

// ReleaseStock gives back reserved quantity, floored at zero.
func ReleaseStock(ctx context.Context, tx Tx, warehouseID, productID uuid.UUID, qty int) error {
	return adjustStock(ctx, tx, warehouseID, productID, func(rows []*stockModel.Stock) error {
		stockModel.Release(rows, qty)
		return nil
	})
}

// ConsumeStock turns reserved quantity into a shipped deduction.
func ConsumeStock(ctx context.Context, tx Tx, warehouseID, productID uuid.UUID, qty int) error {
	return adjustStock(ctx, tx, warehouseID, productID, func(rows []*stockModel.Stock) error {
		stockModel.Consume(rows, qty)
		return nil
	})
}

func adjustStock(ctx context.Context, tx Tx, warehouseID, productID uuid.UUID, fn func([]*stockModel.Stock) error) error {
	rows, err := tx.Stocks().LockForProduct(ctx, warehouseID, productID)
	if err != nil {
		return err
	}
	before := make([]stockModel.Stock, len(rows))
	for i, r := range rows {
		before[i] = *r
	}
	if err := fn(rows); err != nil {
		return err
	}
	for i, r := range rows {
		if r.Quantity == before[i].Quantity && r.ReservedQuantity == before[i].ReservedQuantity {
			continue
		}
		if err := tx.Stocks().Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
