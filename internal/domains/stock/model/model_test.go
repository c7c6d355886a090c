package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestStock_AvailableFloorsAtZero(t *testing.T) {
	assert.Equal(t, 40, Stock{Quantity: 100, ReservedQuantity: 60}.Available())
	assert.Equal(t, 0, Stock{Quantity: 10, ReservedQuantity: 15}.Available())
}

func TestSortFEFO(t *testing.T) {
	rows := []*Stock{
		{BatchNumber: "none"},
		{BatchNumber: "late", ExpiryDate: date(2027, 5, 1)},
		{BatchNumber: "early", ExpiryDate: date(2026, 12, 1)},
	}
	SortFEFO(rows)

	assert.Equal(t, "early", rows[0].BatchNumber)
	assert.Equal(t, "late", rows[1].BatchNumber)
	assert.Equal(t, "none", rows[2].BatchNumber)
}

func TestReserve(t *testing.T) {
	t.Run("spreads over batches", func(t *testing.T) {
		rows := []*Stock{
			{Quantity: 30, ReservedQuantity: 10},
			{Quantity: 50},
		}
		require.NoError(t, Reserve(rows, 40))
		assert.Equal(t, 30, rows[0].ReservedQuantity)
		assert.Equal(t, 20, rows[1].ReservedQuantity)
	})

	t.Run("insufficient leaves rows untouched", func(t *testing.T) {
		rows := []*Stock{{Quantity: 10, ReservedQuantity: 5}}
		err := Reserve(rows, 6)
		assert.True(t, errors.Is(err, ErrInsufficientStock))
		assert.Equal(t, 5, rows[0].ReservedQuantity)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		assert.ErrorIs(t, Reserve(nil, 0), ErrInvalidQuantity)
	})
}

func TestConsume_FloorsAtZero(t *testing.T) {
	// A manual adjustment already pushed the row below the reservation.
	rows := []*Stock{{Quantity: 70, ReservedQuantity: 60}}
	Consume(rows, 100)

	assert.Equal(t, 0, rows[0].Quantity)
	assert.Equal(t, 0, rows[0].ReservedQuantity)
}

func TestConsume_ExactAmounts(t *testing.T) {
	rows := []*Stock{{Quantity: 200, ReservedQuantity: 100}}
	Consume(rows, 100)

	assert.Equal(t, 100, rows[0].Quantity)
	assert.Equal(t, 0, rows[0].ReservedQuantity)
}

func TestRelease(t *testing.T) {
	rows := []*Stock{{Quantity: 10, ReservedQuantity: 4}, {Quantity: 10, ReservedQuantity: 4}}
	Release(rows, 6)

	assert.Equal(t, 0, rows[0].ReservedQuantity)
	assert.Equal(t, 2, rows[1].ReservedQuantity)
}
