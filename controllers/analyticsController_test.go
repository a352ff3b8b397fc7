package controllers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageOrderValue(t *testing.T) {
	avg := averageOrderValue(decimal.NewFromInt(100), 4)
	assert.True(t, avg.Equal(decimal.NewFromInt(25)))

	avg = averageOrderValue(decimal.NewFromInt(100), 3)
	assert.True(t, avg.Equal(decimal.RequireFromString("33.33")))
}

func TestAverageOrderValueZeroOrders(t *testing.T) {
	avg := averageOrderValue(decimal.Zero, 0)
	assert.True(t, avg.Equal(decimal.Zero))

	// revenue with no orders still must not divide
	avg = averageOrderValue(decimal.NewFromInt(500), 0)
	assert.True(t, avg.Equal(decimal.Zero))
}

func TestParseDateParam(t *testing.T) {
	got, err := parseDateParam("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseDateParam("2026-01-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseDateParam("2026-01-15T10:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), *got)

	_, err = parseDateParam("last tuesday")
	assert.Error(t, err)
}

func TestDeliveredOrderFilter(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := deliveredOrderFilter("orders.", &start, &end).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "orders.status = ?")
	assert.Contains(t, sql, "orders.created_at >= ?")
	assert.Contains(t, sql, "orders.created_at <= ?")
	assert.Equal(t, []interface{}{"delivered", start, end}, args)

	sql, args, err = deliveredOrderFilter("", nil, nil).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "status = ?")
	assert.Equal(t, []interface{}{"delivered"}, args)
}
