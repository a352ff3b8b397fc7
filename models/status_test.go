package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, s.Valid(), "status %s should be valid", s)
	}
	assert.False(t, OrderStatus("refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},

		// cancellation from any non-terminal state
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},

		// no skipping or going backwards
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusProcessing, false},

		// terminal states never move
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},

		{StatusPending, OrderStatus("refunded"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
