package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "accepted", "ready_for_pickup", "in_transit", "delivered", "cancelled"} {
		status, err := ParseOrderStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, OrderStatus(raw), status)
	}

	_, err := ParseOrderStatus("shipped")
	assert.Error(t, err)

	_, err = ParseOrderStatus("")
	assert.Error(t, err)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusAccepted))
	assert.True(t, StatusAccepted.CanTransitionTo(StatusReadyForPickup))
	assert.True(t, StatusReadyForPickup.CanTransitionTo(StatusInTransit))
	assert.True(t, StatusInTransit.CanTransitionTo(StatusDelivered))

	// Cancellation is allowed from every non-terminal state.
	for _, from := range []OrderStatus{StatusPending, StatusAccepted, StatusReadyForPickup, StatusInTransit} {
		assert.True(t, from.CanTransitionTo(StatusCancelled), "cancel from %s", from)
	}

	// No skipping stages or moving backwards.
	assert.False(t, StatusPending.CanTransitionTo(StatusReadyForPickup))
	assert.False(t, StatusPending.CanTransitionTo(StatusDelivered))
	assert.False(t, StatusAccepted.CanTransitionTo(StatusPending))
	assert.False(t, StatusInTransit.CanTransitionTo(StatusAccepted))

	// Nothing leaves a terminal state.
	for _, next := range []OrderStatus{StatusPending, StatusAccepted, StatusReadyForPickup, StatusInTransit, StatusDelivered, StatusCancelled} {
		assert.False(t, StatusDelivered.CanTransitionTo(next), "delivered -> %s", next)
		assert.False(t, StatusCancelled.CanTransitionTo(next), "cancelled -> %s", next)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInTransit.IsTerminal())
}

func TestTimestampColumn(t *testing.T) {
	assert.Equal(t, "accepted_at", StatusAccepted.TimestampColumn())
	assert.Equal(t, "ready_at", StatusReadyForPickup.TimestampColumn())
	assert.Equal(t, "picked_up_at", StatusInTransit.TimestampColumn())
	assert.Equal(t, "delivered_at", StatusDelivered.TimestampColumn())
	assert.Equal(t, "cancelled_at", StatusCancelled.TimestampColumn())
	assert.Equal(t, "", StatusPending.TimestampColumn())
}
