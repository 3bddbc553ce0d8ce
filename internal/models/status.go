package models

import "fmt"

// OrderStatus enumerates the delivery lifecycle states.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusAccepted       OrderStatus = "accepted"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
	StatusInTransit      OrderStatus = "in_transit"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// statusTransitions holds the legal moves. Delivered and cancelled are
// terminal; cancelled is reachable from every non-terminal state.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusAccepted, StatusCancelled},
	StatusAccepted:       {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup: {StatusInTransit, StatusCancelled},
	StatusInTransit:      {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// ParseOrderStatus validates a raw status value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if _, ok := statusTransitions[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return status, nil
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// TimestampColumn returns the orders column stamped when the order enters s,
// or "" when the status has no dedicated timestamp.
func (s OrderStatus) TimestampColumn() string {
	switch s {
	case StatusAccepted:
		return "accepted_at"
	case StatusReadyForPickup:
		return "ready_at"
	case StatusInTransit:
		return "picked_up_at"
	case StatusDelivered:
		return "delivered_at"
	case StatusCancelled:
		return "cancelled_at"
	default:
		return ""
	}
}
