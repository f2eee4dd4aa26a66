package domain

import (
	"errors"
	"fmt"
)

// Domain errors shared by the store, the API and the backend client.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrValidation        = errors.New("validation error")
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses.
const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

var statusLabels = map[OrderStatus]string{
	StatusPending:    "pendiente",
	StatusProcessing: "en proceso",
	StatusShipped:    "enviado",
	StatusDelivered:  "entregado",
	StatusCancelled:  "cancelado",
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := statusLabels[status]; !ok {
		return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, s)
	}
	return status, nil
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Label is the Spanish name shown to customers.
func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
