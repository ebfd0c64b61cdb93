package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeOrderReturned      = "ORDER_RETURNED_TO_STOCK"
	EventTypeDueDateAlert       = "DUE_DATE_ALERT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is created
type OrderCreatedEvent struct {
	BaseEvent
	OrderID  int64  `json:"order_id"`
	Name     string `json:"name"`
	Customer string `json:"customer"`
	Quantity int    `json:"quantity"`
	LagerID  *int64 `json:"lager_id,omitempty"`
}

// OrderStatusChangedEvent published when an order moves between statuses
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderReturnedEvent published when an order is dissolved back into stock
type OrderReturnedEvent struct {
	BaseEvent
	OrderID     int64 `json:"order_id"`
	LagerID     int64 `json:"lager_id"`
	Quantity    int   `json:"quantity"`
	NewQuantity int   `json:"new_quantity"`
}

// DueDateAlertEvent published after a due-date alert batch is dispatched
type DueDateAlertEvent struct {
	BaseEvent
	OrderIDs   []int64 `json:"order_ids"`
	DaysBefore int     `json:"days_before"`
}
