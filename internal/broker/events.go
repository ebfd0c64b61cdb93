package broker

import (
	"context"
	"fmt"

	"github.com/grga023/latice-erp/internal/models"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderReturned publishes OrderReturned event
func (ep *EventPublisher) PublishOrderReturned(ctx context.Context, event *models.OrderReturnedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishDueDateAlert publishes DueDateAlert event
func (ep *EventPublisher) PublishDueDateAlert(ctx context.Context, event *models.DueDateAlertEvent) error {
	return ep.producer.PublishEvent(ctx, "due-date-alerts", event)
}
