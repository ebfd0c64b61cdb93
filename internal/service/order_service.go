package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/grga023/latice-erp/internal/models"
	"github.com/grga023/latice-erp/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the persistence surface the lifecycle engine needs. The two
// stock-touching operations are atomic inside the store so partial
// application is never observable.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderFromStock(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrders(ctx context.Context) ([]models.Order, error)
	GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status string, paid *bool) error
	DeleteOrder(ctx context.Context, orderID int64) error
	ReturnOrderToStock(ctx context.Context, orderID int64) (*models.Order, int, error)
}

// EventPublisher publishes lifecycle events. Publish failures are logged,
// never propagated to the caller.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishOrderReturned(ctx context.Context, event *models.OrderReturnedEvent) error
	PublishDueDateAlert(ctx context.Context, event *models.DueDateAlertEvent) error
}

// OrderService handles the order lifecycle: creation, status transitions,
// edits, deletion and dissolving orders back into lager stock.
type OrderService struct {
	store  OrderStore
	events EventPublisher
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, events EventPublisher) *OrderService {
	return &OrderService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateOrderInput carries the raw creation fields. Price and Quantity arrive
// as strings: price is required-strict, quantity is default-tolerant.
type CreateOrderInput struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Paid        bool   `json:"paid"`
	Customer    string `json:"customer"`
	DueDate     string `json:"due_date"`
	Quantity    string `json:"quantity"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CreateOrder validates the input and inserts a new order in status "new".
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(in.Customer) == "" {
		return nil, &ValidationError{Field: "customer", Reason: "is required"}
	}

	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Name:        in.Name,
		Price:       price,
		Paid:        in.Paid,
		Customer:    in.Customer,
		DueDate:     in.DueDate,
		Quantity:    parseQuantity(in.Quantity),
		Color:       in.Color,
		Description: in.Description,
		Image:       in.Image,
		Status:      models.OrderStatusNew,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("customer", order.Customer))

	s.publishCreated(ctx, order)
	return order, nil
}

// CreateOrderFromInventory inserts a new order drawn from a lager item. The
// item's quantity is decremented (clamped at zero) in the same transaction as
// the insert. All numeric fields are default-tolerant on this path.
func (s *OrderService) CreateOrderFromInventory(ctx context.Context, lagerID int64, in CreateOrderInput) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrderFromInventory")
	defer span.End()

	order := &models.Order{
		Name:        in.Name,
		Price:       lenientPrice(in.Price),
		Paid:        in.Paid,
		Customer:    in.Customer,
		DueDate:     in.DueDate,
		Quantity:    parseQuantity(in.Quantity),
		Color:       in.Color,
		Description: in.Description,
		Image:       in.Image,
		Status:      models.OrderStatusNew,
		LagerID:     &lagerID,
	}

	if err := s.store.CreateOrderFromStock(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("stock_draw_failed").Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created from lager",
		zap.Int64("order_id", order.ID),
		zap.Int64("lager_id", lagerID),
		zap.Int("quantity", order.Quantity))

	s.publishCreated(ctx, order)
	return order, nil
}

// UpdateStatus moves an order to a new status. Every transition between the
// three statuses is permitted, including no-ops. Paid is updated when given.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string, paid *bool) error {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if !models.IsValidStatus(status) {
		return &ValidationError{Field: "status", Reason: "must be new, for_delivery or realized"}
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status, paid); err != nil {
		return err
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", status))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   orderID,
		OldStatus: order.Status,
		NewStatus: status,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
	return nil
}

// EditOrderInput carries a partial update; nil fields are left unchanged.
// The lager link and the status are not editable through this path.
type EditOrderInput struct {
	Name        *string `json:"name"`
	Price       *string `json:"price"`
	Paid        *bool   `json:"paid"`
	Customer    *string `json:"customer"`
	DueDate     *string `json:"due_date"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

// EditOrder applies a partial update to an order's mutable attributes.
func (s *OrderService) EditOrder(ctx context.Context, orderID int64, in EditOrderInput) error {
	ctx, span := util.StartSpan(ctx, "OrderService.EditOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return &ValidationError{Field: "name", Reason: "must not be empty"}
		}
		order.Name = *in.Name
	}
	if in.Customer != nil {
		if strings.TrimSpace(*in.Customer) == "" {
			return &ValidationError{Field: "customer", Reason: "must not be empty"}
		}
		order.Customer = *in.Customer
	}
	if in.Price != nil {
		price, err := parsePrice(*in.Price)
		if err != nil {
			return err
		}
		order.Price = price
	}
	if in.Paid != nil {
		order.Paid = *in.Paid
	}
	if in.DueDate != nil {
		order.DueDate = *in.DueDate
	}
	if in.Description != nil {
		order.Description = *in.Description
	}
	if in.Image != nil {
		order.Image = *in.Image
	}

	return s.store.UpdateOrder(ctx, order)
}

// DeleteOrder removes an order permanently without touching linked stock.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	s.logger.Info("Order deleted", zap.Int64("order_id", orderID))
	return nil
}

// ReturnToInventory refunds the order's quantity to its linked lager item and
// deletes the order. It is the inverse of CreateOrderFromInventory.
func (s *OrderService) ReturnToInventory(ctx context.Context, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.ReturnToInventory")
	defer span.End()

	order, newQuantity, err := s.store.ReturnOrderToStock(ctx, orderID)
	if err != nil {
		return err
	}

	util.OrdersReturnedTotal.Inc()
	s.logger.Info("Order returned to lager",
		zap.Int64("order_id", orderID),
		zap.Int64("lager_id", *order.LagerID),
		zap.Int("quantity", order.Quantity),
		zap.Int("new_stock", newQuantity))

	event := &models.OrderReturnedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderReturned),
		OrderID:     orderID,
		LagerID:     *order.LagerID,
		Quantity:    order.Quantity,
		NewQuantity: newQuantity,
	}
	if err := s.events.PublishOrderReturned(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderReturned event", zap.Error(err))
	}
	return nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.GetOrderByID(ctx, orderID)
}

// ListOrders returns all orders, or only those in the given status.
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	if status == "" {
		return s.store.GetOrders(ctx)
	}
	if !models.IsValidStatus(status) {
		return nil, &ValidationError{Field: "status", Reason: "must be new, for_delivery or realized"}
	}
	return s.store.GetOrdersByStatus(ctx, status)
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order) {
	event := &models.OrderCreatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderCreated),
		OrderID:   order.ID,
		Name:      order.Name,
		Customer:  order.Customer,
		Quantity:  order.Quantity,
		LagerID:   order.LagerID,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// parsePrice parses a required price field: it must be a number and must not
// be negative. An empty string means zero.
func parsePrice(raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ValidationError{Field: "price", Reason: "must be a number"}
	}
	if price < 0 {
		return 0, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return price, nil
}

// lenientPrice parses an optional price field, falling back to zero.
func lenientPrice(raw string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

// parseQuantity parses an optional quantity field. Unparseable or
// non-positive values silently become 1.
func parseQuantity(raw string) int {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || quantity < 1 {
		return 1
	}
	return quantity
}
