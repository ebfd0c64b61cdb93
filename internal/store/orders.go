package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grga023/latice-erp/internal/models"
)

// CreateOrder inserts a new order and fills in its assigned id.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (name, price, paid, customer, due_date, quantity, color, description, image, status, lager_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	return s.db.GetContext(ctx, &order.ID, query,
		order.Name, order.Price, order.Paid, order.Customer, order.DueDate,
		order.Quantity, order.Color, order.Description, order.Image,
		order.Status, order.LagerID)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders retrieves all orders
func (s *Store) GetOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY id")
	return orders, err
}

// GetOrdersByStatus retrieves all orders in the given status
func (s *Store) GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY id", status)
	return orders, err
}

// GetOpenOrders retrieves orders still awaiting fulfillment (new or for_delivery).
func (s *Store) GetOpenOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status IN ($1, $2) ORDER BY id",
		models.OrderStatusNew, models.OrderStatusForDelivery)
	return orders, err
}

// UpdateOrder persists the mutable attributes of an order.
func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET name = $1, price = $2, paid = $3, customer = $4, due_date = $5, description = $6, image = $7
		WHERE id = $8`,
		order.Name, order.Price, order.Paid, order.Customer, order.DueDate,
		order.Description, order.Image, order.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrOrderNotFound)
}

// UpdateOrderStatus moves an order to a new status, optionally updating paid.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string, paid *bool) error {
	var (
		res sql.Result
		err error
	)
	if paid != nil {
		res, err = s.db.ExecContext(ctx,
			"UPDATE orders SET status = $1, paid = $2 WHERE id = $3", status, *paid, orderID)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	}
	if err != nil {
		return err
	}
	return requireRow(res, ErrOrderNotFound)
}

// DeleteOrder removes an order permanently. Linked lager stock is untouched.
func (s *Store) DeleteOrder(ctx context.Context, orderID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrOrderNotFound)
}

// CreateOrderFromStock inserts an order drawn from lager stock. The stock
// decrement (clamped at zero) and the insert happen in one transaction so a
// reader never sees one without the other.
func (s *Store) CreateOrderFromStock(ctx context.Context, order *models.Order) error {
	if order.LagerID == nil {
		return ErrItemNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current int
	err = tx.GetContext(ctx, &current,
		"SELECT quantity FROM lager WHERE id = $1 FOR UPDATE", *order.LagerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock lager item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE lager SET quantity = GREATEST(0, quantity - $1) WHERE id = $2",
		order.Quantity, *order.LagerID)
	if err != nil {
		return fmt.Errorf("failed to draw down stock: %w", err)
	}

	err = tx.GetContext(ctx, &order.ID, `
		INSERT INTO orders (name, price, paid, customer, due_date, quantity, color, description, image, status, lager_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		order.Name, order.Price, order.Paid, order.Customer, order.DueDate,
		order.Quantity, order.Color, order.Description, order.Image,
		order.Status, order.LagerID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return tx.Commit()
}

// ReturnOrderToStock refunds an order's quantity to its linked lager item and
// deletes the order, atomically. It returns the dissolved order and the
// item's new quantity.
func (s *Store) ReturnOrderToStock(ctx context.Context, orderID int64) (*models.Order, int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrOrderNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	if order.LagerID == nil {
		return nil, 0, ErrNoInventoryLink
	}

	var newQuantity int
	err = tx.GetContext(ctx, &newQuantity,
		"UPDATE lager SET quantity = quantity + $1 WHERE id = $2 RETURNING quantity",
		order.Quantity, *order.LagerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrInventoryLinkGone
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to refund stock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID); err != nil {
		return nil, 0, fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return &order, newQuantity, nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
