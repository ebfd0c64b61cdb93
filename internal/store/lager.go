package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/grga023/latice-erp/internal/models"
)

// CreateItem inserts a new lager item and fills in its assigned id.
func (s *Store) CreateItem(ctx context.Context, item *models.LagerItem) error {
	query := `
		INSERT INTO lager (name, price, color, quantity, location, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return s.db.GetContext(ctx, &item.ID, query,
		item.Name, item.Price, item.Color, item.Quantity, item.Location, item.Image)
}

// GetItemByID retrieves a lager item by ID
func (s *Store) GetItemByID(ctx context.Context, id int64) (*models.LagerItem, error) {
	var item models.LagerItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM lager WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItems retrieves all lager items
func (s *Store) GetItems(ctx context.Context) ([]models.LagerItem, error) {
	var items []models.LagerItem
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM lager ORDER BY id")
	return items, err
}

// DeleteItem removes a lager item. Orders referencing it keep their link,
// which becomes dangling.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM lager WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrItemNotFound)
}

// AdjustItemQuantity applies delta to an item's quantity, clamping at zero,
// and returns the resulting quantity. The clamp is expected behavior, not a
// fault: a stale count must never fail the surrounding order operation.
func (s *Store) AdjustItemQuantity(ctx context.Context, id int64, delta int) (int, error) {
	var quantity int
	err := s.db.GetContext(ctx, &quantity,
		"UPDATE lager SET quantity = GREATEST(0, quantity + $1) WHERE id = $2 RETURNING quantity",
		delta, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, err
	}
	return quantity, nil
}
