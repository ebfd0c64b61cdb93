package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/grga023/latice-erp/internal/models"
	"github.com/grga023/latice-erp/internal/util"

	"go.uber.org/zap"
)

// LagerStore is the persistence surface for lager items.
type LagerStore interface {
	CreateItem(ctx context.Context, item *models.LagerItem) error
	GetItemByID(ctx context.Context, id int64) (*models.LagerItem, error)
	GetItems(ctx context.Context) ([]models.LagerItem, error)
	DeleteItem(ctx context.Context, id int64) error
	AdjustItemQuantity(ctx context.Context, id int64, delta int) (int, error)
}

// LagerService handles inventory operations.
type LagerService struct {
	store  LagerStore
	logger *zap.Logger
}

// NewLagerService creates a new lager service
func NewLagerService(store LagerStore) *LagerService {
	return &LagerService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateItemInput carries the raw lager item fields. Only the name is
// required; price and quantity are default-tolerant.
type CreateItemInput struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Color    string `json:"color"`
	Quantity string `json:"quantity"`
	Location string `json:"location"`
	Image    string `json:"image"`
}

// CreateItem inserts a new lager item.
func (s *LagerService) CreateItem(ctx context.Context, in CreateItemInput) (*models.LagerItem, error) {
	ctx, span := util.StartSpan(ctx, "LagerService.CreateItem")
	defer span.End()

	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}

	location := in.Location
	if location == "" {
		location = models.DefaultLocation
	}

	item := &models.LagerItem{
		Name:     in.Name,
		Price:    lenientPrice(in.Price),
		Color:    in.Color,
		Quantity: lenientStock(in.Quantity),
		Location: location,
		Image:    in.Image,
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Lager item created",
		zap.Int64("lager_id", item.ID),
		zap.String("name", item.Name),
		zap.Int("quantity", item.Quantity))
	return item, nil
}

// GetItem retrieves a lager item by ID
func (s *LagerService) GetItem(ctx context.Context, id int64) (*models.LagerItem, error) {
	return s.store.GetItemByID(ctx, id)
}

// ListItems retrieves all lager items
func (s *LagerService) ListItems(ctx context.Context) ([]models.LagerItem, error) {
	return s.store.GetItems(ctx)
}

// DeleteItem removes a lager item. Orders referencing it are left alone.
func (s *LagerService) DeleteItem(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "LagerService.DeleteItem")
	defer span.End()

	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Lager item deleted", zap.Int64("lager_id", id))
	return nil
}

// AdjustQuantity applies a signed delta to an item's quantity. The result is
// clamped at zero: the final quantity may be smaller in magnitude than the
// requested decrement, and that is not an error.
func (s *LagerService) AdjustQuantity(ctx context.Context, id int64, delta int) (int, error) {
	ctx, span := util.StartSpan(ctx, "LagerService.AdjustQuantity")
	defer span.End()

	return s.store.AdjustItemQuantity(ctx, id, delta)
}

// IncreaseQuantity adds a strictly positive amount to an item's quantity.
func (s *LagerService) IncreaseQuantity(ctx context.Context, id int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, &ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	return s.AdjustQuantity(ctx, id, amount)
}

// lenientStock parses an optional stock count, falling back to zero.
func lenientStock(raw string) int {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || quantity < 0 {
		return 0
	}
	return quantity
}
