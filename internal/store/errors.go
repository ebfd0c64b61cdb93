package store

import "errors"

// Sentinel errors surfaced by store operations. Callers match with errors.Is.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrItemNotFound  = errors.New("lager item not found")

	// ErrNoInventoryLink is returned by ReturnOrderToStock when the order
	// was not created from lager stock.
	ErrNoInventoryLink = errors.New("order has no lager link")

	// ErrInventoryLinkGone is returned when an order's linked lager item
	// was deleted while the order still referenced it.
	ErrInventoryLinkGone = errors.New("linked lager item no longer exists")
)
