package service

import (
	"context"
	"sync"

	"github.com/grga023/latice-erp/internal/models"
	"github.com/grga023/latice-erp/internal/store"
)

// fakeStore is an in-memory stand-in for the sqlx store. It mirrors the real
// store's semantics: assigned ids, clamp-at-zero stock, sentinel errors and
// atomic multi-entity operations (trivially atomic under one mutex).
type fakeStore struct {
	mu          sync.Mutex
	orders      map[int64]models.Order
	items       map[int64]models.LagerItem
	notified    map[string]bool
	settings    models.EmailSettings
	nextOrderID int64
	nextItemID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[int64]models.Order),
		items:    make(map[int64]models.LagerItem),
		notified: make(map[string]bool),
		settings: models.EmailSettings{ID: 1, DaysBefore: models.DefaultDaysBefore},
	}
}

func (f *fakeStore) addItem(item models.LagerItem) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextItemID++
	item.ID = f.nextItemID
	f.items[item.ID] = item
	return item.ID
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOrderID++
	order.ID = f.nextOrderID
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeStore) CreateOrderFromStock(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[*order.LagerID]
	if !ok {
		return store.ErrItemNotFound
	}
	item.Quantity -= order.Quantity
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	f.items[item.ID] = item
	f.nextOrderID++
	order.ID = f.nextOrderID
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	return &order, nil
}

func (f *fakeStore) GetOrders(_ context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for id := int64(1); id <= f.nextOrderID; id++ {
		if order, ok := f.orders[id]; ok {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *fakeStore) GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	all, _ := f.GetOrders(ctx)
	var orders []models.Order
	for _, order := range all {
		if order.Status == status {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *fakeStore) GetOpenOrders(ctx context.Context) ([]models.Order, error) {
	all, _ := f.GetOrders(ctx)
	var orders []models.Order
	for _, order := range all {
		if order.Status == models.OrderStatusNew || order.Status == models.OrderStatusForDelivery {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *fakeStore) UpdateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.orders[order.ID]
	if !ok {
		return store.ErrOrderNotFound
	}
	existing.Name = order.Name
	existing.Price = order.Price
	existing.Paid = order.Paid
	existing.Customer = order.Customer
	existing.DueDate = order.DueDate
	existing.Description = order.Description
	existing.Image = order.Image
	f.orders[order.ID] = existing
	return nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID int64, status string, paid *bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return store.ErrOrderNotFound
	}
	order.Status = status
	if paid != nil {
		order.Paid = *paid
	}
	f.orders[orderID] = order
	return nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[orderID]; !ok {
		return store.ErrOrderNotFound
	}
	delete(f.orders, orderID)
	return nil
}

func (f *fakeStore) ReturnOrderToStock(_ context.Context, orderID int64) (*models.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, 0, store.ErrOrderNotFound
	}
	if order.LagerID == nil {
		return nil, 0, store.ErrNoInventoryLink
	}
	item, ok := f.items[*order.LagerID]
	if !ok {
		return nil, 0, store.ErrInventoryLinkGone
	}
	item.Quantity += order.Quantity
	f.items[item.ID] = item
	delete(f.orders, orderID)
	return &order, item.Quantity, nil
}

func (f *fakeStore) CreateItem(_ context.Context, item *models.LagerItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextItemID++
	item.ID = f.nextItemID
	f.items[item.ID] = *item
	return nil
}

func (f *fakeStore) GetItemByID(_ context.Context, id int64) (*models.LagerItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	return &item, nil
}

func (f *fakeStore) GetItems(_ context.Context) ([]models.LagerItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []models.LagerItem
	for id := int64(1); id <= f.nextItemID; id++ {
		if item, ok := f.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return store.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) AdjustItemQuantity(_ context.Context, id int64, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return 0, store.ErrItemNotFound
	}
	item.Quantity += delta
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	f.items[id] = item
	return item.Quantity, nil
}

func (f *fakeStore) GetEmailSettings(_ context.Context) (*models.EmailSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	settings := f.settings
	return &settings, nil
}

func (f *fakeStore) SaveEmailSettings(_ context.Context, settings *models.EmailSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = *settings
	return nil
}

func (f *fakeStore) MarkNotified(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notified[key] {
		return false, nil
	}
	f.notified[key] = true
	return true, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu       sync.Mutex
	created  []*models.OrderCreatedEvent
	statuses []*models.OrderStatusChangedEvent
	returned []*models.OrderReturnedEvent
	alerts   []*models.DueDateAlertEvent
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, event)
	return nil
}

func (p *fakePublisher) PublishOrderStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, event)
	return nil
}

func (p *fakePublisher) PublishOrderReturned(_ context.Context, event *models.OrderReturnedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.returned = append(p.returned, event)
	return nil
}

func (p *fakePublisher) PublishDueDateAlert(_ context.Context, event *models.DueDateAlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, event)
	return nil
}

// fakeMailer records delivery attempts and can be told to fail.
type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
}

type sentMail struct {
	subject    string
	body       string
	recipients []string
}

func (m *fakeMailer) Send(_ context.Context, _ *models.EmailSettings, subject, htmlBody string, recipients []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentMail{subject: subject, body: htmlBody, recipients: recipients})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
