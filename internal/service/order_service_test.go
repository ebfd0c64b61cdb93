package service

import (
	"context"
	"testing"

	"github.com/grga023/latice-erp/internal/models"
	"github.com/grga023/latice-erp/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderService(fs *fakeStore) (*OrderService, *fakePublisher) {
	pub := &fakePublisher{}
	return NewOrderService(fs, pub), pub
}

func TestCreateOrderRequiredFields(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	cases := []struct {
		name  string
		in    CreateOrderInput
		field string
	}{
		{"missing name", CreateOrderInput{Customer: "Ana", Price: "10"}, "name"},
		{"blank name", CreateOrderInput{Name: "   ", Customer: "Ana"}, "name"},
		{"missing customer", CreateOrderInput{Name: "Bouquet", Price: "10"}, "customer"},
		{"bad price", CreateOrderInput{Name: "Bouquet", Customer: "Ana", Price: "abc"}, "price"},
		{"negative price", CreateOrderInput{Name: "Bouquet", Customer: "Ana", Price: "-5"}, "price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	// Nothing was persisted by any of the rejected inputs.
	orders, err := fs.GetOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderDefaults(t *testing.T) {
	fs := newFakeStore()
	svc, pub := newOrderService(fs)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		Name:     "Bouquet",
		Customer: "Ana",
		Quantity: "not-a-number",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.Equal(t, 1, order.Quantity, "unparseable quantity defaults to 1")
	assert.Equal(t, 0.0, order.Price, "empty price defaults to 0")
	assert.Nil(t, order.LagerID)
	require.Len(t, pub.created, 1)
	assert.Equal(t, order.ID, pub.created[0].OrderID)
}

func TestCreateOrderUniqueIDs(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		order, err := svc.CreateOrder(ctx, CreateOrderInput{Name: "Bouquet", Customer: "Ana"})
		require.NoError(t, err)
		assert.False(t, seen[order.ID], "id %d reused", order.ID)
		seen[order.ID] = true
	}
}

func TestCreateOrderFromInventory(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	itemID := fs.addItem(models.LagerItem{Name: "Rose", Quantity: 3})

	order, err := svc.CreateOrderFromInventory(ctx, itemID, CreateOrderInput{
		Name:     "Rose",
		Customer: "Ana",
		Quantity: "2",
	})
	require.NoError(t, err)

	require.NotNil(t, order.LagerID)
	assert.Equal(t, itemID, *order.LagerID)

	item, err := fs.GetItemByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
}

func TestCreateOrderFromInventoryClampsAtZero(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	itemID := fs.addItem(models.LagerItem{Name: "Rose", Quantity: 3})

	_, err := svc.CreateOrderFromInventory(ctx, itemID, CreateOrderInput{Quantity: "5"})
	require.NoError(t, err, "overdraw is clamped, not rejected")

	item, err := fs.GetItemByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
}

func TestCreateOrderFromInventoryMissingItem(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	_, err := svc.CreateOrderFromInventory(ctx, 99, CreateOrderInput{Quantity: "1"})
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	orders, err := fs.GetOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders, "failed creation must not persist an order")
}

func TestUpdateStatus(t *testing.T) {
	fs := newFakeStore()
	svc, pub := newOrderService(fs)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Name: "Bouquet", Customer: "Ana"})
	require.NoError(t, err)

	// Any transition between the three statuses is allowed, including
	// re-setting the current one and moving backwards.
	for _, status := range []string{
		models.OrderStatusForDelivery,
		models.OrderStatusRealized,
		models.OrderStatusRealized,
		models.OrderStatusNew,
	} {
		require.NoError(t, svc.UpdateStatus(ctx, order.ID, status, nil))
		got, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}
	assert.Len(t, pub.statuses, 4)
}

func TestUpdateStatusSetsPaid(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Name: "Bouquet", Customer: "Ana"})
	require.NoError(t, err)

	paid := true
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, models.OrderStatusForDelivery, &paid))

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
}

func TestUpdateStatusNotFound(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)

	err := svc.UpdateStatus(context.Background(), 42, models.OrderStatusRealized, nil)
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Name: "Bouquet", Customer: "Ana"})
	require.NoError(t, err)

	err = svc.UpdateStatus(ctx, order.ID, "shipped", nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNew, got.Status)
}

func TestEditOrderPartialUpdate(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		Name: "Bouquet", Customer: "Ana", Price: "10", DueDate: "01.10.2026",
	})
	require.NoError(t, err)

	price := "25.50"
	require.NoError(t, svc.EditOrder(ctx, order.ID, EditOrderInput{Price: &price}))

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.50, got.Price)
	assert.Equal(t, "Bouquet", got.Name, "unset fields stay unchanged")
	assert.Equal(t, "Ana", got.Customer)
	assert.Equal(t, "01.10.2026", got.DueDate)
}

func TestEditOrderValidation(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Name: "Bouquet", Customer: "Ana"})
	require.NoError(t, err)

	empty := ""
	err = svc.EditOrder(ctx, order.ID, EditOrderInput{Name: &empty})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	badPrice := "xx"
	err = svc.EditOrder(ctx, order.ID, EditOrderInput{Price: &badPrice})
	require.ErrorAs(t, err, &verr)

	err = svc.EditOrder(ctx, 42, EditOrderInput{})
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestDeleteOrderLeavesStockAlone(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	itemID := fs.addItem(models.LagerItem{Name: "Rose", Quantity: 3})
	order, err := svc.CreateOrderFromInventory(ctx, itemID, CreateOrderInput{Quantity: "2"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	_, err = svc.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, store.ErrOrderNotFound)

	item, err := fs.GetItemByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity, "plain delete must not refund stock")

	assert.ErrorIs(t, svc.DeleteOrder(ctx, 42), store.ErrOrderNotFound)
}

func TestReturnToInventoryRoundTrip(t *testing.T) {
	fs := newFakeStore()
	svc, pub := newOrderService(fs)
	ctx := context.Background()

	itemID := fs.addItem(models.LagerItem{Name: "Rose", Quantity: 3})

	order, err := svc.CreateOrderFromInventory(ctx, itemID, CreateOrderInput{Quantity: "2"})
	require.NoError(t, err)

	require.NoError(t, svc.ReturnToInventory(ctx, order.ID))

	item, err := fs.GetItemByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity, "round trip restores the original stock")

	_, err = svc.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, store.ErrOrderNotFound)

	require.Len(t, pub.returned, 1)
	assert.Equal(t, 3, pub.returned[0].NewQuantity)
}

func TestReturnToInventoryNoLink(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Name: "Bouquet", Customer: "Ana"})
	require.NoError(t, err)

	err = svc.ReturnToInventory(ctx, order.ID)
	assert.ErrorIs(t, err, store.ErrNoInventoryLink)

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID, "order survives a failed return")
}

func TestReturnToInventoryDanglingLink(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	itemID := fs.addItem(models.LagerItem{Name: "Rose", Quantity: 3})
	order, err := svc.CreateOrderFromInventory(ctx, itemID, CreateOrderInput{Quantity: "1"})
	require.NoError(t, err)

	require.NoError(t, fs.DeleteItem(ctx, itemID))

	err = svc.ReturnToInventory(ctx, order.ID)
	assert.ErrorIs(t, err, store.ErrInventoryLinkGone)

	_, err = svc.GetOrder(ctx, order.ID)
	assert.NoError(t, err, "order survives a dangling-link return")
}

func TestReturnToInventoryNotFound(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)

	err := svc.ReturnToInventory(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestListOrdersByStatus(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newOrderService(fs)
	ctx := context.Background()

	a, err := svc.CreateOrder(ctx, CreateOrderInput{Name: "A", Customer: "Ana"})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, CreateOrderInput{Name: "B", Customer: "Bojan"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(ctx, a.ID, models.OrderStatusRealized, nil))

	realized, err := svc.ListOrders(ctx, models.OrderStatusRealized)
	require.NoError(t, err)
	require.Len(t, realized, 1)
	assert.Equal(t, "A", realized[0].Name)

	all, err := svc.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListOrders(ctx, "bogus")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
