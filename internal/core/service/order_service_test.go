package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/core/domain"
)

type orderFixture struct {
	svc      *OrderService
	store    *storage.MemoryAdapter
	sessions *mockSessions
	recorder *mockRecorder
}

func newOrderFixture() *orderFixture {
	store := storage.NewMemoryAdapter()
	sessions := newMockSessions()
	recorder := &mockRecorder{}
	return &orderFixture{
		svc:      NewOrderService(store, store, sessions, recorder),
		store:    store,
		sessions: sessions,
		recorder: recorder,
	}
}

var buyer = domain.Authenticated(42)

func TestCreateOrder_FromCart(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "9.99", 5)
	ctx := context.Background()
	f.sessions.SetCartItem(ctx, "s1", book.ID, 2)

	detail, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{FromCart: true})
	require.NoError(t, err)

	assert.NotZero(t, detail.ID)
	assert.Equal(t, int64(42), detail.CustomerID)
	assert.Equal(t, domain.OrderStatusPending, detail.Status)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, 2, detail.Lines[0].Quantity)
	assert.Equal(t, "Dune", detail.Lines[0].BookTitle)
	assert.Equal(t, "19.98", detail.TotalAmount.StringFixed(2))

	cart, _ := f.sessions.Cart(ctx, "s1")
	assert.Empty(t, cart)

	got := f.recorder.recorded()
	require.Len(t, got, 1)
	assert.Equal(t, domain.ActivityPurchase, got[0].Action)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.Create(context.Background(), buyer, "s1", CreateOrderInput{FromCart: true})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "Cart is empty")
}

func TestCreateOrder_CartWithOnlyMissingBooks(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	f.sessions.SetCartItem(ctx, "s1", 404, 1)

	_, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{FromCart: true})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "No valid items to order")
}

func TestCreateOrder_SkipsMissingCartBooks(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "5.00", 5)
	ctx := context.Background()
	f.sessions.SetCartItem(ctx, "s1", book.ID, 1)
	f.sessions.SetCartItem(ctx, "s1", 404, 3)

	detail, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{FromCart: true})
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, book.ID, detail.Lines[0].BookID)
}

func TestCreateOrder_ExplicitItems(t *testing.T) {
	f := newOrderFixture()
	a := seedBook(f.store, "Dune", "10.00", 5)
	b := seedBook(f.store, "Emma", "4.00", 5)
	custom := decimal.RequireFromString("7.50")
	ctx := context.Background()
	f.sessions.SetCartItem(ctx, "s1", a.ID, 1)

	detail, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{
			{BookID: a.ID, Quantity: 2},
			{BookID: b.ID, Quantity: 1, Price: &custom},
		},
	})
	require.NoError(t, err)

	require.Len(t, detail.Lines, 2)
	assert.Equal(t, "7.50", detail.Lines[1].Price.StringFixed(2))
	assert.Equal(t, "27.50", detail.TotalAmount.StringFixed(2))

	cart, _ := f.sessions.Cart(ctx, "s1")
	assert.Len(t, cart, 1, "explicit orders leave the cart alone")
}

func TestCreateOrder_ExplicitValidation(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "10.00", 5)
	negative := decimal.RequireFromString("-1")
	ctx := context.Background()

	_, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{})
	assert.EqualError(t, err, "No valid items to order")

	_, err = f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 1, Price: &negative}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateOrder_UnknownBook(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.Create(context.Background(), buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: 77, Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "Book with ID 77 not found")
}

func TestCreateOrder_InsufficientStockWritesNothing(t *testing.T) {
	f := newOrderFixture()
	ok := seedBook(f.store, "Dune", "10.00", 5)
	low := seedBook(f.store, "Emma", "4.00", 1)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{
			{BookID: ok.ID, Quantity: 1},
			{BookID: low.ID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "Not enough stock for Emma. Available: 1")

	orders, err := f.svc.List(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.Create(context.Background(), domain.Anonymous(), "s1", CreateOrderInput{FromCart: true})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = f.svc.List(context.Background(), domain.Anonymous())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestCreateOrder_CartClearFailureKeepsOrder(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "1.00", 5)
	ctx := context.Background()
	f.sessions.SetCartItem(ctx, "s1", book.ID, 1)
	f.sessions.failClear = true

	detail, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{FromCart: true})
	require.NoError(t, err)
	assert.NotZero(t, detail.ID)
}

func TestOrderTotal_UsesPriceSnapshot(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "10.00", 5)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	book.Price = price("99.00")
	f.store.AddBook(book)

	got, err := f.svc.Get(ctx, buyer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", got.TotalAmount.StringFixed(2))
	assert.Equal(t, "10.00", got.Lines[0].Price.StringFixed(2))
}

func TestListOrders_NewestFirst(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "1.00", 5)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		f.svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		d, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
			Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 1}, {BookID: book.ID, Quantity: 2}},
		})
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}

	orders, err := f.svc.List(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[2].ID)
	assert.Equal(t, 2, orders[0].TotalItems)

	other, err := f.svc.List(ctx, domain.Authenticated(99))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "1.00", 5)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, domain.Authenticated(99), d.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "Order not found")
}

func TestGetOrder_MissingBookTitle(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "1.00", 5)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	f.store.DeleteBook(book.ID)

	got, err := f.svc.Get(ctx, buyer, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Book ID 1", got.Lines[0].BookTitle)
}

func TestCancelOrder(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "1.00", 5)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateOrderStatus(ctx, d.ID, domain.OrderStatusPending, domain.OrderStatusConfirmed))

	require.NoError(t, f.svc.Cancel(ctx, buyer, d.ID))

	got, err := f.svc.Get(ctx, buyer, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	err = f.svc.Cancel(ctx, buyer, d.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "Cannot cancel order with status: cancelled")
}

func TestCancelOrder_NotOwner(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "1.00", 5)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, buyer, "s1", CreateOrderInput{
		Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Cancel(ctx, domain.Authenticated(99), d.ID), domain.ErrNotFound)
}

// Stock is checked but never reserved, so concurrent orders can together
// exceed it.
func TestCreateOrder_ConcurrentOversell(t *testing.T) {
	f := newOrderFixture()
	book := seedBook(f.store, "Dune", "1.00", 1)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), buyer, "s1", CreateOrderInput{
				Items: []domain.OrderItemInput{{BookID: book.ID, Quantity: 1}},
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), successCount.Load())
}
