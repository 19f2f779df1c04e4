package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

var (
	_ port.CatalogRepository  = (*MemoryAdapter)(nil)
	_ port.OrderRepository    = (*MemoryAdapter)(nil)
	_ port.PaymentRepository  = (*MemoryAdapter)(nil)
	_ port.ActivityRepository = (*MemoryAdapter)(nil)
	_ port.CustomerRepository = (*MemoryAdapter)(nil)

	_ port.CatalogRepository  = (*MySQLAdapter)(nil)
	_ port.OrderRepository    = (*MySQLAdapter)(nil)
	_ port.PaymentRepository  = (*MySQLAdapter)(nil)
	_ port.ActivityRepository = (*MySQLAdapter)(nil)
	_ port.CustomerRepository = (*MySQLAdapter)(nil)

	_ port.SessionStore = (*RedisAdapter)(nil)
	_ port.ChargeLocker = (*RedisAdapter)(nil)
)

func memBook(title, price string, stock int) domain.Book {
	return domain.Book{
		Title: title,
		Price: decimal.NewNullDecimal(decimal.RequireFromString(price)),
		Stock: stock,
	}
}

func TestMemoryListBooks(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	m.AddBook(memBook("Dune", "9.99", 3))
	m.AddBook(memBook("Emma", "4.50", 1))
	hyperion := memBook("Hyperion", "12.00", 0)
	hyperion.Description = "a sequel to nothing like dune"
	m.AddBook(hyperion)

	t.Run("default ordering by title", func(t *testing.T) {
		books, total, err := m.ListBooks(ctx, domain.BookFilter{Ordering: domain.BookOrderTitle})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"Dune", "Emma", "Hyperion"}, titles(books))
	})

	t.Run("price descending", func(t *testing.T) {
		books, _, err := m.ListBooks(ctx, domain.BookFilter{Ordering: domain.BookOrderPriceDesc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Hyperion", "Dune", "Emma"}, titles(books))
	})

	t.Run("search covers description", func(t *testing.T) {
		books, total, err := m.ListBooks(ctx, domain.BookFilter{Search: "DUNE", Ordering: domain.BookOrderTitle})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, []string{"Dune", "Hyperion"}, titles(books))
	})

	t.Run("paging keeps total", func(t *testing.T) {
		books, total, err := m.ListBooks(ctx, domain.BookFilter{Ordering: domain.BookOrderTitle, Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"Emma"}, titles(books))

		books, _, err = m.ListBooks(ctx, domain.BookFilter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}

func titles(books []domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestMemoryBooks_Lookup(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	dune := m.AddBook(memBook("Dune", "9.99", 3))
	assert.NotZero(t, dune.ID)

	got, err := m.GetBook(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	books, err := m.GetBooks(ctx, []int64{dune.ID, 999})
	require.NoError(t, err)
	assert.Len(t, books, 1)

	m.DeleteBook(dune.ID)
	_, err = m.GetBook(ctx, dune.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryNamedEntities(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	m.AddAuthor(domain.Author{Name: "Ursula Le Guin"})
	herbert := m.AddAuthor(domain.Author{Name: "Frank Herbert"})
	m.AddCategory(domain.Category{Name: "Science Fiction"})
	m.AddPublisher(domain.Publisher{Name: "Ace"})

	authors, err := m.ListAuthors(ctx, domain.NameFilter{})
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "Frank Herbert", authors[0].Name)

	authors, err = m.ListAuthors(ctx, domain.NameFilter{Search: "guin"})
	require.NoError(t, err)
	require.Len(t, authors, 1)

	got, err := m.GetAuthor(ctx, herbert.ID)
	require.NoError(t, err)
	assert.Equal(t, herbert.Name, got.Name)

	categories, err := m.ListCategories(ctx, domain.NameFilter{Search: "fiction"})
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	_, err = m.GetPublisher(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryOrders(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()
	now := time.Now()

	older := &domain.Order{CustomerID: 1, OrderDate: now.Add(-time.Hour), Status: domain.OrderStatusPending}
	require.NoError(t, m.CreateOrder(ctx, older, []domain.OrderLine{{BookID: 1, Quantity: 1}}))
	newer := &domain.Order{CustomerID: 1, OrderDate: now, Status: domain.OrderStatusPending}
	lines := []domain.OrderLine{{BookID: 1, Quantity: 2}, {BookID: 2, Quantity: 1}}
	require.NoError(t, m.CreateOrder(ctx, newer, lines))
	require.NoError(t, m.CreateOrder(ctx, &domain.Order{CustomerID: 2, OrderDate: now}, nil))

	assert.Equal(t, newer.ID, lines[1].OrderID)
	assert.NotEqual(t, lines[0].ID, lines[1].ID)

	orders, err := m.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, 2, orders[0].TotalItems)

	_, err = m.GetOrder(ctx, newer.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, m.UpdateOrderStatus(ctx, newer.ID, domain.OrderStatusPending, domain.OrderStatusCancelled))
	err = m.UpdateOrderStatus(ctx, newer.ID, domain.OrderStatusPending, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := m.GetOrder(ctx, newer.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
}

func TestMemoryPayments(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	_, err := m.LatestPayment(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	failed := &domain.Payment{OrderID: 7, Status: domain.PaymentStatusFailed}
	require.NoError(t, m.CreatePayment(ctx, failed))

	active, err := m.HasActivePayment(ctx, 7)
	require.NoError(t, err)
	assert.False(t, active)

	completed := &domain.Payment{OrderID: 7, Status: domain.PaymentStatusCompleted}
	require.NoError(t, m.CreatePayment(ctx, completed))

	latest, err := m.LatestPayment(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, completed.ID, latest.ID)

	active, err = m.HasActivePayment(ctx, 7)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, m.UpdatePaymentStatus(ctx, completed.ID, domain.PaymentStatusRefunded))
	active, err = m.HasActivePayment(ctx, 7)
	require.NoError(t, err)
	assert.False(t, active)

	assert.ErrorIs(t, m.UpdatePaymentStatus(ctx, 999, domain.PaymentStatusFailed), domain.ErrNotFound)
}

func TestMemoryCustomers(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	c := &domain.Customer{Name: "Ada", Email: "Ada@Example.com"}
	require.NoError(t, m.CreateCustomer(ctx, c))
	assert.Equal(t, "ada@example.com", c.Email)

	err := m.CreateCustomer(ctx, &domain.Customer{Name: "Other", Email: "ADA@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := m.GetCustomerByEmail(ctx, "ADA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = m.GetCustomer(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryActivities(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	a := &domain.Activity{CustomerID: 1, BookID: 2, Action: domain.ActivityView}
	require.NoError(t, m.CreateActivity(ctx, a))
	assert.NotZero(t, a.ID)

	n, err := m.CreateActivities(ctx, []domain.Activity{
		{CustomerID: 1, BookID: 3, Action: domain.ActivityCart},
		{CustomerID: 1, BookID: 3, Action: domain.ActivityPurchase},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored := m.Activities()
	require.Len(t, stored, 3)
	assert.Equal(t, domain.ActivityPurchase, stored[2].Action)
}
