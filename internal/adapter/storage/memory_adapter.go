package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rl1809/bookstore/internal/core/domain"
)

// MemoryAdapter is an in-process implementation of every relational
// repository. It backs the "memory" storage driver and tests.
type MemoryAdapter struct {
	mu sync.RWMutex

	nextID map[string]int64

	books      map[int64]domain.Book
	authors    map[int64]domain.Author
	categories map[int64]domain.Category
	publishers map[int64]domain.Publisher
	customers  map[int64]domain.Customer
	orders     map[int64]domain.Order
	lines      map[int64][]domain.OrderLine
	payments   map[int64]domain.Payment
	activities []domain.Activity
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		nextID:     make(map[string]int64),
		books:      make(map[int64]domain.Book),
		authors:    make(map[int64]domain.Author),
		categories: make(map[int64]domain.Category),
		publishers: make(map[int64]domain.Publisher),
		customers:  make(map[int64]domain.Customer),
		orders:     make(map[int64]domain.Order),
		lines:      make(map[int64][]domain.OrderLine),
		payments:   make(map[int64]domain.Payment),
	}
}

// id hands out the next id for a table. Callers hold the write lock.
func (m *MemoryAdapter) id(table string) int64 {
	m.nextID[table]++
	return m.nextID[table]
}

func (m *MemoryAdapter) Ping(ctx context.Context) error { return nil }

// AddBook stores a book, assigning an id when it has none.
func (m *MemoryAdapter) AddBook(b domain.Book) domain.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == 0 {
		b.ID = m.id("book")
	} else if b.ID > m.nextID["book"] {
		m.nextID["book"] = b.ID
	}
	m.books[b.ID] = b
	return b
}

// DeleteBook removes a book, leaving carts and order lines that point at it.
func (m *MemoryAdapter) DeleteBook(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
}

func (m *MemoryAdapter) AddAuthor(a domain.Author) domain.Author {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id("author")
	m.authors[a.ID] = a
	return a
}

func (m *MemoryAdapter) AddCategory(c domain.Category) domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id("category")
	m.categories[c.ID] = c
	return c
}

func (m *MemoryAdapter) AddPublisher(p domain.Publisher) domain.Publisher {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id("publisher")
	m.publishers[p.ID] = p
	return p
}

// Activities returns a copy of every recorded activity.
func (m *MemoryAdapter) Activities() []domain.Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Activity, len(m.activities))
	copy(out, m.activities)
	return out
}

// catalog

func (m *MemoryAdapter) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return nil, domain.NotFound("Book not found")
	}
	return &b, nil
}

func (m *MemoryAdapter) GetBooks(ctx context.Context, ids []int64) (map[int64]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]domain.Book, len(ids))
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (m *MemoryAdapter) ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error) {
	m.mu.RLock()
	matched := make([]domain.Book, 0)
	for _, b := range m.books {
		if containsIgnoreCase(b.Title, filter.Search) || (filter.Search != "" && containsIgnoreCase(b.Description, filter.Search)) {
			matched = append(matched, b)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return bookLess(matched[i], matched[j], filter.Ordering)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func bookLess(a, b domain.Book, ordering domain.BookOrdering) bool {
	desc := strings.HasPrefix(string(ordering), "-")
	var cmp int
	switch strings.TrimPrefix(string(ordering), "-") {
	case string(domain.BookOrderPrice):
		cmp = a.UnitPrice().Cmp(b.UnitPrice())
	case string(domain.BookOrderPublicationDate):
		cmp = compareDates(a.PublicationDate, b.PublicationDate)
	default:
		cmp = strings.Compare(a.Title, b.Title)
	}
	if cmp == 0 {
		return a.ID < b.ID
	}
	if desc {
		return cmp > 0
	}
	return cmp < 0
}

func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func (m *MemoryAdapter) ListAuthors(ctx context.Context, filter domain.NameFilter) ([]domain.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Author, 0)
	for _, a := range m.authors {
		if containsIgnoreCase(a.Name, filter.Search) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryAdapter) GetAuthor(ctx context.Context, id int64) (*domain.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.authors[id]
	if !ok {
		return nil, domain.NotFound("Author not found")
	}
	return &a, nil
}

func (m *MemoryAdapter) ListCategories(ctx context.Context, filter domain.NameFilter) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Category, 0)
	for _, c := range m.categories {
		if containsIgnoreCase(c.Name, filter.Search) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryAdapter) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, domain.NotFound("Category not found")
	}
	return &c, nil
}

func (m *MemoryAdapter) ListPublishers(ctx context.Context, filter domain.NameFilter) ([]domain.Publisher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Publisher, 0)
	for _, p := range m.publishers {
		if containsIgnoreCase(p.Name, filter.Search) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryAdapter) GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.publishers[id]
	if !ok {
		return nil, domain.NotFound("Publisher not found")
	}
	return &p, nil
}

// orders

func (m *MemoryAdapter) CreateOrder(ctx context.Context, order *domain.Order, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.id("order")
	for i := range lines {
		lines[i].ID = m.id("orderdetail")
		lines[i].OrderID = order.ID
	}
	m.orders[order.ID] = *order
	stored := make([]domain.OrderLine, len(lines))
	copy(stored, lines)
	m.lines[order.ID] = stored
	return nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, id, customerID int64) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok || o.CustomerID != customerID {
		return nil, domain.NotFound("Order not found")
	}
	return &o, nil
}

func (m *MemoryAdapter) GetOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.OrderLine, len(m.lines[orderID]))
	copy(out, m.lines[orderID])
	return out, nil
}

func (m *MemoryAdapter) ListOrders(ctx context.Context, customerID int64) ([]domain.OrderSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.OrderSummary, 0)
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, domain.OrderSummary{Order: o, TotalItems: len(m.lines[o.ID])})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	return out, nil
}

func (m *MemoryAdapter) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return domain.Conflict("Order status changed concurrently")
	}
	o.Status = to
	m.orders[id] = o
	return nil
}

// payments

func (m *MemoryAdapter) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment.ID = m.id("payment")
	m.payments[payment.ID] = *payment
	return nil
}

func (m *MemoryAdapter) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.NotFound("Payment not found")
	}
	return &p, nil
}

func (m *MemoryAdapter) LatestPayment(ctx context.Context, orderID int64) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID && (latest == nil || p.ID > latest.ID) {
			cp := p
			latest = &cp
		}
	}
	if latest == nil {
		return nil, domain.NotFound("No payment found for this order")
	}
	return latest, nil
}

func (m *MemoryAdapter) HasActivePayment(ctx context.Context, orderID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.OrderID == orderID && p.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryAdapter) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.NotFound("Payment not found")
	}
	p.Status = status
	m.payments[id] = p
	return nil
}

// activities

func (m *MemoryAdapter) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity.ID = m.id("activity")
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *MemoryAdapter) CreateActivities(ctx context.Context, activities []domain.Activity) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range activities {
		a.ID = m.id("activity")
		m.activities = append(m.activities, a)
	}
	return len(activities), nil
}

// customers

func (m *MemoryAdapter) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(customer.Email)
	for _, c := range m.customers {
		if c.Email == email {
			return domain.Conflict("Email already registered")
		}
	}
	customer.ID = m.id("customer")
	customer.Email = email
	m.customers[customer.ID] = *customer
	return nil
}

func (m *MemoryAdapter) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, domain.NotFound("Customer not found")
	}
	return &c, nil
}

func (m *MemoryAdapter) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, c := range m.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, domain.NotFound("Customer not found")
}

func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
