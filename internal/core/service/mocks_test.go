package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/core/domain"
)

// Mock SessionStore and ChargeLocker
type mockSessions struct {
	mu        sync.Mutex
	next      int
	customers map[string]int64
	carts     map[string]domain.Cart
	locks     map[int64]bool
	failClear bool
}

func newMockSessions() *mockSessions {
	return &mockSessions{
		customers: make(map[string]int64),
		carts:     make(map[string]domain.Cart),
		locks:     make(map[int64]bool),
	}
}

func (m *mockSessions) CreateSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "sess-" + strconv.Itoa(m.next), nil
}

func (m *mockSessions) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return true, nil
}

func (m *mockSessions) CustomerID(ctx context.Context, sessionID string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.customers[sessionID]
	return id, ok, nil
}

func (m *mockSessions) SetCustomerID(ctx context.Context, sessionID string, customerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[sessionID] = customerID
	return nil
}

func (m *mockSessions) ClearCustomerID(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.customers, sessionID)
	return nil
}

func (m *mockSessions) Cart(ctx context.Context, sessionID string) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(domain.Cart)
	for k, v := range m.carts[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (m *mockSessions) AddToCart(ctx context.Context, sessionID string, bookID int64, quantity, stock int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := m.carts[sessionID]
	if cart == nil {
		cart = make(domain.Cart)
		m.carts[sessionID] = cart
	}
	total := cart[bookID] + quantity
	if total > stock {
		return total, false, nil
	}
	cart[bookID] = total
	return total, true, nil
}

func (m *mockSessions) SetCartItem(ctx context.Context, sessionID string, bookID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.carts[sessionID] == nil {
		m.carts[sessionID] = make(domain.Cart)
	}
	m.carts[sessionID][bookID] = quantity
	return nil
}

func (m *mockSessions) RemoveCartItem(ctx context.Context, sessionID string, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts[sessionID], bookID)
	return nil
}

func (m *mockSessions) ClearCart(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear {
		return errors.New("redis down")
	}
	delete(m.carts, sessionID)
	return nil
}

func (m *mockSessions) AcquireChargeLock(ctx context.Context, orderID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[orderID] {
		return false, nil
	}
	m.locks[orderID] = true
	return true, nil
}

func (m *mockSessions) ReleaseChargeLock(ctx context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, orderID)
	return nil
}

// Mock ActivityRecorder
type mockRecorder struct {
	mu         sync.Mutex
	activities []domain.Activity
}

func (m *mockRecorder) Record(activity domain.Activity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, activity)
}

func (m *mockRecorder) recorded() []domain.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Activity(nil), m.activities...)
}

func price(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func seedBook(store *storage.MemoryAdapter, title, unitPrice string, stock int) domain.Book {
	return store.AddBook(domain.Book{Title: title, Price: price(unitPrice), Stock: stock})
}
