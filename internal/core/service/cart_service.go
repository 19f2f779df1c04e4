package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

type CartService struct {
	sessions   port.SessionStore
	catalog    port.CatalogRepository
	activities ActivityRecorder
}

func NewCartService(sessions port.SessionStore, catalog port.CatalogRepository, activities ActivityRecorder) *CartService {
	return &CartService{
		sessions:   sessions,
		catalog:    catalog,
		activities: activities,
	}
}

// Get renders the session cart. Entries whose book no longer exists are
// left out of the snapshot and its totals.
func (s *CartService) Get(ctx context.Context, sessionID string) (*domain.CartSnapshot, error) {
	cart, err := s.sessions.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cart)
}

func (s *CartService) Add(ctx context.Context, principal domain.Principal, sessionID string, bookID int64, quantity int) (*domain.CartSnapshot, error) {
	if quantity < 1 {
		return nil, domain.Validation("Quantity must be at least 1")
	}

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.Stock < 1 {
		return nil, domain.Validation("Book out of stock")
	}

	total, ok, err := s.sessions.AddToCart(ctx, sessionID, bookID, quantity, book.Stock)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Conflict("Not enough stock. Available: %d, Requested: %d", book.Stock, total)
	}

	s.record(principal, sessionID, bookID, domain.ActivityCart)
	return s.Get(ctx, sessionID)
}

// Update sets the quantity of a cart entry. Zero removes it.
func (s *CartService) Update(ctx context.Context, principal domain.Principal, sessionID string, bookID int64, quantity int) (*domain.CartSnapshot, error) {
	if quantity < 0 {
		return nil, domain.Validation("Quantity must be zero or greater")
	}
	if quantity == 0 {
		return s.Remove(ctx, sessionID, bookID)
	}

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.Stock < quantity {
		return nil, domain.Conflict("Not enough stock. Available: %d", book.Stock)
	}

	if err := s.sessions.SetCartItem(ctx, sessionID, bookID, quantity); err != nil {
		return nil, err
	}

	s.record(principal, sessionID, bookID, domain.ActivityCart)
	return s.Get(ctx, sessionID)
}

func (s *CartService) Remove(ctx context.Context, sessionID string, bookID int64) (*domain.CartSnapshot, error) {
	if err := s.sessions.RemoveCartItem(ctx, sessionID, bookID); err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.sessions.ClearCart(ctx, sessionID)
}

func (s *CartService) snapshot(ctx context.Context, cart domain.Cart) (*domain.CartSnapshot, error) {
	snap := &domain.CartSnapshot{
		Items:       make([]domain.CartLine, 0, len(cart)),
		TotalAmount: decimal.Zero,
	}
	if len(cart) == 0 {
		return snap, nil
	}

	ids := sortedBookIDs(cart)
	books, err := s.catalog.GetBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart books: %w", err)
	}

	for _, id := range ids {
		book, ok := books[id]
		if !ok {
			continue
		}
		line := domain.CartLine{
			BookID:   id,
			Title:    book.Title,
			Price:    book.UnitPrice(),
			Quantity: cart[id],
		}
		snap.Items = append(snap.Items, line)
		snap.TotalItems += line.Quantity
		snap.TotalAmount = snap.TotalAmount.Add(line.Subtotal())
	}
	return snap, nil
}

func (s *CartService) record(principal domain.Principal, sessionID string, bookID int64, action domain.ActivityAction) {
	recordActivity(s.activities, principal, sessionID, bookID, action)
}

func sortedBookIDs(cart domain.Cart) []int64 {
	ids := make([]int64, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// recordActivity hands an activity to the recorder for authenticated callers.
// Anonymous traffic is not logged.
func recordActivity(recorder ActivityRecorder, principal domain.Principal, sessionID string, bookID int64, action domain.ActivityAction) {
	customerID, ok := principal.CustomerID()
	if !ok || recorder == nil {
		return
	}
	recorder.Record(domain.Activity{
		CustomerID:   customerID,
		BookID:       bookID,
		Action:       action,
		ActivityTime: time.Now(),
		SessionID:    sessionID,
	})
}
