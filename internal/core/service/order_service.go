package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

type OrderService struct {
	orders     port.OrderRepository
	catalog    port.CatalogRepository
	sessions   port.SessionStore
	activities ActivityRecorder
	now        func() time.Time
}

func NewOrderService(orders port.OrderRepository, catalog port.CatalogRepository, sessions port.SessionStore, activities ActivityRecorder) *OrderService {
	return &OrderService{
		orders:     orders,
		catalog:    catalog,
		sessions:   sessions,
		activities: activities,
		now:        time.Now,
	}
}

type CreateOrderInput struct {
	FromCart bool
	Items    []domain.OrderItemInput
}

// Create turns the session cart, or the explicit items when FromCart is
// false, into a pending order. All items are checked before anything is
// written. Stock is checked but not reserved.
func (s *OrderService) Create(ctx context.Context, principal domain.Principal, sessionID string, in CreateOrderInput) (*domain.OrderDetail, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return nil, err
	}

	var items []domain.OrderItemInput
	if in.FromCart {
		items, err = s.cartItems(ctx, sessionID)
	} else {
		items, err = explicitItems(in.Items)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.Validation("No valid items to order")
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.BookID
	}
	books, err := s.catalog.GetBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order books: %w", err)
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		book, ok := books[item.BookID]
		if !ok {
			return nil, domain.NotFound("Book with ID %d not found", item.BookID)
		}
		if book.Stock < item.Quantity {
			return nil, domain.Conflict("Not enough stock for %s. Available: %d", book.Title, book.Stock)
		}

		price := book.UnitPrice()
		if item.Price != nil {
			price = *item.Price
		}
		lines = append(lines, domain.OrderLine{
			BookID:   book.ID,
			Quantity: item.Quantity,
			Price:    price,
		})
	}

	order := &domain.Order{
		CustomerID:  customerID,
		OrderDate:   s.now(),
		TotalAmount: domain.LinesTotal(lines),
		Status:      domain.OrderStatusPending,
	}
	if err := s.orders.CreateOrder(ctx, order, lines); err != nil {
		return nil, err
	}

	if in.FromCart {
		if err := s.sessions.ClearCart(ctx, sessionID); err != nil {
			slog.WarnContext(ctx, "failed to clear cart after order",
				"order_id", order.ID,
				"error", err)
		}
	}

	for _, l := range lines {
		recordActivity(s.activities, principal, sessionID, l.BookID, domain.ActivityPurchase)
	}

	return &domain.OrderDetail{Order: *order, Lines: withTitles(lines, books)}, nil
}

func (s *OrderService) cartItems(ctx context.Context, sessionID string) ([]domain.OrderItemInput, error) {
	cart, err := s.sessions.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, domain.Validation("Cart is empty")
	}

	ids := sortedBookIDs(cart)
	books, err := s.catalog.GetBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart books: %w", err)
	}

	items := make([]domain.OrderItemInput, 0, len(ids))
	for _, id := range ids {
		if _, ok := books[id]; !ok {
			continue
		}
		items = append(items, domain.OrderItemInput{BookID: id, Quantity: cart[id]})
	}
	return items, nil
}

func explicitItems(items []domain.OrderItemInput) ([]domain.OrderItemInput, error) {
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, domain.Validation("Quantity must be at least 1")
		}
		if item.Price != nil && item.Price.IsNegative() {
			return nil, domain.Validation("Price must not be negative")
		}
	}
	return items, nil
}

// List returns the caller's orders, newest first.
func (s *OrderService) List(ctx context.Context, principal domain.Principal) ([]domain.OrderSummary, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return nil, err
	}
	return s.orders.ListOrders(ctx, customerID)
}

// Get returns an order owned by the caller. Orders belonging to someone
// else are reported as not found.
func (s *OrderService) Get(ctx context.Context, principal domain.Principal, orderID int64) (*domain.OrderDetail, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}

	lines, err := s.orders.GetOrderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.BookID
	}
	books, err := s.catalog.GetBooks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order books: %w", err)
	}

	return &domain.OrderDetail{Order: *order, Lines: withTitles(lines, books)}, nil
}

func (s *OrderService) Cancel(ctx context.Context, principal domain.Principal, orderID int64) error {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return err
	}

	order, err := s.orders.GetOrder(ctx, orderID, customerID)
	if err != nil {
		return err
	}
	if !order.Status.Cancellable() {
		return domain.Conflict("Cannot cancel order with status: %s", order.Status)
	}

	return s.orders.UpdateOrderStatus(ctx, order.ID, order.Status, domain.OrderStatusCancelled)
}

// withTitles attaches book titles to lines. Books that no longer exist are
// shown as "Book ID N".
func withTitles(lines []domain.OrderLine, books map[int64]domain.Book) []domain.OrderDetailLine {
	out := make([]domain.OrderDetailLine, len(lines))
	for i, l := range lines {
		title := fmt.Sprintf("Book ID %d", l.BookID)
		if b, ok := books[l.BookID]; ok {
			title = b.Title
		}
		out[i] = domain.OrderDetailLine{OrderLine: l, BookTitle: title}
	}
	return out
}
