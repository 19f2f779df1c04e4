package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists the header and its lines, assigning ids to both.
	CreateOrder(ctx context.Context, order *domain.Order, lines []domain.OrderLine) error

	// GetOrder returns the order only when it belongs to customerID.
	GetOrder(ctx context.Context, id, customerID int64) (*domain.Order, error)

	GetOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error)

	// ListOrders returns the customer's orders newest first.
	ListOrders(ctx context.Context, customerID int64) ([]domain.OrderSummary, error)

	// UpdateOrderStatus moves an order from one status to another. It returns
	// a domain.ErrConflict error when the order is no longer in status from.
	UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
}
