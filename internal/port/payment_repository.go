package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)

	// LatestPayment returns the most recent payment recorded for an order.
	LatestPayment(ctx context.Context, orderID int64) (*domain.Payment, error)

	// HasActivePayment reports whether a completed or processing payment exists.
	HasActivePayment(ctx context.Context, orderID int64) (bool, error)

	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
}
