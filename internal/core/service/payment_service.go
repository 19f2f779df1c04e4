package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

const (
	maxCardNumberLen = 16
	maxCardHolderLen = 255
)

type PaymentService struct {
	orders   port.OrderRepository
	payments port.PaymentRepository
	locker   port.ChargeLocker
	gateway  *MockGateway
	now      func() time.Time
}

func NewPaymentService(orders port.OrderRepository, payments port.PaymentRepository, locker port.ChargeLocker, gateway *MockGateway) *PaymentService {
	return &PaymentService{
		orders:   orders,
		payments: payments,
		locker:   locker,
		gateway:  gateway,
		now:      time.Now,
	}
}

type ChargeInput struct {
	OrderID int64
	Method  domain.PaymentMethod
	Card    domain.CardDetails
}

// Charge runs one payment attempt against an order. The payment row is
// written whatever the outcome; only a completed charge confirms the order.
func (s *PaymentService) Charge(ctx context.Context, principal domain.Principal, in ChargeInput) (*domain.ChargeResult, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return nil, err
	}
	if err := validateCharge(in); err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, in.OrderID, customerID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Payable() {
		return nil, domain.Conflict("Cannot process payment for order with status: %s", order.Status)
	}

	locked, err := s.locker.AcquireChargeLock(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, domain.Conflict("Payment already in progress for this order")
	}
	defer func() {
		if err := s.locker.ReleaseChargeLock(context.WithoutCancel(ctx), order.ID); err != nil {
			slog.WarnContext(ctx, "failed to release charge lock", "order_id", order.ID, "error", err)
		}
	}()

	active, err := s.payments.HasActivePayment(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.Conflict("Payment already processed for this order")
	}

	result := s.gateway.Process(in.Method, order.TotalAmount, in.Card)

	payment := &domain.Payment{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Method:        in.Method,
		Status:        result.Status,
		TransactionID: result.TransactionID,
		PaymentDate:   s.now(),
	}
	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	if payment.Status == domain.PaymentStatusCompleted {
		if err := s.confirm(ctx, order); err != nil {
			return nil, err
		}
	}

	return &domain.ChargeResult{Payment: *payment, Message: result.Message}, nil
}

func validateCharge(in ChargeInput) error {
	if !in.Method.Valid() {
		return domain.Validation("Invalid payment method: %s", in.Method)
	}
	if len(in.Card.Number) > maxCardNumberLen {
		return domain.Validation("Card number must be at most %d characters", maxCardNumberLen)
	}
	if len(in.Card.Holder) > maxCardHolderLen {
		return domain.Validation("Card holder must be at most %d characters", maxCardHolderLen)
	}
	return nil
}

// confirm moves a payable order to confirmed. Already confirmed orders are
// left alone.
func (s *PaymentService) confirm(ctx context.Context, order *domain.Order) error {
	if order.Status == domain.OrderStatusConfirmed {
		return nil
	}
	return s.orders.UpdateOrderStatus(ctx, order.ID, order.Status, domain.OrderStatusConfirmed)
}

// Status returns a payment on one of the caller's orders.
func (s *PaymentService) Status(ctx context.Context, principal domain.Principal, paymentID int64) (*domain.Payment, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.GetOrder(ctx, payment.OrderID, customerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Payment not found")
		}
		return nil, err
	}
	return payment, nil
}

// StatusByOrder returns the most recent payment for one of the caller's orders.
func (s *PaymentService) StatusByOrder(ctx context.Context, principal domain.Principal, orderID int64) (*domain.Payment, error) {
	customerID, err := requireCustomer(principal)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.GetOrder(ctx, orderID, customerID); err != nil {
		return nil, err
	}
	return s.payments.LatestPayment(ctx, orderID)
}

func (s *PaymentService) SandboxInfo() SandboxInfo {
	return s.gateway.Info()
}

// SimulateWebhook applies a gateway callback to a payment. A completed
// callback confirms the order when it is still payable.
func (s *PaymentService) SimulateWebhook(ctx context.Context, principal domain.Principal, paymentID int64, status domain.PaymentStatus) (*domain.Payment, error) {
	switch status {
	case domain.PaymentStatusCompleted, domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
	default:
		return nil, domain.Validation("Invalid webhook status: %s", status)
	}

	payment, err := s.Status(ctx, principal, paymentID)
	if err != nil {
		return nil, err
	}

	if status.Active() && !payment.Status.Active() {
		active, err := s.payments.HasActivePayment(ctx, payment.OrderID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, domain.Conflict("Payment already processed for this order")
		}
	}

	if err := s.payments.UpdatePaymentStatus(ctx, payment.ID, status); err != nil {
		return nil, err
	}
	payment.Status = status

	if status == domain.PaymentStatusCompleted {
		customerID, _ := principal.CustomerID()
		order, err := s.orders.GetOrder(ctx, payment.OrderID, customerID)
		if err != nil {
			return nil, err
		}
		if order.Status.Payable() {
			if err := s.confirm(ctx, order); err != nil {
				return nil, err
			}
		}
	}

	return payment, nil
}
