package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Cancellable reports whether an order in this status may move to cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// Payable reports whether a charge may be attempted against an order in this status.
func (s OrderStatus) Payable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

type Order struct {
	ID          int64
	CustomerID  int64
	OrderDate   time.Time
	TotalAmount decimal.Decimal
	Status      OrderStatus
}

// OrderLine is a snapshot of one book's quantity and unit price within an order.
type OrderLine struct {
	ID       int64
	OrderID  int64
	BookID   int64
	Quantity int
	Price    decimal.Decimal
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderSummary is a listing row: the order header plus its line count.
type OrderSummary struct {
	Order
	TotalItems int
}

// OrderItemInput is a caller-supplied line for orders not sourced from the cart.
type OrderItemInput struct {
	BookID   int64
	Quantity int
	Price    *decimal.Decimal
}

// OrderDetailLine is an order line rendered with its book title.
type OrderDetailLine struct {
	OrderLine
	BookTitle string
}

type OrderDetail struct {
	Order
	Lines []OrderDetailLine
}

// LinesTotal sums price times quantity over the given lines.
func LinesTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
