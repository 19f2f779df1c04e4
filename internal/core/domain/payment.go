package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

var paymentStatusMessages = map[PaymentStatus]string{
	PaymentStatusPending:    "Payment is being processed",
	PaymentStatusProcessing: "Payment is in progress",
	PaymentStatusCompleted:  "Payment completed successfully",
	PaymentStatusFailed:     "Payment failed",
	PaymentStatusRefunded:   "Payment has been refunded",
}

// Message returns the customer-facing description of the status.
func (s PaymentStatus) Message() string {
	if m, ok := paymentStatusMessages[s]; ok {
		return m
	}
	return "Unknown status"
}

// Active payments block further charges against the same order.
func (s PaymentStatus) Active() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusProcessing
}

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPayPal,
	PaymentMethodBankTransfer,
	PaymentMethodCashOnDelivery,
}

func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// IsCard reports whether card details are meaningful for the method.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

type Payment struct {
	ID            int64
	OrderID       int64
	Amount        decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	PaymentDate   time.Time
}

type CardDetails struct {
	Number string
	Holder string
}

// ChargeResult is what a charge returns to the caller.
type ChargeResult struct {
	Payment Payment
	Message string
}
