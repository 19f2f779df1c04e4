package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/bookstore/internal/core/domain"
)

const paymentColumns = `PaymentID, OrderID, Amount, PaymentMethod, Status, TransactionID, PaymentDate`

func scanPayment(row rowScanner) (domain.Payment, error) {
	var (
		p     domain.Payment
		txnID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &txnID, &p.PaymentDate); err != nil {
		return p, err
	}
	p.TransactionID = txnID.String
	return p, nil
}

func (m *MySQLAdapter) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	txnID := sql.NullString{String: payment.TransactionID, Valid: payment.TransactionID != ""}

	result, err := m.db.ExecContext(ctx, `
		INSERT INTO payment (OrderID, Amount, PaymentMethod, Status, TransactionID, PaymentDate)
		VALUES (?, ?, ?, ?, ?, ?)`,
		payment.OrderID, payment.Amount, payment.Method, payment.Status, txnID, payment.PaymentDate,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if payment.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("payment id: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := scanPayment(m.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payment WHERE PaymentID = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) LatestPayment(ctx context.Context, orderID int64) (*domain.Payment, error) {
	p, err := scanPayment(m.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payment WHERE OrderID = ? ORDER BY PaymentID DESC LIMIT 1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("No payment found for this order")
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) HasActivePayment(ctx context.Context, orderID int64) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payment
		WHERE OrderID = ? AND Status IN (?, ?)`,
		orderID, domain.PaymentStatusCompleted, domain.PaymentStatusProcessing,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query active payments: %w", err)
	}
	return count > 0, nil
}

func (m *MySQLAdapter) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	_, err := m.db.ExecContext(ctx, `UPDATE payment SET Status = ? WHERE PaymentID = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}
