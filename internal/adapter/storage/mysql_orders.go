package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/bookstore/internal/core/domain"
)

// CreateOrder writes the header and every line in one transaction, so a
// failure part way through leaves no orphaned header behind.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order, lines []domain.OrderLine) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (CustomerID, OrderDate, TotalAmount, Status)
		VALUES (?, ?, ?, ?)`,
		order.CustomerID, order.OrderDate, order.TotalAmount, order.Status,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}

	for i := range lines {
		lines[i].OrderID = orderID
		result, err := tx.ExecContext(ctx, `
			INSERT INTO orderdetail (OrderID, BookID, Quantity, Price)
			VALUES (?, ?, ?, ?)`,
			orderID, lines[i].BookID, lines[i].Quantity, lines[i].Price,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
		if lines[i].ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("order line id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}

	order.ID = orderID
	return nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id, customerID int64) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT OrderID, CustomerID, OrderDate, TotalAmount, Status
		FROM orders WHERE OrderID = ? AND CustomerID = ?`, id, customerID,
	).Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.TotalAmount, &o.Status)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

func (m *MySQLAdapter) GetOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT OrderDetailID, OrderID, BookID, Quantity, Price
		FROM orderdetail WHERE OrderID = ? ORDER BY OrderDetailID ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.BookID, &l.Quantity, &l.Price); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, customerID int64) ([]domain.OrderSummary, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT o.OrderID, o.CustomerID, o.OrderDate, o.TotalAmount, o.Status, COUNT(d.OrderDetailID)
		FROM orders o
		LEFT JOIN orderdetail d ON d.OrderID = o.OrderID
		WHERE o.CustomerID = ?
		GROUP BY o.OrderID, o.CustomerID, o.OrderDate, o.TotalAmount, o.Status
		ORDER BY o.OrderDate DESC, o.OrderID DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.OrderSummary, 0)
	for rows.Next() {
		var s domain.OrderSummary
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.OrderDate, &s.TotalAmount, &s.Status, &s.TotalItems); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, s)
	}
	return orders, rows.Err()
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET Status = ?
		WHERE OrderID = ? AND Status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.Conflict("Order status changed concurrently")
	}
	return nil
}
