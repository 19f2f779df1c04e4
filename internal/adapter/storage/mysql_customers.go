package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/bookstore/internal/core/domain"
)

const mysqlErrDuplicateEntry = 1062

const customerColumns = `CustomerID, Name, Email, PasswordHash, Phone, Address, CreatedAt`

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var (
		c              domain.Customer
		phone, address sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &phone, &address, &c.CreatedAt); err != nil {
		return c, err
	}
	c.Phone = phone.String
	c.Address = address.String
	return c, nil
}

func (m *MySQLAdapter) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO customer (Name, Email, PasswordHash, Phone, Address, CreatedAt)
		VALUES (?, ?, ?, ?, ?, ?)`,
		customer.Name, strings.ToLower(customer.Email), customer.PasswordHash,
		nullString(customer.Phone), nullString(customer.Address), customer.CreatedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		return domain.Conflict("Email already registered")
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}

	if customer.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("customer id: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := scanCustomer(m.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customer WHERE CustomerID = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	c, err := scanCustomer(m.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customer WHERE Email = ?`, strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &c, nil
}
