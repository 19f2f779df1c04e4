package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type CustomerRepository interface {
	// CreateCustomer returns a domain.ErrConflict error when the email is taken.
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
}
