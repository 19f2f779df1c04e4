package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

// SessionStore keeps per-session state (logged-in customer and cart) on the
// server side, keyed by the id carried in the session cookie.
type SessionStore interface {
	// CreateSession starts a new empty session and returns its id.
	CreateSession(ctx context.Context) (string, error)

	// SessionExists also refreshes the session's expiry.
	SessionExists(ctx context.Context, sessionID string) (bool, error)

	CustomerID(ctx context.Context, sessionID string) (int64, bool, error)
	SetCustomerID(ctx context.Context, sessionID string, customerID int64) error
	ClearCustomerID(ctx context.Context, sessionID string) error

	Cart(ctx context.Context, sessionID string) (domain.Cart, error)

	// AddToCart atomically adds quantity to the book's entry unless the new
	// total would exceed stock. It returns the resulting (or rejected) total
	// and whether the add was applied.
	AddToCart(ctx context.Context, sessionID string, bookID int64, quantity, stock int) (int, bool, error)

	SetCartItem(ctx context.Context, sessionID string, bookID int64, quantity int) error
	RemoveCartItem(ctx context.Context, sessionID string, bookID int64) error
	ClearCart(ctx context.Context, sessionID string) error
}

// ChargeLocker serialises charge attempts per order.
type ChargeLocker interface {
	// AcquireChargeLock returns false when another charge holds the lock.
	AcquireChargeLock(ctx context.Context, orderID int64) (bool, error)
	ReleaseChargeLock(ctx context.Context, orderID int64) error
}
