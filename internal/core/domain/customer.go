package domain

import "time"

type Customer struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Address      string
	CreatedAt    time.Time
}

// Principal is the caller identity resolved once per request: either
// anonymous or an authenticated customer.
type Principal struct {
	customerID    int64
	authenticated bool
}

func Anonymous() Principal {
	return Principal{}
}

func Authenticated(customerID int64) Principal {
	return Principal{customerID: customerID, authenticated: true}
}

func (p Principal) CustomerID() (int64, bool) {
	return p.customerID, p.authenticated
}

func (p Principal) IsAuthenticated() bool {
	return p.authenticated
}
