package domain

import "github.com/shopspring/decimal"

// Cart maps book id to requested quantity for one session.
type Cart map[int64]int

type CartLine struct {
	BookID   int64
	Title    string
	Price    decimal.Decimal
	Quantity int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartSnapshot struct {
	Items       []CartLine
	TotalItems  int
	TotalAmount decimal.Decimal
}
