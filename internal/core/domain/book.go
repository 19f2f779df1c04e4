package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID              int64               `json:"book_id"`
	Title           string              `json:"title"`
	AuthorID        *int64              `json:"author_id"`
	PublisherID     *int64              `json:"publisher_id"`
	CategoryID      *int64              `json:"category_id"`
	Price           decimal.NullDecimal `json:"price"`
	Stock           int                 `json:"stock"`
	Description     string              `json:"description"`
	PublicationDate *time.Time          `json:"publication_date"`
}

// UnitPrice returns the catalog price, treating a missing price as zero.
func (b Book) UnitPrice() decimal.Decimal {
	if !b.Price.Valid {
		return decimal.Zero
	}
	return b.Price.Decimal
}

type Author struct {
	ID        int64  `json:"author_id"`
	Name      string `json:"author_name"`
	Biography string `json:"biography"`
}

type Publisher struct {
	ID          int64  `json:"publisher_id"`
	Name        string `json:"publisher_name"`
	Address     string `json:"address"`
	ContactInfo string `json:"contact_info"`
}

type Category struct {
	ID          int64  `json:"category_id"`
	Name        string `json:"category_name"`
	Description string `json:"description"`
}

type BookOrdering string

const (
	BookOrderTitle              BookOrdering = "title"
	BookOrderPrice              BookOrdering = "price"
	BookOrderPublicationDate    BookOrdering = "publication_date"
	BookOrderTitleDesc          BookOrdering = "-title"
	BookOrderPriceDesc          BookOrdering = "-price"
	BookOrderPublicationDateDsc BookOrdering = "-publication_date"
)

func (o BookOrdering) Valid() bool {
	switch o {
	case BookOrderTitle, BookOrderPrice, BookOrderPublicationDate,
		BookOrderTitleDesc, BookOrderPriceDesc, BookOrderPublicationDateDsc:
		return true
	}
	return false
}

type BookFilter struct {
	Search   string
	Ordering BookOrdering
	Limit    int
	Offset   int
}

// NameFilter narrows author, category and publisher listings.
type NameFilter struct {
	Search string
}
