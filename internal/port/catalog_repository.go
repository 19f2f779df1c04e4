package port

import (
	"context"

	"github.com/rl1809/bookstore/internal/core/domain"
)

// CatalogRepository reads books and their reference tables. Lookups of a
// missing row return an error matching domain.ErrNotFound.
type CatalogRepository interface {
	GetBook(ctx context.Context, id int64) (*domain.Book, error)

	// GetBooks returns the books that exist among ids, keyed by id. Missing
	// ids are simply absent from the result.
	GetBooks(ctx context.Context, ids []int64) (map[int64]domain.Book, error)

	ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error)

	ListAuthors(ctx context.Context, filter domain.NameFilter) ([]domain.Author, error)
	GetAuthor(ctx context.Context, id int64) (*domain.Author, error)

	ListCategories(ctx context.Context, filter domain.NameFilter) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)

	ListPublishers(ctx context.Context, filter domain.NameFilter) ([]domain.Publisher, error)
	GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error)
}
