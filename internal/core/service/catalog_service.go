package service

import (
	"context"
	"strings"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/port"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CatalogService struct {
	catalog    port.CatalogRepository
	activities ActivityRecorder
}

func NewCatalogService(catalog port.CatalogRepository, activities ActivityRecorder) *CatalogService {
	return &CatalogService{catalog: catalog, activities: activities}
}

type BookPage struct {
	Books  []domain.Book
	Count  int
	Limit  int
	Offset int
}

// ListBooks pages through the catalog. A zero limit means the default page
// size; limits above MaxPageSize are clamped.
func (s *CatalogService) ListBooks(ctx context.Context, filter domain.BookFilter) (*BookPage, error) {
	filter.Search = strings.TrimSpace(filter.Search)

	if filter.Ordering == "" {
		filter.Ordering = domain.BookOrderTitle
	}
	if !filter.Ordering.Valid() {
		return nil, domain.Validation("Invalid ordering: %s", filter.Ordering)
	}

	switch {
	case filter.Limit < 0:
		return nil, domain.Validation("limit must not be negative")
	case filter.Limit == 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		return nil, domain.Validation("offset must not be negative")
	}

	books, count, err := s.catalog.ListBooks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &BookPage{Books: books, Count: count, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetBook returns a book and records a view for authenticated callers.
func (s *CatalogService) GetBook(ctx context.Context, principal domain.Principal, sessionID string, id int64) (*domain.Book, error) {
	book, err := s.catalog.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	recordActivity(s.activities, principal, sessionID, book.ID, domain.ActivityView)
	return book, nil
}

func (s *CatalogService) ListAuthors(ctx context.Context, search string) ([]domain.Author, error) {
	return s.catalog.ListAuthors(ctx, domain.NameFilter{Search: strings.TrimSpace(search)})
}

func (s *CatalogService) GetAuthor(ctx context.Context, id int64) (*domain.Author, error) {
	return s.catalog.GetAuthor(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context, search string) ([]domain.Category, error) {
	return s.catalog.ListCategories(ctx, domain.NameFilter{Search: strings.TrimSpace(search)})
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.catalog.GetCategory(ctx, id)
}

func (s *CatalogService) ListPublishers(ctx context.Context, search string) ([]domain.Publisher, error) {
	return s.catalog.ListPublishers(ctx, domain.NameFilter{Search: strings.TrimSpace(search)})
}

func (s *CatalogService) GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error) {
	return s.catalog.GetPublisher(ctx, id)
}
