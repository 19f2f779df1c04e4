package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/bookstore/internal/core/domain"
)

const bookColumns = `BookID, Title, AuthorID, PublisherID, CategoryID, Price, Stock, Description, PublicationDate`

var bookOrderClauses = map[domain.BookOrdering]string{
	domain.BookOrderTitle:              "Title ASC",
	domain.BookOrderTitleDesc:          "Title DESC",
	domain.BookOrderPrice:              "Price ASC",
	domain.BookOrderPriceDesc:          "Price DESC",
	domain.BookOrderPublicationDate:    "PublicationDate ASC",
	domain.BookOrderPublicationDateDsc: "PublicationDate DESC",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (domain.Book, error) {
	var (
		b                                 domain.Book
		authorID, publisherID, categoryID sql.NullInt64
		stock                             sql.NullInt64
		description                       sql.NullString
		publicationDate                   sql.NullTime
	)
	err := row.Scan(&b.ID, &b.Title, &authorID, &publisherID, &categoryID,
		&b.Price, &stock, &description, &publicationDate)
	if err != nil {
		return b, err
	}

	b.AuthorID = nullInt64Ptr(authorID)
	b.PublisherID = nullInt64Ptr(publisherID)
	b.CategoryID = nullInt64Ptr(categoryID)
	b.Stock = int(stock.Int64)
	b.Description = description.String
	if publicationDate.Valid {
		t := publicationDate.Time
		b.PublicationDate = &t
	}
	return b, nil
}

func (m *MySQLAdapter) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	b, err := scanBook(m.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM book WHERE BookID = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	return &b, nil
}

func (m *MySQLAdapter) GetBooks(ctx context.Context, ids []int64) (map[int64]domain.Book, error) {
	books := make(map[int64]domain.Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM book WHERE BookID IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books[b.ID] = b
	}
	return books, rows.Err()
}

func (m *MySQLAdapter) ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error) {
	where := ""
	var args []any
	if filter.Search != "" {
		where = ` WHERE Title LIKE ? OR Description LIKE ?`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM book`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	order, ok := bookOrderClauses[filter.Ordering]
	if !ok {
		order = bookOrderClauses[domain.BookOrderTitle]
	}

	query := `SELECT ` + bookColumns + ` FROM book` + where + ` ORDER BY ` + order + `, BookID ASC LIMIT ? OFFSET ?`
	rows, err := m.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (m *MySQLAdapter) ListAuthors(ctx context.Context, filter domain.NameFilter) ([]domain.Author, error) {
	query, args := nameQuery(`SELECT AuthorID, AuthorName, Biography FROM author`, "AuthorName", filter)
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	authors := make([]domain.Author, 0)
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (m *MySQLAdapter) GetAuthor(ctx context.Context, id int64) (*domain.Author, error) {
	a, err := scanAuthor(m.db.QueryRowContext(ctx,
		`SELECT AuthorID, AuthorName, Biography FROM author WHERE AuthorID = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Author not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query author: %w", err)
	}
	return &a, nil
}

func (m *MySQLAdapter) ListCategories(ctx context.Context, filter domain.NameFilter) ([]domain.Category, error) {
	query, args := nameQuery(`SELECT CategoryID, CategoryName, Description FROM category`, "CategoryName", filter)
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (m *MySQLAdapter) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := scanCategory(m.db.QueryRowContext(ctx,
		`SELECT CategoryID, CategoryName, Description FROM category WHERE CategoryID = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) ListPublishers(ctx context.Context, filter domain.NameFilter) ([]domain.Publisher, error) {
	query, args := nameQuery(`SELECT PublisherID, PublisherName, Address, ContactInfo FROM publisher`, "PublisherName", filter)
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publishers: %w", err)
	}
	defer rows.Close()

	publishers := make([]domain.Publisher, 0)
	for rows.Next() {
		p, err := scanPublisher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publisher: %w", err)
		}
		publishers = append(publishers, p)
	}
	return publishers, rows.Err()
}

func (m *MySQLAdapter) GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error) {
	p, err := scanPublisher(m.db.QueryRowContext(ctx,
		`SELECT PublisherID, PublisherName, Address, ContactInfo FROM publisher WHERE PublisherID = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Publisher not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query publisher: %w", err)
	}
	return &p, nil
}

func nameQuery(base, column string, filter domain.NameFilter) (string, []any) {
	var args []any
	if filter.Search != "" {
		base += ` WHERE ` + column + ` LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	return base + ` ORDER BY ` + column + ` ASC`, args
}

func scanAuthor(row rowScanner) (domain.Author, error) {
	var (
		a   domain.Author
		bio sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Name, &bio); err != nil {
		return a, err
	}
	a.Biography = bio.String
	return a, nil
}

func scanCategory(row rowScanner) (domain.Category, error) {
	var (
		c    domain.Category
		desc sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &desc); err != nil {
		return c, err
	}
	c.Description = desc.String
	return c, nil
}

func scanPublisher(row rowScanner) (domain.Publisher, error) {
	var (
		p                domain.Publisher
		address, contact sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &address, &contact); err != nil {
		return p, err
	}
	p.Address = address.String
	p.ContactInfo = contact.String
	return p, nil
}
