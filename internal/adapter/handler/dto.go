package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
)

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type BookResponse struct {
	BookID          int64   `json:"book_id"`
	Title           string  `json:"title"`
	AuthorID        *int64  `json:"author_id"`
	PublisherID     *int64  `json:"publisher_id"`
	CategoryID      *int64  `json:"category_id"`
	Price           *string `json:"price"`
	Stock           int     `json:"stock"`
	Description     string  `json:"description"`
	PublicationDate *string `json:"publication_date"`
}

func toBookResponse(b domain.Book) BookResponse {
	resp := BookResponse{
		BookID:      b.ID,
		Title:       b.Title,
		AuthorID:    b.AuthorID,
		PublisherID: b.PublisherID,
		CategoryID:  b.CategoryID,
		Stock:       b.Stock,
		Description: b.Description,
	}
	if b.Price.Valid {
		p := money(b.Price.Decimal)
		resp.Price = &p
	}
	if b.PublicationDate != nil {
		d := b.PublicationDate.Format(dateLayout)
		resp.PublicationDate = &d
	}
	return resp
}

type BookPageResponse struct {
	Count   int            `json:"count"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Results []BookResponse `json:"results"`
}

func toBookPageResponse(page *service.BookPage) BookPageResponse {
	results := make([]BookResponse, len(page.Books))
	for i, b := range page.Books {
		results[i] = toBookResponse(b)
	}
	return BookPageResponse{Count: page.Count, Limit: page.Limit, Offset: page.Offset, Results: results}
}

type CustomerResponse struct {
	CustomerID int64     `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCustomerResponse(c *domain.Customer) *CustomerResponse {
	if c == nil {
		return nil
	}
	return &CustomerResponse{
		CustomerID: c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		CreatedAt:  c.CreatedAt,
	}
}

type LoginResponse struct {
	Customer    CustomerResponse `json:"customer"`
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

type CartItemResponse struct {
	BookID   int64  `json:"book_id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	TotalItems  int                `json:"total_items"`
	TotalAmount string             `json:"total_amount"`
}

func toCartResponse(s *domain.CartSnapshot) CartResponse {
	items := make([]CartItemResponse, len(s.Items))
	for i, l := range s.Items {
		items[i] = CartItemResponse{
			BookID:   l.BookID,
			Title:    l.Title,
			Price:    money(l.Price),
			Quantity: l.Quantity,
			Subtotal: money(l.Subtotal()),
		}
	}
	return CartResponse{Items: items, TotalItems: s.TotalItems, TotalAmount: money(s.TotalAmount)}
}

type OrderItemResponse struct {
	OrderDetailID int64  `json:"order_detail_id"`
	BookID        int64  `json:"book_id"`
	BookTitle     string `json:"book_title"`
	Quantity      int    `json:"quantity"`
	Price         string `json:"price"`
	Subtotal      string `json:"subtotal"`
}

type OrderResponse struct {
	OrderID     int64               `json:"order_id"`
	CustomerID  int64               `json:"customer_id"`
	OrderDate   time.Time           `json:"order_date"`
	TotalAmount string              `json:"total_amount"`
	Status      domain.OrderStatus  `json:"status"`
	Items       []OrderItemResponse `json:"items"`
}

func toOrderResponse(o *domain.OrderDetail) OrderResponse {
	items := make([]OrderItemResponse, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = OrderItemResponse{
			OrderDetailID: l.ID,
			BookID:        l.BookID,
			BookTitle:     l.BookTitle,
			Quantity:      l.Quantity,
			Price:         money(l.Price),
			Subtotal:      money(l.Subtotal()),
		}
	}
	return OrderResponse{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		OrderDate:   o.OrderDate,
		TotalAmount: money(o.TotalAmount),
		Status:      o.Status,
		Items:       items,
	}
}

type OrderSummaryResponse struct {
	OrderID     int64              `json:"order_id"`
	OrderDate   time.Time          `json:"order_date"`
	TotalAmount string             `json:"total_amount"`
	Status      domain.OrderStatus `json:"status"`
	TotalItems  int                `json:"total_items"`
}

func toOrderSummaries(orders []domain.OrderSummary) []OrderSummaryResponse {
	out := make([]OrderSummaryResponse, len(orders))
	for i, o := range orders {
		out[i] = OrderSummaryResponse{
			OrderID:     o.ID,
			OrderDate:   o.OrderDate,
			TotalAmount: money(o.TotalAmount),
			Status:      o.Status,
			TotalItems:  o.TotalItems,
		}
	}
	return out
}

type PaymentResponse struct {
	PaymentID     int64                `json:"payment_id"`
	OrderID       int64                `json:"order_id"`
	Amount        string               `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id"`
	PaymentDate   time.Time            `json:"payment_date"`
	Message       string               `json:"message"`
}

func toPaymentResponse(p domain.Payment, message string) PaymentResponse {
	return PaymentResponse{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Amount:        money(p.Amount),
		PaymentMethod: p.Method,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		PaymentDate:   p.PaymentDate,
		Message:       message,
	}
}

type PaymentStatusResponse struct {
	PaymentID     int64                `json:"payment_id"`
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id"`
	PaymentDate   time.Time            `json:"payment_date"`
	Message       string               `json:"message"`
}

func toPaymentStatusResponse(p *domain.Payment) PaymentStatusResponse {
	return PaymentStatusResponse{
		PaymentID:     p.ID,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		PaymentDate:   p.PaymentDate,
		Message:       p.Status.Message(),
	}
}

type TestCardsResponse struct {
	SuccessCards []service.TestCard `json:"success_cards"`
	DeclineCards []service.TestCard `json:"decline_cards"`
}

type SandboxInfoResponse struct {
	SandboxMode      bool                             `json:"sandbox_mode"`
	SupportedMethods []domain.PaymentMethod           `json:"supported_methods"`
	SuccessRates     map[domain.PaymentMethod]float64 `json:"success_rates"`
	DefaultRate      float64                          `json:"default_success_rate"`
	TestCards        TestCardsResponse                `json:"test_cards"`
	WebhookURL       string                           `json:"webhook_url"`
}

func toSandboxInfoResponse(info service.SandboxInfo) SandboxInfoResponse {
	return SandboxInfoResponse{
		SandboxMode:      info.SandboxMode,
		SupportedMethods: info.SupportedMethods,
		SuccessRates:     info.SuccessRates,
		DefaultRate:      info.DefaultRate,
		TestCards: TestCardsResponse{
			SuccessCards: info.SuccessCards,
			DeclineCards: info.DeclineCards,
		},
		WebhookURL: "/api/v1/payments/sandbox/webhook/{payment_id}/",
	}
}
