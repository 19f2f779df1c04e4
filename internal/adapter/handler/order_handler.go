package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
)

type OrderItemRequest struct {
	BookID   int64            `json:"book_id"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	FromCart *bool              `json:"from_cart"`
	Items    []OrderItemRequest `json:"items"`
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in := service.CreateOrderInput{FromCart: req.FromCart == nil || *req.FromCart}
	for _, item := range req.Items {
		in.Items = append(in.Items, domain.OrderItemInput{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	order, err := h.svc.Orders.Create(r.Context(), principalFrom(r.Context()), sessionFrom(r.Context()).id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.List(r.Context(), principalFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderSummaries(orders))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.svc.Orders.Get(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.Orders.Cancel(r.Context(), principalFrom(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Order cancelled successfully"})
}
