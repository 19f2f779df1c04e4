package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type AddToCartRequest struct {
	BookID   int64 `json:"book_id"`
	Quantity *int  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

var emptyCart = domain.CartSnapshot{Items: []domain.CartLine{}, TotalAmount: decimal.Zero}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionFrom(r.Context()).id
	if sessionID == "" {
		writeJSON(w, http.StatusOK, toCartResponse(&emptyCart))
		return
	}

	cart, err := h.svc.Cart.Get(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.BookID <= 0 {
		h.writeError(w, r, domain.Validation("book_id is required"))
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	sessionID, err := h.ensureSession(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	cart, err := h.svc.Cart.Add(r.Context(), principalFrom(r.Context()), sessionID, req.BookID, quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req UpdateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, r, domain.Validation("quantity is required"))
		return
	}

	sessionID, err := h.ensureSession(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	cart, err := h.svc.Cart.Update(r.Context(), principalFrom(r.Context()), sessionID, bookID, *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sessionID := sessionFrom(r.Context()).id
	if sessionID == "" {
		writeJSON(w, http.StatusOK, toCartResponse(&emptyCart))
		return
	}

	cart, err := h.svc.Cart.Remove(r.Context(), sessionID, bookID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionFrom(r.Context()).id; sessionID != "" {
		if err := h.svc.Cart.Clear(r.Context(), sessionID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cart cleared successfully"})
}
