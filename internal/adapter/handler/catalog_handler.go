package handler

import (
	"context"
	"net/http"

	"github.com/rl1809/bookstore/internal/core/domain"
)

func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	page, err := h.svc.Catalog.ListBooks(r.Context(), domain.BookFilter{
		Search:   q.Get("search"),
		Ordering: domain.BookOrdering(q.Get("ordering")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookPageResponse(page))
}

func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	book, err := h.svc.Catalog.GetBook(r.Context(), principalFrom(r.Context()), sessionFrom(r.Context()).id, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(*book))
}

func (h *HTTPHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.svc.Catalog.ListAuthors(r.Context(), r.URL.Query().Get("search"))
	respond(h, w, r, authors, err)
}

func (h *HTTPHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	getByID(h, w, r, h.svc.Catalog.GetAuthor)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Catalog.ListCategories(r.Context(), r.URL.Query().Get("search"))
	respond(h, w, r, categories, err)
}

func (h *HTTPHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	getByID(h, w, r, h.svc.Catalog.GetCategory)
}

func (h *HTTPHandler) ListPublishers(w http.ResponseWriter, r *http.Request) {
	publishers, err := h.svc.Catalog.ListPublishers(r.Context(), r.URL.Query().Get("search"))
	respond(h, w, r, publishers, err)
}

func (h *HTTPHandler) GetPublisher(w http.ResponseWriter, r *http.Request) {
	getByID(h, w, r, h.svc.Catalog.GetPublisher)
}

func respond[T any](h *HTTPHandler, w http.ResponseWriter, r *http.Request, v T, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func getByID[T any](h *HTTPHandler, w http.ResponseWriter, r *http.Request, get func(context.Context, int64) (*T, error)) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v, err := get(r.Context(), id)
	respond(h, w, r, v, err)
}
