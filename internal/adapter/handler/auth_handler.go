package handler

import (
	"net/http"

	"github.com/rl1809/bookstore/internal/core/service"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	customer, err := h.svc.Auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sessionID, err := h.ensureSession(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.svc.Auth.Login(r.Context(), sessionID, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Customer:    *toCustomerResponse(&result.Customer),
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
	})
}

func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionFrom(r.Context()).id; sessionID != "" {
		if err := h.svc.Auth.Logout(r.Context(), sessionID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me answers null rather than 401 for anonymous callers.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	customer, err := h.svc.Auth.Me(r.Context(), principalFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}
