package handler

import (
	"net/http"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
)

type ChargeRequest struct {
	OrderID       int64  `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	CardNumber    string `json:"card_number"`
	CardHolder    string `json:"card_holder"`
}

type WebhookRequest struct {
	Status string `json:"status"`
}

func (h *HTTPHandler) Charge(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.OrderID <= 0 {
		h.writeError(w, r, domain.Validation("order_id is required"))
		return
	}

	result, err := h.svc.Payments.Charge(r.Context(), principalFrom(r.Context()), service.ChargeInput{
		OrderID: req.OrderID,
		Method:  domain.PaymentMethod(req.PaymentMethod),
		Card:    domain.CardDetails{Number: req.CardNumber, Holder: req.CardHolder},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(result.Payment, result.Message))
}

func (h *HTTPHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	payment, err := h.svc.Payments.Status(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentStatusResponse(payment))
}

func (h *HTTPHandler) PaymentByOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	payment, err := h.svc.Payments.StatusByOrder(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment, payment.Status.Message()))
}

func (h *HTTPHandler) SandboxInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSandboxInfoResponse(h.svc.Payments.SandboxInfo()))
}

func (h *HTTPHandler) SimulateWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req WebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	payment, err := h.svc.Payments.SimulateWebhook(r.Context(), principalFrom(r.Context()), id, domain.PaymentStatus(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentStatusResponse(payment))
}
