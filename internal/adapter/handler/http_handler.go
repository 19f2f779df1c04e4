package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
	"github.com/rl1809/bookstore/internal/port"
)

const maxBodyBytes = 1 << 20

type Services struct {
	Auth       *service.AuthService
	Catalog    *service.CatalogService
	Cart       *service.CartService
	Orders     *service.OrderService
	Payments   *service.PaymentService
	Activities *service.ActivityService
}

type Options struct {
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	Logger *slog.Logger
}

type HTTPHandler struct {
	svc      Services
	sessions port.SessionStore
	health   *HealthChecker
	opts     Options
	logger   *slog.Logger
	limiter  *ipRateLimiter
}

func NewHTTPHandler(svc Services, sessions port.SessionStore, health *HealthChecker, opts Options) *HTTPHandler {
	if opts.CookieName == "" {
		opts.CookieName = "sessionid"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &HTTPHandler{
		svc:      svc,
		sessions: sessions,
		health:   health,
		opts:     opts,
		logger:   logger,
	}
	if opts.RateLimitEnabled {
		h.limiter = newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	return h
}

// Routes builds the full HTTP surface.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	if h.limiter != nil {
		r.Use(h.limiter.middleware)
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limitBody)
		r.Use(h.loadSession)
		r.Use(h.resolvePrincipal)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register/", h.Register)
			r.Post("/login/", h.Login)
			r.Post("/logout/", h.Logout)
			r.Get("/me/", h.Me)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/books/", h.ListBooks)
			r.Get("/books/{id}/", h.GetBook)
			r.Get("/authors/", h.ListAuthors)
			r.Get("/authors/{id}/", h.GetAuthor)
			r.Get("/categories/", h.ListCategories)
			r.Get("/categories/{id}/", h.GetCategory)
			r.Get("/publishers/", h.ListPublishers)
			r.Get("/publishers/{id}/", h.GetPublisher)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/add/", h.AddToCart)
			r.Patch("/items/{id}/", h.UpdateCartItem)
			r.Delete("/items/{id}/remove/", h.RemoveCartItem)
			r.Delete("/clear/", h.ClearCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.CreateOrder)
			r.Get("/list/", h.ListOrders)
			r.Get("/{id}/", h.GetOrder)
			r.Patch("/{id}/cancel/", h.CancelOrder)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/sandbox/info/", h.SandboxInfo)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/charge/", h.Charge)
				r.Get("/{id}/status/", h.PaymentStatus)
				r.Get("/order/{id}/", h.PaymentByOrder)
				r.Post("/sandbox/webhook/{id}/", h.SimulateWebhook)
			})
		})

		r.Route("/activities", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.LogActivity)
			r.Post("/bulk/", h.LogActivityBulk)
		})

		r.Route("/recs", func(r chi.Router) {
			r.Get("/home/", h.Recommendations)
			r.Get("/user/{id}/", h.Recommendations)
			r.Get("/similar/{id}/", h.Recommendations)
		})
	})

	return r
}

// HealthCheck reports 503 when any backing store fails its ping.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Recommendations is a placeholder until a recommender exists.
func (h *HTTPHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a domain error kind to its status code. Anything
// unclassified is logged and hidden behind a generic message.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.Validation("Invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("Invalid id: %s", chi.URLParam(r, "id"))
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation("Invalid %s: %s", key, raw)
	}
	return n, nil
}
