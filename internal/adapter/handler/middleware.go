package handler

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/rl1809/bookstore/internal/core/domain"
)

type ctxKey int

const (
	sessionCtxKey ctxKey = iota
	principalCtxKey
)

const (
	limiterIdleTTL       = 30 * time.Minute
	limiterSweepInterval = 5 * time.Minute
)

// sessionState is stored by pointer so a handler can start a session lazily.
type sessionState struct {
	id string
}

func sessionFrom(ctx context.Context) *sessionState {
	if s, ok := ctx.Value(sessionCtxKey).(*sessionState); ok {
		return s
	}
	return &sessionState{}
}

func principalFrom(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(principalCtxKey).(domain.Principal); ok {
		return p
	}
	return domain.Anonymous()
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.InfoContext(r.Context(), "http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// loadSession picks up the session named by the cookie when it still exists
// in the store. Requests without one carry an empty session until a handler
// calls ensureSession.
func (h *HTTPHandler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := &sessionState{}
		if c, err := r.Cookie(h.opts.CookieName); err == nil && c.Value != "" {
			ok, err := h.sessions.SessionExists(r.Context(), c.Value)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			if ok {
				state.id = c.Value
			}
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HTTPHandler) ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	state := sessionFrom(r.Context())
	if state.id != "" {
		return state.id, nil
	}

	id, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		return "", err
	}
	state.id = id

	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// resolvePrincipal runs after loadSession. A bearer token that fails to
// verify rejects the request outright instead of falling back to the session.
func (h *HTTPHandler) resolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.svc.Auth.ResolvePrincipal(r.Context(), bearerToken(r), sessionFrom(r.Context()).id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalCtxKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !principalFrom(r.Context()).IsAuthenticated() {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// ipRateLimiter hands each client address its own token bucket and forgets
// addresses that stay idle.
type ipRateLimiter struct {
	rps       rate.Limit
	burst     int
	limiters  sync.Map
	sweepOnce sync.Once
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{rps: rate.Limit(rps), burst: burst}
}

func (l *ipRateLimiter) get(ip string) *ipLimiter {
	v, ok := l.limiters.Load(ip)
	if !ok {
		v, _ = l.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)})
		l.sweepOnce.Do(func() { go l.sweep() })
	}
	lim := v.(*ipLimiter)
	lim.lastSeen.Store(time.Now().UnixNano())
	return lim
}

func (l *ipRateLimiter) sweep() {
	t := time.NewTicker(limiterSweepInterval)
	defer t.Stop()
	for now := range t.C {
		l.limiters.Range(func(key, val any) bool {
			if now.Sub(time.Unix(0, val.(*ipLimiter).lastSeen.Load())) > limiterIdleTTL {
				l.limiters.Delete(key)
			}
			return true
		})
	}
}

func (l *ipRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(remoteIP(r)).limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
