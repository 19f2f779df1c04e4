package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported for the whole API.
const ServiceName = "bookstore.v1.Bookstore"

// GRPCHandler serves grpc.health.v1.Health, mirroring the same store pings
// as the HTTP /health endpoint.
type GRPCHandler struct {
	server  *health.Server
	checker *HealthChecker
	logger  *slog.Logger
}

func NewGRPCHandler(checker *HealthChecker, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{
		server:  health.NewServer(),
		checker: checker,
		logger:  logger,
	}
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Refresh pings every store once and publishes the result. The overall
// service is serving only when every store is.
func (h *GRPCHandler) Refresh(ctx context.Context) {
	report := h.checker.Check(ctx)

	for _, name := range h.checker.Names() {
		h.server.SetServingStatus(name, servingStatus(report.Checks[name] == "ok"))
	}

	overall := servingStatus(report.Healthy)
	h.server.SetServingStatus("", overall)
	h.server.SetServingStatus(ServiceName, overall)

	if !report.Healthy {
		h.logger.WarnContext(ctx, "health check failed", "checks", report.Checks)
	}
}

// Run refreshes on every tick until ctx is done.
func (h *GRPCHandler) Run(ctx context.Context, interval time.Duration) {
	h.Refresh(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Refresh(ctx)
		}
	}
}

// Shutdown marks every service as not serving ahead of GracefulStop.
func (h *GRPCHandler) Shutdown() {
	h.server.Shutdown()
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
