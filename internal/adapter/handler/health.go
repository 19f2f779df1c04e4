package handler

import (
	"context"
	"sort"
	"time"
)

const healthCheckTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker pings the backing stores. It is shared by the HTTP health
// endpoint and the gRPC health service.
type HealthChecker struct {
	deps map[string]Pinger
}

func NewHealthChecker(deps map[string]Pinger) *HealthChecker {
	return &HealthChecker{deps: deps}
}

type HealthReport struct {
	Healthy bool              `json:"healthy"`
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
}

func (c *HealthChecker) Names() []string {
	names := make([]string, 0, len(c.deps))
	for name := range c.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *HealthChecker) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	report := HealthReport{Healthy: true, Status: "ok", Checks: make(map[string]string, len(c.deps))}
	for name, dep := range c.deps {
		if err := dep.Ping(ctx); err != nil {
			report.Checks[name] = err.Error()
			report.Healthy = false
			continue
		}
		report.Checks[name] = "ok"
	}
	if !report.Healthy {
		report.Status = "unavailable"
	}
	return report
}
