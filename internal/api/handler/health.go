package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves the service info, liveness and readiness probes.
type HealthHandler struct {
	name    string
	version string
	deps    map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler builds the probes. Nil dependencies are skipped, so an
// optional Redis can be passed through untouched.
func NewHealthHandler(name, version string, deps map[string]Pinger) *HealthHandler {
	filtered := make(map[string]Pinger, len(deps))
	for k, p := range deps {
		if p != nil {
			filtered[k] = p
		}
	}
	return &HealthHandler{name: name, version: version, deps: filtered, timeout: 3 * time.Second}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

type infoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// Info handles GET /.
func (h *HealthHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, infoResponse{Name: h.name, Version: h.version, Docs: "/docs/index.html"})
}

// Liveness handles GET /health; it only confirms the process is alive.
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready and pings every dependency.
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	return c.JSON(httpStatus, readinessResponse{Status: status, Dependencies: deps})
}
