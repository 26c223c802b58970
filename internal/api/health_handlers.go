package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/capstone-maru/maru/internal/health"
)

// readyTimeout bounds all dependency checks of one readiness probe.
const readyTimeout = 5 * time.Second

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	checkers map[string]health.Checker
	now      func() time.Time
}

// NewHealthHandlers creates probes over the named dependency checkers. A nil
// checker is skipped, so optional stores can be passed unconditionally.
func NewHealthHandlers(checkers map[string]health.Checker) *HealthHandlers {
	h := &HealthHandlers{checkers: make(map[string]health.Checker), now: time.Now}
	for name, c := range checkers {
		if c != nil {
			h.checkers[name] = c
		}
	}
	return h
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready and returns 503 when any dependency fails.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checkers[name].HealthCheck(ctx); err != nil {
			slog.WarnContext(ctx, "dependency health check failed", "dependency", name, "error", err)
			checks[name] = "error"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	resp := HealthResponse{
		Status:    "healthy",
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r.Context(), status, resp)
}
