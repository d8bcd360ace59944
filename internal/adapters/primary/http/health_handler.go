package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fieldops/workorder-agent/internal/core/domain"
)

// StateReporter exposes a subscription's connection state for health output.
type StateReporter interface {
	State() domain.ConnectionState
}

// Pinger exposes a liveness check on a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the agent's own health: cache usability plus the
// states of the global and project subscriptions. A disconnected stream is
// degraded, not unhealthy -- the agent still serves (possibly stale) reads.
type HealthHandler struct {
	cache     Pinger
	global    StateReporter
	project   StateReporter
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cache Pinger, global, project StateReporter, version string) *HealthHandler {
	return &HealthHandler{
		cache:     cache,
		global:    global,
		project:   project,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HandleLiveness handles liveness probe requests.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleHealth handles detailed health check requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	overallStatus := "healthy"

	cacheCheck := Check{Status: "healthy"}
	if err := h.cache.Ping(ctx); err != nil {
		cacheCheck = Check{Status: "unhealthy", Message: err.Error()}
		overallStatus = "unhealthy"
	}
	checks["cache"] = cacheCheck

	checks["global_stream"] = streamCheck(h.global.State())
	if checks["global_stream"].Status != "healthy" {
		degrade(&overallStatus)
	}

	// The project stream is idle whenever no project is open; that is not a
	// degradation.
	projectState := h.project.State()
	projectCheck := streamCheck(projectState)
	if projectState == domain.StateIdle || projectState == domain.StateClosed {
		projectCheck = Check{Status: "healthy", Message: "no active project scope"}
	}
	checks["project_stream"] = projectCheck
	if projectCheck.Status != "healthy" {
		degrade(&overallStatus)
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	WriteJSON(w, statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	})
}

func streamCheck(state domain.ConnectionState) Check {
	check := Check{Status: "healthy", Message: state.String()}
	switch state {
	case domain.StateReconnecting, domain.StateConnecting:
		check.Status = "degraded"
	}
	return check
}

func degrade(overall *string) {
	if *overall == "healthy" {
		*overall = "degraded"
	}
}
