package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	domain "github.com/cosmichub/api/internal/domain"
	"github.com/cosmichub/api/internal/services"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	system services.SystemService
	build  services.BuildInfo
	clock  func() time.Time
}

// HealthOption customises HealthHandlers construction.
type HealthOption func(*HealthHandlers)

// WithHealthSystemService injects the system service used for readiness checks.
func WithHealthSystemService(svc services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = svc
	}
}

// WithHealthBuildInfo sets the build metadata echoed by the liveness probe.
func WithHealthBuildInfo(build services.BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = build
	}
}

// WithHealthClock injects a custom clock, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs handlers for /healthz and /readyz.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock()
	}
	return h
}

// Healthz reports process liveness without touching dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	payload := map[string]any{
		"status":      domain.HealthStatusOK,
		"timestamp":   now.Format(time.RFC3339),
		"uptime":      now.Sub(h.build.StartedAt).String(),
		"version":     h.build.Version,
		"commitSha":   h.build.CommitSHA,
		"environment": h.build.Environment,
	}
	writeJSON(w, http.StatusOK, payload)
}

// Readyz evaluates dependency health and reports readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    domain.HealthStatusOK,
			"timestamp": h.clock().UTC().Format(time.RFC3339),
		})
		return
	}

	report, err := h.system.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  domain.HealthStatusError,
			"details": []string{err.Error()},
		})
		return
	}

	checks := make(map[string]map[string]any, len(report.Checks))
	var details []string
	for name, check := range report.Checks {
		entry := map[string]any{
			"status":  check.Status,
			"latency": check.Latency.String(),
		}
		if check.Detail != "" {
			entry["detail"] = check.Detail
		}
		if !check.CheckedAt.IsZero() {
			entry["checkedAt"] = check.CheckedAt.UTC().Format(time.RFC3339)
		}
		checks[name] = entry
		if check.Status != domain.HealthStatusOK && check.Error != "" {
			details = append(details, fmt.Sprintf("%s: %s", name, check.Error))
		}
	}
	sort.Strings(details)
	if details == nil {
		details = []string{}
	}

	status := http.StatusOK
	if report.Status != domain.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}

	payload := map[string]any{
		"status":      report.Status,
		"checks":      checks,
		"details":     details,
		"version":     report.Version,
		"commitSha":   report.CommitSHA,
		"environment": report.Environment,
		"uptime":      report.Uptime.String(),
		"generatedAt": report.GeneratedAt.UTC().Format(time.RFC3339),
	}
	writeJSON(w, status, payload)
}
