package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/biyonik/pgquery/internal/http/request"
	"github.com/biyonik/pgquery/internal/http/response"
)

// HealthCheck, tek bir bağımlılığın erişilebilir olup olmadığını kontrol eder.
type HealthCheck func(ctx context.Context) error

// HealthController handles GET /health
type HealthController struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthController, isimlendirilmiş kontrollerle (ör. "database", "redis")
// health controller oluşturur.
func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{checks: checks, timeout: 2 * time.Second}
}

// Show handles GET /health
//
// Tüm kontroller başarılıysa 200, en az biri başarısızsa 503 döner.
func (c *HealthController) Show(w http.ResponseWriter, r *request.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	services := make(map[string]string, len(names))
	for _, name := range names {
		if err := c.checks[name](ctx); err != nil {
			services[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		services[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.Send(w, status, map[string]any{
		"status":   state,
		"services": services,
	})
}
