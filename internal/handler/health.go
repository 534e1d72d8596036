package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/claimant-engine/pkg/response"
)

// Check is one readiness dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

func DatabaseCheck(db *sqlx.DB) Check {
	return Check{Name: "database", Ping: db.PingContext}
}

func RedisCheck(client redis.UniversalClient) Check {
	return Check{Name: "redis", Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

type HealthHandler struct {
	timeout time.Duration
	checks  []Check
}

func NewHealthHandler(timeout time.Duration, checks ...Check) *HealthHandler {
	return &HealthHandler{
		timeout: timeout,
		checks:  checks,
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health performs a basic liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{},
	})
}

// Ready pings every configured dependency, each under its own timeout
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			status.Status = "error"
			status.Checks[check.Name] = "failed: " + err.Error()
		} else {
			status.Checks[check.Name] = "ok"
		}
	}

	if status.Status == "error" {
		response.ServiceUnavailable(w, "Service not ready", status)
		return
	}

	response.Success(w, status)
}
