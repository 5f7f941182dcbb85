package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/lockvest/investment-engine/pkg/response"
)

const checkTimeout = 5 * time.Second

// HealthHandler reports process liveness and backing-store readiness.
type HealthHandler struct {
	db    *sqlx.DB
	redis *redis.Client
}

func NewHealthHandler(db *sqlx.DB, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

type healthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health answers as long as the process is serving; it checks nothing else.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, healthReport{Status: "ok", Timestamp: time.Now()})
}

// Ready checks the catalog database and the ledger store. Either failing
// makes the whole report a 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]func(context.Context) error{
		"database": h.db.PingContext,
		"redis": func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		},
	}

	report := healthReport{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(checks)),
	}

	for name, check := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := check(ctx)
		cancel()

		if err != nil {
			report.Status = "error"
			report.Checks[name] = "failed: " + err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}

	if report.Status != "ok" {
		response.Error(w, http.StatusServiceUnavailable, "Service not ready", nil)
		return
	}

	response.Success(w, report)
}
