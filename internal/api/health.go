// Copyright (c) 2026 Kanakku. All rights reserved.

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/anandvel/kanakku/internal/platform/constants"
	"github.com/anandvel/kanakku/internal/platform/respond"
)

// probeTimeout bounds each dependency check during a readiness probe.
const probeTimeout = 2 * time.Second

// Pinger is the health contract of an external dependency. Both pgxpool.Pool
// and the redis client satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	postgres Pinger
	redis    Pinger
}

func newHealthHandler(postgres, redis Pinger) *healthHandler {
	return &healthHandler{postgres: postgres, redis: redis}
}

// liveness handles GET /healthz: the process is up.
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": constants.AppVersion,
	})
}

// readiness handles GET /readyz: the process can serve real traffic.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {

	ctx, cancel := context.WithTimeout(request.Context(), probeTimeout)
	defer cancel()

	checks := map[string]string{
		"postgres": "ok",
		"redis":    "ok",
	}
	healthy := true

	if err := handler.postgres.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	}

	if err := handler.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	respond.JSON(writer, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
