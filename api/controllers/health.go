package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/legacy-capsule/capsule-backend/api/responses"
	"github.com/legacy-capsule/capsule-backend/pkg/config"
	"github.com/legacy-capsule/capsule-backend/pkg/db"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/redis"
	"github.com/legacy-capsule/capsule-backend/pkg/storage/gcs"
)

const readyProbeTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Capsule-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing dependency. Any failed probe turns the
// whole response into a 503 so the load balancer drains this instance.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Capsule-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		checks := map[string]string{}
		ready := true
		probe := func(name string, p interface {
			Ping(context.Context) error
		}) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				ready = false
				if logg != nil {
					logg.Warn(ctx, name+" readiness probe failed")
				}
				return
			}
			checks[name] = "ok"
		}
		probe("database", dbP)
		probe("redis", redisP)
		probe("storage", gcsP)

		status := "ready"
		code := http.StatusOK
		if !ready {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
