package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/nandarlin/shopbooks-backend/api/responses"
	"github.com/nandarlin/shopbooks-backend/pkg/config"
	"github.com/nandarlin/shopbooks-backend/pkg/db"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
	pkgredis "github.com/nandarlin/shopbooks-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopbooks-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
// Redis is optional; a nil pinger is skipped rather than failed.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopbooks-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP == nil {
			checks["db"] = "missing"
			healthy = false
		} else if err := dbP.Ping(ctx); err != nil {
			checks["db"] = "down"
			healthy = false
			logg.Error(ctx, "db readiness check failed", err)
		} else {
			checks["db"] = "ok"
		}

		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "down"
				healthy = false
				logg.Error(ctx, "redis readiness check failed", err)
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
