package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gearbookhq/gearbook-backend/api/responses"
	"github.com/gearbookhq/gearbook-backend/pkg/config"
	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
	"github.com/gearbookhq/gearbook-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gearbook-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthReady probes each dependency and fails closed when any one of them
// is unreachable. Nil dependencies are skipped so partial wiring in tests
// stays easy.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache, inv pinger) http.HandlerFunc {
	deps := map[string]pinger{
		"database":  database,
		"redis":     cache,
		"inventory": inv,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gearbook-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		failed := false
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = err.Error()
				failed = true
				continue
			}
			checks[name] = "ok"
		}

		if failed {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
