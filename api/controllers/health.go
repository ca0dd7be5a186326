package controllers

import (
	"net/http"

	"github.com/angelmondragon/bxgy-bundles-backend/api/responses"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bxgy-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the backing stores answer. The cache
// pinger may be nil when Redis is not configured.
func HealthReady(cfg *config.Config, dbPinger db.Pinger, cachePinger redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bxgy-Env", cfg.App.Env)

		if dbPinger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database unavailable"))
			return
		}
		if err := dbPinger.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
			return
		}

		if cachePinger != nil {
			if err := cachePinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
