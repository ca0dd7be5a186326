package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bxgy-bundles-backend/api/controllers"
	"github.com/angelmondragon/bxgy-bundles-backend/api/middleware"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/classic"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/complement"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/tiered"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/volume"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. The cache pinger and metrics gatherer
// may be nil; the matching endpoints degrade instead of panicking.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	cachePinger redis.Pinger,
	gatherer prometheus.Gatherer,
	classicService classic.Service,
	tieredService tiered.Service,
	volumeService volume.Service,
	complementService complement.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPinger, cachePinger, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/bundles", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Shopify, logg))

		r.Route("/classic", func(r chi.Router) {
			r.Get("/", controllers.ClassicList(classicService, logg))
			r.Post("/", controllers.ClassicCreate(classicService, logg))
			r.Get("/{id}", controllers.ClassicGet(classicService, logg))
			r.Put("/{id}", controllers.ClassicUpdate(classicService, logg))
			r.Post("/{id}/toggle", controllers.ClassicToggle(classicService, logg))
			r.Delete("/{id}", controllers.ClassicDelete(classicService, logg))
		})

		r.Route("/tiered", func(r chi.Router) {
			r.Get("/", controllers.TieredList(tieredService, logg))
			r.Post("/", controllers.TieredCreate(tieredService, logg))
			r.Get("/{id}", controllers.TieredGet(tieredService, logg))
			r.Put("/{id}", controllers.TieredUpdate(tieredService, logg))
			r.Post("/{id}/toggle", controllers.TieredToggle(tieredService, logg))
			r.Delete("/{id}", controllers.TieredDelete(tieredService, logg))
		})

		r.Route("/volume", func(r chi.Router) {
			r.Get("/", controllers.VolumeList(volumeService, logg))
			r.Post("/", controllers.VolumeCreate(volumeService, logg))
			r.Get("/{id}", controllers.VolumeGet(volumeService, logg))
			r.Put("/{id}", controllers.VolumeUpdate(volumeService, logg))
			r.Post("/{id}/toggle", controllers.VolumeToggle(volumeService, logg))
			r.Delete("/{id}", controllers.VolumeDelete(volumeService, logg))
		})

		r.Route("/complement", func(r chi.Router) {
			r.Get("/", controllers.ComplementList(complementService, logg))
			r.Post("/", controllers.ComplementCreate(complementService, logg))
			r.Get("/{id}", controllers.ComplementGet(complementService, logg))
			r.Put("/{id}", controllers.ComplementUpdate(complementService, logg))
			r.Post("/{id}/toggle", controllers.ComplementToggle(complementService, logg))
			r.Delete("/{id}", controllers.ComplementDelete(complementService, logg))
		})
	})

	return r
}
