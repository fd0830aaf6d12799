package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/legacy-capsule/capsule-backend/api/controllers"
	"github.com/legacy-capsule/capsule-backend/api/middleware"
	"github.com/legacy-capsule/capsule-backend/internal/catalog"
	checkoutsvc "github.com/legacy-capsule/capsule-backend/internal/checkout"
	fulfillmentsvc "github.com/legacy-capsule/capsule-backend/internal/fulfillment"
	quotesvc "github.com/legacy-capsule/capsule-backend/internal/quotes"
	templatesvc "github.com/legacy-capsule/capsule-backend/internal/templates"
	uploadsvc "github.com/legacy-capsule/capsule-backend/internal/uploads"
	"github.com/legacy-capsule/capsule-backend/pkg/config"
	"github.com/legacy-capsule/capsule-backend/pkg/db"
	"github.com/legacy-capsule/capsule-backend/pkg/logger"
	"github.com/legacy-capsule/capsule-backend/pkg/redis"
	"github.com/legacy-capsule/capsule-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	snap *catalog.Snapshot,
	checkoutService checkoutsvc.Service,
	fulfillmentService fulfillmentsvc.Service,
	uploadService uploadsvc.Service,
	quoteService quotesvc.Service,
	templateService templatesvc.Service,
	gatherer prometheus.Gatherer,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/templates", controllers.ListTemplates(snap, logg))
		r.Get("/bundles", controllers.ListBundles(snap, logg))

		r.Post("/checkout-session", controllers.CreateCheckoutSession(checkoutService, logg))

		r.Post("/generate-artifact", controllers.GenerateArtifact(fulfillmentService, logg))
		r.Post("/fulfillment", controllers.Fulfill(fulfillmentService, logg))
		r.Get("/fulfillment/{sessionId}", controllers.FulfillmentBySession(fulfillmentService, logg))
		r.Get("/artifact/{filename}", controllers.DownloadArtifact(fulfillmentService, logg))

		uploadPolicy := middleware.NewRateLimitPolicy("upload", cfg.RateLimit.UploadWindow, cfg.RateLimit.UploadIPLimit)
		r.With(middleware.RateLimit(uploadPolicy, redisClient, logg)).
			Post("/upload", controllers.Upload(uploadService, cfg.Uploads, logg))
		r.Post("/custom-quote", controllers.SubmitCustomQuote(quoteService, logg))
		r.Post("/reseller-signup", controllers.SubmitResellerSignup(quoteService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		if cfg.FeatureFlags.AdminRoutes {
			r.Get("/templates", controllers.ListTemplateRecords(templateService, logg))
			r.Post("/templates", controllers.CreateTemplateRecord(templateService, logg))
		}
	})

	return r
}
