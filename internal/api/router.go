package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/queue-broker-service/internal/api/handler"
	"github.com/queue-broker-service/internal/api/middleware"
	"github.com/queue-broker-service/internal/pkg/logger"
	"github.com/queue-broker-service/internal/service"
	"github.com/queue-broker-service/internal/storage"
)

// RouterConfig holds dependencies for router creation.
type RouterConfig struct {
	Logger     *logger.Logger
	Pool       *pgxpool.Pool
	Services   *ServiceContainer
	Clock      storage.Clock
	Version    string
	BuildTime  string
	CORSConfig middleware.CORSConfig
}

// ServiceContainer holds every service the API surface depends on. A
// queue node wires Queue/Message/Claim/Idempotency; the proxy wires
// Catalogue/Partition. A combined deployment wires all of them.
type ServiceContainer struct {
	Queue       *service.QueueService
	Message     *service.MessageService
	Claim       *service.ClaimService
	Catalogue   *service.CatalogueService
	Partition   *service.PartitionService
	Idempotency *service.IdempotencyService
}

// NewRouter creates and configures the Chi router for a queue node:
// /v1/queues and everything nested under it.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORSConfig))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))

	mountOps(r, cfg)

	r.Route("/v1/queues", func(r chi.Router) {
		r.Use(middleware.ProjectContext)
		r.Use(middleware.RequireProject)

		queueHandler := handler.NewQueueHandler(cfg.Services.Queue, cfg.Services.Message)
		messageHandler := handler.NewMessageHandler(cfg.Services.Message, cfg.Clock)
		claimHandler := handler.NewClaimHandler(cfg.Services.Claim, cfg.Clock)

		r.Get("/", queueHandler.List)

		r.Route("/{queue}", func(r chi.Router) {
			r.Put("/", withIdempotency(cfg, queueHandler.Create))
			r.Get("/", queueHandler.Exists)
			r.Delete("/", withIdempotency(cfg, queueHandler.Delete))

			r.Get("/metadata", queueHandler.GetMetadata)
			r.Patch("/metadata", withIdempotency(cfg, queueHandler.SetMetadata))
			r.Get("/stats", queueHandler.Stats)
			r.Post("/purge", withIdempotency(cfg, queueHandler.Purge))

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", withIdempotency(cfg, messageHandler.Post))
				r.Get("/", messageHandler.BulkGet)
				r.Delete("/", withIdempotency(cfg, messageHandler.BulkDelete))

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", messageHandler.Get)
					r.Delete("/", withIdempotency(cfg, messageHandler.Delete))
				})
			})

			r.Route("/claims", func(r chi.Router) {
				r.Post("/", withIdempotency(cfg, claimHandler.Create))

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", claimHandler.Get)
					r.Patch("/", withIdempotency(cfg, claimHandler.Update))
					r.Delete("/", claimHandler.Delete)
				})
			})
		})
	})

	return r
}

// NewProxyRouter creates the Chi router for the proxy process: the
// catalogue and partition controllers described in spec.md §4.4-§4.5.
func NewProxyRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORSConfig))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))

	mountOps(r, cfg)

	partitionHandler := handler.NewPartitionHandler(cfg.Services.Partition)
	r.Route("/v1/partitions", func(r chi.Router) {
		r.Post("/", partitionHandler.Create)
		r.Get("/", partitionHandler.List)
		r.Get("/select", partitionHandler.Select)
		r.Get("/stats", partitionHandler.Stats)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", partitionHandler.Get)
			r.Delete("/", partitionHandler.Delete)
		})
	})

	catalogueHandler := handler.NewCatalogueHandler(cfg.Services.Catalogue)
	r.Route("/v1/catalogue/{project}", func(r chi.Router) {
		r.Get("/", catalogueHandler.List)
		r.Route("/{queue}", func(r chi.Router) {
			r.Get("/", catalogueHandler.Get)
			r.Put("/", catalogueHandler.Upsert)
			r.Patch("/", catalogueHandler.UpdateMetadata)
			r.Delete("/", catalogueHandler.Delete)
			r.Get("/location", catalogueHandler.Location)
			r.Post("/move", catalogueHandler.Move)
		})
	})

	return r
}

// mountOps wires the operational surface shared by both processes:
// health, readiness, version, and Prometheus metrics. None of these
// require a project.
func mountOps(r *chi.Mux, cfg RouterConfig) {
	healthHandler := handler.NewHealthHandler(cfg.Pool, cfg.Version, cfg.BuildTime)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/version", healthHandler.Version)
	r.Handle("/metrics", promhttp.Handler())
}

// withIdempotency wraps a mutation handler with replay-key middleware
// when an IdempotencyService is configured, per the X-Idempotency-Key
// contract in SPEC_FULL.md. Without one configured, the handler runs
// unwrapped so memstore-only deployments don't need a database.
func withIdempotency(cfg RouterConfig, h http.HandlerFunc) http.HandlerFunc {
	if cfg.Services.Idempotency == nil {
		return h
	}
	return middleware.Idempotency(cfg.Services.Idempotency)(h).ServeHTTP
}
