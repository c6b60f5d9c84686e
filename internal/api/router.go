package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cortexmem/recall/internal/api/handlers"
	mw "github.com/cortexmem/recall/internal/api/middleware"
	"github.com/cortexmem/recall/internal/config"
	"github.com/cortexmem/recall/internal/domain"
	"github.com/cortexmem/recall/internal/embedding"
	"github.com/cortexmem/recall/internal/resilience"
	"github.com/cortexmem/recall/internal/service"
	"github.com/cortexmem/recall/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Learner      *service.Learner
	Retrieval    *service.RetrievalService
	RateLimiter  *mw.RateLimiter
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	cfg := config.Retrieval(logger)

	// Stores
	vectorStore := store.NewVectorStore(db)
	beliefStore := store.NewBeliefStore(db)
	signalStore := store.NewSignalStore(db)
	profileStore := store.NewProfileFile(config.ProfilePath())

	// Embedding provider
	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.OpenAIAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed, using mock",
			zap.String("provider", config.EmbeddingProvider()),
			zap.Error(err))
		embeddingClient, _ = embedding.NewClient(embedding.ProviderMock, "")
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	// Resilient store access
	fetcher := resilience.NewFetcher(vectorStore, cfg.Fetch, logger)

	// Services
	learner := service.NewLearner(signalStore, profileStore, cfg.Arbitration, logger)
	retrievalSvc := service.NewRetrievalService(fetcher, embeddingClient, beliefStore, learner, cfg, logger)
	feedbackSvc := service.NewFeedbackService(signalStore, vectorStore, logger)

	// Handlers
	retrieveHandler := handlers.NewRetrieveHandler(retrievalSvc, logger)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackSvc)

	r := chi.NewRouter()

	app := &App{
		Router:      r,
		Learner:     learner,
		Retrieval:   retrievalSvc,
		RateLimiter: mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()),
		startTime:   time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiter.Middleware)

	r.Get("/health", app.healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/retrieve", retrieveHandler.Retrieve)
		r.Post("/feedback", feedbackHandler.Create)
	})

	return app
}

func (app *App) healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			"status":  "ok",
			"breaker": app.Retrieval.BreakerState(),
		}
		code := http.StatusOK
		if err := db.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["error"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		profile := app.Learner.Profile()

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"breaker_state":  app.Retrieval.BreakerState(),
			"arbitration_profile": map[string]float64{
				string(domain.ProvenanceBase):        profile.Base,
				string(domain.ProvenanceEpisodic):    profile.Episodic,
				string(domain.ProvenanceProcedural):  profile.Procedural,
				string(domain.ProvenanceAbstraction): profile.Abstraction,
			},
			"memory": map[string]any{
				"alloc_mb": float64(memStats.Alloc) / 1024 / 1024,
				"num_gc":   memStats.NumGC,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
