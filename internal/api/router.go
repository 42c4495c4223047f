package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bernyforce/llm-council/internal/api/handlers"
	mw "github.com/bernyforce/llm-council/internal/api/middleware"
	"github.com/bernyforce/llm-council/internal/buildconfig"
	"github.com/bernyforce/llm-council/internal/config"
	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/bernyforce/llm-council/internal/llm"
	"github.com/bernyforce/llm-council/internal/service"
	"github.com/bernyforce/llm-council/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and the council services.
type App struct {
	Router       *chi.Mux
	Council      *service.CouncilService
	Sessions     *service.SessionService
	settings     config.Settings
	gateway      domain.Gateway
	store        domain.SessionStore
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires the gateway, services and HTTP routes. A missing API key is
// logged and leaves the gateway nil so the server still starts; deliberations
// then fail with a configuration error. Any other gateway error, such as an
// unknown provider, is returned.
// Background work started here stops when ctx is done.
func NewApp(ctx context.Context, sessions domain.SessionStore, settings config.Settings, logger *zap.Logger) (*App, error) {
	var gateway domain.Gateway
	gw, err := llm.NewGateway(settings.Provider, settings.APIKey, settings.Timeout)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("LLM gateway not configured", zap.String("provider", settings.Provider), zap.Error(err))
	case err != nil:
		return nil, fmt.Errorf("initialize LLM gateway: %w", err)
	default:
		gateway = llm.Instrument(gw, settings.Provider)
		logger.Info("LLM gateway initialized",
			zap.String("provider", settings.Provider),
			zap.Strings("members", settings.Council.Members),
			zap.String("chairman", settings.Council.Chairman),
			zap.Duration("timeout", settings.Timeout))
	}

	return newApp(ctx, gateway, sessions, settings, logger), nil
}

func newApp(ctx context.Context, gateway domain.Gateway, sessions domain.SessionStore, settings config.Settings, logger *zap.Logger) *App {
	councilSvc := service.NewCouncilService(gateway, sessions, settings.Council, logger)
	councilSvc.SetMaxConcurrency(settings.MaxConcurrency)
	sessionSvc := service.NewSessionService(sessions)

	councilHandler := handlers.NewCouncilHandler(councilSvc, logger)
	sessionHandler := handlers.NewSessionHandler(sessionSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Council:   councilSvc,
		Sessions:  sessionSvc,
		settings:  settings,
		gateway:   gateway,
		store:     sessions,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                         // Generate/extract request ID first
	r.Use(middleware.RealIP)                    // Extract real IP
	r.Use(metricsCollector.Middleware)          // Collect metrics
	r.Use(mw.Logging(logger))                   // Log all requests
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(mw.CORS(config.CORSAllowedOrigins())) // Browser frontend

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler(sessions))

		r.Group(func(r chi.Router) {
			if rps := config.RateLimitRPS(); rps > 0 {
				r.Use(mw.RateLimit(ctx, rps, config.RateLimitBurst()))
				logger.Info("inbound rate limiting enabled", zap.Float64("rps", rps), zap.Int("burst", config.RateLimitBurst()))
			}

			r.Get("/stats", app.statsHandler())

			r.Post("/council", councilHandler.Deliberate)
			r.Get("/council", councilHandler.Info)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Get("/{id}", sessionHandler.GetByID)
			})
		})
	})

	mountFrontend(r, config.FrontendDir(), logger)

	return app
}

// mountFrontend serves a built frontend when dir exists.
func mountFrontend(r chi.Router, dir string, logger *zap.Logger) {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		logger.Debug("frontend not found, skipping", zap.String("dir", dir))
		return
	}

	assets := http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(dir, "assets"))))
	r.Get("/assets/*", assets.ServeHTTP)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, index)
	})
	logger.Info("serving frontend", zap.String("dir", dir))
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(sessions domain.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := sessions.(pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"message": "LLM Council API",
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
		})
	}
}

func (app *App) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"council": map[string]any{
				"provider":           app.settings.Provider,
				"gateway_configured": app.gateway != nil,
				"members":            app.settings.Council.Members,
				"chairman":           app.settings.Council.Chairman,
			},
			"build":      buildconfig.VersionInfo(),
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and gateways satisfy interfaces at compile time.
var (
	_ domain.SessionStore = (*store.SessionStore)(nil)
	_ domain.SessionStore = (*store.FileSessionStore)(nil)
	_ domain.SessionStore = (*store.RedisSessionStore)(nil)
	_ domain.Gateway      = (*llm.OpenAIClient)(nil)
	_ domain.Gateway      = (*llm.AnthropicClient)(nil)
	_ domain.Gateway      = (*llm.GeminiClient)(nil)
	_ domain.Gateway      = (*llm.MockGateway)(nil)
	_ domain.Gateway      = (*llm.InstrumentedGateway)(nil)
)
