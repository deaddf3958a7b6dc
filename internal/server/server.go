package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Vasilis92/Spotify-Alarm/internal/alarm"
	"github.com/Vasilis92/Spotify-Alarm/internal/api"
	"github.com/Vasilis92/Spotify-Alarm/internal/config"
	"github.com/Vasilis92/Spotify-Alarm/internal/db"
	"github.com/Vasilis92/Spotify-Alarm/internal/history"
	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
	"github.com/Vasilis92/Spotify-Alarm/internal/playback"
	"github.com/Vasilis92/Spotify-Alarm/internal/spotify"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLoggerMiddleware logs all incoming HTTP requests with their
// correlation id. Runs after RequestIDMiddleware.
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s [%s]", r.Method, r.URL.Path, wrapped.status,
			time.Since(start).Round(time.Millisecond), api.RequestID(r))
	})
}

// Options controls server wiring.
type Options struct {
	// DisableScheduler keeps the tick driver off (tests drive Tick directly).
	DisableScheduler bool
	// DisableAutoLaunch suppresses desktop app launching regardless of config.
	DisableAutoLaunch bool
}

// New builds the HTTP handler around an authenticated player controller
// and returns a shutdown function.
func New(cfg config.Config, controller spotify.Controller, options Options) (http.Handler, func(context.Context) error, error) {
	log.Printf("Using history database: %s", cfg.SQLiteDBPath)
	dbPair, err := db.Init(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := alarm.NewStore(cfg.AlarmsPath, nil)
	if err != nil {
		dbPair.Close()
		return nil, nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(api.RequestIDMiddleware)
	router.Use(requestLoggerMiddleware)
	router.Use(api.RecovererMiddleware)

	registerHealthRoutes(router)

	var launch func()
	if cfg.AutoLaunch && !options.DisableAutoLaunch {
		launch = func() { spotify.LaunchDesktopApp(nil) }
	}

	resolver := spotify.NewResolver(controller, launch, nil)
	orchestrator := playback.NewOrchestrator(controller, resolver, nil)

	notifier := notify.NewNotifier(64, nil)
	hub := notify.NewHub(nil)
	notify.RegisterRoutes(router, hub)

	historyService := history.NewService(dbPair, cfg.HistoryRetentionDays, nil)
	history.RegisterRoutes(router, historyService)
	historyService.StartPruneJob()

	// A worker may launch the app, resolve with one re-fetch and retry the
	// start call once, so its budget is several API timeouts.
	workerBudget := 4 * time.Duration(cfg.SpotifyTimeoutMs) * time.Millisecond
	executor := alarm.NewExecutor(orchestrator, notifier, cfg.DefaultURI,
		cfg.AutoLaunch && !options.DisableAutoLaunch, launch, workerBudget, nil)

	pool := alarm.NewPool(cfg.DispatchWorkers, cfg.DispatchQueueSize, executor.Run, nil)
	pool.Start()

	scheduler := alarm.NewScheduler(store, pool, nil)
	if !options.DisableScheduler {
		scheduler.Start()
	}

	alarm.RegisterRoutes(router, store, pool)
	spotify.RegisterRoutes(router, controller, executor)

	// Single consumer for worker results: history, then websocket fan-out.
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		notify.Consume(notifier.Events(), historyService, hub)
	}()

	shutdown := func(ctx context.Context) error {
		scheduler.Stop()
		pool.Stop()
		notifier.Close()
		<-consumerDone
		hub.Close()
		historyService.StopPruneJob()
		if ctx == nil {
			ctx = context.Background()
		}
		return dbPair.Close()
	}

	return router, shutdown, nil
}

func registerHealthRoutes(router chi.Router) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "spotify-alarm",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
}
