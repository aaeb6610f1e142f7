package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thumbgrid/internal/database"
	"thumbgrid/internal/filesystem"
	"thumbgrid/internal/handlers"
	"thumbgrid/internal/library"
	"thumbgrid/internal/logging"
	"thumbgrid/internal/memory"
	"thumbgrid/internal/middleware"
	"thumbgrid/internal/startup"
	"thumbgrid/internal/thumb"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

func main() {
	bootStart := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	memory.ConfigureFromEnv()

	if err := thumb.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go decoding: %v", err)
	}

	var index *database.DB
	if config.IndexEnabled {
		index, err = database.New(context.Background(), config.DatabaseDir)
		if err != nil {
			logging.Warn("capture time index unavailable: %v", err)
			index = nil
		} else if pruned, err := index.Prune(config.MediaDir); err != nil {
			logging.Warn("failed to prune capture index: %v", err)
		} else if pruned > 0 {
			logging.Info("Pruned %d stale capture index rows", pruned)
		}
	}

	cache := thumb.NewCache(config.CacheCapacity)
	sched := thumb.NewScheduler(config.DecodeWorkers, thumb.DefaultQueueDepth)
	decoder := thumb.NewDecoder()

	var meta library.MetaStore
	if index != nil {
		meta = index
	}
	enum := library.NewEnumerator(config.PageSize, meta)

	var watcher *filesystem.Watcher
	h := handlers.New(config, cache, sched, decoder, enum, index, func(dir string) {
		if watcher == nil {
			return
		}
		if err := watcher.SetDir(dir); err != nil {
			logging.Warn("failed to watch active folder: %v", err)
		}
	})

	watcher, err = filesystem.NewWatcher(h.InvalidateFolder)
	if err != nil {
		logging.Warn("file watching disabled: %v", err)
		watcher = nil
	}

	router := handlers.NewRouter(h)
	if config.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	router.Use(middleware.Logger(middleware.LoggingConfig{
		LogHealthChecks: config.LogHealthChecks,
	}))
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		startup.LogServerStarted(config.Port, time.Since(bootStart))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			startup.LogFatal("HTTP server failed: %v", err)
		}
	}()

	handleShutdown(srv, sched, watcher, index)
}

// handleShutdown blocks until SIGINT or SIGTERM, then tears the service
// down: stop admitting requests, stop the decode pool, release the watcher,
// the index, and libvips.
func handleShutdown(srv *http.Server, sched *thumb.Scheduler, watcher *filesystem.Watcher, index *database.DB) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	sig := <-stop
	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("HTTP shutdown did not finish cleanly: %v", err)
	}

	sched.Stop()

	if watcher != nil {
		if err := watcher.Close(); err != nil {
			logging.Warn("failed to close file watcher: %v", err)
		}
	}
	if index != nil {
		if err := index.Close(); err != nil {
			logging.Warn("failed to close capture time index: %v", err)
		}
	}

	thumb.ShutdownVips()
	startup.LogShutdownComplete()
}
