package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"compressd/compressor"
	"compressd/config"
	"compressd/delivery"
	"compressd/fetch"
	"compressd/history"
	"compressd/logger"
	"compressd/models"
	"compressd/notify"
	"compressd/progress"
	"compressd/routes"
	"compressd/scheduler"
)

func main() {
	logger.Info("Starting compressd server initialization")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Fatalf("Failed to create data directory: %v", err)
	}
	if err := os.MkdirAll(cfg.ServeDir, 0755); err != nil {
		logger.Fatalf("Failed to create serve directory: %v", err)
	}

	logger.Debug("Opening history database")
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logger.Fatalf("Failed to open history store: %v", err)
	}
	defer store.Close()
	logger.Info("History database opened successfully")

	logger.Debugf("Selecting notification backend: %s", cfg.NotifyBackend)
	notifier, err := notify.New(cfg)
	if err != nil {
		logger.Fatalf("Failed to create notifier: %v", err)
	}

	reporter := progress.NewReporter(notifier, cfg.FlushInterval, cfg.NotifyTimeout)
	defer reporter.Close()

	engine := compressor.New(cfg.Presets)
	resolver := fetch.NewResolver(cfg.MaxInputBytes)
	deliverer := delivery.NewWriter(cfg.ServeDir)

	sched := scheduler.New(scheduler.Options{
		Workers:      cfg.Workers,
		MaxQueue:     cfg.MaxQueue,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		CancelGrace:  cfg.CancelGrace,
		WorkDir:      cfg.WorkDir,
	}, engine, resolver, deliverer, store, reporter)

	sched.OnTerminal = func(job models.Job) {
		if err := notify.SendCallback(job); err != nil {
			logger.Errorf("Failed to send callback for job %s: %v", job.ID, err)
		}
	}

	logger.Info("Starting scheduler")
	sched.Start()
	defer sched.Stop()

	// periodic cleanup of old terminal records
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupRoutine(ctx, store)

	logger.Info("Registering HTTP routes")
	routes.Setup(cfg, sched, store)
	routes.Register()

	logger.Infof("compressd server starting on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, nil); err != nil {
		logger.Fatalf("Server failed to start: %v", err)
	}
}

// cleanupRoutine periodically drops terminal records older than 30 days.
func cleanupRoutine(ctx context.Context, store *history.Store) {
	logger.Info("Cleanup routine started - will run every 24 hours")
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup routine stopped due to context cancellation")
			return
		case <-ticker.C:
			maxAge := 30 * 24 * time.Hour
			removed, err := store.CleanupOlderThan(maxAge)
			if err != nil {
				logger.Errorf("Failed to cleanup old job records: %v", err)
				continue
			}
			logger.Infof("Cleaned up %d job records older than %v", removed, maxAge)
		}
	}
}
