package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amaumene/debridarr/internal/api"
	"github.com/amaumene/debridarr/internal/config"
	"github.com/amaumene/debridarr/internal/controllers"
	"github.com/amaumene/debridarr/internal/matcher"
	"github.com/amaumene/debridarr/internal/models"
	"github.com/amaumene/debridarr/internal/ratelimit"
	"github.com/amaumene/debridarr/internal/scheduler"
	"github.com/amaumene/debridarr/internal/services/realdebrid"
	"github.com/amaumene/debridarr/internal/services/scrapers"
	"github.com/amaumene/debridarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Debridarr")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize Real-Debrid client. The limiters match the provider's
	// published budgets: 1/s on the torrents endpoints, 60/min overall.
	torrentsLimiter := ratelimit.New(1, time.Second)
	overallLimiter := ratelimit.New(60, time.Minute)

	rdClient, err := realdebrid.NewClient(cfg, torrentsLimiter, overallLimiter, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Real-Debrid client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdClient.ValidateAccount(ctx); err != nil {
		return fmt.Errorf("failed to validate Real-Debrid account: %w", err)
	}
	logger.Info("Real-Debrid client initialized")

	// 5. Initialize scrapers
	scraperSvc, err := scrapers.NewService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scrapers: %w", err)
	}
	logger.Info("Scrapers initialized")

	// 6. Initialize matching and download pipeline
	m, err := matcher.New(
		cfg.MovieFilesizeMinMB,
		cfg.MovieFilesizeMaxMB,
		cfg.EpisodeFilesizeMinMB,
		cfg.EpisodeFilesizeMaxMB,
	)
	if err != nil {
		return fmt.Errorf("failed to build file matcher: %w", err)
	}

	resolver := controllers.NewCacheResolver(rdClient, m, logger)
	downloader := controllers.NewDownloader(
		db,
		rdClient,
		m,
		resolver,
		time.Duration(cfg.MagnetReadyDelaySeconds)*time.Second,
		cfg.TorrentListLimit,
		logger,
	)
	logger.Info("Controllers initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(scraperSvc, downloader, db, cfg.ScrapeIntervalMinutes, cfg.ResolveIntervalMinutes, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, logger)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Debridarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Debridarr stopped")
	return nil
}
