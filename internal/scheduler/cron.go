package scheduler

import (
	"context"
	"fmt"

	"github.com/amaumene/debridarr/internal/controllers"
	"github.com/amaumene/debridarr/internal/models"
	"github.com/amaumene/debridarr/internal/services/scrapers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron            *cron.Cron
	scraperSvc      *scrapers.Service
	downloader      *controllers.Downloader
	db              *models.Database
	scrapeInterval  int
	resolveInterval int
	logger          *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	scraperSvc *scrapers.Service,
	downloader *controllers.Downloader,
	db *models.Database,
	scrapeIntervalMinutes int,
	resolveIntervalMinutes int,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		scraperSvc:      scraperSvc,
		downloader:      downloader,
		db:              db,
		scrapeInterval:  scrapeIntervalMinutes,
		resolveInterval: resolveIntervalMinutes,
		logger:          logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", s.scrapeInterval), func() {
		s.runScrape()
	})
	if err != nil {
		return fmt.Errorf("failed to add scrape job: %w", err)
	}

	_, err = s.cron.AddFunc(fmt.Sprintf("@every %dm", s.resolveInterval), func() {
		s.runResolve()
	})
	if err != nil {
		return fmt.Errorf("failed to add resolve job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run an initial scrape and resolve immediately
	go func() {
		s.runScrape()
		s.runResolve()
	}()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runScrape collects candidate streams for every pending item and persists the
// ones that are new.
func (s *Scheduler) runScrape() {
	s.logger.Info("Running scheduled scrape")
	ctx := context.Background()

	items, err := s.db.GetPendingItems()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get pending items")
		return
	}

	if len(items) == 0 {
		s.logger.Debug("No pending items to scrape")
		return
	}

	for _, item := range items {
		torrents := s.scraperSvc.ScrapeItem(ctx, item)

		added := 0
		for hash, title := range torrents {
			if item.AddStream(models.Stream{InfoHash: hash, RawTitle: title}) {
				added++
			}
		}
		if added == 0 {
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"item":  item.LogString(),
			"added": added,
		}).Info("New streams for item")

		if err := s.db.UpdateItem(item); err != nil {
			s.logger.WithError(err).WithField("item", item.LogString()).Error("Failed to persist scraped streams")
		}
	}

	s.logger.Info("Scrape job completed")
}

// runResolve walks pending items through the cached-download pipeline.
func (s *Scheduler) runResolve() {
	s.logger.Info("Running scheduled resolve")
	ctx := context.Background()

	items, err := s.db.GetPendingItems()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get pending items")
		return
	}

	if len(items) == 0 {
		s.logger.Debug("No pending items to resolve")
		return
	}

	resolved := 0
	for _, item := range items {
		if len(item.CandidateStreams()) == 0 {
			continue
		}
		if s.downloader.Run(ctx, item) {
			resolved++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"items":    len(items),
		"resolved": resolved,
	}).Info("Resolve job completed")
}
