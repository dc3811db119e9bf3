// Package scrapers collects candidate streams (info-hash plus raw release
// title) for media items from external torrent search services. The
// downloader core only consumes the hash set; title parsing stays here.
package scrapers

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/debridarr/internal/config"
	"github.com/amaumene/debridarr/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Scraper produces a mapping of info-hash to raw title for one item.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, item models.MediaItem) (map[string]string, error)
}

// Service fans an item out to every configured scraper, merges the results
// and caches them so a resolve pass shortly after a scrape pass does not
// hammer the scraper APIs.
type Service struct {
	scrapers []Scraper
	cache    *gocache.Cache
	logger   *logrus.Logger
}

// NewService creates the scraper service from configuration. The TorBox
// scraper is always on; Mediafusion only when a URL is configured.
func NewService(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Service, error) {
	timeout := time.Duration(cfg.ScraperTimeoutSecs) * time.Second

	scrapers := []Scraper{
		NewTorBox(cfg.TorBoxScraperURL, timeout, logger),
	}

	if cfg.MediafusionURL != "" {
		mf, err := NewMediafusion(ctx, cfg, timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Mediafusion scraper: %w", err)
		}
		scrapers = append(scrapers, mf)
	}

	ttl := time.Duration(cfg.ScrapeCacheMinutes) * time.Minute

	return &Service{
		scrapers: scrapers,
		cache:    gocache.New(ttl, 2*ttl),
		logger:   logger,
	}, nil
}

// ScrapeItem returns merged scraper results for the item. A scraper failure
// is logged and skipped; the remaining scrapers still contribute.
func (s *Service) ScrapeItem(ctx context.Context, item models.MediaItem) map[string]string {
	key := cacheKey(item)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(map[string]string)
	}

	merged := make(map[string]string)
	for _, scraper := range s.scrapers {
		torrents, err := scraper.Scrape(ctx, item)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"scraper": scraper.Name(),
				"item":    item.LogString(),
			}).Warn("Scraper failed, skipping")
			continue
		}
		for hash, title := range torrents {
			if _, ok := merged[hash]; !ok {
				merged[hash] = title
			}
		}
	}

	if len(merged) > 0 {
		s.logger.WithFields(logrus.Fields{
			"item":    item.LogString(),
			"streams": len(merged),
		}).Info("Found streams for item")
	} else {
		s.logger.WithField("item", item.LogString()).Debug("No streams found for item")
	}

	s.cache.SetDefault(key, merged)
	return merged
}

func cacheKey(item models.MediaItem) string {
	return fmt.Sprintf("%s/%s/%s", item.Kind(), item.IMDB(), item.LogString())
}
