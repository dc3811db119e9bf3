package scrapers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amaumene/debridarr/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// TorBox queries the TorBox search API by IMDB id.
type TorBox struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewTorBox creates a new TorBox scraper
func NewTorBox(baseURL string, timeout time.Duration, logger *logrus.Logger) *TorBox {
	return &TorBox{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Name returns the scraper identifier
func (t *TorBox) Name() string { return "torbox" }

type torboxResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Torrents []struct {
			Hash     string `json:"hash"`
			RawTitle string `json:"raw_title"`
		} `json:"torrents"`
	} `json:"data"`
}

// Scrape searches TorBox for the item and returns info-hash -> raw title.
// Transient failures are retried with exponential backoff; 4xx responses are
// not retried.
func (t *TorBox) Scrape(ctx context.Context, item models.MediaItem) (map[string]string, error) {
	if item.IMDB() == "" {
		return nil, fmt.Errorf("item %q has no IMDB id", item.LogString())
	}

	url := fmt.Sprintf("%s/torrents/imdb:%s?metadata=false%s", t.baseURL, item.IMDB(), t.buildQuery(item))

	var result torboxResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("torbox search returned status %d: %s", resp.StatusCode, string(body)))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("torbox search returned status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(&result)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	torrents := make(map[string]string, len(result.Data.Torrents))
	for _, torrent := range result.Data.Torrents {
		if torrent.Hash == "" || torrent.RawTitle == "" {
			continue
		}
		torrents[torrent.Hash] = torrent.RawTitle
	}

	t.logger.WithFields(logrus.Fields{
		"item":  item.LogString(),
		"count": len(torrents),
	}).Debug("TorBox search completed")

	return torrents, nil
}

// buildQuery maps the item variant onto the search API's extra query params.
func (t *TorBox) buildQuery(item models.MediaItem) string {
	switch it := item.(type) {
	case *models.Show:
		return "&season=1"
	case *models.Season:
		return fmt.Sprintf("&season=%d", it.Number)
	case *models.Episode:
		return fmt.Sprintf("&season=%d&episode=%d", it.SeasonNumber, it.Number)
	default:
		return ""
	}
}
