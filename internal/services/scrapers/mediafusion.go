package scrapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/debridarr/internal/config"
	"github.com/amaumene/debridarr/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Mediafusion queries a Mediafusion stremio addon. The addon requires user
// preferences to be encrypted once up front; the encrypted token becomes part
// of every stream URL.
type Mediafusion struct {
	baseURL    string
	encrypted  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewMediafusion creates the scraper and performs the one-time
// encrypt-user-data handshake.
func NewMediafusion(ctx context.Context, cfg *config.Config, timeout time.Duration, logger *logrus.Logger) (*Mediafusion, error) {
	m := &Mediafusion{
		baseURL: strings.TrimRight(cfg.MediafusionURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}

	payload := map[string]interface{}{
		"sp": map[string]interface{}{
			"sv":  "realdebrid",
			"tk":  cfg.RealDebridAPIKey,
			"ewc": false,
		},
		"sr":  []string{"4k", "2160p", "1440p", "1080p", "720p", "480p"},
		"ec":  false,
		"eim": false,
		"tsp": []string{"cached"},
		"nf":  []string{"Disable"},
		"cf":  []string{"Disable"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/encrypt-user-data", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt user data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("encrypt-user-data returned status %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		EncryptedStr string `json:"encrypted_str"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode encrypt-user-data response: %w", err)
	}
	if result.EncryptedStr == "" {
		return nil, fmt.Errorf("encrypt-user-data returned an empty token")
	}

	m.encrypted = result.EncryptedStr
	return m, nil
}

// Name returns the scraper identifier
func (m *Mediafusion) Name() string { return "mediafusion" }

type mediafusionResponse struct {
	Streams []struct {
		InfoHash    string `json:"infoHash"`
		Description string `json:"description"`
	} `json:"streams"`
}

// Scrape fetches the addon's stream list for the item.
func (m *Mediafusion) Scrape(ctx context.Context, item models.MediaItem) (map[string]string, error) {
	if item.IMDB() == "" {
		return nil, fmt.Errorf("item %q has no IMDB id", item.LogString())
	}

	url := fmt.Sprintf("%s/%s/stream/%s.json", m.baseURL, m.encrypted, m.streamPath(item))

	var result mediafusionResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			data, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("mediafusion returned status %d: %s", resp.StatusCode, string(data)))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("mediafusion returned status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(&result)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	torrents := make(map[string]string, len(result.Streams))
	for _, stream := range result.Streams {
		if stream.InfoHash == "" {
			continue
		}
		title := stream.Description
		if idx := strings.IndexByte(title, '\n'); idx >= 0 {
			title = title[:idx]
		}
		torrents[stream.InfoHash] = title
	}

	m.logger.WithFields(logrus.Fields{
		"item":  item.LogString(),
		"count": len(torrents),
	}).Debug("Mediafusion search completed")

	return torrents, nil
}

// streamPath maps the item variant onto the stremio stream path.
func (m *Mediafusion) streamPath(item models.MediaItem) string {
	imdb := item.IMDB()
	switch it := item.(type) {
	case *models.Show:
		return fmt.Sprintf("series/%s:1:1", imdb)
	case *models.Season:
		return fmt.Sprintf("series/%s:%d:1", imdb, it.Number)
	case *models.Episode:
		return fmt.Sprintf("series/%s:%d:%d", imdb, it.SeasonNumber, it.Number)
	default:
		return "movie/" + imdb
	}
}
