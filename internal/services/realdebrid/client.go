package realdebrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/debridarr/internal/config"
	"github.com/amaumene/debridarr/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

const apiBaseURL = "https://api.real-debrid.com/rest/1.0"

// Client issues authenticated, rate-limited calls against the Real-Debrid
// API. Torrent-scoped endpoints acquire both the per-endpoint and the overall
// account budget before every call; the limiters are shared by reference with
// every other flow hitting the same account.
type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	torrentsLimiter *ratelimit.Limiter
	overallLimiter  *ratelimit.Limiter
	logger          *logrus.Logger
}

// NewClient creates a new Real-Debrid client. The limiters are owned by the
// caller so that every client call site shares the same window state.
func NewClient(cfg *config.Config, torrentsLimiter, overallLimiter *ratelimit.Limiter, logger *logrus.Logger) (*Client, error) {
	if cfg.RealDebridAPIKey == "" {
		return nil, fmt.Errorf("Real-Debrid API key is required")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.RealDebridProxyURL != "" {
		proxyURL, err := url.Parse(cfg.RealDebridProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &Client{
		apiKey:          cfg.RealDebridAPIKey,
		baseURL:         apiBaseURL,
		httpClient:      httpClient,
		torrentsLimiter: torrentsLimiter,
		overallLimiter:  overallLimiter,
		logger:          logger,
	}, nil
}

// do performs one authenticated call. torrentScoped calls acquire the strict
// per-endpoint budget on top of the overall one.
func (c *Client) do(ctx context.Context, op, method, path string, form url.Values, torrentScoped bool) ([]byte, error) {
	limiters := []*ratelimit.Limiter{c.overallLimiter}
	if torrentScoped {
		limiters = []*ratelimit.Limiter{c.torrentsLimiter, c.overallLimiter}
	}
	if err := ratelimit.WaitAll(ctx, limiters...); err != nil {
		return nil, &Failure{Kind: KindUnknown, Op: op, Err: err}
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Failure{Kind: KindUnknown, Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Kind: KindUnknown, Op: op, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Failure{Kind: KindAuthFailure, Op: op, Status: resp.StatusCode, Err: errors.New(string(data))}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Failure{Kind: KindRateLimited, Op: op, Status: resp.StatusCode, Err: errors.New(string(data))}
	case resp.StatusCode >= 400:
		return nil, &Failure{Kind: KindUnknown, Op: op, Status: resp.StatusCode, Err: errors.New(string(data))}
	}

	return data, nil
}

func classifyTransportError(op string, err error) *Failure {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: KindTimeout, Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Failure{Kind: KindUnknown, Op: op, Err: err}
}

// GetUser fetches the authenticated account.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	data, err := c.do(ctx, "get_user", http.MethodGet, "/user", nil, false)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, &Failure{Kind: KindMalformedResponse, Op: "get_user", Err: err}
	}
	return &user, nil
}

// ValidateAccount checks that the account is premium and logs how long it has
// left. A non-premium account is a configuration error.
func (c *Client) ValidateAccount(ctx context.Context) error {
	user, err := c.GetUser(ctx)
	if err != nil {
		return err
	}
	if user.Type != "premium" || user.Premium <= 0 {
		return fmt.Errorf("real-debrid account %q is not premium", user.Username)
	}

	if expiration, err := time.Parse(time.RFC3339, user.Expiration); err == nil {
		c.logger.WithFields(logrus.Fields{
			"username":  user.Username,
			"days_left": int(time.Until(expiration).Hours() / 24),
		}).Info("Real-Debrid account validated")
	}
	return nil
}

// GetInstantAvailability performs the bulk availability check for the given
// hashes. Calling it with an empty set is a caller error: it is signaled and
// logged, and no network call is issued.
func (c *Client) GetInstantAvailability(ctx context.Context, hashes []string) (map[string][]Container, error) {
	if len(hashes) == 0 {
		c.logger.Error("Instant availability requested with no hashes")
		return nil, ErrNoHashes
	}

	path := "/torrents/instantAvailability/" + strings.Join(hashes, "/")
	data, err := c.do(ctx, "instant_availability", http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}

	availability, err := parseAvailability(data)
	if err != nil {
		return nil, &Failure{Kind: KindMalformedResponse, Op: "instant_availability", Err: err}
	}
	return availability, nil
}

// AddMagnet adds a magnet built from the info-hash and returns the provider
// torrent id. The client does not dedupe; callers must run the reuse check
// first if they care about duplicates.
func (c *Client) AddMagnet(ctx context.Context, infohash string) (string, error) {
	form := url.Values{}
	form.Set("magnet", fmt.Sprintf("magnet:?xt=urn:btih:%s&dn=&tr=", infohash))

	data, err := c.do(ctx, "add_magnet", http.MethodPost, "/torrents/addMagnet", form, true)
	if err != nil {
		return "", err
	}

	var resp addMagnetResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &Failure{Kind: KindMalformedResponse, Op: "add_magnet", Err: err}
	}
	if resp.ID == "" {
		return "", &Failure{Kind: KindMalformedResponse, Op: "add_magnet", Err: errors.New("response carries no torrent id")}
	}
	return resp.ID, nil
}

// GetTorrentInfo fetches the full torrent record including file list and
// selection flags.
func (c *Client) GetTorrentInfo(ctx context.Context, torrentID string) (*TorrentInfo, error) {
	if torrentID == "" {
		return nil, &Failure{Kind: KindUnknown, Op: "torrent_info", Err: errors.New("empty torrent id")}
	}

	data, err := c.do(ctx, "torrent_info", http.MethodGet, "/torrents/info/"+torrentID, nil, true)
	if err != nil {
		return nil, err
	}

	var info TorrentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, &Failure{Kind: KindMalformedResponse, Op: "torrent_info", Err: err}
	}
	return &info, nil
}

// SelectFiles marks the given file ids for download on the torrent.
func (c *Client) SelectFiles(ctx context.Context, torrentID string, fileIDs []int) error {
	ids := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		ids = append(ids, strconv.Itoa(id))
	}
	form := url.Values{}
	form.Set("files", strings.Join(ids, ","))

	_, err := c.do(ctx, "select_files", http.MethodPost, "/torrents/selectFiles/"+torrentID, form, true)
	return err
}

// GetTorrents lists the account's torrents keyed by info-hash. If the
// provider returns duplicate hashes the most recently returned entry wins.
func (c *Client) GetTorrents(ctx context.Context, limit int) (map[string]TorrentListItem, error) {
	data, err := c.do(ctx, "list_torrents", http.MethodGet, "/torrents?limit="+strconv.Itoa(limit), nil, true)
	if err != nil {
		return nil, err
	}

	var torrents []TorrentListItem
	if err := json.Unmarshal(data, &torrents); err != nil {
		return nil, &Failure{Kind: KindMalformedResponse, Op: "list_torrents", Err: err}
	}

	byHash := make(map[string]TorrentListItem, len(torrents))
	for _, t := range torrents {
		byHash[strings.ToLower(t.Hash)] = t
	}
	return byHash, nil
}
