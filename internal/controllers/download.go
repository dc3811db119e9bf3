package controllers

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/amaumene/debridarr/internal/matcher"
	"github.com/amaumene/debridarr/internal/models"
	"github.com/amaumene/debridarr/internal/services/realdebrid"
	"github.com/sirupsen/logrus"
)

// ItemStore persists media item mutations (bindings, blacklist, status).
type ItemStore interface {
	UpdateItem(item models.MediaItem) error
}

// reuseState is the outcome of scanning the account for an existing torrent.
type reuseState int

const (
	reuseNone           reuseState = iota // No torrent with this hash on the account
	reuseReady                            // Selected files already satisfy the item
	reuseNeedsSelection                   // Torrent present but nothing selected yet
	reuseMismatch                         // Selected files do not satisfy the item
)

// Downloader drives a chosen info-hash through
// NOT_PRESENT -> MAGNET_ADDED -> FILES_SELECTED -> BOUND, reusing torrents
// already on the account and never re-adding or re-selecting work that is
// already done.
type Downloader struct {
	db               ItemStore
	client           DebridClient
	matcher          *matcher.Matcher
	resolver         *CacheResolver
	magnetReadyDelay time.Duration
	torrentListLimit int
	logger           *logrus.Logger
}

// NewDownloader creates a new download orchestrator
func NewDownloader(
	db ItemStore,
	client DebridClient,
	m *matcher.Matcher,
	resolver *CacheResolver,
	magnetReadyDelay time.Duration,
	torrentListLimit int,
	logger *logrus.Logger,
) *Downloader {
	return &Downloader{
		db:               db,
		client:           client,
		matcher:          m,
		resolver:         resolver,
		magnetReadyDelay: magnetReadyDelay,
		torrentListLimit: torrentListLimit,
		logger:           logger,
	}
}

// Run resolves the item's candidate streams with one bulk availability call
// and walks them in order. The first stream with a cached match is downloaded
// and bound; at most one binding happens per call. Streams with no usable
// match are blacklisted so a later pass never re-queries them. Returns whether
// a binding occurred.
func (d *Downloader) Run(ctx context.Context, item models.MediaItem) bool {
	var hashes []string
	for _, stream := range item.CandidateStreams() {
		if !item.IsStreamBlacklisted(stream.InfoHash) {
			hashes = append(hashes, stream.InfoHash)
		}
	}

	downloaded := false
	if len(hashes) > 0 {
		matches, err := d.resolver.Resolve(ctx, item, hashes, false)
		if err != nil {
			// Availability is unknown, not absent. Leave the streams alone
			// and let a later pass retry.
			return false
		}

		for _, hash := range hashes {
			result, ok := matches[hash]
			if !ok {
				d.logger.WithFields(logrus.Fields{
					"item": item.LogString(),
					"hash": hash,
				}).Debug("Blacklisting hash with no usable cached container")
				item.BlacklistStream(hash)
				continue
			}

			if downloaded {
				continue
			}

			d.logger.WithFields(logrus.Fields{
				"item": item.LogString(),
				"hash": hash,
			}).Info("Item has cached container, proceeding with download")

			if err := d.download(ctx, item, hash, result); err != nil {
				// Not blacklisted: availability was real, the mutation failed.
				// The next stream (or a later pass) may still succeed.
				d.logger.WithError(err).WithFields(logrus.Fields{
					"item": item.LogString(),
					"hash": hash,
				}).Error("Download failed, trying next stream")
				continue
			}

			downloaded = true
		}
	}

	d.updateStatus(item, downloaded)

	if err := d.db.UpdateItem(item); err != nil {
		d.logger.WithError(err).WithField("item", item.LogString()).Error("Failed to persist item")
	}

	return downloaded
}

func (d *Downloader) updateStatus(item models.MediaItem, downloaded bool) {
	root := item.Root()
	if downloaded {
		if root.Resolved() {
			root.SetCurrentStatus(models.StatusCompleted)
		}
		return
	}
	if len(item.CandidateStreams()) > 0 && d.allBlacklisted(item) {
		root.SetCurrentStatus(models.StatusFailed)
	}
}

func (d *Downloader) allBlacklisted(item models.MediaItem) bool {
	for _, stream := range item.CandidateStreams() {
		if !item.IsStreamBlacklisted(stream.InfoHash) {
			return false
		}
	}
	return true
}

// download ensures a torrent for the hash exists on the account, selects the
// matched files, and binds the resulting paths onto the item.
func (d *Downloader) download(ctx context.Context, item models.MediaItem, hash string, result matcher.Result) error {
	torrentID, state := d.findExisting(ctx, item, hash)

	switch state {
	case reuseReady:
		// Already downloaded with the right selection; bind without
		// re-adding or re-selecting.
		d.logger.WithFields(logrus.Fields{
			"item":       item.LogString(),
			"torrent_id": torrentID,
		}).Debug("Reusing existing torrent")
		return d.bind(ctx, item, torrentID, result)

	case reuseNeedsSelection:
		// A previous run added the magnet but died before selecting.
		d.logger.WithFields(logrus.Fields{
			"item":       item.LogString(),
			"torrent_id": torrentID,
		}).Info("Existing torrent has no selection, re-running file selection")
		if err := d.client.SelectFiles(ctx, torrentID, result.FileIDs()); err != nil {
			return fmt.Errorf("failed to select files on existing torrent %s: %w", torrentID, err)
		}
		return d.bind(ctx, item, torrentID, result)

	case reuseMismatch:
		return fmt.Errorf("existing torrent %s is selected for other files, not binding", torrentID)
	}

	torrentID, err := d.client.AddMagnet(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to add magnet: %w", err)
	}

	// The provider needs time to fetch torrent metadata before the file
	// list becomes queryable.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.magnetReadyDelay):
	}

	if err := d.client.SelectFiles(ctx, torrentID, result.FileIDs()); err != nil {
		// No retry here; the caller may move on to the next stream.
		return fmt.Errorf("failed to select files on torrent %s: %w", torrentID, err)
	}

	return d.bind(ctx, item, torrentID, result)
}

// findExisting scans the account's torrent list for the hash and classifies
// whether the torrent is reusable. Duplicate hashes on the account resolve to
// the provider's listing winner (see GetTorrents). Transient failures degrade
// to "not present": the add-magnet path still dedupes correctly on the next
// pass.
func (d *Downloader) findExisting(ctx context.Context, item models.MediaItem, hash string) (string, reuseState) {
	torrents, err := d.client.GetTorrents(ctx, d.torrentListLimit)
	if err != nil {
		d.logger.WithError(err).Warn("Failed to list account torrents")
		return "", reuseNone
	}

	torrent, ok := torrents[hash]
	if !ok {
		return "", reuseNone
	}

	info, err := d.client.GetTorrentInfo(ctx, torrent.ID)
	if err != nil {
		d.logger.WithError(err).WithField("torrent_id", torrent.ID).Warn("Failed to fetch torrent info")
		return "", reuseNone
	}
	if len(info.Files) == 0 {
		return "", reuseNone
	}

	selected := info.SelectedFiles()
	if len(selected) == 0 {
		return info.ID, reuseNeedsSelection
	}

	if result := item.ResolveRequiredFiles(d.matcher, torrentFiles(selected)); !result.Empty() {
		return info.ID, reuseReady
	}
	return info.ID, reuseMismatch
}

// bind fetches the final torrent info and writes folder/file metadata onto
// the target sub-items. The matched container is reused when present and
// re-derived from the torrent's file list otherwise.
func (d *Downloader) bind(ctx context.Context, item models.MediaItem, torrentID string, result matcher.Result) error {
	info, err := d.client.GetTorrentInfo(ctx, torrentID)
	if err != nil {
		return fmt.Errorf("failed to fetch torrent info for binding: %w", err)
	}

	if result.Empty() {
		result = item.ResolveRequiredFiles(d.matcher, torrentFiles(info.Files))
		if result.Empty() {
			return fmt.Errorf("torrent %s no longer satisfies %s", torrentID, item.LogString())
		}
	}

	item.ApplyBinding(result, info.Filename, info.OriginalFilename)

	d.logger.WithFields(logrus.Fields{
		"item":       item.LogString(),
		"torrent_id": torrentID,
		"folder":     info.Filename,
		"files":      len(result.Files),
	}).Info("Bound files to item")
	return nil
}

func torrentFiles(files []realdebrid.TorrentFile) []matcher.File {
	out := make([]matcher.File, 0, len(files))
	for _, f := range files {
		out = append(out, matcher.File{
			ID:   f.ID,
			Name: path.Base(f.Path),
			Size: f.Bytes,
		})
	}
	return out
}
