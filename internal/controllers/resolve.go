package controllers

import (
	"context"

	"github.com/amaumene/debridarr/internal/matcher"
	"github.com/amaumene/debridarr/internal/models"
	"github.com/amaumene/debridarr/internal/services/realdebrid"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// DebridClient is the slice of the provider API the controllers consume.
type DebridClient interface {
	GetInstantAvailability(ctx context.Context, hashes []string) (map[string][]realdebrid.Container, error)
	AddMagnet(ctx context.Context, infohash string) (string, error)
	GetTorrentInfo(ctx context.Context, torrentID string) (*realdebrid.TorrentInfo, error)
	SelectFiles(ctx context.Context, torrentID string, fileIDs []int) error
	GetTorrents(ctx context.Context, limit int) (map[string]realdebrid.TorrentListItem, error)
}

// CacheResolver turns a provider's raw instant-availability response and an
// item's requirements into verified hash-to-files matches.
type CacheResolver struct {
	client  DebridClient
	matcher *matcher.Matcher
	logger  *logrus.Logger
}

// NewCacheResolver creates a new cache resolver
func NewCacheResolver(client DebridClient, m *matcher.Matcher, logger *logrus.Logger) *CacheResolver {
	return &CacheResolver{
		client:  client,
		matcher: m,
		logger:  logger,
	}
}

// Resolve checks availability for every candidate hash in one bulk call,
// then matches each hash's containers against the item. The result holds at
// most one match per hash; a hash whose every container fails to match is
// excluded entirely. When stopAtFirst is set, the first hash with a match is
// returned alone. A failed availability call is returned as an error so the
// caller can treat it as "no availability this round" without condemning the
// streams.
func (r *CacheResolver) Resolve(ctx context.Context, item models.MediaItem, hashes []string, stopAtFirst bool) (map[string]matcher.Result, error) {
	matches := make(map[string]matcher.Result)

	availability, err := r.client.GetInstantAvailability(ctx, hashes)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"item":   item.LogString(),
			"hashes": len(hashes),
			"kind":   realdebrid.KindOf(err),
		}).Warn("Availability check failed")
		return nil, err
	}

	// Walk hashes in candidate order so stopAtFirst is deterministic.
	for _, hash := range hashes {
		containers, ok := availability[hash]
		if !ok {
			continue
		}
		for _, container := range containers {
			result := item.ResolveRequiredFiles(r.matcher, containerFiles(container))
			if result.Empty() {
				continue
			}

			matches[hash] = result
			r.logger.WithFields(logrus.Fields{
				"item":  item.LogString(),
				"hash":  hash,
				"files": len(result.Files),
				"size":  humanize.Bytes(uint64(totalSize(result.Files))),
			}).Debug("Cached container matches item")

			if stopAtFirst {
				return matches, nil
			}
			break // one match per hash
		}
	}

	return matches, nil
}

func containerFiles(container realdebrid.Container) []matcher.File {
	files := make([]matcher.File, 0, len(container))
	for _, f := range container {
		files = append(files, matcher.File{ID: f.ID, Name: f.Name, Size: f.Size})
	}
	return files
}

func totalSize(files []matcher.File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
