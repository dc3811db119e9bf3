package realdebrid

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// User describes the authenticated account.
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Type       string `json:"type"` // "premium" or "free"
	Premium    int    `json:"premium"`
	Expiration string `json:"expiration"`
}

type addMagnetResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// TorrentFile is one entry of a torrent's file list.
type TorrentFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Selected int    `json:"selected"`
}

// TorrentInfo is the full torrent record, including file list and per-file
// selection flags.
type TorrentInfo struct {
	ID               string        `json:"id"`
	Filename         string        `json:"filename"`
	OriginalFilename string        `json:"original_filename"`
	Hash             string        `json:"hash"`
	Bytes            int64         `json:"bytes"`
	Status           string        `json:"status"`
	Progress         float64       `json:"progress"`
	Files            []TorrentFile `json:"files"`
}

// SelectedFiles returns only the files marked selected on the provider side.
func (t *TorrentInfo) SelectedFiles() []TorrentFile {
	var selected []TorrentFile
	for _, f := range t.Files {
		if f.Selected != 0 {
			selected = append(selected, f)
		}
	}
	return selected
}

// TorrentListItem is one row of the account torrent listing.
type TorrentListItem struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Bytes    int64  `json:"bytes"`
	Status   string `json:"status"`
	Added    string `json:"added"`
}

// CachedFile is one file of an instant-availability container, tagged with
// the provider file id needed for a later selectFiles call.
type CachedFile struct {
	ID   int
	Name string
	Size int64
}

// Container is one provider-reported set of cached files for an info-hash.
type Container []CachedFile

type availabilityEntry struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
}

// parseAvailability decodes the instant-availability payload. Hashes whose
// value is not dict-shaped (the provider reports an empty array for uncached
// hashes) are skipped, as are file entries with non-numeric ids. Containers
// keep the provider's listing order; files within a container are ordered by
// provider file id.
func parseAvailability(data []byte) (map[string][]Container, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	out := make(map[string][]Container)
	for hash, raw := range payload {
		var providers map[string][]map[string]availabilityEntry
		if err := json.Unmarshal(raw, &providers); err != nil {
			// Not dict-shaped: no availability for this hash.
			continue
		}

		providerNames := make([]string, 0, len(providers))
		for name := range providers {
			providerNames = append(providerNames, name)
		}
		sort.Strings(providerNames)

		var containers []Container
		for _, name := range providerNames {
			for _, entry := range providers[name] {
				container := make(Container, 0, len(entry))
				for idStr, file := range entry {
					id, err := strconv.Atoi(idStr)
					if err != nil {
						continue
					}
					container = append(container, CachedFile{
						ID:   id,
						Name: file.Filename,
						Size: file.Filesize,
					})
				}
				if len(container) == 0 {
					continue
				}
				sort.Slice(container, func(i, j int) bool {
					return container[i].ID < container[j].ID
				})
				containers = append(containers, container)
			}
		}
		if len(containers) > 0 {
			out[strings.ToLower(hash)] = containers
		}
	}
	return out, nil
}
