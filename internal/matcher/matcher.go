package matcher

import (
	"fmt"
	"math"
)

// File is a candidate file reported by the provider for one container,
// tagged with the provider-assigned file id so a later selectFiles call can
// reference it. Candidates are ephemeral and never persisted.
type File struct {
	ID   int
	Name string
	Size int64
}

// EpisodeKey identifies one required episode inside a season/show match.
type EpisodeKey struct {
	Season  int
	Episode int
}

// Result is the outcome of matching one media item against a candidate list.
// Files holds the matched files in provider listing order. Episodes carries
// which file satisfies which episode for season/show matches. An empty
// Result means the item is unsatisfiable with this candidate list.
type Result struct {
	Files    []File
	Episodes map[EpisodeKey]File
}

// Empty reports whether no file satisfied the item.
func (r Result) Empty() bool {
	return len(r.Files) == 0
}

// FileIDs returns the provider file ids of the matched files, in listing order.
func (r Result) FileIDs() []int {
	ids := make([]int, 0, len(r.Files))
	for _, f := range r.Files {
		ids = append(ids, f.ID)
	}
	return ids
}

// Bounds is a filesize gate in bytes.
type Bounds struct {
	Min int64
	Max int64
}

func (b Bounds) contains(size int64) bool {
	return size >= b.Min && size <= b.Max
}

// Matcher decides which candidate files satisfy a media item's requirement.
// It is pure: it never mutates the item or the candidate list, and identical
// inputs always yield identical output.
type Matcher struct {
	movie   Bounds
	episode Bounds
}

// New builds a Matcher from filesize bounds in MB, where -1 means unbounded.
// Values below -1 are a configuration error and prevent initialization.
func New(movieMinMB, movieMaxMB, episodeMinMB, episodeMaxMB int) (*Matcher, error) {
	movie, err := toBounds("movie", movieMinMB, movieMaxMB)
	if err != nil {
		return nil, err
	}
	episode, err := toBounds("episode", episodeMinMB, episodeMaxMB)
	if err != nil {
		return nil, err
	}
	return &Matcher{movie: movie, episode: episode}, nil
}

func toBounds(class string, minMB, maxMB int) (Bounds, error) {
	if minMB < -1 || maxMB < -1 {
		return Bounds{}, fmt.Errorf("%s filesize bounds must be -1 or non-negative, got min=%d max=%d", class, minMB, maxMB)
	}
	b := Bounds{Max: math.MaxInt64}
	if minMB > 0 {
		b.Min = int64(minMB) * 1_000_000
	}
	if maxMB != -1 {
		b.Max = int64(maxMB) * 1_000_000
	}
	if b.Max < b.Min {
		return Bounds{}, fmt.Errorf("%s filesize max (%d MB) is below min (%d MB)", class, maxMB, minMB)
	}
	return b, nil
}

// MatchMovie returns the first candidate passing the movie size gate as a
// one-element result. Multiple passing candidates are resolved by provider
// listing order, not ranked.
func (m *Matcher) MatchMovie(files []File) Result {
	for _, f := range files {
		if m.movie.contains(f.Size) {
			return Result{
				Files:    []File{f},
				Episodes: nil,
			}
		}
	}
	return Result{}
}

// MatchEpisode returns the first candidate that passes the episode size gate
// and whose filename parses to the given episode number. Files whose names
// cannot be parsed into episode numbers are excluded, not errors. A parsed
// season number must agree with the wanted season when both are known.
func (m *Matcher) MatchEpisode(files []File, season, episode int) (File, bool) {
	for _, f := range files {
		if !m.episode.contains(f.Size) {
			continue
		}
		parsedSeason, episodes := ParseEpisodes(f.Name)
		if len(episodes) == 0 {
			continue
		}
		if parsedSeason != 0 && season != 0 && parsedSeason != season {
			continue
		}
		for _, e := range episodes {
			if e == episode {
				return f, true
			}
		}
	}
	return File{}, false
}

// MatchEpisodes matches every required episode independently against the
// same candidate list. If any required episode has no match the whole result
// is empty; partial results are discarded, never returned.
func (m *Matcher) MatchEpisodes(files []File, required []EpisodeKey) Result {
	if len(required) == 0 {
		return Result{}
	}

	matched := make(map[EpisodeKey]File, len(required))
	for _, key := range required {
		f, ok := m.MatchEpisode(files, key.Season, key.Episode)
		if !ok {
			return Result{}
		}
		matched[key] = f
	}

	// Union of matched files, deduplicated, in provider listing order.
	wanted := make(map[int]bool, len(matched))
	for _, f := range matched {
		wanted[f.ID] = true
	}
	union := make([]File, 0, len(wanted))
	for _, f := range files {
		if wanted[f.ID] {
			union = append(union, f)
			delete(wanted, f.ID)
		}
	}

	return Result{Files: union, Episodes: matched}
}
