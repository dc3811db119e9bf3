package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/amaumene/debridarr/internal/matcher"
)

// MediaItem is the closed set of media variants the downloader operates on.
// Matching is dispatched through ResolveRequiredFiles instead of branching on
// a type tag; ApplyBinding is the only mutation point for folder/file fields.
type MediaItem interface {
	ItemID() uint64
	Kind() Kind
	IMDB() string
	LogString() string

	CandidateStreams() []Stream
	AddStream(Stream) bool
	IsStreamBlacklisted(infohash string) bool
	BlacklistStream(infohash string)

	CurrentStatus() Status
	SetCurrentStatus(Status)

	// Resolved reports whether the item's file binding is complete: a
	// movie/episode has a file, a season/show has every known episode bound.
	Resolved() bool

	// Root returns the stored root of the item's tree (the Show for a
	// Season/Episode, the item itself otherwise).
	Root() MediaItem

	// ResolveRequiredFiles returns the minimal subset of candidates that
	// satisfies this item, or an empty result. It never mutates the item.
	ResolveRequiredFiles(m *matcher.Matcher, files []matcher.File) matcher.Result

	// ApplyBinding writes folder/alternative folder/file metadata onto the
	// exact target sub-items for a confirmed match. Episodes without a match
	// are skipped rather than failing the item.
	ApplyBinding(res matcher.Result, folder, alternative string)
}

var (
	_ MediaItem = (*Movie)(nil)
	_ MediaItem = (*Show)(nil)
	_ MediaItem = (*Season)(nil)
	_ MediaItem = (*Episode)(nil)
)

// Meta holds the attributes common to every media variant.
type Meta struct {
	IMDBID            string
	Title             string
	Status            Status
	Streams           []Stream
	Blacklisted       []string // Info-hashes rejected for this item, terminal
	Folder            string
	AlternativeFolder string
	File              string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IMDB returns the item's IMDB identifier, empty for nested sub-items.
func (m *Meta) IMDB() string {
	return m.IMDBID
}

// CandidateStreams returns the item's candidate streams in scraper order.
func (m *Meta) CandidateStreams() []Stream {
	return m.Streams
}

// AddStream appends a stream unless its hash is already known (as a
// candidate or blacklisted). Returns whether the stream was added.
func (m *Meta) AddStream(s Stream) bool {
	hash := strings.ToLower(s.InfoHash)
	if hash == "" {
		return false
	}
	if m.IsStreamBlacklisted(hash) {
		return false
	}
	for _, existing := range m.Streams {
		if strings.EqualFold(existing.InfoHash, hash) {
			return false
		}
	}
	s.InfoHash = hash
	if s.AddedAt.IsZero() {
		s.AddedAt = time.Now()
	}
	m.Streams = append(m.Streams, s)
	return true
}

// IsStreamBlacklisted reports whether the hash was rejected for this item.
func (m *Meta) IsStreamBlacklisted(infohash string) bool {
	for _, h := range m.Blacklisted {
		if strings.EqualFold(h, infohash) {
			return true
		}
	}
	return false
}

// BlacklistStream marks the hash as rejected for this item. Terminal: the
// hash is never re-evaluated for this item. Idempotent.
func (m *Meta) BlacklistStream(infohash string) {
	if m.IsStreamBlacklisted(infohash) {
		return
	}
	m.Blacklisted = append(m.Blacklisted, strings.ToLower(infohash))
}

func (m *Meta) CurrentStatus() Status     { return m.Status }
func (m *Meta) SetCurrentStatus(s Status) { m.Status = s }

func (m *Meta) setBinding(folder, alternative, file string) {
	m.Folder = folder
	m.AlternativeFolder = alternative
	m.File = file
}

// Movie is a standalone media item with at most one confirmed file binding.
type Movie struct {
	ID uint64 `boltholdKey:"ID"`
	Meta
	Year int
}

func (m *Movie) ItemID() uint64  { return m.ID }
func (m *Movie) Kind() Kind      { return KindMovie }
func (m *Movie) Root() MediaItem { return m }

func (m *Movie) LogString() string {
	if m.Year > 0 {
		return fmt.Sprintf("%s (%d)", m.Title, m.Year)
	}
	return m.Title
}

func (m *Movie) Resolved() bool { return m.File != "" }

func (m *Movie) ResolveRequiredFiles(mt *matcher.Matcher, files []matcher.File) matcher.Result {
	return mt.MatchMovie(files)
}

func (m *Movie) ApplyBinding(res matcher.Result, folder, alternative string) {
	if res.Empty() {
		return
	}
	m.setBinding(folder, alternative, res.Files[0].Name)
}

// Show owns Seasons which own Episodes. The tree is stored as one record;
// child back-references are rebuilt by Wire after load.
type Show struct {
	ID uint64 `boltholdKey:"ID"`
	Meta
	Year    int
	Seasons []*Season
}

func (s *Show) ItemID() uint64  { return s.ID }
func (s *Show) Kind() Kind      { return KindShow }
func (s *Show) Root() MediaItem { return s }

func (s *Show) LogString() string { return s.Title }

// Wire rebuilds the non-owning parent references of the season/episode tree.
// Must be called after loading a Show from the store.
func (s *Show) Wire() {
	for _, season := range s.Seasons {
		season.show = s
		season.wire()
	}
}

// AddSeason appends a season and wires its back-reference.
func (s *Show) AddSeason(number int) *Season {
	season := &Season{Number: number, show: s}
	s.Seasons = append(s.Seasons, season)
	return season
}

func (s *Show) Resolved() bool {
	if len(s.Seasons) == 0 {
		return false
	}
	for _, season := range s.Seasons {
		if !season.Resolved() {
			return false
		}
	}
	return true
}

func (s *Show) requiredEpisodes() []matcher.EpisodeKey {
	var keys []matcher.EpisodeKey
	for _, season := range s.Seasons {
		keys = append(keys, season.requiredEpisodes()...)
	}
	return keys
}

func (s *Show) ResolveRequiredFiles(mt *matcher.Matcher, files []matcher.File) matcher.Result {
	return mt.MatchEpisodes(files, s.requiredEpisodes())
}

func (s *Show) ApplyBinding(res matcher.Result, folder, alternative string) {
	for _, season := range s.Seasons {
		season.ApplyBinding(res, folder, alternative)
	}
}

// Season groups the episodes of one show season.
type Season struct {
	Meta
	Number   int
	Episodes []*Episode

	show *Show
}

func (s *Season) ItemID() uint64 {
	if s.show != nil {
		return s.show.ID
	}
	return 0
}

func (s *Season) Kind() Kind { return KindSeason }

func (s *Season) IMDB() string {
	if s.IMDBID != "" {
		return s.IMDBID
	}
	if s.show != nil {
		return s.show.IMDBID
	}
	return ""
}

func (s *Season) Root() MediaItem {
	if s.show != nil {
		return s.show
	}
	return s
}

func (s *Season) LogString() string {
	title := s.Title
	if title == "" && s.show != nil {
		title = s.show.Title
	}
	return fmt.Sprintf("%s S%02d", title, s.Number)
}

func (s *Season) wire() {
	for _, e := range s.Episodes {
		e.season = s
		if e.SeasonNumber == 0 {
			e.SeasonNumber = s.Number
		}
	}
}

// AddEpisode appends an episode and wires its back-reference.
func (s *Season) AddEpisode(number int) *Episode {
	e := &Episode{Number: number, SeasonNumber: s.Number, season: s}
	s.Episodes = append(s.Episodes, e)
	return e
}

func (s *Season) Resolved() bool {
	if len(s.Episodes) == 0 {
		return false
	}
	for _, e := range s.Episodes {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

func (s *Season) requiredEpisodes() []matcher.EpisodeKey {
	keys := make([]matcher.EpisodeKey, 0, len(s.Episodes))
	for _, e := range s.Episodes {
		keys = append(keys, matcher.EpisodeKey{Season: s.Number, Episode: e.Number})
	}
	return keys
}

func (s *Season) ResolveRequiredFiles(mt *matcher.Matcher, files []matcher.File) matcher.Result {
	return mt.MatchEpisodes(files, s.requiredEpisodes())
}

func (s *Season) ApplyBinding(res matcher.Result, folder, alternative string) {
	for _, e := range s.Episodes {
		key := matcher.EpisodeKey{Season: s.Number, Episode: e.Number}
		if f, ok := res.Episodes[key]; ok {
			e.setBinding(folder, alternative, f.Name)
		}
	}
}

// Episode is a leaf item with at most one confirmed file binding.
type Episode struct {
	Meta
	SeasonNumber int
	Number       int

	season *Season
}

func (e *Episode) ItemID() uint64 {
	if e.season != nil {
		return e.season.ItemID()
	}
	return 0
}

func (e *Episode) Kind() Kind { return KindEpisode }

func (e *Episode) IMDB() string {
	if e.IMDBID != "" {
		return e.IMDBID
	}
	if e.season != nil {
		return e.season.IMDB()
	}
	return ""
}

func (e *Episode) Root() MediaItem {
	if e.season != nil {
		return e.season.Root()
	}
	return e
}

func (e *Episode) LogString() string {
	title := e.Title
	if title == "" && e.season != nil {
		title = e.season.LogString()
		return fmt.Sprintf("%s E%02d", title, e.Number)
	}
	return fmt.Sprintf("%s S%02dE%02d", title, e.SeasonNumber, e.Number)
}

func (e *Episode) Resolved() bool { return e.File != "" }

func (e *Episode) ResolveRequiredFiles(mt *matcher.Matcher, files []matcher.File) matcher.Result {
	f, ok := mt.MatchEpisode(files, e.SeasonNumber, e.Number)
	if !ok {
		return matcher.Result{}
	}
	key := matcher.EpisodeKey{Season: e.SeasonNumber, Episode: e.Number}
	return matcher.Result{
		Files:    []matcher.File{f},
		Episodes: map[matcher.EpisodeKey]matcher.File{key: f},
	}
}

func (e *Episode) ApplyBinding(res matcher.Result, folder, alternative string) {
	if res.Empty() {
		return
	}
	e.setBinding(folder, alternative, res.Files[0].Name)
}
