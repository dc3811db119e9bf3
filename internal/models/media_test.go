package models

import (
	"testing"

	"github.com/amaumene/debridarr/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStreamDedupesAndLowercases(t *testing.T) {
	movie := &Movie{Meta: Meta{Title: "Some Movie"}}

	assert.True(t, movie.AddStream(Stream{InfoHash: "AAAA1111"}))
	assert.False(t, movie.AddStream(Stream{InfoHash: "aaaa1111"}))
	assert.False(t, movie.AddStream(Stream{InfoHash: ""}))

	require.Len(t, movie.CandidateStreams(), 1)
	assert.Equal(t, "aaaa1111", movie.CandidateStreams()[0].InfoHash)
}

func TestAddStreamRejectsBlacklistedHash(t *testing.T) {
	movie := &Movie{Meta: Meta{Title: "Some Movie"}}
	movie.BlacklistStream("AAAA1111")

	assert.False(t, movie.AddStream(Stream{InfoHash: "aaaa1111"}))
	assert.True(t, movie.IsStreamBlacklisted("AAAA1111"))
	assert.True(t, movie.IsStreamBlacklisted("aaaa1111"))
}

func TestBlacklistStreamIdempotent(t *testing.T) {
	movie := &Movie{Meta: Meta{Title: "Some Movie"}}
	movie.BlacklistStream("aaaa1111")
	movie.BlacklistStream("aaaa1111")
	assert.Len(t, movie.Blacklisted, 1)
}

func TestShowTreeWiring(t *testing.T) {
	show := &Show{ID: 1, Meta: Meta{IMDBID: "tt1234567", Title: "Some Show"}}
	season := show.AddSeason(2)
	episode := season.AddEpisode(3)

	assert.Equal(t, uint64(1), season.ItemID())
	assert.Equal(t, uint64(1), episode.ItemID())
	assert.Equal(t, "tt1234567", season.IMDB())
	assert.Equal(t, "tt1234567", episode.IMDB())
	assert.Same(t, show, season.Root())
	assert.Same(t, show, episode.Root())
	assert.Equal(t, 2, episode.SeasonNumber)
}

func TestWireRebuildsBackReferences(t *testing.T) {
	// Simulate a tree loaded from the store: children present, parents nil.
	show := &Show{ID: 1, Meta: Meta{IMDBID: "tt1234567", Title: "Some Show"}}
	show.Seasons = []*Season{
		{Number: 1, Episodes: []*Episode{{Number: 1}, {Number: 2}}},
	}

	show.Wire()

	season := show.Seasons[0]
	assert.Same(t, show, season.Root())
	for _, e := range season.Episodes {
		assert.Same(t, show, e.Root())
		assert.Equal(t, 1, e.SeasonNumber)
	}
}

func TestResolvedRequiresEveryEpisode(t *testing.T) {
	show := &Show{ID: 1, Meta: Meta{Title: "Some Show"}}
	season := show.AddSeason(1)
	e1 := season.AddEpisode(1)
	e2 := season.AddEpisode(2)

	assert.False(t, show.Resolved())

	e1.File = "Show.S01E01.mkv"
	assert.False(t, show.Resolved())

	e2.File = "Show.S01E02.mkv"
	assert.True(t, show.Resolved())
}

func TestResolvedEmptyTreeIsNotResolved(t *testing.T) {
	show := &Show{ID: 1, Meta: Meta{Title: "Some Show"}}
	assert.False(t, show.Resolved())

	season := show.AddSeason(1)
	assert.False(t, season.Resolved())
}

func TestSeasonApplyBindingSkipsUnmatchedEpisodes(t *testing.T) {
	show := &Show{ID: 1, Meta: Meta{Title: "Some Show"}}
	season := show.AddSeason(1)
	season.AddEpisode(1)
	season.AddEpisode(2)

	f := matcher.File{ID: 1, Name: "Show.S01E01.mkv", Size: 700_000_000}
	res := matcher.Result{
		Files:    []matcher.File{f},
		Episodes: map[matcher.EpisodeKey]matcher.File{{Season: 1, Episode: 1}: f},
	}
	season.ApplyBinding(res, "folder", "alt")

	assert.Equal(t, "Show.S01E01.mkv", season.Episodes[0].File)
	assert.Equal(t, "folder", season.Episodes[0].Folder)
	assert.Empty(t, season.Episodes[1].File)
}

func TestMovieApplyBindingIgnoresEmptyResult(t *testing.T) {
	movie := &Movie{Meta: Meta{Title: "Some Movie"}}
	movie.ApplyBinding(matcher.Result{}, "folder", "alt")
	assert.Empty(t, movie.File)
	assert.Empty(t, movie.Folder)
}

func TestLogStrings(t *testing.T) {
	movie := &Movie{Meta: Meta{Title: "Some Movie"}, Year: 2020}
	assert.Equal(t, "Some Movie (2020)", movie.LogString())

	show := &Show{Meta: Meta{Title: "Some Show"}}
	season := show.AddSeason(1)
	episode := season.AddEpisode(2)
	assert.Equal(t, "Some Show S01", season.LogString())
	assert.Equal(t, "Some Show S01 E02", episode.LogString())
}
