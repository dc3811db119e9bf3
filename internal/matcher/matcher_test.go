package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMatcher(t *testing.T, movieMin, movieMax, epMin, epMax int) *Matcher {
	t.Helper()
	m, err := New(movieMin, movieMax, epMin, epMax)
	require.NoError(t, err)
	return m
}

func TestNewRejectsBadBounds(t *testing.T) {
	_, err := New(-2, -1, 40, -1)
	assert.Error(t, err)

	_, err = New(200, -1, 40, -5)
	assert.Error(t, err)

	// Max below min is a configuration error, not a silent empty gate.
	_, err = New(4000, 500, 40, -1)
	assert.Error(t, err)
}

func TestMatchMoviePicksFirstInListingOrder(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 40, -1)

	files := []File{
		{ID: 8, Name: "sample.mkv", Size: 50_000_000},
		{ID: 7, Name: "movie.mkv", Size: 2_000_000_000},
		{ID: 9, Name: "movie-alt.mkv", Size: 3_000_000_000},
	}

	res := m.MatchMovie(files)
	require.False(t, res.Empty())
	require.Len(t, res.Files, 1)
	assert.Equal(t, 7, res.Files[0].ID)
	assert.Equal(t, []int{7}, res.FileIDs())
}

func TestMatchMovieUnboundedMax(t *testing.T) {
	m := mustMatcher(t, 500, -1, 40, -1)

	res := m.MatchMovie([]File{{ID: 1, Name: "huge.mkv", Size: 90_000_000_000}})
	require.False(t, res.Empty())
	assert.Equal(t, 1, res.Files[0].ID)
}

func TestMatchMovieNothingPassesGate(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 40, -1)

	res := m.MatchMovie([]File{
		{ID: 1, Name: "sample.mkv", Size: 50_000_000},
		{ID: 2, Name: "movie.mkv", Size: 5_000_000_000},
	})
	assert.True(t, res.Empty())
}

func TestMatchMovieEmptyList(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 40, -1)
	assert.True(t, m.MatchMovie(nil).Empty())
}

func TestMatchMovieDeterministic(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 40, -1)
	files := []File{
		{ID: 3, Name: "a.mkv", Size: 1_000_000_000},
		{ID: 4, Name: "b.mkv", Size: 1_500_000_000},
	}

	first := m.MatchMovie(files)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.MatchMovie(files))
	}
}

func TestMatchEpisodeBySizeAndNumber(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 100, 3000)

	files := []File{
		{ID: 1, Name: "Show.S01E01.sample.mkv", Size: 10_000_000},
		{ID: 2, Name: "Show.S01E02.mkv", Size: 800_000_000},
		{ID: 3, Name: "Show.S01E01.mkv", Size: 700_000_000},
	}

	f, ok := m.MatchEpisode(files, 1, 1)
	require.True(t, ok)
	assert.Equal(t, 3, f.ID)
}

func TestMatchEpisodeSeasonMustAgree(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 100, -1)

	files := []File{
		{ID: 1, Name: "Show.S02E01.mkv", Size: 700_000_000},
	}

	_, ok := m.MatchEpisode(files, 1, 1)
	assert.False(t, ok)

	f, ok := m.MatchEpisode(files, 2, 1)
	require.True(t, ok)
	assert.Equal(t, 1, f.ID)
}

func TestMatchEpisodeUnparseableNamesExcluded(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 100, -1)

	files := []File{
		{ID: 1, Name: "extras.mkv", Size: 700_000_000},
	}

	_, ok := m.MatchEpisode(files, 1, 1)
	assert.False(t, ok)
}

func TestMatchEpisodesAllOrNothing(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 100, -1)

	files := []File{
		{ID: 1, Name: "Show.S01E01.mkv", Size: 700_000_000},
		{ID: 2, Name: "Show.S01E02.mkv", Size: 700_000_000},
	}
	required := []EpisodeKey{
		{Season: 1, Episode: 1},
		{Season: 1, Episode: 2},
		{Season: 1, Episode: 3},
	}

	// One required episode missing discards the whole result.
	assert.True(t, m.MatchEpisodes(files, required).Empty())

	res := m.MatchEpisodes(files, required[:2])
	require.False(t, res.Empty())
	assert.Equal(t, []int{1, 2}, res.FileIDs())
	assert.Equal(t, 1, res.Episodes[EpisodeKey{Season: 1, Episode: 1}].ID)
	assert.Equal(t, 2, res.Episodes[EpisodeKey{Season: 1, Episode: 2}].ID)
}

func TestMatchEpisodesDoubleEpisodeFileDeduped(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 100, -1)

	files := []File{
		{ID: 5, Name: "Show.S01E01-E02.mkv", Size: 1_400_000_000},
	}
	required := []EpisodeKey{
		{Season: 1, Episode: 1},
		{Season: 1, Episode: 2},
	}

	res := m.MatchEpisodes(files, required)
	require.False(t, res.Empty())
	assert.Equal(t, []int{5}, res.FileIDs())
	assert.Len(t, res.Episodes, 2)
}

func TestMatchEpisodesEmptyRequired(t *testing.T) {
	m := mustMatcher(t, 500, 4000, 100, -1)

	files := []File{{ID: 1, Name: "Show.S01E01.mkv", Size: 700_000_000}}
	assert.True(t, m.MatchEpisodes(files, nil).Empty())
}
