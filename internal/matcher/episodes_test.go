package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEpisodes(t *testing.T) {
	tests := []struct {
		name     string
		season   int
		episodes []int
	}{
		{"Show.S01E02.1080p.mkv", 1, []int{2}},
		{"show s01.e02 web-dl.mkv", 1, []int{2}},
		{"Show.S01E02-E04.mkv", 1, []int{2, 3, 4}},
		{"Show.S01E01E02.mkv", 1, []int{1, 2}},
		{"Show.S01E01E02E03.mkv", 1, []int{1, 2, 3}},
		{"Show.1x02.mkv", 1, []int{2}},
		{"Show.S2024E101.mkv", 0, nil}, // four-digit season is not a season marker
		{"Movie.2019.1080p.mkv", 0, nil},
		{"extras.mkv", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			season, episodes := ParseEpisodes(tt.name)
			if tt.episodes == nil {
				assert.Empty(t, episodes)
				return
			}
			assert.Equal(t, tt.season, season)
			assert.Equal(t, tt.episodes, episodes)
		})
	}
}

func TestParseEpisodesWideRangeNotExpanded(t *testing.T) {
	// E01-E99 spans more than any plausible single file; treat the endpoints
	// as two discrete numbers instead of expanding the range.
	season, episodes := ParseEpisodes("Show.S01E01-E99.mkv")
	assert.Equal(t, 1, season)
	assert.Equal(t, []int{1, 99}, episodes)
}

func TestParseEpisodesDedupes(t *testing.T) {
	_, episodes := ParseEpisodes("Show.S01E02E02.mkv")
	assert.Equal(t, []int{2}, episodes)
}
