package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CONFIG_DIR", t.TempDir())
	for k, v := range env {
		t.Setenv(k, v)
	}
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"REAL_DEBRID_API_KEY": "test-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.RealDebridAPIKey)
	assert.Equal(t, 200, cfg.MovieFilesizeMinMB)
	assert.Equal(t, -1, cfg.MovieFilesizeMaxMB)
	assert.Equal(t, 40, cfg.EpisodeFilesizeMinMB)
	assert.Equal(t, 1000, cfg.TorrentListLimit)
	assert.Equal(t, 1, cfg.MagnetReadyDelaySeconds)
	assert.Equal(t, "http://search-api.torbox.app", cfg.TorBoxScraperURL)
	assert.Empty(t, cfg.MediafusionURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DatabaseFile)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	_, err := loadWithEnv(t, nil)
	assert.Error(t, err)
}

func TestLoadRejectsBadFilesizeBound(t *testing.T) {
	_, err := loadWithEnv(t, map[string]string{
		"REAL_DEBRID_API_KEY":   "test-key",
		"MOVIE_FILESIZE_MIN_MB": "-2",
	})
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveListLimit(t *testing.T) {
	_, err := loadWithEnv(t, map[string]string{
		"REAL_DEBRID_API_KEY": "test-key",
		"TORRENT_LIST_LIMIT":  "0",
	})
	assert.Error(t, err)
}

func TestLoadUnboundedSizes(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"REAL_DEBRID_API_KEY":     "test-key",
		"MOVIE_FILESIZE_MIN_MB":   "-1",
		"EPISODE_FILESIZE_MAX_MB": "-1",
	})
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.MovieFilesizeMinMB)
	assert.Equal(t, -1, cfg.EpisodeFilesizeMaxMB)
}
