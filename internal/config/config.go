package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Real-Debrid
	RealDebridAPIKey   string
	RealDebridProxyURL string

	// Filesize bounds in MB; -1 means unbounded
	MovieFilesizeMinMB   int
	MovieFilesizeMaxMB   int
	EpisodeFilesizeMinMB int
	EpisodeFilesizeMaxMB int

	// Download
	TorrentListLimit        int // Page size when scanning the account torrent list
	MagnetReadyDelaySeconds int // Wait after addMagnet before the file list is queryable

	// Scraping
	TorBoxScraperURL   string
	MediafusionURL     string // Empty disables the Mediafusion scraper
	ScraperTimeoutSecs int
	ScrapeCacheMinutes int

	// Scheduler
	ScrapeIntervalMinutes  int
	ResolveIntervalMinutes int

	// HTTP
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/debridarr.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("MOVIE_FILESIZE_MIN_MB", 200)
	viper.SetDefault("MOVIE_FILESIZE_MAX_MB", -1)
	viper.SetDefault("EPISODE_FILESIZE_MIN_MB", 40)
	viper.SetDefault("EPISODE_FILESIZE_MAX_MB", -1)
	viper.SetDefault("TORRENT_LIST_LIMIT", 1000)
	viper.SetDefault("MAGNET_READY_DELAY_SECONDS", 1)
	viper.SetDefault("TORBOX_SCRAPER_URL", "http://search-api.torbox.app")
	viper.SetDefault("SCRAPER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SCRAPE_CACHE_MINUTES", 30)
	viper.SetDefault("SCRAPE_INTERVAL_MINUTES", 60)
	viper.SetDefault("RESOLVE_INTERVAL_MINUTES", 30)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "debridarr")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		RealDebridAPIKey:   viper.GetString("REAL_DEBRID_API_KEY"),
		RealDebridProxyURL: viper.GetString("REAL_DEBRID_PROXY_URL"),

		MovieFilesizeMinMB:   viper.GetInt("MOVIE_FILESIZE_MIN_MB"),
		MovieFilesizeMaxMB:   viper.GetInt("MOVIE_FILESIZE_MAX_MB"),
		EpisodeFilesizeMinMB: viper.GetInt("EPISODE_FILESIZE_MIN_MB"),
		EpisodeFilesizeMaxMB: viper.GetInt("EPISODE_FILESIZE_MAX_MB"),

		TorrentListLimit:        viper.GetInt("TORRENT_LIST_LIMIT"),
		MagnetReadyDelaySeconds: viper.GetInt("MAGNET_READY_DELAY_SECONDS"),

		TorBoxScraperURL:   viper.GetString("TORBOX_SCRAPER_URL"),
		MediafusionURL:     viper.GetString("MEDIAFUSION_URL"),
		ScraperTimeoutSecs: viper.GetInt("SCRAPER_TIMEOUT_SECONDS"),
		ScrapeCacheMinutes: viper.GetInt("SCRAPE_CACHE_MINUTES"),

		ScrapeIntervalMinutes:  viper.GetInt("SCRAPE_INTERVAL_MINUTES"),
		ResolveIntervalMinutes: viper.GetInt("RESOLVE_INTERVAL_MINUTES"),

		ServerPort: viper.GetString("SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "debridarr.db"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.RealDebridAPIKey == "" {
		return fmt.Errorf("REAL_DEBRID_API_KEY is required")
	}

	bounds := map[string]int{
		"MOVIE_FILESIZE_MIN_MB":   c.MovieFilesizeMinMB,
		"MOVIE_FILESIZE_MAX_MB":   c.MovieFilesizeMaxMB,
		"EPISODE_FILESIZE_MIN_MB": c.EpisodeFilesizeMinMB,
		"EPISODE_FILESIZE_MAX_MB": c.EpisodeFilesizeMaxMB,
	}
	for name, value := range bounds {
		if value < -1 {
			return fmt.Errorf("%s must be -1 (unbounded) or a non-negative integer, got %d", name, value)
		}
	}

	if c.TorrentListLimit <= 0 {
		return fmt.Errorf("TORRENT_LIST_LIMIT must be positive, got %d", c.TorrentListLimit)
	}
	if c.MagnetReadyDelaySeconds < 0 {
		return fmt.Errorf("MAGNET_READY_DELAY_SECONDS must not be negative, got %d", c.MagnetReadyDelaySeconds)
	}
	if c.ScraperTimeoutSecs <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT_SECONDS must be positive, got %d", c.ScraperTimeoutSecs)
	}

	return nil
}
