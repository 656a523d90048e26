package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	CatalogURL string
	RepoPrefix string
	PageSuffix string
	NextMarker string
	PlayURL    string

	DownloadRoot string
	OnlyApp      string

	MaxPages         int
	VisitedCacheSize int
	Timeout          time.Duration
	UserAgent        string

	RetryIncomplete bool
	ReviewPhrases   []string

	Verbose     bool
	LogFile     string
	MetricsAddr string
}

// DefaultConfig returns defaults matching the f-droid browse index.
func DefaultConfig() *Config {
	return &Config{
		CatalogURL:       "https://f-droid.org/repository/browse/",
		RepoPrefix:       "https://f-droid.org/repository/browse/?fdid=",
		PageSuffix:       "&fdpage=",
		NextMarker:       "next>",
		PlayURL:          "https://play.google.com/store/apps/details?id=",
		DownloadRoot:     "downloads",
		MaxPages:         1000,
		VisitedCacheSize: 4096,
		Timeout:          10 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		ReviewPhrases:    []string{"crash", "bug", "ads", "slow", "battery", "love", "great"},
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.CatalogURL == "" {
		return fmt.Errorf("catalog URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.CatalogURL)
	if err != nil {
		return fmt.Errorf("invalid catalog URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("catalog URL must include a host")
	}
	if c.RepoPrefix == "" {
		return fmt.Errorf("repo prefix cannot be empty")
	}
	if c.PageSuffix == "" {
		return fmt.Errorf("page suffix cannot be empty")
	}
	if c.NextMarker == "" {
		return fmt.Errorf("next-page marker cannot be empty")
	}
	if c.PlayURL == "" {
		return fmt.Errorf("play URL cannot be empty")
	}
	if c.DownloadRoot == "" {
		return fmt.Errorf("download root cannot be empty")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.VisitedCacheSize <= 0 {
		return fmt.Errorf("visited cache size must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// EnvString reads an environment variable, reporting whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return value, ok
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}
