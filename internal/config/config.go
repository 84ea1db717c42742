package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Telegram settings
	BotToken    string
	Channel     string // target channel (@name or numeric chat id)
	LogsChannel string // audit channel for title-change diffs

	// Storage settings
	DatabasePath string
	ImagesDir    string
	FallbackImg  string
	KeepArticles int // retention: most recent N records survive pruning

	// Site settings (overridable via yaml file, see Site)
	Site Site

	// Gemini settings (optional; empty key disables explanations)
	GeminiAPIKey string

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	PollInterval   time.Duration
	CleanInterval  time.Duration
}

// Site describes the single monitored news site.
type Site struct {
	FeedURL            string   `yaml:"feed_url"`
	LinkPrefix         string   `yaml:"link_prefix"`
	ExcludedCategories []string `yaml:"excluded_categories"`
	RegionMarker       string   `yaml:"region_marker"`
	RegionTag          string   `yaml:"region_tag"`
	UserAgent          string   `yaml:"user_agent"`
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Channel:        "@ildolomitinews",
		LogsChannel:    "-1001626800013",
		KeepArticles:   200,
		RequestTimeout: 10 * time.Second,
		PollInterval:   9 * time.Minute,
		CleanInterval:  24 * time.Hour,
		Site: Site{
			FeedURL:            "https://www.ildolomiti.it/rss.xml",
			LinkPrefix:         "https://www.ildolomiti.it/",
			ExcludedCategories: []string{"blog", "necrologi", "video"},
			RegionMarker:       `section="BELLUNO"`,
			RegionTag:          "belluno",
			UserAgent:          "Il Dolomiti Telegram (+https://github.com/dolomitibot/dolomitibot)",
		},
	}

	// Load from environment
	cfg.BotToken = os.Getenv("BOT_TOKEN")
	cfg.Channel = getEnvOrDefault("TELEGRAM_CHANNEL", cfg.Channel)
	cfg.LogsChannel = getEnvOrDefault("TELEGRAM_LOGS_CHANNEL", cfg.LogsChannel)
	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", "ildolomiti.db")
	cfg.ImagesDir = getEnvOrDefault("IMAGES_DIR", "images")
	cfg.FallbackImg = getEnvOrDefault("FALLBACK_IMAGE", "fallback.jpg")
	cfg.KeepArticles = getEnvIntOrDefault("KEEP_ARTICLES", cfg.KeepArticles)
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	if v := os.Getenv("POLL_INTERVAL_MINUTES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.PollInterval = time.Duration(val) * time.Minute
		}
	}

	// Optional site config file overrides the built-in ildolomiti defaults
	if path := os.Getenv("SITE_CONFIG_PATH"); path != "" {
		if err := cfg.loadSite(path); err != nil {
			return nil, fmt.Errorf("loading site config: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadSite(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	return dec.Decode(&c.Site)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Channel == "" {
		return fmt.Errorf("TELEGRAM_CHANNEL is required")
	}
	if c.Site.FeedURL == "" {
		return fmt.Errorf("site feed_url is required")
	}
	return nil
}
