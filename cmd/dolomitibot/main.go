package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dolomitibot/dolomitibot/internal/bot"
	"github.com/dolomitibot/dolomitibot/internal/config"
	"github.com/dolomitibot/dolomitibot/internal/feed"
	"github.com/dolomitibot/dolomitibot/internal/gemini"
	"github.com/dolomitibot/dolomitibot/internal/images"
	"github.com/dolomitibot/dolomitibot/internal/logger"
	"github.com/dolomitibot/dolomitibot/internal/metrics"
	"github.com/dolomitibot/dolomitibot/internal/scraper"
	"github.com/dolomitibot/dolomitibot/internal/store"
	"github.com/dolomitibot/dolomitibot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger.Init(cfg.Debug)
	logger.Info("database path", "path", cfg.DatabasePath)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer st.Close()

	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		log.Fatalf("images dir error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var explainer bot.Explainer
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini client unavailable, explanations disabled", "error", err)
		} else {
			defer client.Close()
			explainer = client
		}
	}

	b := bot.New(
		cfg,
		st,
		feed.NewSource(cfg.Site.FeedURL, cfg.Site.UserAgent, cfg.RequestTimeout),
		scraper.New(cfg.Site.UserAgent, cfg.Site.RegionMarker, cfg.Site.RegionTag, cfg.RequestTimeout),
		images.NewFetcher(cfg.ImagesDir, cfg.RequestTimeout),
		telegram.NewClient(cfg.BotToken, cfg.Channel, cfg.LogsChannel, cfg.FallbackImg),
		explainer,
	)

	// Check if we should start HTTP server for monitoring
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	b.Start(ctx)
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
