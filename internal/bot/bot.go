// Package bot drives the poll cycle: it matches feed entries against the
// article store, decides whether each one is new, already seen or an
// in-place edit, and publishes or updates the channel message accordingly.
package bot

import (
	"context"
	"time"

	"github.com/dolomitibot/dolomitibot/internal/config"
	"github.com/dolomitibot/dolomitibot/internal/feed"
	"github.com/dolomitibot/dolomitibot/internal/logger"
	"github.com/dolomitibot/dolomitibot/internal/metrics"
	"github.com/dolomitibot/dolomitibot/internal/scraper"
	"github.com/dolomitibot/dolomitibot/internal/store"
	"github.com/dolomitibot/dolomitibot/internal/telegram"
)

// ArticleStore is the persisted view of already processed articles.
type ArticleStore interface {
	Count() (int, error)
	FindByLink(link string) (*store.Article, error)
	FindByPostID(postID string) (*store.Article, error)
	Insert(a *store.Article) (int64, error)
	Update(a *store.Article) error
	Prune(keepLastN int) (int64, error)
}

type FeedSource interface {
	Fetch(ctx context.Context) ([]feed.Entry, error)
}

type DetailScraper interface {
	FetchDetails(ctx context.Context, link string) (*scraper.Details, error)
}

type ImageFetcher interface {
	Download(ctx context.Context, url string) string
	Clean() error
}

type Publisher interface {
	SendPhoto(ctx context.Context, msg telegram.Message) (int64, error)
	EditCaption(ctx context.Context, messageID int64, msg telegram.Message) error
	SendLog(ctx context.Context, text string) error
}

// Explainer turns a title edit into a one-sentence description for the
// audit channel. Optional.
type Explainer interface {
	ExplainTitleChange(ctx context.Context, oldTitle, newTitle string) (string, error)
}

type Bot struct {
	site          config.Site
	keepArticles  int
	pollInterval  time.Duration
	cleanInterval time.Duration

	store     ArticleStore
	feed      FeedSource
	scraper   DetailScraper
	images    ImageFetcher
	tg        Publisher
	explainer Explainer // nil when no API key is configured
}

func New(cfg *config.Config, st ArticleStore, fs FeedSource, sc DetailScraper, img ImageFetcher, tg Publisher, explainer Explainer) *Bot {
	return &Bot{
		site:          cfg.Site,
		keepArticles:  cfg.KeepArticles,
		pollInterval:  cfg.PollInterval,
		cleanInterval: cfg.CleanInterval,
		store:         st,
		feed:          fs,
		scraper:       sc,
		images:        img,
		tg:            tg,
		explainer:     explainer,
	}
}

// Start runs maintenance and one poll cycle immediately, then keeps
// polling on the configured interval until the context is cancelled.
// Retention pruning and image cache cleanup run on their own slower
// ticker. Errors never stop the loop.
func (b *Bot) Start(ctx context.Context) {
	if err := b.Clean(ctx); err != nil {
		logger.Error("maintenance failed", "error", err)
	}
	if err := b.Check(ctx); err != nil {
		logger.Error("poll cycle failed", "error", err)
	}

	poll := time.NewTicker(b.pollInterval)
	defer poll.Stop()
	clean := time.NewTicker(b.cleanInterval)
	defer clean.Stop()

	logger.Info("scheduler started", "poll_interval", b.pollInterval, "clean_interval", b.cleanInterval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case <-poll.C:
			if err := b.Check(ctx); err != nil {
				logger.Error("poll cycle failed", "error", err)
			}
		case <-clean.C:
			if err := b.Clean(ctx); err != nil {
				logger.Error("maintenance failed", "error", err)
			}
		}
	}
}

// Clean prunes the article store to the retention limit and wipes the
// local image cache.
func (b *Bot) Clean(_ context.Context) error {
	logger.Info("cleaning old articles")
	pruned, err := b.store.Prune(b.keepArticles)
	if err != nil {
		return err
	}
	if pruned > 0 {
		logger.Info("pruned old articles", "count", pruned)
		metrics.Global.AddPruned(pruned)
	}

	logger.Info("cleaning old images")
	return b.images.Clean()
}
