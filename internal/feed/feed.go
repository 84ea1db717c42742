// Package feed downloads and parses the site RSS feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/dolomitibot/dolomitibot/internal/logger"
)

// Entry is one feed item, already normalized for the reconciler.
type Entry struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
}

type Source struct {
	url       string
	userAgent string
	client    *http.Client
	parser    *gofeed.Parser
}

func NewSource(url, userAgent string, timeout time.Duration) *Source {
	return &Source{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
	}
}

// Fetch downloads the feed and returns its entries oldest-first.
// The feed itself lists entries newest-first; the reconciler wants to
// process them in publication order.
func (s *Source) Fetch(ctx context.Context) ([]Entry, error) {
	// Cache-busting timestamp, the site CDN can serve stale copies
	url := fmt.Sprintf("%s?_=%d", s.url, time.Now().Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetching feed: status %d: %s", resp.StatusCode, body)
	}

	parsed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for i := len(parsed.Items) - 1; i >= 0; i-- {
		item := parsed.Items[i]
		if item.Link == "" {
			logger.Warn("feed item without link, skipping", "title", item.Title)
			continue
		}

		published := time.Now()
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		entries = append(entries, Entry{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Published:   published,
		})
	}

	return entries, nil
}
