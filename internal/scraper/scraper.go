// Package scraper extracts structured details from an article page.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dolomitibot/dolomitibot/internal/logger"
)

// Details holds the optional fields scraped from an article page.
// Every field may be empty; only the page fetch itself can fail.
type Details struct {
	PostID      string // digits from the article node id, "" if not found
	Description string
	ImageURL    string
	Tags        []string
}

type Scraper struct {
	userAgent    string
	regionMarker string
	regionTag    string
	client       *http.Client
}

func New(userAgent, regionMarker, regionTag string, timeout time.Duration) *Scraper {
	return &Scraper{
		userAgent:    userAgent,
		regionMarker: regionMarker,
		regionTag:    regionTag,
		client:       &http.Client{Timeout: timeout},
	}
}

// FetchDetails downloads the article page and extracts post id, subtitle,
// og:image URL and region tag. Missing fields are logged and left empty.
func (s *Scraper) FetchDetails(ctx context.Context, link string) (*Details, error) {
	// Cache-busting param, avoids cached 404s on fresh articles
	url := fmt.Sprintf("%s?_=%d", link, time.Now().Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building article request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching article page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading article page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parsing article page: %w", err)
	}

	details := &Details{}

	article := doc.Find(`article[id^="node-"]`).First()
	if article.Length() > 0 {
		if id, ok := article.Attr("id"); ok {
			parts := strings.SplitN(id, "-", 2)
			if len(parts) == 2 && parts[1] != "" {
				details.PostID = parts[1]
			}
		}

		sub := article.Find("div.artSub").First()
		if sub.Length() > 0 {
			details.Description = strings.TrimSpace(sub.Text())
		} else {
			logger.Error("description not found", "link", link)
		}

		if image, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
			details.ImageURL = image
		} else {
			logger.Error("image meta tag not found", "link", link)
		}
	} else {
		logger.Error("article node not found", "link", link)
	}

	if s.regionMarker != "" && strings.Contains(string(body), s.regionMarker) {
		details.Tags = append(details.Tags, s.regionTag)
	}

	return details, nil
}
