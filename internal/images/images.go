// Package images downloads article images into a content-addressed
// local directory. Downloads are best-effort: every failure degrades to
// "no image" and is only logged.
package images

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dolomitibot/dolomitibot/internal/logger"
	"github.com/dolomitibot/dolomitibot/internal/retry"
)

type Fetcher struct {
	dir        string
	client     *http.Client
	retryDelay time.Duration
}

func NewFetcher(dir string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		dir:        dir,
		client:     &http.Client{Timeout: timeout},
		retryDelay: time.Second,
	}
}

// retryableStatusError marks gateway errors worth a second attempt.
type retryableStatusError struct {
	status int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

// Download fetches url into the images directory and returns the local
// path, or "" when the URL is empty or anything goes wrong. The filename
// is the hex md5 of the URL, so refetching overwrites the same file.
func (f *Fetcher) Download(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}

	sum := md5.Sum([]byte(url))
	path := filepath.Join(f.dir, hex.EncodeToString(sum[:]))

	cfg := retry.Config{
		MaxAttempts: 3, // 2 retries on gateway errors
		Delay:       f.retryDelay,
		Retryable: func(err error) bool {
			var se *retryableStatusError
			return errors.As(err, &se)
		},
	}

	err := retry.Do(ctx, cfg, func() error {
		return f.downloadOnce(ctx, url, path)
	})
	if err != nil {
		logger.Error("error downloading image", "url", url, "error", err)
		return ""
	}

	return path
}

func (f *Fetcher) downloadOnce(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &retryableStatusError{status: resp.StatusCode}
	default:
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}

	return nil
}

// Clean removes every file in the images directory.
func (f *Fetcher) Clean() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("reading images dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, entry.Name())); err != nil {
			logger.Warn("failed to remove image", "name", entry.Name(), "error", err)
		}
	}

	return nil
}
