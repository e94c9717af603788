package static

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"zpgsa.live/internal/logging"
)

// Options controls how static data is fetched.
type Options struct {
	HTTPClient *http.Client
	// MaxRetries bounds retries of remote downloads; local files are read once.
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Logger = logging.Component(o.Logger, "static_loader")
	return o
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// join appends name to a directory path or a base URL.
func join(location, name string) string {
	if isRemote(location) {
		return strings.TrimRight(location, "/") + "/" + name
	}
	return filepath.Join(location, name)
}

// fetchRaw reads a local file, or downloads a URL with exponential backoff.
// Client errors (4xx) are not retried.
func fetchRaw(ctx context.Context, location string, opts Options) ([]byte, error) {
	if !isRemote(location) {
		b, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("error reading local static file: %w", err)
		}
		return b, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = opts.InitialInterval
	policy.MaxInterval = opts.MaxInterval
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = policy
	b = backoff.WithMaxRetries(b, opts.MaxRetries)
	b = backoff.WithContext(b, ctx)

	return backoff.RetryNotifyWithData(
		func() ([]byte, error) {
			return download(ctx, opts.HTTPClient, location, opts.Logger)
		},
		b,
		func(err error, d time.Duration) {
			logging.LogError(opts.Logger, "static download failed, backing off", err,
				slog.String("url", location),
				slog.Duration("retry_in", d))
		},
	)
}

func download(ctx context.Context, client *http.Client, url string, logger *slog.Logger) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading static data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, "http_response_body")

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading static data: %w", err)
	}
	return b, nil
}
