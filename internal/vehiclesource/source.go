// Package vehiclesource fetches raw vehicle snapshots from upstream feeds.
package vehiclesource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/logging"
)

const maxBodyBytes = 32 << 20

// Options configures the HTTP side of a source.
type Options struct {
	HTTPClient *http.Client
	Headers    map[string]string
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	o.Logger = logging.Component(o.Logger, "vehicle_source")
	return o
}

// New builds the source matching the configured feed format.
func New(cfg appconf.VehiclesConfig, opts Options) (fleet.Source, error) {
	switch cfg.Format {
	case "", "json":
		return NewJSONSource(cfg.URL, opts), nil
	case "gtfsrt":
		return NewGTFSRealtimeSource(cfg.URL, opts), nil
	default:
		return nil, fmt.Errorf("unsupported vehicle feed format %q", cfg.Format)
	}
}

// get performs one GET and returns the body. Non-2xx responses are errors.
func get(ctx context.Context, url string, opts Options) (body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching vehicles: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, opts.Logger, "vehicle_feed_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("vehicle feed returned status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading vehicle feed: %w", err)
	}
	return body, nil
}
