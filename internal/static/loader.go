package static

import (
	"context"
	"strings"
)

// Load picks the loader by source: a .zip is GTFS, anything else a JSON directory or base URL.
func Load(ctx context.Context, source string, opts Options) (*Dataset, error) {
	if strings.HasSuffix(strings.ToLower(source), ".zip") {
		return LoadGTFS(ctx, source, opts)
	}
	return LoadJSON(ctx, source, opts)
}
