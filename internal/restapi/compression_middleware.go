package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressedTypes are the only response types that get gzipped. Event streams are never among
// them, otherwise events would sit in the compressor until its buffer fills.
var compressedTypes = []string{"application/json", "text/html"}

// CompressionConfig holds configuration options for response compression
type CompressionConfig struct {
	// MinSize is the smallest body in bytes worth compressing.
	MinSize int
	// Level is the gzip level, 1-9.
	Level int
}

func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: gzhttp.DefaultMinSize,
		Level:   6,
	}
}

// NewCompressionMiddleware builds a gzip wrapper for the JSON and HTML endpoints.
func NewCompressionMiddleware(config CompressionConfig) (func(http.Handler) http.Handler, error) {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(config.MinSize),
		gzhttp.CompressionLevel(config.Level),
		gzhttp.ContentTypes(compressedTypes),
	)
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler { return wrapper(next) }, nil
}

func (api *RestAPI) compress(next http.Handler) http.Handler {
	if api.compressor == nil {
		return next
	}
	return api.compressor(next)
}
