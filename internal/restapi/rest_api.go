package restapi

import (
	"net/http"
	"time"

	"zpgsa.live/internal/app"
	"zpgsa.live/internal/logging"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
	compressor  func(http.Handler) http.Handler
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	api := &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
	compressor, err := NewCompressionMiddleware(DefaultCompressionConfig())
	if err != nil {
		logging.LogError(app.Logger, "response compression disabled", err)
	} else {
		api.compressor = compressor
	}
	return api
}

// Shutdown releases background resources held by the middleware chain.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}

func (api *RestAPI) limit(next http.Handler) http.Handler {
	if api.rateLimiter == nil {
		return next
	}
	return api.rateLimiter.Handler(next)
}
