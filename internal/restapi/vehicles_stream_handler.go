package restapi

import (
	"errors"
	"net/http"
	"time"
)

// vehiclesStreamHandler hands the connection to the stream hub. The server write timeout would cut
// long-lived streams, so it is lifted for this response.
func (api *RestAPI) vehiclesStreamHandler(w http.ResponseWriter, r *http.Request) {
	if api.Stream == nil {
		api.sendNotFound(w, r)
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.Stream.ServeHTTP(w, r)
}
