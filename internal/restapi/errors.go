package restapi

import (
	"log/slog"
	"net/http"

	"zpgsa.live/internal/logging"
	"zpgsa.live/internal/models"
)

// serverErrorResponse logs err with the request and answers 500 without leaking it.
func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	api.sendResponse(w, r, models.NewResponse(http.StatusInternalServerError, nil, "internal server error"))
}

// validationErrorResponse answers 400 with the offending query or path fields.
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.writeJSON(w, r, http.StatusBadRequest, struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{fieldErrors})
}
