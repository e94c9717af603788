package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"zpgsa.live/internal/logging"
	"zpgsa.live/internal/models"
)

// writeJSON writes payload with the given status. The header is already out when encoding
// fails, so the failure can only be logged.
func (api *RestAPI) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	setJSONResponseType(w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.LogError(api.Logger, "failed to encode response", err,
			slog.String("path", r.URL.Path),
			slog.Int("status", status))
	}
}

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	api.writeJSON(w, r, response.Code, response)
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewResponse(http.StatusNotFound, nil, "resource not found"))
}

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}
