package utils

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// ExtractIDFromParams returns the named path parameter with an optional ".json" suffix removed,
// so "/stop/101" and "/stop/101.json" address the same stop.
func ExtractIDFromParams(r *http.Request, paramName string) string {
	return strings.TrimSuffix(httprouter.ParamsFromContext(r.Context()).ByName(paramName), ".json")
}
