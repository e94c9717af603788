package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestExtractIDFromParams(t *testing.T) {
	testCases := []struct {
		name string
		id   string
		want string
	}{
		{
			name: "Basic ID",
			id:   "101",
			want: "101",
		},
		{
			name: "ID with JSON extension",
			id:   "101.json",
			want: "101",
		},
		{
			name: "ID with dots",
			id:   "12.5.json",
			want: "12.5",
		},
		{
			name: "only the trailing extension is removed",
			id:   "a.jsonb.json",
			want: "a.jsonb",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := httprouter.New()

			var result string
			router.Handler(http.MethodGet, "/api/where/stop/:id", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				result = ExtractIDFromParams(r, "id")
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/where/stop/"+tc.id, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want, result)
		})
	}
}

func TestExtractIDFromParamsWithoutRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/where/stop/101", nil)
	assert.Empty(t, ExtractIDFromParams(req, "id"))
}
