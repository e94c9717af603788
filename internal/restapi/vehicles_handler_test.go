package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zpgsa.live/internal/models"
)

func TestVehiclesHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/where/vehicles.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vehicles []models.VehicleStatus
	decodeData(t, model, "list", &vehicles)
	require.Len(t, vehicles, 2)

	v1 := vehicles[0]
	assert.Equal(t, "v1", v1.VehicleID)
	assert.Equal(t, "1A", v1.Label)
	assert.Equal(t, "+04:00", v1.Deviation)
	assert.Equal(t, "late", v1.Status)
	require.NotNil(t, v1.Location)
	assert.InDelta(t, 50.727, v1.Location.Lat, 1e-9)
	assert.Equal(t, testNow.UnixMilli(), v1.LastUpdateTime)

	assert.Equal(t, "v2", vehicles[1].VehicleID)
}

func TestVehicleHandler(t *testing.T) {
	api := createTestApi(t)

	t.Run("tracked vehicle with route references", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/vehicle/v1.json")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var entry models.VehicleStatus
		decodeData(t, model, "entry", &entry)
		assert.Equal(t, "1-A", entry.RouteID)
		assert.Equal(t, "101", entry.LastPassedStopID)

		var references models.ReferencesModel
		decodeData(t, model, "references", &references)
		require.Len(t, references.Routes, 1)
		assert.Equal(t, "1-A", references.Routes[0].ID)
		assert.Len(t, references.Stops, 4)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/vehicle/v9.json")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, http.StatusNotFound, model.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/where/vehicle/v1%3B")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
