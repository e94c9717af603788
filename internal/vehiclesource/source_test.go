package vehiclesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"github.com/jamespfennell/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/transit"
)

const operatorPayload = `[
  {"id": 1042, "destination": "Bielawa Osiedle", "line": 1, "label": "1/7 brygada", "deviation": -125000,
   "lat": 50.7281, "lon": 16.6512, "route": "1-A", "latestRouteStop": "101 Rynek",
   "active": "true", "latestPassingTime": 1741950000000, "vehicleComputer": "x", "vehicleFeatures": []},
  {"id": "2001", "destination": "Pieszyce", "line": "2", "label": "2/1", "deviation": 200000.0,
   "lat": 0, "lon": 0, "route": null, "latestRouteStop": ""}
]`

func TestParseJSON(t *testing.T) {
	records, err := ParseJSON([]byte(operatorPayload))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, fleet.Record{
		ID:               "1042",
		LineID:           "1",
		Label:            "1/7 brygada",
		Position:         transit.Coordinates{Lat: 50.7281, Lon: 16.6512},
		DeviationMillis:  -125000,
		RouteID:          "1-A",
		LastPassedStopID: "101 Rynek",
		Destination:      "Bielawa Osiedle",
	}, records[0], "records are raw; normalization happens in the fleet package")

	assert.Equal(t, "2001", records[1].ID)
	assert.Equal(t, int64(200000), records[1].DeviationMillis)
	assert.Empty(t, records[1].RouteID)
}

func TestParseJSONRejectsNonArray(t *testing.T) {
	_, err := ParseJSON([]byte(`{"id": 1}`))
	assert.Error(t, err)
}

func TestJSONSourceFetch(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(operatorPayload))
	}))
	defer server.Close()

	src := NewJSONSource(server.URL, Options{Headers: map[string]string{"Authorization": "Bearer t"}})
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "Bearer t", gotAuth)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewJSONSource(server.URL, Options{}).Fetch(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFetchHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewJSONSource(server.URL, Options{}).Fetch(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func buildRealtimeFeed(t *testing.T) []byte {
	t.Helper()
	feed := &gtfsrt.FeedMessage{
		Header: &gtfsrt.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfsrt.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC).Unix())),
		},
		Entity: []*gtfsrt.FeedEntity{
			{
				Id: proto.String("v1"),
				Vehicle: &gtfsrt.VehiclePosition{
					Trip: &gtfsrt.TripDescriptor{
						TripId:  proto.String("T1"),
						RouteId: proto.String("1"),
					},
					Vehicle: &gtfsrt.VehicleDescriptor{
						Id:    proto.String("1042"),
						Label: proto.String("1/7"),
					},
					Position: &gtfsrt.Position{
						Latitude:  proto.Float32(50.5),
						Longitude: proto.Float32(16.25),
					},
					StopId: proto.String("S2"),
				},
			},
			{
				Id: proto.String("v2"),
				Vehicle: &gtfsrt.VehiclePosition{
					Vehicle: &gtfsrt.VehicleDescriptor{
						Id: proto.String("2001"),
					},
				},
			},
		},
	}
	b, err := proto.Marshal(feed)
	require.NoError(t, err)
	return b
}

func TestParseRealtime(t *testing.T) {
	records, err := ParseRealtime(buildRealtimeFeed(t))
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[string]fleet.Record{}
	for _, r := range records {
		byID[r.ID] = r
	}

	v1 := byID["1042"]
	assert.Equal(t, "1/7", v1.Label)
	assert.Equal(t, "1", v1.LineID)
	assert.Equal(t, "T1", v1.RouteID)
	assert.Equal(t, "S2", v1.LastPassedStopID)
	assert.Equal(t, transit.Coordinates{Lat: 50.5, Lon: 16.25}, v1.Position)

	v2 := byID["2001"]
	assert.False(t, v2.Position.Known())
	assert.Empty(t, v2.RouteID)
}

func TestParseRealtimeRejectsGarbage(t *testing.T) {
	_, err := ParseRealtime([]byte("definitely not protobuf"))
	assert.Error(t, err)
}

func TestGTFSRealtimeSourceFetch(t *testing.T) {
	feed := buildRealtimeFeed(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-protobuf")
		_, _ = w.Write(feed)
	}))
	defer server.Close()

	records, err := NewGTFSRealtimeSource(server.URL, Options{}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRecordFromVehicle(t *testing.T) {
	delay := func(d time.Duration) *time.Duration { return &d }
	stop := "S9"

	r, ok := recordFromVehicle(gtfs.Vehicle{
		ID:     &gtfs.VehicleID{ID: "7", Label: "L7"},
		StopID: &stop,
		Trip: &gtfs.Trip{
			ID: gtfs.TripID{ID: "T7", RouteID: "7"},
			StopTimeUpdates: []gtfs.StopTimeUpdate{
				{Departure: &gtfs.StopTimeEvent{Delay: delay(-90 * time.Second)}},
				{Arrival: &gtfs.StopTimeEvent{Delay: delay(4 * time.Minute)}},
			},
		},
	})
	require.True(t, ok)
	assert.Equal(t, int64(-90000), r.DeviationMillis)
	assert.Equal(t, "T7", r.RouteID)
	assert.Equal(t, "7", r.LineID)
	assert.Equal(t, "S9", r.LastPassedStopID)

	_, ok = recordFromVehicle(gtfs.Vehicle{})
	assert.False(t, ok, "vehicles without an id are skipped")

	r, ok = recordFromVehicle(gtfs.Vehicle{ID: &gtfs.VehicleID{ID: "8"}, Trip: &gtfs.Trip{}})
	require.True(t, ok)
	assert.Zero(t, r.DeviationMillis)
}

func TestNew(t *testing.T) {
	src, err := New(appconf.VehiclesConfig{URL: "http://x", Format: "json"}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &JSONSource{}, src)

	src, err = New(appconf.VehiclesConfig{URL: "http://x", Format: "gtfsrt"}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &GTFSRealtimeSource{}, src)

	_, err = New(appconf.VehiclesConfig{URL: "http://x", Format: "xml"}, Options{})
	assert.Error(t, err)
}
