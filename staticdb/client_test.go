package staticdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/static"
	"zpgsa.live/internal/transit"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(Config{DSN: ":memory:", Env: appconf.Test})
	require.NoError(t, err, "NewClient should succeed")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func fixtureDataset(t *testing.T) *static.Dataset {
	t.Helper()
	d, err := static.LoadJSON(context.Background(), filepath.Join("..", "internal", "static", "testdata", "json"), static.Options{})
	require.NoError(t, err)
	return d
}

func TestNewClientRejectsFileDatabaseInTest(t *testing.T) {
	_, err := NewClient(Config{DSN: filepath.Join(t.TempDir(), "static.db"), Env: appconf.Test})
	assert.ErrorIs(t, err, ErrFileDatabaseInTest)
}

func TestNewClientFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static.db")
	client, err := NewClient(Config{DSN: path, Env: appconf.Development})
	require.NoError(t, err)
	require.NoError(t, client.Import(context.Background(), fixtureDataset(t)))
	require.NoError(t, client.Close())

	reopened, err := NewClient(Config{DSN: path, Env: appconf.Development})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	counts, err := reopened.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts["stops"], "data survives reopening")
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn     string
		driver  string
		dialect dialect
	}{
		{":memory:", "sqlite", dialectSQLite},
		{"/var/lib/fleet/static.db", "sqlite", dialectSQLite},
		{"postgres://fleet@localhost/fleet", "pgx", dialectPostgres},
		{"postgresql://fleet@localhost/fleet", "pgx", dialectPostgres},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, d := driverFor(tt.dsn)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dialect, d)
		})
	}
}

func TestRebind(t *testing.T) {
	sqlite := &Client{dialect: dialectSQLite}
	pg := &Client{dialect: dialectPostgres}
	q := "SELECT * FROM stops WHERE id = ? AND name = ?"

	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, "SELECT * FROM stops WHERE id = $1 AND name = $2", pg.rebind(q))
}

func TestImportAndCounts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	d := fixtureDataset(t)

	require.NoError(t, client.Import(ctx, d))

	counts, err := client.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, d.Counts(), counts)

	// A second import replaces rather than appends.
	require.NoError(t, client.Import(ctx, d))
	counts, err = client.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, d.Counts(), counts)
}

func TestTimetable(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	d := fixtureDataset(t)
	require.NoError(t, client.Import(ctx, d))

	want, err := d.Timetable("101")
	require.NoError(t, err)

	got, err := client.Timetable(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	cached, err := client.Timetable(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, want, cached)

	empty, err := client.Timetable(ctx, "201")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = client.Timetable(ctx, "nope")
	assert.ErrorIs(t, err, static.ErrStopNotFound)
}

func TestTimetableCacheIsPurgedOnImport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := static.NewDataset([]transit.Stop{{ID: "a", Name: "A"}}, nil, map[string][]transit.TimetableEntry{
		"a": {{DepartureTime: "06:00", LineID: "1", Destination: "X", ServiceDays: transit.ServiceWeekday}},
	})
	require.NoError(t, client.Import(ctx, first))
	got, err := client.Timetable(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 1)

	second := static.NewDataset([]transit.Stop{{ID: "a", Name: "A"}}, nil, map[string][]transit.TimetableEntry{
		"a": {
			{DepartureTime: "06:00", LineID: "1", Destination: "X", ServiceDays: transit.ServiceWeekday},
			{DepartureTime: "07:00", LineID: "1", Destination: "X", ServiceDays: transit.ServiceSunday},
		},
	})
	require.NoError(t, client.Import(ctx, second))
	got, err = client.Timetable(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTimetableReturnsCopies(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Import(ctx, fixtureDataset(t)))

	got, err := client.Timetable(ctx, "101")
	require.NoError(t, err)
	got[0].Destination = "changed"

	again, err := client.Timetable(ctx, "101")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again[0].Destination)
}

func TestLoadDatasetRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	d := fixtureDataset(t)
	require.NoError(t, client.Import(ctx, d))

	loaded, err := client.LoadDataset(ctx)
	require.NoError(t, err)

	assert.Equal(t, d.Stops(), loaded.Stops())
	assert.Equal(t, d.Routes(), loaded.Routes())
	assert.Equal(t, d.Counts(), loaded.Counts())

	for _, id := range []string{"101", "102", "201"} {
		want, err := d.Timetable(id)
		require.NoError(t, err)
		got, err := loaded.Timetable(id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "timetable of %s", id)
	}
}

func TestLoadDatasetEmpty(t *testing.T) {
	client := newTestClient(t)
	loaded, err := client.LoadDataset(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded.Stops())
	assert.Empty(t, loaded.Routes())
}
