package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/logging"
	"zpgsa.live/staticdb"
)

var fixture = filepath.Join("../../internal/static/testdata", "json")

func testConfig(source string) appconf.Config {
	cfg := appconf.Defaults()
	cfg.Env = appconf.Test
	cfg.Static.Source = source
	cfg.Static.MaxRetries = 0
	return cfg
}

func quietLogger() *slog.Logger {
	return logging.Discard()
}

func memoryDB(t *testing.T) *staticdb.Client {
	t.Helper()
	db, err := staticdb.NewClient(staticdb.Config{DSN: ":memory:", Env: appconf.Test})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadStaticWithoutDatabase(t *testing.T) {
	dataset, err := loadStatic(context.Background(), testConfig(fixture), nil, quietLogger())
	require.NoError(t, err)
	assert.Len(t, dataset.Stops(), 4)

	_, err = loadStatic(context.Background(), testConfig(t.TempDir()), nil, quietLogger())
	assert.Error(t, err, "no fallback without a database")
}

func TestLoadStaticMirrorsIntoDatabase(t *testing.T) {
	db := memoryDB(t)

	_, err := loadStatic(context.Background(), testConfig(fixture), db, quietLogger())
	require.NoError(t, err)

	counts, err := db.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts["stops"])
}

func TestLoadStaticFallsBackToDatabase(t *testing.T) {
	db := memoryDB(t)
	_, err := loadStatic(context.Background(), testConfig(fixture), db, quietLogger())
	require.NoError(t, err)

	dataset, err := loadStatic(context.Background(), testConfig(t.TempDir()), db, quietLogger())
	require.NoError(t, err)
	assert.Len(t, dataset.Stops(), 4)
	_, ok := dataset.Route("1-A")
	assert.True(t, ok)
}

func TestLoadStaticEmptyDatabaseIsAnError(t *testing.T) {
	db := memoryDB(t)

	_, err := loadStatic(context.Background(), testConfig(t.TempDir()), db, quietLogger())
	assert.ErrorContains(t, err, "static database is empty")
}

func TestOpenStaticDB(t *testing.T) {
	cfg := testConfig(fixture)

	db, err := openStaticDB(cfg, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, db, "no DSN, no database")

	cfg.Static.DatabaseDSN = filepath.Join(t.TempDir(), "static.db")
	_, err = openStaticDB(cfg, quietLogger())
	assert.ErrorIs(t, err, staticdb.ErrFileDatabaseInTest)
}
