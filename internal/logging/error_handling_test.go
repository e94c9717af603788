package logging

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestSafeClose(t *testing.T) {
	t.Run("closes response body safely", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("[]"))
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)

		SafeCloseWithLogging(resp.Body, logger, "vehicle_feed_body")

		assert.NotContains(t, buf.String(), `"level":"ERROR"`)
	})

	t.Run("logs error when close fails", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeCloseWithLogging(&errorCloser{err: assert.AnError}, logger, "static_db")

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"failed to close resource"`)
		assert.Contains(t, output, `"operation":"static_db"`)
	})

	t.Run("nil closer is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { SafeCloseWithLogging(nil, Discard(), "nothing") })
	})
}

func TestSafeRollback(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		logged bool
	}{
		{"rollback failure is logged", assert.AnError, true},
		{"already committed is ignored", sql.ErrTxDone, false},
		{"wrapped already committed is ignored", fmt.Errorf("rollback: %w", sql.ErrTxDone), false},
		{"successful rollback is silent", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewStructuredLogger(&buf, slog.LevelInfo)

			SafeRollbackWithLogging(&mockTransaction{rollbackErr: tt.err}, logger, "import_static")

			if tt.logged {
				assert.Contains(t, buf.String(), `"msg":"failed to rollback transaction"`)
				assert.Contains(t, buf.String(), `"operation":"import_static"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestSafeRollbackAfterCommit(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var buf bytes.Buffer
	SafeRollbackWithLogging(tx, NewStructuredLogger(&buf, slog.LevelInfo), "import_static")
	assert.Empty(t, buf.String())
}

func TestHandleDeferredError(t *testing.T) {
	t.Run("surfaces deferred errors when the function succeeded", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		testFunc := func() (err error) {
			defer HandleDeferredError(&err, func() error {
				return assert.AnError
			}, logger, "close_stop_rows")

			return nil
		}

		err := testFunc()
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "close_stop_rows")
		assert.Contains(t, buf.String(), `"msg":"deferred operation failed"`)
	})

	t.Run("preserves original error when deferred operation also fails", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		original := fmt.Errorf("scan failed")

		testFunc := func() (err error) {
			defer HandleDeferredError(&err, func() error {
				return assert.AnError
			}, logger, "close_stop_rows")

			return original
		}

		assert.Equal(t, original, testFunc())
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})
}

type errorCloser struct {
	err error
}

func (e *errorCloser) Close() error {
	return e.err
}

type mockTransaction struct {
	rollbackErr error
}

func (m *mockTransaction) Rollback() error {
	return m.rollbackErr
}
