package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// The helpers below run in defer statements. The logger passed in is expected to carry the
// caller's component already, so only the operation is added.

// SafeCloseWithLogging closes closer and logs a failure under operation.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err, slog.String("operation", operation))
	}
}

// SafeRollbackWithLogging rolls tx back. sql.ErrTxDone, the normal outcome after a commit, is not
// logged.
func SafeRollbackWithLogging(tx interface{ Rollback() error }, logger *slog.Logger, operation string) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return
	}
	LogError(logger, "failed to rollback transaction", err, slog.String("operation", operation))
}

// HandleDeferredError runs deferredOp and logs its failure. The failure becomes the function's
// error only when *originalErr is still nil.
func HandleDeferredError(originalErr *error, deferredOp func() error, logger *slog.Logger, operation string) {
	if deferredOp == nil {
		return
	}
	err := deferredOp()
	if err == nil {
		return
	}
	LogError(logger, "deferred operation failed", err, slog.String("operation", operation))
	if *originalErr == nil {
		*originalErr = fmt.Errorf("%s failed: %w", operation, err)
	}
}
