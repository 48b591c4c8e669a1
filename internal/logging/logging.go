// Package logging provides small helpers around log/slog so that
// operational events and errors are logged with a consistent shape
// across components.
package logging

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
)

// LogOperation records a notable operational event.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(operation, attrs...)
}

// LogError records an error with its message and any extra attributes.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	all := make([]any, 0, len(attrs)+1)
	all = append(all, slog.Any("error", err))
	all = append(all, attrs...)
	logger.Error(msg, all...)
}

// Rollbacker is satisfied by *sql.Tx.
type Rollbacker interface {
	Rollback() error
}

// SafeRollbackWithLogging rolls back a transaction and logs a warning on
// failure. A rollback after a successful commit returns sql.ErrTxDone,
// which is expected and not logged.
func SafeRollbackWithLogging(tx Rollbacker, logger *slog.Logger, operation string) {
	if tx == nil {
		return
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to roll back transaction",
			slog.String("operation", operation),
			slog.Any("error", err))
	}
}

// SafeCloseWithLogging closes the closer and logs a warning on failure.
// Intended for deferred closes of response bodies and files where the
// close error should not change control flow.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to close resource",
			slog.String("resource", name),
			slog.Any("error", err))
	}
}
