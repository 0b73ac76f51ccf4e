package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

var (
	// ErrInvariant indicates a stored record violates a domain invariant.
	ErrInvariant = errors.New("aggregate invariant violation")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("aggregate retryable")
)

// InvariantError tags an error as invariant violation.
func InvariantError(msg string) error {
	return errors.Join(ErrInvariant, errors.New(strings.TrimSpace(msg)))
}

// RetryableError tags an error as retryable failure.
func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure failures into store_transient or store_fatal.
// Errors that already carry a scheduler code pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded *learning.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, ErrInvariant):
		return learning.Wrap(learning.CodeStoreFatal, op, err)
	case errors.Is(err, ErrRetryable):
		return learning.Wrap(learning.CodeStoreTransient, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return learning.Wrap(learning.CodeStoreTransient, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return learning.Wrap(learning.CodeStoreTransient, op, err) // serialization/deadlock/lock_not_available
		case "08000", "08003", "08006", "57P01":
			return learning.Wrap(learning.CodeStoreTransient, op, err) // connection failures, admin shutdown
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "bad connection"):
		return learning.Wrap(learning.CodeStoreTransient, op, err)
	default:
		return learning.Wrap(learning.CodeStoreFatal, op, err)
	}
}

// isConflict reports lock contention between concurrent writers.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03", "23505":
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") || strings.Contains(msg, "database is locked")
}
