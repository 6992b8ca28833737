package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the default number of attempts for retryable failures
	DefaultMaxRetries = 3
	// DefaultBaseBackoff is the default base backoff duration
	DefaultBaseBackoff = 100 * time.Millisecond
)

// PostgreSQL SQLSTATE codes that are safe to retry
const (
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

// RetryConfig configures retry behavior for transactions
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
	Isolation   IsolationLevel
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  DefaultMaxRetries,
		BaseBackoff: DefaultBaseBackoff,
		Isolation:   ReadCommitted,
	}
}

// WithRetry runs fn in a transaction, retrying on deadlocks and
// serialization failures
func (m *Manager) WithRetry(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.WithRetryConfig(ctx, DefaultRetryConfig(), fn)
}

// WithRetryConfig runs fn in a transaction with custom retry configuration.
// Inside an ambient transaction fn runs once: a deadlock aborts the outer
// transaction, so only its owner can retry.
func (m *Manager) WithRetryConfig(ctx context.Context, config *RetryConfig, fn func(tx *Transaction) error) error {
	if _, ok := FromContext(ctx); ok {
		return m.WithTransactionIsolation(ctx, config.Isolation, fn)
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("transaction cancelled before retry %d: %w", attempt, ctx.Err())
		}

		err := m.WithTransactionIsolation(ctx, config.Isolation, fn)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		lastErr = err

		backoff := config.BaseBackoff * time.Duration(1<<uint(attempt))
		m.logger.Warn("retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction cancelled during retry: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w: transaction failed after %d retries: %v", ErrDeadlock, config.MaxRetries, lastErr)
}

// IsRetryableError reports whether err is a deadlock, a serialization
// failure or a busy database
func IsRetryableError(err error) bool {
	return isDeadlockError(err) || isSerializationError(err)
}

func isDeadlockError(err error) bool {
	if err == nil {
		return false
	}

	if code, ok := sqlState(err); ok && code == codeDeadlockDetected {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && (liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{codeDeadlockDetected, "deadlock detected", "deadlock found", "lock wait timeout exceeded"} {
		if strings.Contains(msg, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func isSerializationError(err error) bool {
	if err == nil {
		return false
	}

	if code, ok := sqlState(err); ok && code == codeSerializationFailure {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, codeSerializationFailure) || strings.Contains(msg, "could not serialize access")
}

// sqlState extracts the SQLSTATE code from pgx and lib/pq errors
func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}
