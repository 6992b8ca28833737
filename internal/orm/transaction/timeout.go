package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout runs fn in a transaction that is rolled back when it does not
// finish within timeout
func (m *Manager) WithTimeout(ctx context.Context, timeout time.Duration, fn func(tx *Transaction) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return timeoutError(timeoutCtx, timeout, m.WithTransaction(timeoutCtx, fn))
}

// WithTimeoutRetry combines WithTimeout and WithRetryConfig. The timeout
// covers every attempt.
func (m *Manager) WithTimeoutRetry(ctx context.Context, timeout time.Duration, config *RetryConfig, fn func(tx *Transaction) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return timeoutError(timeoutCtx, timeout, m.WithRetryConfig(timeoutCtx, config, fn))
}

func timeoutError(ctx context.Context, timeout time.Duration, err error) error {
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: transaction exceeded %v", ErrTransactionTimeout, timeout)
	}
	return err
}
