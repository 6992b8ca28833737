package transaction

import (
	"context"
)

type contextKey string

const contextKeyTransaction contextKey = "orm:transaction"

// FromContext retrieves the ambient transaction from the context
func FromContext(ctx context.Context) (*Transaction, bool) {
	tx, ok := ctx.Value(contextKeyTransaction).(*Transaction)
	return tx, ok
}

// WithContext returns a new context carrying the transaction
func WithContext(ctx context.Context, tx *Transaction) context.Context {
	return context.WithValue(ctx, contextKeyTransaction, tx)
}
