// Package discounts keeps the denormalized discount flag on products in sync
// with the discounts table
package discounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartstore/Smartstore-sub032/internal/orm/store"
	"github.com/smartstore/Smartstore-sub032/internal/orm/transaction"
)

// DefaultChunkSize bounds the number of ids bound to one statement
const DefaultChunkSize = 100

// ProductUpdater recomputes products.has_discounts_applied
type ProductUpdater struct {
	tx        *transaction.Manager
	dialect   store.Dialect
	chunkSize int
}

// NewProductUpdater creates an updater. A chunk size below 1 uses the default.
func NewProductUpdater(tx *transaction.Manager, dialect store.Dialect, chunkSize int) *ProductUpdater {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &ProductUpdater{tx: tx, dialect: dialect, chunkSize: chunkSize}
}

// Update recomputes the flag for the given products in chunks, inside one
// transaction, and returns the number of rows updated
func (u *ProductUpdater) Update(ctx context.Context, productIDs []int64) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	var total int64
	err := u.tx.WithRetry(ctx, func(tx *transaction.Transaction) error {
		total = 0
		for start := 0; start < len(productIDs); start += u.chunkSize {
			end := min(start+u.chunkSize, len(productIDs))
			n, err := u.updateChunk(ctx, tx, productIDs[start:end])
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update discount flags: %w", err)
	}
	return total, nil
}

func (u *ProductUpdater) updateChunk(ctx context.Context, tx *transaction.Transaction, ids []int64) (int64, error) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = u.dialect.Placeholder(i + 1)
		args[i] = id
	}

	query := "UPDATE products SET has_discounts_applied = EXISTS (" +
		"SELECT 1 FROM discounts WHERE discounts.product_id = products.id AND discounts.active" +
		") WHERE id IN (" + strings.Join(placeholders, ", ") + ")"

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, store.ConvertDBError(err)
	}
	return res.RowsAffected()
}
