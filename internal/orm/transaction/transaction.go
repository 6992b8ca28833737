package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrDeadlock is returned when retries of a deadlocked transaction are exhausted
	ErrDeadlock = errors.New("deadlock detected")
	// ErrTransactionTimeout is returned when a transaction times out
	ErrTransactionTimeout = errors.New("transaction timeout")
	// ErrNestedTransactionNotSupported is returned when nesting without an open transaction
	ErrNestedTransactionNotSupported = errors.New("nested transactions require an existing transaction")
	// ErrTransactionDone is returned when committing a finished transaction
	ErrTransactionDone = errors.New("transaction already finished")
)

// savepointCounter keeps savepoint names unique across transactions
var savepointCounter atomic.Uint64

// IsolationLevel represents the transaction isolation level
type IsolationLevel int

const (
	// ReadUncommitted allows dirty reads
	ReadUncommitted IsolationLevel = iota
	// ReadCommitted prevents dirty reads (PostgreSQL default)
	ReadCommitted
	// RepeatableRead prevents non-repeatable reads
	RepeatableRead
	// Serializable provides full isolation
	Serializable
)

// String returns the string representation of the isolation level
func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "READ UNCOMMITTED"
	case RepeatableRead:
		return "REPEATABLE READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return "READ COMMITTED"
	}
}

// ToSQLOptions converts IsolationLevel to sql.TxOptions
func (l IsolationLevel) ToSQLOptions() *sql.TxOptions {
	level := sql.LevelReadCommitted
	switch l {
	case ReadUncommitted:
		level = sql.LevelReadUncommitted
	case RepeatableRead:
		level = sql.LevelRepeatableRead
	case Serializable:
		level = sql.LevelSerializable
	}
	return &sql.TxOptions{Isolation: level}
}

// Transaction is one database transaction, or a savepoint inside one
type Transaction struct {
	tx             *sql.Tx
	ctx            context.Context
	level          int // 0 = top-level, 1+ = savepoint
	savepointName  string
	committed      atomic.Bool
	rolledBack     atomic.Bool
	isolationLevel IsolationLevel
}

// Manager opens transactions on a database
type Manager struct {
	db     *sql.DB
	logger *zap.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger used to report rollbacks and retries
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new transaction manager
func NewManager(db *sql.DB, opts ...ManagerOption) *Manager {
	m := &Manager{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DB returns the underlying database
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Begin starts a new transaction with the default isolation level
func (m *Manager) Begin(ctx context.Context) (*Transaction, error) {
	return m.BeginWithIsolation(ctx, ReadCommitted)
}

// BeginWithIsolation starts a new transaction with the specified isolation level
func (m *Manager) BeginWithIsolation(ctx context.Context, level IsolationLevel) (*Transaction, error) {
	tx, err := m.db.BeginTx(ctx, level.ToSQLOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &Transaction{
		tx:             tx,
		ctx:            ctx,
		isolationLevel: level,
	}, nil
}

// WithTransaction runs fn in a transaction and commits on success. When ctx
// already carries a transaction, fn runs in a savepoint of it instead, so a
// save inside an outer unit of work commits or rolls back with it.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.WithTransactionIsolation(ctx, ReadCommitted, fn)
}

// WithTransactionIsolation is WithTransaction with an explicit isolation
// level. The level is ignored when joining an outer transaction.
func (m *Manager) WithTransactionIsolation(ctx context.Context, level IsolationLevel, fn func(tx *Transaction) error) error {
	var (
		tx  *Transaction
		err error
	)
	if outer, ok := FromContext(ctx); ok {
		tx, err = outer.BeginNested(ctx)
	} else {
		tx, err = m.BeginWithIsolation(ctx, level)
	}
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("rollback failed", zap.Int("level", tx.level), zap.Error(rbErr))
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Context returns a context carrying the transaction
func (t *Transaction) Context() context.Context {
	return WithContext(t.ctx, t)
}

// Tx returns the underlying sql.Tx
func (t *Transaction) Tx() *sql.Tx {
	return t.tx
}

// Level returns the nesting level of the transaction
func (t *Transaction) Level() int {
	return t.level
}

// IsolationLevel returns the isolation level of the transaction
func (t *Transaction) IsolationLevel() IsolationLevel {
	return t.isolationLevel
}

// Commit commits the transaction, or releases the savepoint of a nested one
func (t *Transaction) Commit() error {
	if t.committed.Load() || t.rolledBack.Load() {
		return ErrTransactionDone
	}

	if t.level > 0 {
		if _, err := t.tx.ExecContext(t.ctx, "RELEASE SAVEPOINT "+t.savepointName); err != nil {
			return fmt.Errorf("failed to release savepoint: %w", err)
		}
		t.committed.Store(true)
		return nil
	}

	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.committed.Store(true)
	return nil
}

// Rollback rolls back the transaction, or to the savepoint of a nested one.
// Rolling back twice is a no-op.
func (t *Transaction) Rollback() error {
	if t.committed.Load() {
		return ErrTransactionDone
	}
	if t.rolledBack.Load() {
		return nil
	}

	if t.level > 0 {
		if _, err := t.tx.ExecContext(t.ctx, "ROLLBACK TO SAVEPOINT "+t.savepointName); err != nil {
			return fmt.Errorf("failed to rollback to savepoint: %w", err)
		}
		t.rolledBack.Store(true)
		return nil
	}

	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	t.rolledBack.Store(true)
	return nil
}

// BeginNested opens a savepoint inside the transaction
func (t *Transaction) BeginNested(ctx context.Context) (*Transaction, error) {
	if t.tx == nil {
		return nil, ErrNestedTransactionNotSupported
	}

	name := fmt.Sprintf("sp_%d_%d", savepointCounter.Add(1), t.level+1)
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, fmt.Errorf("failed to create savepoint: %w", err)
	}

	return &Transaction{
		tx:             t.tx,
		ctx:            ctx,
		level:          t.level + 1,
		savepointName:  name,
		isolationLevel: t.isolationLevel,
	}, nil
}

// ExecContext executes a statement in the transaction
func (t *Transaction) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns at most one row
func (t *Transaction) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

// IsCommitted returns true if the transaction has been committed
func (t *Transaction) IsCommitted() bool {
	return t.committed.Load()
}

// IsRolledBack returns true if the transaction has been rolled back
func (t *Transaction) IsRolledBack() bool {
	return t.rolledBack.Load()
}
