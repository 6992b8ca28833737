package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
	"github.com/smartstore/Smartstore-sub032/internal/orm/transaction"
)

// Store writes save batches to a SQL database. It implements hooks.Persister.
//
// A batch runs in one transaction. Each entity is written inside its own
// savepoint, so a constraint violation fails that entity only; deadlocks
// and serialization failures retry the whole batch.
type Store struct {
	tx      *transaction.Manager
	dialect Dialect
	retry   *transaction.RetryConfig
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetry sets the retry policy of batch transactions
func WithRetry(config *transaction.RetryConfig) Option {
	return func(s *Store) {
		if config != nil {
			s.retry = config
		}
	}
}

// WithTimeout bounds each batch, including retries
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.timeout = timeout }
}

// New creates a store on db
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		dialect: dialect,
		retry:   transaction.DefaultRetryConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tx = transaction.NewManager(db, transaction.WithLogger(s.logger))
	return s
}

// Dialect returns the SQL dialect of the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Transactions returns the transaction manager of the store. Saves run inside
// a transaction started from it join that transaction.
func (s *Store) Transactions() *transaction.Manager {
	return s.tx
}

// Persist implements hooks.Persister
func (s *Store) Persist(ctx context.Context, entries []*hooks.HookedEntity) (map[*hooks.HookedEntity]error, error) {
	var failed map[*hooks.HookedEntity]error
	assigned := make(map[*hooks.HookedEntity]struct{})

	batch := func(tx *transaction.Transaction) error {
		failed = make(map[*hooks.HookedEntity]error)
		for _, he := range entries {
			if err := s.persistOne(ctx, tx, he); err != nil {
				var fatal fatalError
				if errors.As(err, &fatal) || transaction.IsRetryableError(err) {
					return err
				}
				converted := ConvertDBError(err)
				failed[he] = converted
				s.logger.Warn("entity write failed",
					zap.String("entity_type", he.EntityTypeName()),
					zap.Int("index", he.Index()),
					zap.Error(converted),
				)
				continue
			}
			if he.InitialState() == tracking.Added {
				assigned[he] = struct{}{}
			}
		}
		return nil
	}

	var err error
	if s.timeout > 0 {
		err = s.tx.WithTimeoutRetry(ctx, s.timeout, s.retry, batch)
	} else {
		err = s.tx.WithRetryConfig(ctx, s.retry, batch)
	}
	if err != nil {
		// ids handed out by a rolled back insert are void
		for he := range assigned {
			he.Entity().SetID(0)
		}
		return nil, err
	}

	s.logger.Debug("batch persisted",
		zap.Int("entities", len(entries)),
		zap.Int("failed", len(failed)),
	)
	return failed, nil
}

// fatalError aborts the batch instead of failing a single entity
type fatalError struct{ err error }

func (e fatalError) Error() string { return e.err.Error() }

func (e fatalError) Unwrap() error { return e.err }

func (s *Store) persistOne(ctx context.Context, tx *transaction.Transaction, he *hooks.HookedEntity) error {
	sp, err := tx.BeginNested(ctx)
	if err != nil {
		return fatalError{err}
	}

	if err := s.write(ctx, sp, he); err != nil {
		if rbErr := sp.Rollback(); rbErr != nil {
			return fatalError{fmt.Errorf("%v, rollback failed: %w", err, rbErr)}
		}
		return err
	}

	if err := sp.Commit(); err != nil {
		return fatalError{err}
	}
	return nil
}

func (s *Store) write(ctx context.Context, tx *transaction.Transaction, he *hooks.HookedEntity) error {
	e := he.Entity()
	table := entity.TableName(e)

	switch he.InitialState() {
	case tracking.Added:
		return s.insert(ctx, tx, table, e)
	case tracking.Modified:
		return s.update(ctx, tx, table, e)
	case tracking.Deleted:
		return s.delete(ctx, tx, table, e)
	default:
		return nil
	}
}

func (s *Store) insert(ctx context.Context, tx *transaction.Transaction, table string, e entity.Entity) error {
	columns, values := columnValues(e)
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = s.dialect.Placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if s.dialect == Postgres {
		var id int64
		if err := tx.QueryRowContext(ctx, query+" RETURNING id", values...).Scan(&id); err != nil {
			return err
		}
		e.SetID(id)
		return nil
	}

	res, err := tx.ExecContext(ctx, query, values...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.SetID(id)
	return nil
}

func (s *Store) update(ctx context.Context, tx *transaction.Transaction, table string, e entity.Entity) error {
	columns, values := columnValues(e)
	sets := make([]string, len(columns))
	for i, column := range columns {
		sets[i] = fmt.Sprintf("%s = %s", column, s.dialect.Placeholder(i+1))
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		table, strings.Join(sets, ", "), s.dialect.Placeholder(len(columns)+1))
	res, err := tx.ExecContext(ctx, query, append(values, e.GetID())...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) delete(ctx context.Context, tx *transaction.Transaction, table string, e entity.Entity) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", table, s.dialect.Placeholder(1))
	res, err := tx.ExecContext(ctx, query, e.GetID())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// columnValues returns the persisted columns of e except id, in field order
func columnValues(e entity.Entity) ([]string, []interface{}) {
	v := reflect.ValueOf(e)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	fields := entity.Fields(v.Type())
	columns := make([]string, 0, len(fields))
	values := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		if f.Column == "id" {
			continue
		}
		columns = append(columns, f.Column)
		values = append(values, v.FieldByIndex(f.Index).Interface())
	}
	return columns, values
}
