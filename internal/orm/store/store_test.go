package store

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
	"github.com/smartstore/Smartstore-sub032/internal/orm/transaction"
)

func newMockStore(t *testing.T, maxRetries int) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, Postgres, WithRetry(&transaction.RetryConfig{
		MaxRetries:  maxRetries,
		BaseBackoff: time.Millisecond,
		Isolation:   transaction.ReadCommitted,
	}))
	return s, mock
}

func expectSavepoint(mock sqlmock.Sqlmock) {
	mock.ExpectExec("^SAVEPOINT sp_").WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectRelease(mock sqlmock.Sqlmock) {
	mock.ExpectExec("^RELEASE SAVEPOINT sp_").WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectRollbackTo(mock sqlmock.Sqlmock) {
	mock.ExpectExec("^ROLLBACK TO SAVEPOINT sp_").WillReturnResult(sqlmock.NewResult(0, 0))
}

const insertWidget = "INSERT INTO widgets (name, price) VALUES ($1, $2) RETURNING id"

func TestStore_PostgresStatements(t *testing.T) {
	s, mock := newMockStore(t, 1)

	added := &widget{Name: "lamp", Price: 1.5}
	changed := &widget{BaseEntity: entity.BaseEntity{ID: 3}, Name: "desk"}
	changedEntry := tracking.NewEntry(changed, tracking.Modified)
	changed.Price = 99
	removed := &widget{BaseEntity: entity.BaseEntity{ID: 4}}

	mock.ExpectBegin()
	expectSavepoint(mock)
	mock.ExpectQuery(regexp.QuoteMeta(insertWidget)).
		WithArgs("lamp", 1.5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	expectRelease(mock)
	expectSavepoint(mock)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE widgets SET name = $1, price = $2 WHERE id = $3")).
		WithArgs("desk", 99.0, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRelease(mock)
	expectSavepoint(mock)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM widgets WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectRelease(mock)
	mock.ExpectCommit()

	result, err := save(t, newExecutor(t, nil), s,
		tracking.NewEntry(added, tracking.Added),
		changedEntry,
		tracking.NewEntry(removed, tracking.Deleted),
	)
	require.NoError(t, err)
	assert.Len(t, result.Persisted, 3)
	assert.Equal(t, int64(42), added.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ConstraintViolationFailsEntityOnly(t *testing.T) {
	s, mock := newMockStore(t, 1)

	dup := &widget{Name: "lamp"}
	ok := &widget{Name: "chair"}

	mock.ExpectBegin()
	expectSavepoint(mock)
	mock.ExpectQuery(regexp.QuoteMeta(insertWidget)).
		WithArgs("lamp", 0.0).
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (name)=(lamp) already exists."})
	expectRollbackTo(mock)
	expectSavepoint(mock)
	mock.ExpectQuery(regexp.QuoteMeta(insertWidget)).
		WithArgs("chair", 0.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	expectRelease(mock)
	mock.ExpectCommit()

	dupEntry := tracking.NewEntry(dup, tracking.Added)
	result, err := save(t, newExecutor(t, nil), s, dupEntry, tracking.NewEntry(ok, tracking.Added))
	require.NoError(t, err)
	assert.True(t, IsUniqueViolation(result.PersistErrors[dupEntry]))
	assert.Contains(t, result.PersistErrors[dupEntry].Error(), "already exists")
	assert.Equal(t, int64(8), ok.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RetriesDeadlockedBatch(t *testing.T) {
	s, mock := newMockStore(t, 2)
	w := &widget{Name: "lamp"}

	mock.ExpectBegin()
	expectSavepoint(mock)
	mock.ExpectQuery(regexp.QuoteMeta(insertWidget)).
		WillReturnError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	expectRollbackTo(mock)
	mock.ExpectRollback()

	mock.ExpectBegin()
	expectSavepoint(mock)
	mock.ExpectQuery(regexp.QuoteMeta(insertWidget)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	expectRelease(mock)
	mock.ExpectCommit()

	result, err := save(t, newExecutor(t, nil), s, tracking.NewEntry(w, tracking.Added))
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, int64(7), w.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FailedBatchResetsIDs(t *testing.T) {
	s, mock := newMockStore(t, 1)
	first := &widget{Name: "first"}
	second := &widget{Name: "second"}

	mock.ExpectBegin()
	expectSavepoint(mock)
	mock.ExpectQuery(regexp.QuoteMeta(insertWidget)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	expectRelease(mock)
	expectSavepoint(mock)
	mock.ExpectQuery(regexp.QuoteMeta(insertWidget)).
		WillReturnError(&pgconn.PgError{Code: "40001"})
	expectRollbackTo(mock)
	mock.ExpectRollback()

	result, err := save(t, newExecutor(t, nil), s,
		tracking.NewEntry(first, tracking.Added),
		tracking.NewEntry(second, tracking.Added),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, transaction.ErrDeadlock)
	assert.False(t, result.Committed)
	assert.Equal(t, int64(0), first.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SavepointFailureAbortsBatch(t *testing.T) {
	s, mock := newMockStore(t, 1)

	mock.ExpectBegin()
	mock.ExpectExec("^SAVEPOINT sp_").WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err := save(t, newExecutor(t, nil), s, tracking.NewEntry(&widget{Name: "x"}, tracking.Added))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SQLiteInsertUsesLastInsertID(t *testing.T) {
	_, s := setupSQLite(t)
	assert.Equal(t, SQLite, s.Dialect())

	w := &widget{Name: "lamp"}
	_, err := save(t, newExecutor(t, nil), s, tracking.NewEntry(w, tracking.Added))
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.ID)
}

func TestConvertDBError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, ErrUniqueViolation},
		{"pgx foreign key", &pgconn.PgError{Code: "23503"}, ErrForeignKeyViolation},
		{"pgx check", &pgconn.PgError{Code: "23514"}, ErrCheckViolation},
		{"pgx not null", &pgconn.PgError{Code: "23502", ColumnName: "name"}, ErrNotNullViolation},
		{"pq unique", &pq.Error{Code: "23505"}, ErrUniqueViolation},
		{"pq foreign key", &pq.Error{Code: "23503"}, ErrForeignKeyViolation},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrUniqueViolation},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, ErrNotNullViolation},
		{"wrapped pgx", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrUniqueViolation},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ConvertDBError(tt.err), tt.expected)
		})
	}

	assert.NoError(t, ConvertDBError(nil))
	assert.Contains(t, ConvertDBError(&pgconn.PgError{Code: "23502", ColumnName: "name"}).Error(), "column name")
}

func TestDialect(t *testing.T) {
	tests := []struct {
		driver      string
		dialect     Dialect
		placeholder string
	}{
		{"pgx", Postgres, "$3"},
		{"postgres", Postgres, "$3"},
		{"postgresql", Postgres, "$3"},
		{"sqlite3", SQLite, "?"},
		{"SQLite", SQLite, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, d)
			assert.Equal(t, tt.placeholder, d.Placeholder(3))
		})
	}

	_, err := DialectFor("oracle")
	assert.ErrorIs(t, err, ErrUnknownDriver)
	_, _, err = Open("oracle", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.Equal(t, "postgres", Postgres.String())
	assert.Equal(t, "sqlite", SQLite.String())
}

func TestOpen_Postgres(t *testing.T) {
	// sql.Open does not connect
	for _, driver := range []string{"pgx", "postgres"} {
		db, dialect, err := Open(driver, "postgres://localhost/shop?sslmode=disable")
		require.NoError(t, err)
		assert.Equal(t, Postgres, dialect)
		db.Close()
	}
}
