package transaction

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory database with a settings table. A single
// connection keeps every transaction on the same in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE settings (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			value TEXT DEFAULT ''
		)
	`)
	if err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func countSettings(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func insertSetting(tx *Transaction, name string) error {
	_, err := tx.ExecContext(tx.Context(), "INSERT INTO settings (name) VALUES (?)", name)
	return err
}

func TestManager_Begin(t *testing.T) {
	mgr := NewManager(setupTestDB(t))

	tx, err := mgr.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if tx.Level() != 0 {
		t.Errorf("expected level 0, got %d", tx.Level())
	}
	if tx.IsolationLevel() != ReadCommitted {
		t.Errorf("expected ReadCommitted, got %v", tx.IsolationLevel())
	}
	if tx.Tx() == nil {
		t.Error("expected underlying sql.Tx")
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback failed: %v", err)
	}
}

func TestIsolationLevel(t *testing.T) {
	tests := []struct {
		level    IsolationLevel
		name     string
		sqlLevel sql.IsolationLevel
	}{
		{ReadUncommitted, "READ UNCOMMITTED", sql.LevelReadUncommitted},
		{ReadCommitted, "READ COMMITTED", sql.LevelReadCommitted},
		{RepeatableRead, "REPEATABLE READ", sql.LevelRepeatableRead},
		{Serializable, "SERIALIZABLE", sql.LevelSerializable},
		{IsolationLevel(42), "READ COMMITTED", sql.LevelReadCommitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.level.ToSQLOptions().Isolation; got != tt.sqlLevel {
				t.Errorf("ToSQLOptions() = %v, want %v", got, tt.sqlLevel)
			}
		})
	}
}

func TestTransaction_CommitAndRollback(t *testing.T) {
	db := setupTestDB(t)
	mgr := NewManager(db)
	ctx := context.Background()

	tx, err := mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := insertSetting(tx, "kept"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !tx.IsCommitted() {
		t.Error("expected committed")
	}
	if err := tx.Commit(); !errors.Is(err, ErrTransactionDone) {
		t.Errorf("expected ErrTransactionDone on second commit, got %v", err)
	}
	if err := tx.Rollback(); !errors.Is(err, ErrTransactionDone) {
		t.Errorf("expected ErrTransactionDone on rollback after commit, got %v", err)
	}

	tx, err = mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := insertSetting(tx, "dropped"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("second Rollback should be a no-op, got %v", err)
	}
	if !tx.IsRolledBack() {
		t.Error("expected rolled back")
	}

	if n := countSettings(t, db); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestTransaction_NestedSavepoints(t *testing.T) {
	db := setupTestDB(t)
	mgr := NewManager(db)
	ctx := context.Background()

	outer, err := mgr.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := insertSetting(outer, "outer"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	inner, err := outer.BeginNested(ctx)
	if err != nil {
		t.Fatalf("BeginNested failed: %v", err)
	}
	if inner.Level() != 1 {
		t.Errorf("expected level 1, got %d", inner.Level())
	}
	if err := insertSetting(inner, "inner"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := inner.Rollback(); err != nil {
		t.Fatalf("savepoint rollback failed: %v", err)
	}

	kept, err := outer.BeginNested(ctx)
	if err != nil {
		t.Fatalf("BeginNested failed: %v", err)
	}
	if err := insertSetting(kept, "kept"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := kept.Commit(); err != nil {
		t.Fatalf("savepoint release failed: %v", err)
	}

	if err := outer.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if n := countSettings(t, db); n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
}

func TestTransaction_BeginNestedWithoutTransaction(t *testing.T) {
	tx := &Transaction{}
	if _, err := tx.BeginNested(context.Background()); !errors.Is(err, ErrNestedTransactionNotSupported) {
		t.Errorf("expected ErrNestedTransactionNotSupported, got %v", err)
	}
}

func TestManager_WithTransaction(t *testing.T) {
	db := setupTestDB(t)
	mgr := NewManager(db)
	ctx := context.Background()

	err := mgr.WithTransaction(ctx, func(tx *Transaction) error {
		return insertSetting(tx, "committed")
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	boom := errors.New("boom")
	err = mgr.WithTransaction(ctx, func(tx *Transaction) error {
		if err := insertSetting(tx, "rolled back"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	if n := countSettings(t, db); n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestManager_WithTransactionPanic(t *testing.T) {
	db := setupTestDB(t)
	mgr := NewManager(db)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = mgr.WithTransaction(context.Background(), func(tx *Transaction) error {
			if err := insertSetting(tx, "x"); err != nil {
				return err
			}
			panic("hook exploded")
		})
	}()

	if n := countSettings(t, db); n != 0 {
		t.Errorf("expected rollback after panic, got %d rows", n)
	}
}

func TestManager_WithTransactionJoinsAmbient(t *testing.T) {
	db := setupTestDB(t)
	mgr := NewManager(db)

	outer, err := mgr.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	ctx := outer.Context()

	if got, ok := FromContext(ctx); !ok || got != outer {
		t.Fatal("expected outer transaction in context")
	}

	err = mgr.WithTransaction(ctx, func(tx *Transaction) error {
		if tx.Level() != 1 {
			t.Errorf("expected savepoint level 1, got %d", tx.Level())
		}
		return insertSetting(tx, "joined")
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	// the outer owner decides
	if err := outer.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if n := countSettings(t, db); n != 0 {
		t.Errorf("expected joined insert to roll back with outer, got %d rows", n)
	}
}

func TestFromContext_Empty(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no transaction")
	}
}
