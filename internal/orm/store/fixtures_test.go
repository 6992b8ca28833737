package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
)

type widget struct {
	entity.BaseEntity
	Name  string  `db:"name"`
	Price float64 `db:"price"`
	Notes string  `db:"-"`
}

// insertLog records the ids post-save hooks observe
type insertLog struct {
	hooks.EntityHook[*widget]
	ids *[]int64
}

func (h *insertLog) OnInserted(ctx *hooks.Context, e *hooks.HookedEntity) (hooks.Result, error) {
	*h.ids = append(*h.ids, e.Entity().GetID())
	return hooks.Ok, nil
}

func newExecutor(t *testing.T, ids *[]int64) *hooks.Executor {
	t.Helper()
	r := hooks.NewRegistry()
	if ids != nil {
		_, err := hooks.Register(r, func() *insertLog { return &insertLog{ids: ids} })
		require.NoError(t, err)
	}
	return hooks.NewExecutor(r.Build(hooks.ImportanceGate{Installed: true}))
}

func setupSQLite(t *testing.T) (*sql.DB, *Store) {
	t.Helper()

	db, dialect, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE widgets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			price REAL NOT NULL DEFAULT 0
		)
	`)
	require.NoError(t, err)

	return db, New(db, dialect)
}

func countWidgets(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM widgets").Scan(&n))
	return n
}

func save(t *testing.T, exec *hooks.Executor, p hooks.Persister, entries ...*tracking.Entry) (*hooks.SaveResult, error) {
	t.Helper()
	return exec.Save(context.Background(), hooks.SaveRequest{Entries: entries, Persister: p})
}
