package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	// database/sql drivers
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect is the SQL flavor spoken by a driver
type Dialect int

const (
	// Postgres uses $n placeholders and INSERT ... RETURNING
	Postgres Dialect = iota
	// SQLite uses ? placeholders and LastInsertId
	SQLite
)

// String returns the string representation of the dialect
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Placeholder returns the n-th (1-based) bind parameter
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Open opens a database for the given driver and data source. "postgresql"
// maps to the lib/pq driver and "sqlite" to go-sqlite3.
func Open(driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, 0, err
	}

	name := strings.ToLower(driver)
	switch name {
	case "postgresql":
		name = "postgres"
	case "sqlite":
		name = "sqlite3"
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s database: %w", name, err)
	}
	if dialect == SQLite {
		// one writer; in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	return db, dialect, nil
}
