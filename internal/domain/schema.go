package domain

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smartstore/Smartstore-sub032/internal/orm/store"
)

// CreateSchema creates the tables of every entity in this package. The
// statements use the SQL subset sqlite and postgres share; only the id column
// differs per dialect.
func CreateSchema(ctx context.Context, db *sql.DB, dialect store.Dialect) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dialect == store.Postgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, fmt.Sprintf(stmt, id)); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id %s,
		name TEXT NOT NULL,
		sku TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		has_discounts_applied BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id %s,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		parent_id INTEGER NOT NULL DEFAULT 0,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS manufacturers (
		id %s,
		name TEXT NOT NULL,
		published BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS discounts (
		id %s,
		name TEXT NOT NULL,
		product_id INTEGER NOT NULL,
		percent REAL NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id %s,
		name TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL DEFAULT '',
		store_id INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id %s,
		menu_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT ''
	)`,
}
