package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/store"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		entity entity.Entity
		want   string
	}{
		{&Product{}, "products"},
		{&Category{}, "categories"},
		{&Manufacturer{}, "manufacturers"},
		{&Discount{}, "discounts"},
		{&Setting{}, "settings"},
		{&MenuItem{}, "menu_items"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, entity.TableName(tt.entity))
		})
	}
}

func TestSoftDeletable(t *testing.T) {
	var sd entity.SoftDeletable = &Product{Deleted: true}
	assert.True(t, sd.IsDeleted())
	sd = &Category{}
	assert.False(t, sd.IsDeleted())
}

func TestCreateSchema(t *testing.T) {
	db, dialect, err := store.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, CreateSchema(ctx, db, dialect))
	// idempotent
	require.NoError(t, CreateSchema(ctx, db, dialect))

	for _, table := range []string{"products", "categories", "manufacturers", "discounts", "settings", "menu_items"} {
		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count), table)
		assert.Zero(t, count)
	}
}

func TestTypes(t *testing.T) {
	types := Types()
	require.Len(t, types, 6)
	for _, typ := range types {
		assert.True(t, typ.Implements(entity.Type), typ.String())
	}
}
