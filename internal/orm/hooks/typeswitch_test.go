package hooks

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSwitch(t *testing.T) {
	ts := NewTypeSwitch[string]()
	Case[*productEntity](ts, "product")
	Case[*categoryEntity](ts, "category")
	Case[*productEntity](ts, "product-v2")

	h, ok := ts.Lookup(newHookedEntity(added(&productEntity{}), PrimaryContext, 0))
	require.True(t, ok)
	assert.Equal(t, "product-v2", h)

	category := newHookedEntity(added(&categoryEntity{}), PrimaryContext, 1)
	assert.True(t, ts.Handles(category))

	note := newHookedEntity(added(&noteEntity{}), PrimaryContext, 2)
	assert.False(t, ts.Handles(note))
	_, ok = ts.Lookup(note)
	assert.False(t, ok)

	assert.Equal(t, []reflect.Type{productType, categoryType}, ts.Types())
}

func TestTypeSwitch_Chained(t *testing.T) {
	ts := Case[*noteEntity](Case[*productEntity](NewTypeSwitch[func() int](), func() int { return 1 }), func() int { return 2 })

	h, ok := ts.Lookup(newHookedEntity(added(&noteEntity{}), PrimaryContext, 0))
	require.True(t, ok)
	assert.Equal(t, 2, h())
}
