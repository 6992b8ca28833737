package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "HOOK", "ORDER")
	table.AddRow("SlugNormalizer", "-10")
	table.AddRow("LinkCacheHook")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "HOOK            ORDER", lines[0])
	assert.Equal(t, strings.Repeat("─", 14)+"  "+strings.Repeat("─", 5), lines[1])
	assert.Equal(t, "SlugNormalizer  -10", lines[2])
	assert.Equal(t, "LinkCacheHook", lines[3])
	assert.Equal(t, 2, table.Len())
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	assert.Empty(t, buf.String())
}

func TestKeyValues(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValues(&buf, true)
	kv.Add("session", "abc")
	kv.Add("persisted", 3)
	kv.Render()

	assert.Equal(t, "session:   abc\npersisted: 3\n", buf.String())
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, true, "saved %d entities", 2)
	Warn(&buf, true, "%d failures", 1)
	assert.Equal(t, "✓ saved 2 entities\n! 1 failures\n", buf.String())

	msg := NotFound("entity", "Prodcut", []string{"Product"}, true)
	assert.Equal(t, "unknown entity \"Prodcut\"\n  did you mean: Product?", msg)
	assert.Equal(t, `unknown entity "x"`, NotFound("entity", "x", nil, true))
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"crème", "creme", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%s/%s", tt.a, tt.b)
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"Product", "Category", "Setting", "Discount"}
	assert.Equal(t, []string{"Product"}, Suggest("prodcut", candidates, 3))
	assert.Equal(t, []string{"Setting"}, Suggest("Settings", candidates, 3))
	assert.Empty(t, Suggest("xyz", candidates, 3))
}
