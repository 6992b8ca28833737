// Package ui renders hookctl output
package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders aligned columns with a colored header
type Table struct {
	w       io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{w: w, headers: headers, noColor: noColor}
}

// AddRow appends a row; missing cells render empty
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}

	header := t.color(color.Bold, color.FgCyan)
	rule := t.color(color.FgHiBlack)

	cells := make([]string, len(widths))
	for i, h := range t.headers {
		cells[i] = header.Sprint(pad(h, widths[i]))
	}
	t.line(cells)

	for i, width := range widths {
		cells[i] = rule.Sprint(strings.Repeat("─", width))
	}
	t.line(cells)

	for _, row := range t.rows {
		for i, width := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, width)
		}
		t.line(cells)
	}
}

func (t *Table) line(cells []string) {
	fmt.Fprintln(t.w, strings.TrimRight(strings.Join(cells, "  "), " "))
}

func (t *Table) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.noColor {
		c.DisableColor()
	}
	return c
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// KeyValues renders "key: value" lines with aligned values
type KeyValues struct {
	w       io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValues creates an empty key/value list
func NewKeyValues(w io.Writer, noColor bool) *KeyValues {
	return &KeyValues{w: w, noColor: noColor}
}

// Add appends a pair
func (kv *KeyValues) Add(key string, value interface{}) {
	kv.keys = append(kv.keys, key)
	kv.values = append(kv.values, fmt.Sprint(value))
}

// Render writes the pairs
func (kv *KeyValues) Render() {
	width := 0
	for _, k := range kv.keys {
		width = max(width, utf8.RuneCountInString(k)+1)
	}

	cyan := color.New(color.FgCyan)
	if kv.noColor {
		cyan.DisableColor()
	}
	for i, k := range kv.keys {
		fmt.Fprintf(kv.w, "%s %s\n", cyan.Sprint(pad(k+":", width)), kv.values[i])
	}
}
