package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Success writes a green check line
func Success(w io.Writer, noColor bool, format string, args ...interface{}) {
	c := color.New(color.FgGreen, color.Bold)
	if noColor {
		c.DisableColor()
	}
	fmt.Fprintln(w, c.Sprintf("✓ "+format, args...))
}

// Warn writes a yellow warning line
func Warn(w io.Writer, noColor bool, format string, args ...interface{}) {
	c := color.New(color.FgYellow)
	if noColor {
		c.DisableColor()
	}
	fmt.Fprintln(w, c.Sprintf("! "+format, args...))
}

// NotFound formats an unknown-name error with "did you mean" suggestions
func NotFound(kind, name string, suggestions []string, noColor bool) string {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	if noColor {
		red.DisableColor()
		yellow.DisableColor()
	}

	var b strings.Builder
	red.Fprintf(&b, "unknown %s %q", kind, name)
	if len(suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "  did you mean: %s?", strings.Join(suggestions, ", "))
	}
	return b.String()
}
