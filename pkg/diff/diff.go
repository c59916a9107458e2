// Package diff renders readable differences for test failures.
package diff

import (
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

// Values pretty-prints both values, exported fields only, and diffs them.
// It returns "" when they print the same.
func Values[T any](want, got T) string {
	printer := pp.New()
	printer.SetExportedOnly(true)
	printer.SetColoringEnabled(false)
	return Text(printer.Sprint(want), printer.Sprint(got))
}

// Text diffs two multi-line strings line by line.
func Text(want, got string) string {
	d := diff.Diff(got, want)
	if d == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nto turn ACTUAL into EXPECTED:\n\n")
	b.WriteString("add:    +\nremove: -\n\n")
	b.WriteString(d)
	return b.String()
}

// RequireEqual fails the test with a line diff when the values differ.
func RequireEqual[T any](t testing.TB, want, got T) {
	t.Helper()
	if d := Values(want, got); d != "" {
		t.Fatal(d)
	}
}

// RequireText fails the test with a line diff when the strings differ.
func RequireText(t testing.TB, want, got string) {
	t.Helper()
	if d := Text(want, got); d != "" {
		t.Fatal(d)
	}
}
