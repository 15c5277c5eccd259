package main

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatCLIError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if lines := formatCLIError(nil); lines != nil {
			t.Fatalf("expected no lines, got %v", lines)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		lines := formatCLIError(errors.New("something broke"))
		if len(lines) != 1 || lines[0] != "something broke" {
			t.Fatalf("unexpected lines: %v", lines)
		}
	})

	t.Run("address in use gets listen hint", func(t *testing.T) {
		lines := formatCLIError(errors.New("listen tcp 127.0.0.1:8080: bind: address already in use"))
		joined := strings.Join(lines, "\n")
		if !strings.Contains(joined, "--listen") || !strings.Contains(joined, "SNOWMCP_LISTEN_ADDR") {
			t.Fatalf("expected listen hints, got %v", lines)
		}
	})

	t.Run("unknown tool package gets tools hint", func(t *testing.T) {
		lines := formatCLIError(errors.New(`unknown tool package "nope" (known: catalog, catalog_read, full)`))
		joined := strings.Join(lines, "\n")
		if !strings.Contains(joined, "snowmcp tools") {
			t.Fatalf("expected tools hint, got %v", lines)
		}
	})
}

func TestUniqueLines(t *testing.T) {
	got := uniqueLines([]string{"a", "", "b", "a", "b", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
