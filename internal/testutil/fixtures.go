package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/ir"
	"github.com/roach88/bfc/internal/store"
)

// Parse compiles src with default settings and fails the test on error.
func Parse(t testing.TB, src string) ir.Program {
	t.Helper()
	res, err := compiler.ParseString(nil, src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return res.Program
}

// WriteFile writes content to name inside a fresh temp dir and returns
// the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// OpenStore opens a file-backed store in a temp dir, closed at cleanup.
// Returns the store and its path so commands under test can reopen it.
func OpenStore(t testing.TB) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}
