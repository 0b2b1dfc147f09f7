package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunFlags_NoFilesByDefault(t *testing.T) {
	// A bare run prints the summary only. Report files are written
	// when a path is asked for.
	for _, name := range []string{"json", "md"} {
		f := runCmd.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("flag --%s not registered", name)
		}
		if f.DefValue != "" {
			t.Errorf("expected --%s to default to empty, got %q", name, f.DefValue)
		}
	}
}

func TestReadHaystack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("raw notes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := readHaystack(path)
	if err != nil {
		t.Fatalf("readHaystack failed: %v", err)
	}
	if raw != "raw notes" {
		t.Errorf("expected file contents, got %q", raw)
	}

	if _, err := readHaystack(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
