package fs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Replaces Content Without Leftovers", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, "notes.json")

		for _, content := range []string{`{"revision": 1}`, `{"revision": 2}`} {
			if err := writeFileAtomic(filename, []byte(content), 0644); err != nil {
				t.Fatalf("writeFileAtomic failed: %v", err)
			}
			got, err := os.ReadFile(filename)
			if err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
			if string(got) != content {
				t.Errorf("expected %q, got %q", content, got)
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the target file, found %d entries", len(entries))
		}
	})

	t.Run("Applies Permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are not enforced on windows")
		}
		filename := filepath.Join(t.TempDir(), "notes.json")

		if err := writeFileAtomic(filename, []byte("{}"), 0600); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		info, err := os.Stat(filename)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}
	})

	t.Run("Fails if Directory Missing", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "missing", "notes.json")

		// The temp file is created next to the target, so the directory must exist.
		if err := writeFileAtomic(filename, []byte("{}"), 0644); err == nil {
			t.Error("expected error when directory is missing, got nil")
		}
	})
}
