package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no notes directory is found.
var ErrRootNotFound = errors.New("notes root not found")

// rootMarkers identify a notes directory.
var rootMarkers = []string{".notes.lock", "notes.json", "notes.yaml", "notes.yml", ConfigFileName}

// FindRoot walks upwards from startDir looking for a notes directory and
// returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
