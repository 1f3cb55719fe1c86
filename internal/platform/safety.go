package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}

	// go test binaries end in .test
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveNotesPath determines the actual notes directory based on safety rules.
// With forceTemp it re-roots userPath under a temporary directory, unless
// userPath already lives under the system temp directory.
func ResolveNotesPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	cleanUserPath := filepath.Clean(userPath)
	if userPath != "" {
		rel, err := filepath.Rel(os.TempDir(), cleanUserPath)
		if err == nil && !strings.HasPrefix(rel, "..") && filepath.IsAbs(cleanUserPath) {
			return cleanUserPath
		}
	}

	subName := filepath.Base(cleanUserPath)
	if userPath == "" || subName == "." || subName == string(os.PathSeparator) {
		subName = "default"
	}

	return filepath.Join(os.TempDir(), "notepad-dev", subName)
}
