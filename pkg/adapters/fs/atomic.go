package fs

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// writeFileAtomic replaces filename with data through a temp file and a rename,
// so readers see either the old content or the new one, never a mix.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	if err := atomic.WriteFile(filename, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}

	// atomic.WriteFile keeps the mode of an existing file but not for new ones.
	if err := os.Chmod(filename, perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", filename, err)
	}

	return nil
}
