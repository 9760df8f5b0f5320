// Package writer persists emitted bundles.
package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Write stores text verbatim as dir/file, creating dir when it does not
// exist yet. An existing bundle at that location is overwritten.
func Write(dir, file, text string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("bundle file name is empty")
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to stat output directory %s: %w", dir, err)
	case !info.IsDir():
		return "", fmt.Errorf("output path %s is not a directory", dir)
	}

	out := filepath.Join(dir, file)
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write bundle %s: %w", out, err)
	}
	return out, nil
}
