package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "dist", "nested")

	t.Run("Creates missing directory", func(t *testing.T) {
		out, err := Write(dir, "bundle.js", "first")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "bundle.js"), out)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "first", string(got))
	})

	t.Run("Overwrites existing bundle", func(t *testing.T) {
		out, err := Write(dir, "bundle.js", "second")
		require.NoError(t, err)

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("Output path is a file", func(t *testing.T) {
		file := filepath.Join(base, "plain")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		_, err := Write(file, "bundle.js", "x")
		assert.Error(t, err)
	})

	t.Run("Empty file name", func(t *testing.T) {
		_, err := Write(dir, "", "x")
		assert.Error(t, err)
	})
}
