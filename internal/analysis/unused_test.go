package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"minipack/internal/crawler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUnused(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"src/index.js", "src/app.js", "src/util.js", "src/math.js", "src/other.js", "src/legacy.js", "src/old/helper.mjs"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	unused, err := FindUnused(chainGraph(), root, crawler.NewCrawler(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"./src/legacy.js", "./src/old/helper.mjs"}, unused)
}
