package crawler

import (
	"io/fs"
	"path/filepath"

	"minipack/internal/resolver"
)

// Crawler scans a directory for module source files.
type Crawler struct {
	extensions map[string]bool
	ignored    []string
}

// NewCrawler creates a crawler matching files with the given extensions.
// Nil means resolver.DefaultExtensions.
func NewCrawler(extensions []string) *Crawler {
	if extensions == nil {
		extensions = resolver.DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[e] = true
	}
	return &Crawler{
		extensions: exts,
		ignored:    []string{".git", "node_modules", "dist", "testdata"},
	}
}

// Ignore adds directory names to skip.
func (c *Crawler) Ignore(names ...string) {
	c.ignored = append(c.ignored, names...)
}

// ScanProject walks root and streams the identity of every module file,
// in lexical walk order.
func (c *Crawler) ScanProject(root string, onModule func(id string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !d.Type().IsRegular() || !c.extensions[filepath.Ext(d.Name())] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		onModule(resolver.Identity(rel))
		return nil
	})
}
