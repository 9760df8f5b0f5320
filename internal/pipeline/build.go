// Package pipeline wires the analyzer, graph builder, emitter and writer
// into a single bundle build.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"minipack/internal/analyzer"
	"minipack/internal/config"
	"minipack/internal/emitter"
	"minipack/internal/extractor"
	"minipack/internal/graph"
	"minipack/internal/index"
	"minipack/internal/resolver"
	"minipack/internal/storage"
	"minipack/internal/writer"

	"github.com/rs/zerolog/log"
)

// Result describes a completed build.
type Result struct {
	Graph   *graph.Graph
	Text    string
	Output  string
	Stats   graph.Stats
	Changed []string
	BuildID string
}

// Bundler holds the components of one configured project.
type Bundler struct {
	cfg      *config.Config
	resolver *resolver.Resolver
	indexer  *index.Indexer
	emitter  *emitter.Emitter
	store    storage.Store
}

// NewBundler constructs every stage from cfg.
func NewBundler(cfg *config.Config) (*Bundler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r, err := resolver.New(cfg.Project.Root, cfg.Resolve.Extensions)
	if err != nil {
		return nil, err
	}
	ext, err := extractor.NewExtractor("javascript")
	if err != nil {
		return nil, err
	}
	tr, err := extractor.NewESBuildTransformer(cfg.Transform.Target)
	if err != nil {
		return nil, err
	}
	em, err := emitter.NewEmitter(cfg.EmitOptions())
	if err != nil {
		return nil, err
	}
	return &Bundler{
		cfg:      cfg,
		resolver: r,
		indexer:  index.NewIndexer(analyzer.NewAnalyzer(r, ext, tr), r),
		emitter:  em,
	}, nil
}

// WithStore records build manifests in s.
func (b *Bundler) WithStore(s storage.Store) *Bundler {
	b.store = s
	return b
}

// Resolver exposes the project resolver.
func (b *Bundler) Resolver() *resolver.Resolver {
	return b.resolver
}

// Indexer exposes the graph builder.
func (b *Bundler) Indexer() *index.Indexer {
	return b.indexer
}

// Graph builds the dependency graph for the configured entry.
func (b *Bundler) Graph() (*graph.Graph, error) {
	return b.indexer.BuildGraph(b.projectPath(b.cfg.Project.Entry))
}

// Bundle builds and emits the bundle for entry without writing it. The
// entry is taken relative to the project root.
func (b *Bundler) Bundle(entry string) (*graph.Graph, string, error) {
	g, err := b.indexer.BuildGraph(b.projectPath(entry))
	if err != nil {
		return nil, "", err
	}
	text, err := b.emitter.Emit(g.Entry, g)
	if err != nil {
		return nil, "", err
	}
	return g, text, nil
}

// Build runs graph building, emission and writing for the configured entry.
// Nothing is written when any stage fails.
func (b *Bundler) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	g, text, err := b.Bundle(b.cfg.Project.Entry)
	if err != nil {
		return nil, err
	}

	res := &Result{Graph: g, Text: text, Stats: g.Stats()}
	if b.store != nil {
		if res.Changed, err = b.changedModules(ctx, g); err != nil {
			return nil, fmt.Errorf("failed to compare manifest: %w", err)
		}
	}

	res.Output, err = writer.Write(b.projectPath(b.cfg.Output.Dir), b.cfg.Output.File, text)
	if err != nil {
		return nil, err
	}

	if b.store != nil {
		if err := b.manifestStage(ctx, res); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("entry", g.Entry).
		Str("output", res.Output).
		Int("modules", res.Stats.Modules).
		Int("edges", res.Stats.Edges).
		Int("bytes", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("bundle written")

	return res, nil
}

func (b *Bundler) manifestStage(ctx context.Context, res *Result) error {
	if err := b.store.SaveGraph(ctx, res.Graph); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	id, err := b.store.RecordBuild(ctx, storage.Build{
		Entry:   res.Graph.Entry,
		Output:  res.Output,
		Modules: res.Graph.Len(),
	})
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	res.BuildID = id
	return nil
}

// changedModules lists modules whose code differs from the stored manifest,
// including modules that were not in it.
func (b *Bundler) changedModules(ctx context.Context, g *graph.Graph) ([]string, error) {
	var changed []string
	for _, id := range g.IDs() {
		prev, err := b.store.ModuleHash(ctx, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return nil, err
		case prev == storage.CodeHash(g.Modules[id].Code):
			continue
		}
		changed = append(changed, id)
	}
	return changed, nil
}

func (b *Bundler) projectPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.resolver.Root(), filepath.FromSlash(p))
}
