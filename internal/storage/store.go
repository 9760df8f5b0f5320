package storage

import (
	"context"
	"time"

	"minipack/internal/graph"
)

// Store combines graph and build history storage capabilities.
type Store interface {
	ManifestStore
	BuildLog
	Close() error
}

// ManifestStore persists the module graph of the latest build.
type ManifestStore interface {
	// SaveGraph replaces the stored snapshot with g.
	SaveGraph(ctx context.Context, g *graph.Graph) error

	// LoadGraph returns the stored snapshot.
	LoadGraph(ctx context.Context) (*graph.Graph, error)

	// ModuleHash returns the sha256 of a stored module's code.
	ModuleHash(ctx context.Context, id string) (string, error)
}

// BuildLog records completed builds.
type BuildLog interface {
	RecordBuild(ctx context.Context, b Build) (string, error)
	ListBuilds(ctx context.Context, limit int) ([]Build, error)
}

// Build is one completed bundle write.
type Build struct {
	ID        string
	Entry     string
	Output    string
	Modules   int
	CreatedAt time.Time
}
