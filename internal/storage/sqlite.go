package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"minipack/internal/graph"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS modules (
			identity TEXT PRIMARY KEY,
			code_hash TEXT,
			code TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			from_id TEXT,
			specifier TEXT,
			to_id TEXT,
			PRIMARY KEY (from_id, specifier)
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			entry TEXT,
			output TEXT,
			module_count INTEGER,
			created_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- ManifestStore Implementation ---

// SaveGraph replaces the previous snapshot inside one transaction, so a
// reader sees either the old graph or the new one.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM edges", "DELETE FROM modules"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('entry', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, g.Entry); err != nil {
		return err
	}

	// 1. Save Modules
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO modules (identity, code_hash, code) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range g.IDs() {
		m := g.Modules[id]
		if _, err := stmt.ExecContext(ctx, id, CodeHash(m.Code), m.Code); err != nil {
			return err
		}
	}

	// 2. Save Edges
	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (from_id, specifier, to_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for _, edge := range g.Edges() {
		if _, err := edgeStmt.ExecContext(ctx, edge.From, edge.Specifier, edge.To); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	var entry string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'entry'").Scan(&entry)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}
	g := graph.NewGraph(entry)

	// 1. Load Modules
	rows, err := s.db.QueryContext(ctx, "SELECT identity, code FROM modules")
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &graph.Module{Deps: map[string]string{}}
		if err := rows.Scan(&m.ID, &m.Code); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		g.Modules[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 2. Load Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_id, specifier, to_id FROM edges")
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var edge graph.Edge
		if err := edgeRows.Scan(&edge.From, &edge.Specifier, &edge.To); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		m, ok := g.Modules[edge.From]
		if !ok {
			return nil, fmt.Errorf("edge from unknown module %s", edge.From)
		}
		m.Deps[edge.Specifier] = edge.To
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	g.RebuildIndices()
	return g, nil
}

func (s *SQLiteStore) ModuleHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT code_hash FROM modules WHERE identity = ?", id).Scan(&hash)
	return hash, err
}

// --- BuildLog Implementation ---

func (s *SQLiteStore) RecordBuild(ctx context.Context, b Build) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (id, entry, output, module_count, created_at) VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Entry, b.Output, b.Modules, b.CreatedAt.UnixNano())
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

// ListBuilds returns the most recent builds first.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry, output, module_count, created_at FROM builds
		ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var created int64
		if err := rows.Scan(&b.ID, &b.Entry, &b.Output, &b.Modules, &created); err != nil {
			return nil, err
		}
		b.CreatedAt = time.Unix(0, created)
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// CodeHash is the hex sha256 of a module's transformed code.
func CodeHash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

var _ Store = (*SQLiteStore)(nil)
