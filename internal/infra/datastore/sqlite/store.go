// Package sqlite provides a datastore backed by a single SQLite
// database file, suited to projects that travel between machines.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"gravcore/internal/datastore/core"
)

// Store keeps one row per node with the JSON frame payload as a blob,
// plus a key/value table for node attributes. A mutex serializes writes
// because the driver supports a single writer at a time.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

var _ core.Store = (*Store)(nil)

// New opens (or creates) the database file at path and ensures the
// frame tables exist.
func New(path string) (*Store, error) {
	if path == "" {
		path = "dgpdata.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS frames (
			node TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS frame_attrs (
			node TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (node, key)
		)`,
	} {
		if _, err := db.Exec(ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create frame tables: %w", err)
		}
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

func (s *Store) Put(ctx context.Context, node string, frame *core.Frame) error {
	key, err := core.CleanNode(node)
	if err != nil {
		return err
	}
	payload, err := core.MarshalFrame(frame)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO frames (node, payload) VALUES (?, ?)
		ON CONFLICT (node) DO UPDATE SET payload = excluded.payload`, key, payload); err != nil {
		return fmt.Errorf("store frame: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM frame_attrs WHERE node = ?`, key); err != nil {
		return fmt.Errorf("clear frame attrs: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, node string) (*core.Frame, error) {
	key, err := core.CleanNode(node)
	if err != nil {
		return nil, err
	}
	var payload []byte
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM frames WHERE node = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NodeNotFoundError{Node: key}
	}
	if err != nil {
		return nil, fmt.Errorf("select frame: %w", err)
	}
	return core.UnmarshalFrame(payload)
}

func (s *Store) Delete(ctx context.Context, node string) (bool, error) {
	key, err := core.CleanNode(node)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM frames WHERE node = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete frame: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM frame_attrs WHERE node = ?`, key); err != nil {
		return false, fmt.Errorf("delete frame attrs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	// Filtered in Go: LIKE treats '_' as a wildcard and node paths are
	// full of them.
	rows, err := s.db.QueryContext(ctx, `SELECT node FROM frames ORDER BY node`)
	if err != nil {
		return nil, fmt.Errorf("select nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var nodes []string
	for rows.Next() {
		var node string
		if err := rows.Scan(&node); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if prefix == "" || strings.HasPrefix(node, prefix) {
			nodes = append(nodes, node)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(nodes)
	return nodes, nil
}

func (s *Store) SetNodeAttr(ctx context.Context, node, key, value string) error {
	cleanKey, err := core.CleanNode(node)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireNode(ctx, cleanKey); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO frame_attrs (node, key, value) VALUES (?, ?, ?)
		ON CONFLICT (node, key) DO UPDATE SET value = excluded.value`, cleanKey, key, value); err != nil {
		return fmt.Errorf("store frame attr: %w", err)
	}
	return nil
}

func (s *Store) NodeAttrs(ctx context.Context, node string) (map[string]string, error) {
	cleanKey, err := core.CleanNode(node)
	if err != nil {
		return nil, err
	}
	if err := s.requireNode(ctx, cleanKey); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM frame_attrs WHERE node = ?`, cleanKey)
	if err != nil {
		return nil, fmt.Errorf("select frame attrs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	attrs := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan frame attr: %w", err)
		}
		attrs[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (s *Store) requireNode(ctx context.Context, node string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM frames WHERE node = ?`, node).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NodeNotFoundError{Node: node}
	}
	return err
}

func (s *Store) Close() error { return s.db.Close() }
