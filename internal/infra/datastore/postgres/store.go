// Package postgres provides a PostgreSQL-backed datastore for
// deployments where several operators share one project archive.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"gravcore/internal/datastore/core"
)

var _ core.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN targets a local development server; real deployments
	// override it through the environment.
	defaultDSN = "postgres://localhost/gravcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store keeps one row per node with the JSON frame payload, plus a
// key/value table for node attributes.
type Store struct {
	db *sql.DB
}

// New opens a PostgreSQL-backed store using the provided DSN (falls
// back to defaultDSN), verifies connectivity, and ensures the frame
// tables exist.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	open := sqlOpen
	openMu.Unlock()
	db, err := open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS frames (
			node TEXT PRIMARY KEY,
			payload BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS frame_attrs (
			node TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (node, key)
		)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create frame tables: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverPostgres }

func (s *Store) Put(ctx context.Context, node string, frame *core.Frame) error {
	key, err := core.CleanNode(node)
	if err != nil {
		return err
	}
	payload, err := core.MarshalFrame(frame)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO frames (node, payload) VALUES ($1, $2)
		ON CONFLICT (node) DO UPDATE SET payload = EXCLUDED.payload`, key, payload); err != nil {
		return fmt.Errorf("store frame: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM frame_attrs WHERE node = $1`, key); err != nil {
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
	err = s.db.QueryRowContext(ctx, `SELECT payload FROM frames WHERE node = $1`, key).Scan(&payload)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM frames WHERE node = $1`, key)
	if err != nil {
		return false, fmt.Errorf("delete frame: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM frame_attrs WHERE node = $1`, key); err != nil {
		return false, fmt.Errorf("delete frame attrs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
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
	if err := s.requireNode(ctx, cleanKey); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO frame_attrs (node, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (node, key) DO UPDATE SET value = EXCLUDED.value`, cleanKey, key, value); err != nil {
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
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM frame_attrs WHERE node = $1`, cleanKey)
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
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM frames WHERE node = $1`, node).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NodeNotFoundError{Node: node}
	}
	return err
}

func (s *Store) Close() error { return s.db.Close() }
