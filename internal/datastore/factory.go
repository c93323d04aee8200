package datastore

import (
	"context"
	"fmt"
	"os"
	"strings"

	fsstore "gravcore/internal/infra/datastore/fs"
	memorystore "gravcore/internal/infra/datastore/memory"
	postgresstore "gravcore/internal/infra/datastore/postgres"
	s3store "gravcore/internal/infra/datastore/s3"
	sqlitestore "gravcore/internal/infra/datastore/sqlite"
)

const (
	envDriver      = "GRAVCORE_DATA_DRIVER"
	envFSRoot      = "GRAVCORE_DATA_FS_ROOT"
	envSQLitePath  = "GRAVCORE_DATA_SQLITE_PATH"
	envPostgresDSN = "GRAVCORE_DATA_POSTGRES_DSN"
)

// S3Config configures the S3-backed datastore.
type S3Config = s3store.Config

// Open selects a datastore backend from the environment.
//
//	GRAVCORE_DATA_DRIVER: fs (default) | memory | sqlite | postgres | s3
//	GRAVCORE_DATA_FS_ROOT: root directory for the fs driver
//	GRAVCORE_DATA_SQLITE_PATH: database file for the sqlite driver
//	GRAVCORE_DATA_POSTGRES_DSN: connection string for the postgres driver
//
// The s3 driver reads its own GRAVCORE_DATA_S3_* variables.
func Open(ctx context.Context) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(os.Getenv(envDriver))))
	switch driver {
	case DriverFilesystem, "":
		return NewFilesystem(os.Getenv(envFSRoot))
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(os.Getenv(envSQLitePath))
	case DriverPostgres:
		return NewPostgres(ctx, os.Getenv(envPostgresDSN))
	case DriverS3:
		return NewS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("unsupported datastore driver %q", driver)
	}
}

// NewFilesystem returns a filesystem-backed store rooted at root.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// NewMemory returns an in-memory store for tests and scratch sessions.
func NewMemory() Store { return memorystore.New() }

// NewSQLite returns a store backed by a single SQLite database file.
func NewSQLite(path string) (Store, error) { return sqlitestore.New(path) }

// NewPostgres returns a store backed by a PostgreSQL database.
func NewPostgres(ctx context.Context, dsn string) (Store, error) {
	return postgresstore.New(ctx, dsn)
}

// NewS3 returns a store backed by an S3 bucket.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3store.New(ctx, cfg) }

// NewS3FromEnv constructs the S3 store from GRAVCORE_DATA_S3_* variables.
func NewS3FromEnv(ctx context.Context) (Store, error) { return s3store.OpenFromEnv(ctx) }
