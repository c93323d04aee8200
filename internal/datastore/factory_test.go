package datastore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenMemoryDriver(t *testing.T) {
	t.Setenv(envDriver, "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Driver() != DriverMemory {
		t.Fatalf("driver: got %s", store.Driver())
	}
}

func TestOpenDefaultsToFilesystem(t *testing.T) {
	t.Setenv(envDriver, "")
	t.Setenv(envFSRoot, t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver: got %s", store.Driver())
	}
}

func TestOpenSQLiteDriver(t *testing.T) {
	t.Setenv(envDriver, "sqlite")
	t.Setenv(envSQLitePath, filepath.Join(t.TempDir(), "frames.db"))
	store, err := Open(context.Background())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Driver() != DriverSQLite {
		t.Fatalf("driver: got %s", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv(envDriver, "cassette")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
