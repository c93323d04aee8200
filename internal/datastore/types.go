// Package datastore re-exports the bulk-series storage abstractions and
// selects a concrete backend for the workspace layer.
package datastore

import (
	"gravcore/internal/datastore/core"
)

type (
	// Driver identifies a bulk-data backend driver.
	Driver = core.Driver
	// Frame is the columnar series stored for one data-file node.
	Frame = core.Frame
	// Column is one named series of a frame.
	Column = core.Column
	// NodeNotFoundError reports a read of a node with no stored frame.
	NodeNotFoundError = core.NodeNotFoundError
	// Store is the interface for bulk-data storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
	// DriverSQLite is the embedded single-file database driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the shared relational database driver.
	DriverPostgres = core.DriverPostgres
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
)

// NewFrame constructs a frame over a shared microsecond-epoch index.
func NewFrame(index []int64, columns ...Column) *Frame {
	return core.NewFrame(index, columns...)
}

// MarshalFrame validates a frame and encodes it to the storage payload.
func MarshalFrame(f *Frame) ([]byte, error) { return core.MarshalFrame(f) }

// UnmarshalFrame decodes a stored frame payload and validates it.
func UnmarshalFrame(data []byte) (*Frame, error) { return core.UnmarshalFrame(data) }

// IsNotFound reports whether err indicates a missing node.
func IsNotFound(err error) bool { return core.IsNotFound(err) }

// CleanNode validates a node path and returns its canonical form.
func CleanNode(node string) (string, error) { return core.CleanNode(node) }
