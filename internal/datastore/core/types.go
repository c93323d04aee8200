// Package core defines the core abstractions for bulk-series storage
// backends used internally by the workspace layer.
package core

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Driver identifies a concrete bulk-data backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory" // in-memory (tests)
	// DriverSQLite represents a single-file SQLite implementation.
	DriverSQLite Driver = "sqlite" // embedded single-file database
	// DriverPostgres represents a PostgreSQL implementation.
	DriverPostgres Driver = "postgres" // shared relational database
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3" // S3 / MinIO compatible
)

// Store is the bulk-series backend addressed by data-file node paths of
// the form "/<group>/_<uid>". Implementations persist whole frames; node
// attributes carry small string annotations alongside a frame, such as
// the hash of the source file it was read from.
type Store interface {
	// Put stores the frame for node, replacing any previous frame and
	// its attributes.
	Put(ctx context.Context, node string, frame *Frame) error
	// Get returns the frame stored for node.
	Get(ctx context.Context, node string) (*Frame, error)
	// Delete removes the node's frame and attributes, reporting whether
	// a frame existed.
	Delete(ctx context.Context, node string) (bool, error)
	// List returns the stored node paths with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// SetNodeAttr annotates an existing node with a key/value pair.
	SetNodeAttr(ctx context.Context, node, key, value string) error
	// NodeAttrs returns the annotations stored for node.
	NodeAttrs(ctx context.Context, node string) (map[string]string, error)
	Driver() Driver
	Close() error
}

// NodeNotFoundError reports a read of a node path with no stored frame.
type NodeNotFoundError struct {
	Node string
}

func (e NodeNotFoundError) Error() string {
	return fmt.Sprintf("no frame stored at %s", e.Node)
}

// IsNotFound reports whether err indicates a missing node.
func IsNotFound(err error) bool {
	var nf NodeNotFoundError
	return errors.As(err, &nf)
}

// CleanNode validates a node path and returns its canonical form: a
// rooted, slash-separated path with no traversal or empty segments.
func CleanNode(node string) (string, error) {
	if strings.TrimSpace(node) == "" {
		return "", fmt.Errorf("empty node path")
	}
	if !strings.HasPrefix(node, "/") {
		return "", fmt.Errorf("node path %q is not rooted", node)
	}
	if strings.Contains(node, "..") {
		return "", fmt.Errorf("node path %q contains traversal", node)
	}
	clean := path.Clean(node)
	if clean == "/" {
		return "", fmt.Errorf("node path %q names no node", node)
	}
	return clean, nil
}
