// Package fs provides a filesystem-backed datastore, the default for
// local development.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gravcore/internal/datastore/core"
)

// Store implements core.Store on the local filesystem. Each node's
// frame is a JSON file under the root with a `.meta` sidecar holding
// the node attributes. Frame writes stream to a temp file and rename
// into place so a crash cannot leave a torn frame behind.
type Store struct {
	root string
}

var _ core.Store = (*Store)(nil)

// New returns a filesystem-backed store rooted at path, creating it if
// needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./gravdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

func (s *Store) pathFor(node string) (dataPath, metaPath, clean string, err error) {
	clean, err = core.CleanNode(node)
	if err != nil {
		return "", "", "", err
	}
	base := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	return base + ".json", base + ".meta", clean, nil
}

func (s *Store) Put(_ context.Context, node string, frame *core.Frame) error {
	dataPath, metaPath, _, err := s.pathFor(node)
	if err != nil {
		return err
	}
	payload, err := core.MarshalFrame(frame)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return err
	}
	// Replacing a frame clears its sidecar attributes.
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Get(_ context.Context, node string) (*core.Frame, error) {
	dataPath, _, clean, err := s.pathFor(node)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NodeNotFoundError{Node: clean}
	}
	if err != nil {
		return nil, err
	}
	return core.UnmarshalFrame(payload)
}

func (s *Store) Delete(_ context.Context, node string) (bool, error) {
	dataPath, metaPath, _, err := s.pathFor(node)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dataPath); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		return false, err
	}
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, err
	}
	return true, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	var nodes []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		node := "/" + strings.TrimSuffix(filepath.ToSlash(rel), ".json")
		if prefix == "" || strings.HasPrefix(node, prefix) {
			nodes = append(nodes, node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(nodes)
	return nodes, nil
}

func (s *Store) SetNodeAttr(_ context.Context, node, key, value string) error {
	dataPath, metaPath, clean, err := s.pathFor(node)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dataPath); errors.Is(err, fs.ErrNotExist) {
		return core.NodeNotFoundError{Node: clean}
	} else if err != nil {
		return err
	}
	attrs, err := readMeta(metaPath)
	if err != nil {
		return err
	}
	attrs[key] = value
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, data, 0o644)
}

func (s *Store) NodeAttrs(_ context.Context, node string) (map[string]string, error) {
	dataPath, metaPath, clean, err := s.pathFor(node)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dataPath); errors.Is(err, fs.ErrNotExist) {
		return nil, core.NodeNotFoundError{Node: clean}
	} else if err != nil {
		return nil, err
	}
	return readMeta(metaPath)
}

func (s *Store) Close() error { return nil }

func readMeta(metaPath string) (map[string]string, error) {
	data, err := os.ReadFile(metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	attrs := map[string]string{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
