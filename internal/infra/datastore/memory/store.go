// Package memory provides an in-memory datastore used by tests and
// scratch sessions.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gravcore/internal/datastore/core"
)

// Store keeps frames and node attributes in process memory. Frames are
// deep-copied on the way in and out so callers cannot mutate stored
// state through shared slices.
type Store struct {
	mu     sync.Mutex
	frames map[string]*core.Frame
	attrs  map[string]map[string]string
}

var _ core.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		frames: make(map[string]*core.Frame),
		attrs:  make(map[string]map[string]string),
	}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Put(_ context.Context, node string, frame *core.Frame) error {
	key, err := core.CleanNode(node)
	if err != nil {
		return err
	}
	if err := frame.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[key] = frame.Clone()
	delete(s.attrs, key)
	return nil
}

func (s *Store) Get(_ context.Context, node string) (*core.Frame, error) {
	key, err := core.CleanNode(node)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, ok := s.frames[key]
	if !ok {
		return nil, core.NodeNotFoundError{Node: key}
	}
	return frame.Clone(), nil
}

func (s *Store) Delete(_ context.Context, node string) (bool, error) {
	key, err := core.CleanNode(node)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.frames[key]
	delete(s.frames, key)
	delete(s.attrs, key)
	return ok, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var nodes []string
	for node := range s.frames {
		if prefix == "" || strings.HasPrefix(node, prefix) {
			nodes = append(nodes, node)
		}
	}
	sort.Strings(nodes)
	return nodes, nil
}

func (s *Store) SetNodeAttr(_ context.Context, node, key, value string) error {
	cleanKey, err := core.CleanNode(node)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frames[cleanKey]; !ok {
		return core.NodeNotFoundError{Node: cleanKey}
	}
	attrs := s.attrs[cleanKey]
	if attrs == nil {
		attrs = make(map[string]string)
		s.attrs[cleanKey] = attrs
	}
	attrs[key] = value
	return nil
}

func (s *Store) NodeAttrs(_ context.Context, node string) (map[string]string, error) {
	cleanKey, err := core.CleanNode(node)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frames[cleanKey]; !ok {
		return nil, core.NodeNotFoundError{Node: cleanKey}
	}
	out := make(map[string]string, len(s.attrs[cleanKey]))
	for k, v := range s.attrs[cleanKey] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
