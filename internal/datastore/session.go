package datastore

import (
	"context"
	"sync"
)

// Session wraps a Store with a read-through frame cache so repeated
// loads of the same node during an interactive session hit memory
// instead of the backend. Cached frames are shared between callers and
// must be treated as read-only.
type Session struct {
	Store

	mu     sync.Mutex
	frames map[string]*Frame
}

var _ Store = (*Session)(nil)

// NewSession wraps store with an empty frame cache.
func NewSession(store Store) *Session {
	return &Session{Store: store, frames: make(map[string]*Frame)}
}

// Put writes through to the backend and caches the stored frame.
func (s *Session) Put(ctx context.Context, node string, frame *Frame) error {
	key, err := CleanNode(node)
	if err != nil {
		return err
	}
	if err := s.Store.Put(ctx, node, frame); err != nil {
		return err
	}
	s.mu.Lock()
	s.frames[key] = frame
	s.mu.Unlock()
	return nil
}

// Get returns the cached frame for node, reading through to the backend
// on a miss.
func (s *Session) Get(ctx context.Context, node string) (*Frame, error) {
	key, err := CleanNode(node)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	frame, ok := s.frames[key]
	s.mu.Unlock()
	if ok {
		return frame, nil
	}
	frame, err = s.Store.Get(ctx, node)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.frames[key] = frame
	s.mu.Unlock()
	return frame, nil
}

// Delete evicts the cached frame and deletes the node from the backend.
func (s *Session) Delete(ctx context.Context, node string) (bool, error) {
	key, err := CleanNode(node)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	delete(s.frames, key)
	s.mu.Unlock()
	return s.Store.Delete(ctx, node)
}

// ClearCache drops every cached frame.
func (s *Session) ClearCache() {
	s.mu.Lock()
	s.frames = make(map[string]*Frame)
	s.mu.Unlock()
}
