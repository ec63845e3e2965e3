package dom

import (
	"fmt"
	"sync"
)

// DefaultCacheRevisions is the number of snapshot indexes a session keeps
// when no size is configured.
const DefaultCacheRevisions = 64

// Session owns the derived-index cache shared by the snapshots bound to it
// and holds the current snapshot of one editing session. Snapshots stay
// usable after the session is closed; they just stop sharing indexes.
type Session struct {
	cache *indexCache

	mu      sync.RWMutex
	current *Dom
}

// NewSession returns a session whose cache holds up to size revisions. A
// size of zero or less selects DefaultCacheRevisions.
func NewSession(size int) (*Session, error) {
	if size <= 0 {
		size = DefaultCacheRevisions
	}
	cache, err := newIndexCache(size)
	if err != nil {
		return nil, fmt.Errorf("create index cache: %w", err)
	}
	return &Session{cache: cache}, nil
}

// New creates an empty document bound to the session and makes it current.
func (s *Session) New() *Dom {
	d := s.Bind(CreateDom())
	s.Swap(d)
	return d
}

// Bind returns a view of d that shares the session's index cache. The view
// keeps d's nodes and revision.
func (s *Session) Bind(d *Dom) *Dom {
	if d.cache == s.cache {
		return d
	}
	return &Dom{nodes: d.nodes, root: d.root, rev: d.rev, cache: s.cache}
}

// Swap binds d and makes it the current snapshot.
func (s *Session) Swap(d *Dom) {
	d = s.Bind(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = d
}

// Current returns the current snapshot, or nil before New or Swap.
func (s *Session) Current() *Dom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply runs fn against the current snapshot and, on success, makes its
// result current. Concurrent Apply calls are serialized; fn must not call
// back into the session.
func (s *Session) Apply(fn func(*Dom) (*Dom, error)) (*Dom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, fmt.Errorf("session has no document")
	}
	next, err := fn(s.current)
	if err != nil {
		return s.current, err
	}
	s.current = s.Bind(next)
	return s.current, nil
}

// CachedRevisions reports how many snapshot indexes are cached.
func (s *Session) CachedRevisions() int {
	return s.cache.entries.Len()
}

// Close drops every cached index.
func (s *Session) Close() {
	s.cache.entries.Purge()
}
