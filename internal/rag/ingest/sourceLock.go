package ingest

import "sync"

// sourceLocks serializes ingestion per filename. Two overlapping ingestions
// of the same source would each wipe the other's freshly written chunks in
// the delete-then-upsert sequence; distinct sources stay fully concurrent.
type sourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSourceLocks() *sourceLocks {
	return &sourceLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *sourceLocks) get(source string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, exists := s.locks[source]
	if !exists {
		lock = new(sync.Mutex)
		s.locks[source] = lock
	}
	return lock
}
