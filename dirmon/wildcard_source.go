package dirmon

import (
	"path/filepath"
	"sync"
)

// WildcardSource matches directory entries against a glob pattern and
// instantiates one tail source per match (via Instantiate), capped at
// MaxFiles concurrently active instances; matches beyond the cap are
// queued until a slot frees (Release).
type WildcardSource struct {
	pattern   string
	maxFiles  int
	instantiate func(path string) error
	release     func(path string) error

	mu      sync.Mutex
	active  map[string]bool
	pending []string
}

// NewWildcardSource creates a WildcardSource. instantiate is called for
// each path that gains an active slot; release is called when a path's
// slot is given back via Release. maxFiles <= 0 means unbounded.
func NewWildcardSource(pattern string, maxFiles int, instantiate, release func(path string) error) *WildcardSource {
	return &WildcardSource{
		pattern:     pattern,
		maxFiles:    maxFiles,
		instantiate: instantiate,
		release:     release,
		active:      make(map[string]bool),
	}
}

// Matches reports whether path matches the source's glob pattern.
func (s *WildcardSource) Matches(path string) bool {
	ok, err := filepath.Match(s.pattern, filepath.Base(path))
	return err == nil && ok
}

// Offer presents a newly discovered path to the source. If it matches
// the pattern and a slot is free, it is instantiated immediately;
// otherwise, if it matches but no slot is free, it is queued.
func (s *WildcardSource) Offer(path string) error {
	if !s.Matches(path) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[path] {
		return nil
	}
	if s.maxFiles > 0 && len(s.active) >= s.maxFiles {
		s.pending = append(s.pending, path)
		return nil
	}

	s.active[path] = true
	return s.instantiate(path)
}

// Release frees path's slot (e.g. the underlying file was deleted or its
// C6 instance finished), running release and then promoting the oldest
// queued path into the freed slot, if any.
func (s *WildcardSource) Release(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active[path] {
		return nil
	}
	delete(s.active, path)

	if err := s.release(path); err != nil {
		return err
	}

	if len(s.pending) == 0 {
		return nil
	}
	if s.maxFiles > 0 && len(s.active) >= s.maxFiles {
		return nil
	}

	next := s.pending[0]
	s.pending = s.pending[1:]
	s.active[next] = true
	return s.instantiate(next)
}

// ActiveCount returns the number of currently instantiated matches.
func (s *WildcardSource) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// PendingCount returns the number of matches queued behind the max_files
// cap.
func (s *WildcardSource) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
