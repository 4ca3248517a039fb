// Package persist implements the persistent state store (C7): a single
// mutable byte arena of named slots, in the same "one big buffer with a
// small directory" shape as package nvtable, used by package tail to save
// and restore its read position across restarts.
//
// The external contract names four operations — AllocEntry, LookupEntry,
// MapEntry, UnmapEntry — captured here as the Store interface. FileStore
// is the one concrete implementation: an in-process, mutex-guarded
// directory of named slots, each backed by a buffer taken from an
// internal/pool.ByteBufferPool and returned to it when the slot is freed.
package persist

import (
	"fmt"
	"sync"

	"github.com/nanolog/corelog/errs"
	"github.com/nanolog/corelog/internal/pool"
)

// Handle identifies one allocated entry within a Store.
type Handle uint32

// Store is the persistent state store contract consumed by package tail.
type Store interface {
	// AllocEntry reserves a new named entry of size bytes and returns its
	// handle. If name already exists, its old entry is replaced.
	AllocEntry(name string, size int) (Handle, error)

	// LookupEntry returns the handle, version, and size of an existing
	// entry, or ok=false if no entry is named name.
	LookupEntry(name string) (h Handle, version uint8, size int, ok bool)

	// MapEntry returns a mutable view of the entry's bytes. The slice is
	// valid until the next UnmapEntry or AllocEntry call for the same
	// handle.
	MapEntry(h Handle) ([]byte, error)

	// UnmapEntry releases the mapping obtained from MapEntry. It never
	// frees the entry itself — only AllocEntry (by replacing the name)
	// does that.
	UnmapEntry(h Handle)
}

type slot struct {
	name    string
	version uint8
	buf     *pool.ByteBuffer
	mapped  bool
}

// FileStore is an in-process Store: named slots held in memory, each
// backed by a pooled byte buffer. Despite the name it does not itself
// perform file I/O — callers persist FileStore's contents to whatever
// durable medium they choose; Store is an external contract, not a
// prescribed storage engine.
type FileStore struct {
	mu      sync.Mutex
	pool    *pool.ByteBufferPool
	byName  map[string]Handle
	entries map[Handle]*slot
	nextH   Handle
}

// NewFileStore creates an empty FileStore.
func NewFileStore() *FileStore {
	return &FileStore{
		pool:    pool.NewByteBufferPool(pool.BlobBufferDefaultSize, pool.BlobBufferMaxThreshold),
		byName:  make(map[string]Handle),
		entries: make(map[Handle]*slot),
	}
}

// AllocEntry implements Store. The first byte of the returned entry's
// bytes is left zero (version 0); callers write the {version, big_endian}
// header themselves (package tail writes its own via EncodeState).
func (s *FileStore) AllocEntry(name string, size int) (Handle, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: negative entry size %d", errs.ErrFormat, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byName[name]; ok {
		s.freeLocked(old)
	}

	s.nextH++
	h := s.nextH

	buf := s.pool.Get()
	buf.Reset()
	buf.ExtendOrGrow(size)
	clear(buf.B)

	s.entries[h] = &slot{name: name, buf: buf}
	s.byName[name] = h

	return h, nil
}

// LookupEntry implements Store.
func (s *FileStore) LookupEntry(name string) (Handle, uint8, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.byName[name]
	if !ok {
		return 0, 0, 0, false
	}
	e := s.entries[h]
	if e.buf.Len() > 0 {
		e.version = e.buf.B[0]
	}
	return h, e.version, e.buf.Len(), true
}

// MapEntry implements Store.
func (s *FileStore) MapEntry(h Handle) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[h]
	if !ok {
		return nil, fmt.Errorf("%w: unknown persist handle %d", errs.ErrFormat, h)
	}
	e.mapped = true
	if e.buf.Len() > 0 {
		e.version = e.buf.B[0]
	}
	return e.buf.Bytes(), nil
}

// UnmapEntry implements Store.
func (s *FileStore) UnmapEntry(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[h]; ok {
		e.mapped = false
	}
}

func (s *FileStore) freeLocked(h Handle) {
	e, ok := s.entries[h]
	if !ok {
		return
	}
	delete(s.entries, h)
	delete(s.byName, e.name)
	s.pool.Put(e.buf)
}

// Free releases name's entry outright, independent of AllocEntry
// replacement.
func (s *FileStore) Free(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.byName[name]; ok {
		s.freeLocked(h)
	}
}
