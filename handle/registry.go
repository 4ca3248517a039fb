// Package handle implements the per-process name registry: the mapping
// between NVTable names (small strings such as "MESSAGE", "HOST", or an
// RFC 5424 SDATA element/param name) and the small integer handles that
// index into an NVTable's static and dynamic slots.
//
// A handle is process-local: the same name can map to different handles
// in two processes, which is exactly why package fixup exists — a
// serialized LogMessage carries the producer's handles, and they must be
// remapped to the consumer's registry before the message's payload can be
// read by handle.
package handle

import (
	"strings"
	"sync"

	"github.com/nanolog/corelog/internal/collision"
	"github.com/nanolog/corelog/internal/hash"
)

// Handle identifies a name within a Registry. Handle 0 is never valid.
type Handle uint32

// NumStatic is the number of well-known names pre-registered by NewRegistry,
// occupying handles 1..NumStatic. Static handles are stable across
// processes built from the same well-known name list, so messages that
// reference only static names never need a fixup remap.
const NumStatic = 11

// well-known names, registered in a fixed order so that every process using
// NewRegistry assigns them the same handles.
var staticNames = []string{
	"MESSAGE",
	"HOST",
	"HOST_FROM",
	"PROGRAM",
	"PID",
	"FACILITY",
	"PRIORITY",
	"TAGS",
	"SOURCE",
	"LEGACY_MSGHDR",
	"MSGID",
}

// sdataPrefix marks a name as an RFC 5424 structured-data element or
// element.param pair (".SDATA." is never a legal syslog field name on its
// own, so it cannot collide with a real name).
const sdataPrefix = ".SDATA."

type entry struct {
	name  string
	flags Flags
}

// Flags records metadata about a registered name.
type Flags uint8

const (
	// FlagSDATA marks a handle that names RFC 5424 structured data.
	FlagSDATA Flags = 1 << iota
	// FlagMatch marks a handle usable as a pattern-matching reference
	// ($1, $2, ... style numbered match handles are not stored here;
	// this flag distinguishes named match handles like $HOST from
	// ordinary value names).
	FlagMatch
)

// Registry maps names to process-local handles and back. The zero value is
// not usable; construct one with NewRegistry.
//
// Registry is safe for concurrent use: lookups take a read lock, and only
// first-time allocation of a new name takes the write lock.
//
// byHash is addressed by open addressing with linear probing rather than a
// bare hash->handle map: xxHash64 collisions between two distinct names are
// astronomically unlikely but not impossible, and a bare map would let the
// second name silently steal the first name's slot. collisions tallies how
// often that probing was actually needed, for diagnostics.
type Registry struct {
	mu         sync.RWMutex
	byHash     map[uint64]Handle
	entries    []entry // index 0 unused; entries[h] is the record for Handle(h)
	collisions *collision.Tracker
}

// NewRegistry returns a Registry pre-populated with the static well-known
// names at handles 1..NumStatic.
func NewRegistry() *Registry {
	r := &Registry{
		byHash:     make(map[uint64]Handle, 64),
		entries:    make([]entry, 1, 64), // entries[0] is the unused sentinel
		collisions: collision.NewTracker(),
	}
	for _, name := range staticNames {
		r.allocateLocked(name)
	}
	return r
}

// Allocate returns the handle for name, registering it if this is the
// first time the registry has seen it. Concurrent Allocate calls for the
// same new name are serialized; both return the same handle.
func (r *Registry) Allocate(name string) Handle {
	h0 := hashName(name)

	r.mu.RLock()
	if handle, ok := r.probeLocked(h0, name); ok {
		r.mu.RUnlock()
		return handle
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check: another goroutine may have allocated it while we waited
	// for the write lock.
	if handle, ok := r.probeLocked(h0, name); ok {
		return handle
	}

	return r.allocateLocked(name)
}

// probeLocked walks the open-addressing chain starting at h0 looking for
// name. It stops at the first unoccupied slot, which is where allocateLocked
// would place name if it isn't already registered. Callers must hold at
// least a read lock.
func (r *Registry) probeLocked(h0 uint64, name string) (Handle, bool) {
	for h := h0; ; h++ {
		handle, ok := r.byHash[h]
		if !ok {
			return 0, false
		}
		if r.entries[handle].name == name {
			return handle, true
		}
	}
}

func (r *Registry) allocateLocked(name string) Handle {
	h0 := hashName(name)
	if occupant, ok := r.byHash[h0]; ok && r.entries[occupant].name != name {
		// The home slot is already held by another name (possibly one that
		// probed into it), so the tracker records that claim first and
		// counts this name's probe as a collision.
		r.collisions.Track(r.entries[occupant].name, h0)
	}
	r.collisions.Track(name, h0)

	h := h0
	for {
		if _, occupied := r.byHash[h]; !occupied {
			break
		}
		h++
	}

	var flags Flags
	if strings.HasPrefix(name, sdataPrefix) {
		flags |= FlagSDATA
	}

	handle := Handle(len(r.entries))
	r.entries = append(r.entries, entry{name: name, flags: flags})
	r.byHash[h] = handle

	return handle
}

// Lookup returns the handle already assigned to name, and whether it was
// found. Unlike Allocate, Lookup never registers a new name.
func (r *Registry) Lookup(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.probeLocked(hashName(name), name)
}

// HashCollisions reports how many distinct names have ever hashed to a
// value already claimed by another name in this registry. It is normally
// zero; a nonzero count means probing is doing real work to keep those
// names apart.
func (r *Registry) HashCollisions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collisions.CollisionCount()
}

// Name returns the name registered for handle, and whether handle is valid
// in this registry.
func (r *Registry) Name(h Handle) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(h) <= 0 || int(h) >= len(r.entries) {
		return "", false
	}

	return r.entries[h].name, true
}

// Flags returns the flags registered for handle.
func (r *Registry) Flags(h Handle) Flags {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(h) <= 0 || int(h) >= len(r.entries) {
		return 0
	}

	return r.entries[h].flags
}

// SetFlags ORs extra into the flags already registered for handle.
func (r *Registry) SetFlags(h Handle, extra Flags) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(h) <= 0 || int(h) >= len(r.entries) {
		return
	}

	r.entries[h].flags |= extra
}

// IsSDATA reports whether handle names RFC 5424 structured data.
func (r *Registry) IsSDATA(h Handle) bool {
	return r.Flags(h)&FlagSDATA != 0
}

// IsStatic reports whether handle is one of the well-known names assigned
// by NewRegistry, and therefore stable across processes.
func (r *Registry) IsStatic(h Handle) bool {
	return h >= 1 && int(h) <= NumStatic
}

// Len returns the number of names currently registered, including the
// static set.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries) - 1
}

// ForEach calls fn for every registered handle in ascending order. fn must
// not call back into the Registry.
func (r *Registry) ForEach(fn func(h Handle, name string, flags Flags)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := 1; i < len(r.entries); i++ {
		fn(Handle(i), r.entries[i].name, r.entries[i].flags)
	}
}

func hashName(name string) uint64 {
	return hash.ID(name)
}
