// Package fixup implements the post-deserialize handle remap (C5):
// producer-local dynamic handles in a just-decoded NVTable must be
// remapped to the consumer process's own handle.Registry before the
// table's fields can be addressed by handle.
//
// The name-agreement shortcut skips the remap entirely when producer and
// consumer already assign a handle the same name — a cheap comparison
// that rules out the common same-version-peers case in one step.
package fixup

import (
	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/nvtable"
)

// stackThreshold is the SDATA count up to which a fixup pass counts as
// small. Run does not consult it: every remap and SDATA scratch slice is
// allocated with make, sized from the table's index or the SDATA list,
// whatever its size.
const stackThreshold = 255

// Run performs the 5-step handle fixup algorithm against t, using reg to
// allocate consumer-local handles for any name t's entries reference.
// sdataHandles is the message's current SDATA handle list; Run returns a
// possibly-replaced list (unchanged, by identity, if no handle in the
// table changed; otherwise a new slice, even when none of its own handles
// moved).
func Run(t *nvtable.Table, reg *handle.Registry, sdataHandles []handle.Handle) []handle.Handle {
	type remap struct {
		oldHandle uint32
		newHandle uint32
		offset    uint32
	}

	remaps := make([]remap, 0, len(t.IndexSnapshot()))
	changed := false

	// Step 1 & 2: walk every entry, remap its own handle.
	t.ForEachEntry(func(oldHandle uint32, e nvtable.Entry, idx *nvtable.IndexEntry) bool {
		// Step 3: indirect entries additionally remap referenced_handle,
		// rewriting the entry's stored reference regardless of whether
		// the entry's own handle (a static slot, possibly) moves.
		if e.IsIndirect() {
			if refName, ok := lookupEntryName(t, e.RefHandle); ok {
				newRefHandle := resolveHandle(reg, e.RefHandle, refName)
				if newRefHandle != e.RefHandle {
					_ = t.RepointIndirect(oldHandle, newRefHandle)
				}
			}
		}

		if idx == nil {
			// Static entries keep their own handle by identity.
			return true
		}

		newHandle := resolveHandle(reg, oldHandle, e.Name)
		if newHandle != oldHandle {
			changed = true
			remaps = append(remaps, remap{oldHandle: oldHandle, newHandle: newHandle, offset: idx.Offset})
		}

		return true
	})

	if !changed {
		return sdataHandles
	}

	// Step 4 & 5: build the scratch index and SDATA list, sort, and
	// install.
	newIndex := make([]nvtable.IndexEntry, 0, len(t.IndexSnapshot()))
	remapped := make(map[uint32]uint32, len(remaps))
	for _, r := range remaps {
		remapped[r.oldHandle] = r.newHandle
	}

	for _, ie := range t.IndexSnapshot() {
		h := ie.Handle
		if nh, ok := remapped[h]; ok {
			h = nh
		}
		newIndex = append(newIndex, nvtable.IndexEntry{Handle: h, Offset: ie.Offset})
	}

	sortIndexByHandle(newIndex)
	t.ReplaceIndex(newIndex)

	newSData := make([]handle.Handle, len(sdataHandles))
	for i, h := range sdataHandles {
		if nh, ok := remapped[uint32(h)]; ok {
			newSData[i] = handle.Handle(nh)
		} else {
			newSData[i] = h
		}
	}

	return newSData
}

// resolveHandle implements step 2's special case: if name already agrees
// with what the consumer registry has for oldHandle, keep oldHandle;
// otherwise allocate (or look up) the consumer-local handle for name.
func resolveHandle(reg *handle.Registry, oldHandle uint32, name string) uint32 {
	if existing, ok := reg.Name(handle.Handle(oldHandle)); ok && existing == name {
		return oldHandle
	}
	return uint32(reg.Allocate(name))
}

func lookupEntryName(t *nvtable.Table, target uint32) (string, bool) {
	var name string
	var found bool
	t.ForEachEntry(func(h uint32, e nvtable.Entry, _ *nvtable.IndexEntry) bool {
		if h == target {
			name = e.Name
			found = true
			return false
		}
		return true
	})
	return name, found
}

func sortIndexByHandle(idx []nvtable.IndexEntry) {
	// Insertion sort: fixup index sizes are small (a few hundred
	// entries at most in practice), and the slice is already nearly
	// sorted since only remapped handles move.
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && idx[j-1].Handle > idx[j].Handle; j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}
}
