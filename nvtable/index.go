package nvtable

import "sort"

// IndexEntry is one slot of the sorted dynamic index: a handle plus the
// byte offset (measured downward from the arena top) of its NVEntry
// header. Offset 0 means "not set".
type IndexEntry struct {
	Handle uint32
	Offset uint32
}

// searchIndex returns the position of handle in a slice sorted ascending
// by Handle, and whether it was found. When not found, pos is the
// insertion point that keeps the slice sorted.
func searchIndex(idx []IndexEntry, handle uint32) (pos int, found bool) {
	pos = sort.Search(len(idx), func(i int) bool { return idx[i].Handle >= handle })
	found = pos < len(idx) && idx[pos].Handle == handle
	return pos, found
}

// insertIndex inserts (or, if handle already exists, overwrites) a slot in
// a sorted IndexEntry slice, returning the updated slice.
func insertIndex(idx []IndexEntry, e IndexEntry) []IndexEntry {
	pos, found := searchIndex(idx, e.Handle)
	if found {
		idx[pos] = e
		return idx
	}

	idx = append(idx, IndexEntry{})
	copy(idx[pos+1:], idx[pos:])
	idx[pos] = e
	return idx
}

// sortIndex sorts idx ascending by handle in place. Used by fixup after
// handles have been remapped.
func sortIndex(idx []IndexEntry) {
	sort.Slice(idx, func(i, j int) bool { return idx[i].Handle < idx[j].Handle })
}
