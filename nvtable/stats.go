package nvtable

// Stats summarizes a Table's arena utilization. NumStatic and NumDynamic
// count occupied static slots and dynamic index slots. LiveEntries and
// UsedBytes correspond to the two inputs of metrics.SetArenaStats.
type Stats struct {
	SizeBytes    int
	UsedBytes    int
	FreeBytes    int
	NumStatic    int
	NumDynamic   int
	RefCount     int
	LiveEntries  int
	UnsetEntries int
}

// Stats computes a snapshot of t's current utilization.
func (t *Table) Stats() Stats {
	s := Stats{
		SizeBytes:  int(t.size),
		UsedBytes:  int(t.used),
		FreeBytes:  t.freeSpace(),
		NumDynamic: len(t.index),
		RefCount:   t.refCnt,
	}

	for _, off := range t.static {
		if off != 0 {
			s.NumStatic++
		}
	}

	t.ForEachEntry(func(_ uint32, e Entry, _ *IndexEntry) bool {
		if e.IsUnset() {
			s.UnsetEntries++
		} else {
			s.LiveEntries++
		}
		return true
	})

	return s
}
