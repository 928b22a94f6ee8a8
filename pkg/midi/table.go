package midi

import "sort"

// Table is the compiled, key-sorted binding table the audio thread
// dispatches incoming MIDI messages against (spec.md §4.7 step 2: "binary-
// search the sorted mapping vector for the lowest index with that key").
type Table struct {
	mappings []Mapping
}

// NewTable stable-sorts mappings by Key ascending (spec.md §4.5 step 4:
// "Stable-sort by key ascending") and returns the compiled table. The
// input slice is not retained.
func NewTable(mappings []Mapping) *Table {
	sorted := make([]Mapping, len(mappings))
	copy(sorted, mappings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return &Table{mappings: sorted}
}

// Len reports the number of compiled mappings.
func (t *Table) Len() int { return len(t.mappings) }

// lowerBound returns the index of the first mapping with Key >= key.
func (t *Table) lowerBound(key uint16) int {
	return sort.Search(len(t.mappings), func(i int) bool { return t.mappings[i].Key >= key })
}
