package doc

// Tracker remembers where each embedded instantiation was first expanded.
// A Tracker belongs to exactly one render call.
type Tracker struct {
	seen map[string]PathID
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]PathID)}
}

// RecordOrGet records path as the first expansion of sig. If sig was
// already recorded it returns the first path and true, leaving the record
// untouched.
func (t *Tracker) RecordOrGet(sig string, path PathID) (PathID, bool) {
	if first, ok := t.seen[sig]; ok {
		return first, true
	}
	t.seen[sig] = path
	return path, false
}

// Len returns the number of recorded signatures.
func (t *Tracker) Len() int {
	return len(t.seen)
}
