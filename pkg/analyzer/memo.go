package analyzer

// condMemo records which side of each previously seen if/ternary
// condition an exploration took, keyed by the condition's canonical
// rendering. When a loop unrolling re-visits the same condition the
// memo forces the branch taken on first encounter, so one exploration
// never splits twice on the same condition text. Entries are never
// cleared within an exploration.
type condMemo map[string]bool

// lookup returns the recorded branch for a condition key.
func (m condMemo) lookup(key string) (bool, bool) {
	v, ok := m[key]
	return v, ok
}

// record stores the branch taken for a condition key.
func (m condMemo) record(key string, takeTrue bool) {
	m[key] = takeTrue
}

// clone duplicates the memo by value for a sibling exploration.
func (m condMemo) clone() condMemo {
	cp := make(condMemo, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
