package analyzer

// explorer enumerates the paths of one function body, serially and in
// breadth-first seed order. A path is identified by its decision
// trace: the ordered choices taken at every split point. Replaying a
// trace from the function entry reconstructs the sibling's context by
// value (state, memo, flags all equal the parent's at the split), so
// siblings can never interfere. At every split point past the end of
// its script a run takes leg 0 and registers one sibling seed per
// alternative leg.
type explorer struct {
	pending [][]int
	runs    int
}

func newExplorer() *explorer {
	// the root path carries no decisions yet
	return &explorer{pending: [][]int{nil}}
}

// next pops the oldest pending seed.
func (e *explorer) next() ([]int, bool) {
	if len(e.pending) == 0 {
		return nil, false
	}
	s := e.pending[0]
	e.pending = e.pending[1:]
	e.runs++
	return s, true
}

// fork registers sibling seeds for the alternative legs of an n-way
// split first reached by the path with the given trace.
func (e *explorer) fork(trace []int, n int) {
	for alt := 1; alt < n; alt++ {
		seed := make([]int, len(trace)+1)
		copy(seed, trace)
		seed[len(trace)] = alt
		e.pending = append(e.pending, seed)
	}
}
