package analyzer

import (
	"fmt"
	"strings"
)

// Kind classifies a diagnostic by the way the offending path ended.
type Kind int

const (
	// EndOfFunction is an implicit fall-through with unbalanced state.
	EndOfFunction Kind = iota
	// Return is a return statement reached with unbalanced state.
	Return
	// Break and Continue complete the kind taxonomy. The checker reports
	// a break or continue that escapes to the function root as Internal,
	// so it never emits these two kinds itself.
	Break
	Continue
	// Forbidden is a lock operation in a position whose execution count
	// is indeterminate (loop header, switch selector, if condition).
	Forbidden
	// Internal flags malformed input or an exhausted analysis budget.
	Internal
)

var kindNames = [...]string{
	EndOfFunction: "end-of-function",
	Return:        "return",
	Break:         "break",
	Continue:      "continue",
	Forbidden:     "forbidden",
	Internal:      "internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Diagnostic is one finding about one function. State is the counter
// snapshot at the point the path ended, indexed in catalog order.
type Diagnostic struct {
	File     string
	Function string
	Line     int
	Kind     Kind
	Reason   string
	State    []int
}

// StateString renders the snapshot with family names, listing only
// disturbed counters: "spl=1 mtx=-1". A balanced snapshot renders as
// "balanced".
func (d Diagnostic) StateString(cat *Catalog) string {
	var parts []string
	for i, f := range cat.Families() {
		if i < len(d.State) && d.State[i] != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", f.Name, d.State[i]))
		}
	}
	if len(parts) == 0 {
		return "balanced"
	}
	return strings.Join(parts, " ")
}

// key is the deduplication identity of a diagnostic. Sibling paths
// frequently end the same way; the per-function diagnostic set is the
// union of all paths, so exact repeats collapse.
func (d Diagnostic) key() string {
	return fmt.Sprintf("%d|%s|%v", d.Kind, d.Reason, d.State)
}
