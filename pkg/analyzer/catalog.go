package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LockFamily pairs the acquire and release function names of one lock
// class. Immutable once the catalog is built.
type LockFamily struct {
	Name    string `yaml:"name"`
	Acquire string `yaml:"acquire"`
	Release string `yaml:"release"`
}

// Catalog is the ordered set of lock families under analysis. Family
// order is stable and defines the counter index order of lock states.
type Catalog struct {
	families []LockFamily
	acquire  map[string]int
	release  map[string]int
}

// Op classifies the effect of a call site on a lock family.
type Op int

const (
	OpNone Op = iota
	OpAcquire
	OpRelease
)

// NewCatalog builds a catalog from the given families. Two families
// must not share any name: a call site that updated two counters at
// once would make every balance verdict meaningless, so overlap is a
// configuration error.
func NewCatalog(families ...LockFamily) (*Catalog, error) {
	c := &Catalog{
		acquire: make(map[string]int, len(families)),
		release: make(map[string]int, len(families)),
	}
	seen := make(map[string]string)
	for i, f := range families {
		if f.Name == "" || f.Acquire == "" || f.Release == "" {
			return nil, fmt.Errorf("lock family %d: name, acquire and release are all required", i)
		}
		for _, n := range []string{f.Name, f.Acquire, f.Release} {
			if prev, ok := seen[n]; ok {
				return nil, fmt.Errorf("lock family %q: name %q already used by family %q", f.Name, n, prev)
			}
			seen[n] = f.Name
		}
		c.acquire[f.Acquire] = i
		c.release[f.Release] = i
		c.families = append(c.families, f)
	}
	return c, nil
}

// DefaultCatalog returns the stock families: the spl interrupt-level
// pair, the big lock, and mutexes. Try-acquire variants such as
// mtx_enter_try are deliberately absent.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		LockFamily{Name: "spl", Acquire: "splraise", Release: "spllower"},
		LockFamily{Name: "mpl", Acquire: "__mp_lock", Release: "__mp_unlock"},
		LockFamily{Name: "mtx", Acquire: "mtx_enter", Release: "mtx_leave"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

type catalogConfig struct {
	Locks []LockFamily `yaml:"locks"`
}

// ParseCatalog reads a YAML catalog definition:
//
//	locks:
//	  - name: mtx
//	    acquire: mtx_enter
//	    release: mtx_leave
func ParseCatalog(data []byte) (*Catalog, error) {
	var cfg catalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(cfg.Locks) == 0 {
		return nil, fmt.Errorf("catalog defines no lock families")
	}
	return NewCatalog(cfg.Locks...)
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Filter returns a catalog restricted to the named families, in
// catalog order. Unknown names are an error.
func (c *Catalog) Filter(names ...string) (*Catalog, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var keep []LockFamily
	for _, f := range c.families {
		if want[f.Name] {
			keep = append(keep, f)
			delete(want, f.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown lock family %q", n)
	}
	return NewCatalog(keep...)
}

// Families returns the families in index order.
func (c *Catalog) Families() []LockFamily {
	return c.families
}

// Len returns the number of families.
func (c *Catalog) Len() int {
	return len(c.families)
}

// Classify resolves a bare callee identifier to a family index and
// operation. Callees that match no family are OpNone.
func (c *Catalog) Classify(callee string) (int, Op) {
	if i, ok := c.acquire[callee]; ok {
		return i, OpAcquire
	}
	if i, ok := c.release[callee]; ok {
		return i, OpRelease
	}
	return -1, OpNone
}

// Relevant reports whether callee is an acquire or release function of
// any family.
func (c *Catalog) Relevant(callee string) bool {
	_, op := c.Classify(callee)
	return op != OpNone
}
