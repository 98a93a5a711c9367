// Package analyzer verifies lock-acquisition balance along every
// execution path of every function in a C translation unit. For each
// function it tracks one counter per configured lock family,
// incremented on acquire calls and decremented on release calls, and
// reports any path that can leave the function with a non-zero
// counter, as well as lock operations in forbidden syntactic
// positions.
package analyzer

import "lockwalk/pkg/cc/ast"

const (
	// maxPaths bounds the number of explored paths per function.
	maxPaths = 4096
)

// Checker drives the path interpreter over whole files.
type Checker struct {
	cat *Catalog
}

// New returns a checker for the given catalog.
func New(cat *Catalog) *Checker {
	return &Checker{cat: cat}
}

// Catalog returns the catalog the checker was built with.
func (c *Checker) Catalog() *Catalog {
	return c.cat
}

// CheckFile analyzes every function definition of a file. Diagnostics
// come back in function order, path order within a function.
func (c *Checker) CheckFile(f *ast.File) []Diagnostic {
	var diags []Diagnostic
	for _, fn := range f.Funcs {
		diags = append(diags, c.CheckFunction(f.Name, fn)...)
	}
	return diags
}

// CheckFunction explores every path of one function body and returns
// the union of the paths' diagnostics.
func (c *Checker) CheckFunction(file string, fn *ast.FuncDef) []Diagnostic {
	if fn.Body == nil {
		return nil
	}
	in := &interp{cat: c.cat, file: file, fn: fn}
	// functions without locking-relevant calls are skipped outright
	if !in.containsCatalogCall(fn.Body) {
		return nil
	}

	ex := newExplorer()
	var diags []Diagnostic
	in.diags = &diags
	for {
		script, ok := ex.next()
		if !ok {
			break
		}
		if ex.runs > maxPaths {
			in.pc = &pathCtx{state: newLockState(c.cat.Len())}
			in.report(Internal, "path budget exhausted")
			break
		}
		pc := &pathCtx{
			state:  newLockState(c.cat.Len()),
			memo:   make(condMemo),
			ex:     ex,
			script: script,
		}
		in.pc = pc
		f := in.stmt(fn.Body)
		if pc.ignoreUntil != "" {
			// a forward goto that never met its label: ill-formed
			// input, the path's end state means nothing
			continue
		}
		switch f {
		case flowBreak:
			in.report(Internal, "break escaped to the function root")
		case flowContinue:
			in.report(Internal, "continue escaped to the function root")
		case flowNext:
			if !pc.state.balanced() {
				in.report(EndOfFunction, "unbalanced lock state at end of function")
			}
		}
	}
	return dedupe(diags)
}

// dedupe collapses identical findings from sibling paths, keeping
// first-encounter order.
func dedupe(diags []Diagnostic) []Diagnostic {
	if len(diags) < 2 {
		return diags
	}
	seen := make(map[string]bool, len(diags))
	out := diags[:0]
	for _, d := range diags {
		k := d.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}
