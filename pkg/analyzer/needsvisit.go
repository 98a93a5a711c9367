package analyzer

import "lockwalk/pkg/cc/ast"

// needsVisit decides whether a construct can matter to the walk. In
// skip mode the subtree matters iff it can resolve the pending label
// or jump elsewhere; otherwise iff it contains a catalog call or a
// goto. Everything else is pruned, keeping the explorer's work
// proportional to locking-relevant code.
func (in *interp) needsVisit(n ast.Node) bool {
	if in.pc.ignoreUntil != "" {
		return containsLabel(n, in.pc.ignoreUntil) || containsGoto(n)
	}
	return in.containsCatalogCall(n) || containsGoto(n)
}

// containsCatalogCall reports whether the subtree holds a call to any
// acquire or release function. Only bare-identifier callees count.
func (in *interp) containsCatalogCall(n ast.Node) bool {
	found := false
	ast.Inspect(n, func(c ast.Node) bool {
		if found {
			return false
		}
		if call, ok := c.(*ast.Call); ok {
			if id, ok := call.Fun.(*ast.Ident); ok && in.cat.Relevant(id.Name) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// containsGoto reports whether the subtree holds any goto statement.
func containsGoto(n ast.Node) bool {
	found := false
	ast.Inspect(n, func(c ast.Node) bool {
		if found {
			return false
		}
		if _, ok := c.(*ast.Goto); ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// containsLabel reports whether the subtree defines the named label.
func containsLabel(n ast.Node, name string) bool {
	found := false
	ast.Inspect(n, func(c ast.Node) bool {
		if found {
			return false
		}
		if l, ok := c.(*ast.Label); ok && l.Name == name {
			found = true
			return false
		}
		return true
	})
	return found
}

// containsLabelInArm reports whether one switch arm defines the named
// label.
func containsLabelInArm(arm *ast.Case, name string) bool {
	for _, s := range arm.Body {
		if containsLabel(s, name) {
			return true
		}
	}
	return false
}
