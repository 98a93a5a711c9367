package ast

// Inspect traverses the tree rooted at n in depth-first pre-order,
// calling f for each node. If f returns false the node's children are
// skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil {
		return
	}
	if !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Children returns the direct child nodes of n in source order.
// Absent optional children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	addExpr := func(c Expr) {
		if c != nil {
			out = append(out, c)
		}
	}
	addStmt := func(c Stmt) {
		if c != nil {
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Ident, *Constant, *Empty, *Break, *Continue, *Goto:
	case *Call:
		addExpr(n.Fun)
		for _, a := range n.Args {
			addExpr(a)
		}
	case *Unary:
		addExpr(n.X)
	case *Binary:
		addExpr(n.X)
		addExpr(n.Y)
	case *Assign:
		addExpr(n.L)
		addExpr(n.R)
	case *Ternary:
		addExpr(n.Cond)
		addExpr(n.Then)
		addExpr(n.Else)
	case *Index:
		addExpr(n.X)
		addExpr(n.I)
	case *Member:
		addExpr(n.X)
	case *Cast:
		addExpr(n.X)
	case *Compound:
		for _, s := range n.Items {
			addStmt(s)
		}
	case *ExprStmt:
		addExpr(n.X)
	case *Decl:
		addExpr(n.Init)
	case *Return:
		addExpr(n.X)
	case *If:
		addExpr(n.Cond)
		addStmt(n.Then)
		addStmt(n.Else)
	case *Switch:
		addExpr(n.Cond)
		addStmt(n.Body)
	case *Case:
		addExpr(n.X)
		for _, s := range n.Body {
			addStmt(s)
		}
	case *While:
		addExpr(n.Cond)
		addStmt(n.Body)
	case *DoWhile:
		addStmt(n.Body)
		addExpr(n.Cond)
	case *For:
		addStmt(n.Init)
		addExpr(n.Cond)
		addExpr(n.Post)
		addStmt(n.Body)
	case *Label:
		addStmt(n.Stmt)
	case *FuncDef:
		if n.Body != nil {
			add(n.Body)
		}
	}
	return out
}
