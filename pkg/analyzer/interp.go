package analyzer

import (
	"fmt"

	"lockwalk/pkg/cc/ast"
)

// flow is the outcome a visit hands back to its caller. Terminal
// conditions (balanced return, panic, endless loop, forbidden lock
// operation, backward goto) collapse to flowEnd, with any diagnostic
// they call for recorded first; break and continue travel upward until
// a loop or switch consumes them.
type flow int

const (
	flowNext flow = iota // fall through to the next statement
	flowEnd              // path terminated
	flowBreak
	flowContinue
)

const (
	// maxDepth bounds statement nesting before the walk gives up.
	maxDepth = 200
)

// pathCtx is the context of one in-flight path.
type pathCtx struct {
	state       *lockState
	forbidden   bool
	ignoreUntil string // pending forward-goto label; "" when inactive
	memo        condMemo
	ex          *explorer

	// decision trace bookkeeping, see explorer
	script []int
	cursor int
	trace  []int

	depth int
}

// choose picks a leg at an n-way split point: the scripted choice
// while replaying past decisions, leg 0 otherwise, with one sibling
// seed registered per alternative leg.
func (pc *pathCtx) choose(n int) int {
	if pc.cursor < len(pc.script) {
		c := pc.script[pc.cursor]
		pc.cursor++
		pc.trace = append(pc.trace, c)
		return c
	}
	pc.ex.fork(pc.trace, n)
	pc.trace = append(pc.trace, 0)
	return 0
}

// interp walks one function body along one path, dispatching per node
// kind, mutating the path's lock state at classified call sites and
// recording diagnostics as terminal conditions are met.
type interp struct {
	cat   *Catalog
	file  string
	fn    *ast.FuncDef
	pc    *pathCtx
	diags *[]Diagnostic
}

func (in *interp) report(kind Kind, reason string) {
	*in.diags = append(*in.diags, Diagnostic{
		File:     in.file,
		Function: in.fn.Name,
		Line:     in.fn.Line,
		Kind:     kind,
		Reason:   reason,
		State:    in.pc.state.snapshot(),
	})
}

// ---- Statements ----

func (in *interp) stmt(s ast.Stmt) flow {
	if s == nil {
		return flowNext
	}
	if in.pc.depth >= maxDepth {
		in.report(Internal, "statement nesting too deep")
		return flowEnd
	}
	in.pc.depth++
	f := in.dispatch(s)
	in.pc.depth--
	return f
}

func (in *interp) dispatch(s ast.Stmt) flow {
	if in.pc.ignoreUntil != "" {
		// skip mode: only constructs that can contain the pending
		// label are entered; everything else is passed over
		switch s.(type) {
		case *ast.Compound, *ast.Label, *ast.Case,
			*ast.If, *ast.Switch, *ast.While, *ast.DoWhile, *ast.For:
		default:
			return flowNext
		}
	}
	switch s := s.(type) {
	case *ast.Compound:
		return in.seq(s.Items)
	case *ast.ExprStmt:
		return in.expr(s.X)
	case *ast.Decl:
		return in.expr(s.Init)
	case *ast.Empty:
		return flowNext
	case *ast.Return:
		return in.returnStmt(s)
	case *ast.If:
		return in.ifStmt(s)
	case *ast.Switch:
		return in.switchStmt(s)
	case *ast.Case:
		// a case arm outside a recognized switch body; visit its run
		return in.seq(s.Body)
	case *ast.While:
		return in.whileStmt(s)
	case *ast.DoWhile:
		return in.doWhileStmt(s)
	case *ast.For:
		return in.forStmt(s)
	case *ast.Break:
		return flowBreak
	case *ast.Continue:
		return flowContinue
	case *ast.Label:
		if in.pc.ignoreUntil == s.Name {
			in.pc.ignoreUntil = ""
		}
		return in.stmt(s.Stmt)
	case *ast.Goto:
		return in.gotoStmt(s)
	}
	return flowNext
}

func (in *interp) seq(items []ast.Stmt) flow {
	for _, s := range items {
		if f := in.stmt(s); f != flowNext {
			return f
		}
	}
	return flowNext
}

func (in *interp) returnStmt(s *ast.Return) flow {
	// calls inside the return expression still count
	if f := in.expr(s.X); f != flowNext {
		return f
	}
	if in.pc.state.balanced() {
		return flowEnd
	}
	in.report(Return, "unbalanced lock state at return")
	return flowEnd
}

// condVisit walks a controlling expression with the forbidden flag
// raised: a lock operation inside it executes an unpredictable number
// of times and is always reported.
func (in *interp) condVisit(e ast.Expr) flow {
	prev := in.pc.forbidden
	in.pc.forbidden = true
	f := in.expr(e)
	in.pc.forbidden = prev
	return f
}

func (in *interp) ifStmt(s *ast.If) flow {
	pc := in.pc
	if !in.needsVisit(s) {
		return flowNext
	}
	if pc.ignoreUntil != "" {
		// no state is tracked while skipping, so there is nothing to
		// split; descend only where the label can be
		if s.Then != nil && in.needsVisit(s.Then) {
			f := in.stmt(s.Then)
			if f != flowNext || pc.ignoreUntil == "" {
				return f
			}
		}
		if s.Else != nil && in.needsVisit(s.Else) {
			return in.stmt(s.Else)
		}
		return flowNext
	}
	if f := in.condVisit(s.Cond); f != flowNext {
		return f
	}
	key := ast.ExprString(s.Cond)
	takeTrue, ok := pc.memo.lookup(key)
	if !ok {
		takeTrue = pc.choose(2) == 0
		pc.memo.record(key, takeTrue)
	}
	if takeTrue {
		if s.Then != nil && in.needsVisit(s.Then) {
			return in.stmt(s.Then)
		}
		return flowNext
	}
	if s.Else != nil && in.needsVisit(s.Else) {
		return in.stmt(s.Else)
	}
	return flowNext
}

// caseList flattens a switch body into its arms. The body is normally
// a compound of case arms; a single unbraced case also occurs.
// Statements before the first case label are unreachable and dropped.
func caseList(body ast.Stmt) []*ast.Case {
	switch b := body.(type) {
	case *ast.Case:
		return []*ast.Case{b}
	case *ast.Compound:
		var cases []*ast.Case
		for _, it := range b.Items {
			if c, ok := it.(*ast.Case); ok {
				cases = append(cases, c)
			}
		}
		return cases
	}
	return nil
}

func (in *interp) switchStmt(s *ast.Switch) flow {
	pc := in.pc
	if !in.needsVisit(s) {
		return flowNext
	}
	if pc.ignoreUntil != "" {
		if containsLabel(s.Body, pc.ignoreUntil) {
			// jumping into a switch arm from outside is not modeled
			in.report(Internal, fmt.Sprintf("goto %s targets a switch arm", pc.ignoreUntil))
			return flowEnd
		}
		return flowNext
	}
	if f := in.condVisit(s.Cond); f != flowNext {
		return f
	}
	cases := caseList(s.Body)
	if len(cases) == 0 {
		return flowNext
	}
	// one leg per possible first-entered arm, plus the leg that takes
	// none of them
	entry := pc.choose(len(cases) + 1)
	if entry == len(cases) {
		return flowNext
	}
	for i := entry; i < len(cases); i++ {
		if pc.ignoreUntil != "" && containsLabelInArm(cases[i], pc.ignoreUntil) {
			// a goto from one arm into another is not modeled either
			in.report(Internal, fmt.Sprintf("goto %s crosses switch arms", pc.ignoreUntil))
			return flowEnd
		}
		switch f := in.seq(cases[i].Body); f {
		case flowBreak:
			return flowNext
		case flowNext:
			// fall through into the next arm
		default:
			// flowEnd ends the path; flowContinue belongs to an
			// enclosing loop
			return f
		}
	}
	return flowNext
}

// isEndless reports a syntactically endless loop condition, while(1).
func isEndless(cond ast.Expr) bool {
	c, ok := cond.(*ast.Constant)
	return ok && c.Text != "0"
}

// loopExit folds a loop body's outcome at the loop boundary: break and
// continue are consumed here and the exploration resumes after the
// loop.
func loopExit(f flow) flow {
	if f == flowBreak || f == flowContinue {
		return flowNext
	}
	return f
}

// skipLoopBody handles a loop while a forward goto is pending: the
// body is descended only to find the label, nothing is split and no
// condition is read.
func (in *interp) skipLoopBody(body ast.Stmt) flow {
	if body == nil || !in.needsVisit(body) {
		return flowNext
	}
	return loopExit(in.stmt(body))
}

func (in *interp) whileStmt(s *ast.While) flow {
	pc := in.pc
	if !in.needsVisit(s) {
		return flowNext
	}
	if pc.ignoreUntil != "" {
		return in.skipLoopBody(s.Body)
	}
	if f := in.condVisit(s.Cond); f != flowNext {
		return f
	}
	if isEndless(s.Cond) {
		return in.endlessBody(s.Body)
	}
	if pc.choose(2) == 0 {
		if f := loopExit(in.stmt(s.Body)); f != flowNext {
			return f
		}
	}
	return flowNext
}

// endlessBody visits the body of a loop with no exit edge. Only break
// leaves the loop; a body that completes loops forever, which ends the
// path cleanly — unless a forward goto is pending, in which case the
// jump already left the loop and the walk keeps looking for the label.
func (in *interp) endlessBody(body ast.Stmt) flow {
	f := in.stmt(body)
	switch {
	case f == flowBreak:
		return flowNext
	case f == flowEnd:
		return flowEnd
	case in.pc.ignoreUntil != "":
		return flowNext
	default:
		return flowEnd
	}
}

func (in *interp) doWhileStmt(s *ast.DoWhile) flow {
	pc := in.pc
	if !in.needsVisit(s) {
		return flowNext
	}
	if pc.ignoreUntil != "" {
		return in.skipLoopBody(s.Body)
	}
	f := in.stmt(s.Body)
	if f == flowEnd {
		return flowEnd
	}
	if f == flowBreak {
		// break jumps past the condition
		return flowNext
	}
	// normal completion and continue both reach the condition
	if f := in.condVisit(s.Cond); f != flowNext {
		return f
	}
	if isEndless(s.Cond) && in.pc.ignoreUntil == "" {
		return flowEnd
	}
	return flowNext
}

func (in *interp) forStmt(s *ast.For) flow {
	pc := in.pc
	if !in.needsVisit(s) {
		return flowNext
	}
	if pc.ignoreUntil != "" {
		return in.skipLoopBody(s.Body)
	}
	prev := pc.forbidden
	pc.forbidden = true
	f := flowNext
	if s.Init != nil {
		f = in.stmt(s.Init)
	}
	if f == flowNext && s.Cond != nil {
		f = in.expr(s.Cond)
	}
	if f == flowNext && s.Post != nil {
		f = in.expr(s.Post)
	}
	pc.forbidden = prev
	if f != flowNext {
		return f
	}
	if s.Init == nil && s.Cond == nil && s.Post == nil {
		// for (;;): same endless treatment as while(1)
		return in.endlessBody(s.Body)
	}
	if pc.choose(2) == 0 {
		if f := loopExit(in.stmt(s.Body)); f != flowNext {
			return f
		}
	}
	return flowNext
}

func (in *interp) gotoStmt(g *ast.Goto) flow {
	// backward jumps re-enter territory the walk has already covered;
	// those paths are accounted for, so the exploration ends cleanly
	if in.gotoIsBackward(g) {
		return flowEnd
	}
	in.pc.ignoreUntil = g.Label
	return flowNext
}

// gotoIsBackward reports whether g's target label occurs before g in
// the function body's source order.
func (in *interp) gotoIsBackward(g *ast.Goto) bool {
	backward := false
	done := false
	ast.Inspect(in.fn.Body, func(n ast.Node) bool {
		if done {
			return false
		}
		if n == ast.Node(g) {
			done = true
			return false
		}
		if l, ok := n.(*ast.Label); ok && l.Name == g.Label {
			backward = true
		}
		return true
	})
	return backward
}

// ---- Expressions ----

func (in *interp) expr(e ast.Expr) flow {
	if e == nil || in.pc.ignoreUntil != "" {
		return flowNext
	}
	switch e := e.(type) {
	case *ast.Call:
		return in.call(e)
	case *ast.Ternary:
		return in.ternary(e)
	case *ast.Unary:
		return in.expr(e.X)
	case *ast.Cast:
		return in.expr(e.X)
	case *ast.Member:
		return in.expr(e.X)
	case *ast.Binary:
		if f := in.expr(e.X); f != flowNext {
			return f
		}
		return in.expr(e.Y)
	case *ast.Assign:
		if f := in.expr(e.L); f != flowNext {
			return f
		}
		return in.expr(e.R)
	case *ast.Index:
		if f := in.expr(e.X); f != flowNext {
			return f
		}
		return in.expr(e.I)
	}
	return flowNext
}

func (in *interp) call(c *ast.Call) flow {
	pc := in.pc
	if id, ok := c.Fun.(*ast.Ident); ok {
		if op := pc.state.update(in.cat, id.Name); op != OpNone {
			if pc.forbidden {
				in.report(Forbidden, fmt.Sprintf("%s called in a forbidden position", id.Name))
				return flowEnd
			}
		}
		if id.Name == "panic" {
			// the process is presumed dying; no balance check applies
			return flowEnd
		}
	} else {
		// opaque callee: lock operations behind function pointers are
		// invisible, but calls nested in the callee expression count
		if f := in.expr(c.Fun); f != flowNext {
			return f
		}
	}
	for _, a := range c.Args {
		if f := in.expr(a); f != flowNext {
			return f
		}
	}
	return flowNext
}

func (in *interp) ternary(e *ast.Ternary) flow {
	pc := in.pc
	if !in.needsVisit(e) {
		return flowNext
	}
	if f := in.condVisit(e.Cond); f != flowNext {
		return f
	}
	key := ast.ExprString(e.Cond)
	takeTrue, ok := pc.memo.lookup(key)
	if !ok {
		takeTrue = pc.choose(2) == 0
		pc.memo.record(key, takeTrue)
	}
	if takeTrue {
		return in.expr(e.Then)
	}
	return in.expr(e.Else)
}
