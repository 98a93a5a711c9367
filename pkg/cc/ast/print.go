package ast

import (
	"fmt"
	"strings"
)

// ExprString renders an expression to its canonical textual form.
// The rendering is fully deterministic: compound subexpressions are
// always parenthesized and operators are single-space separated, so
// structurally equal trees yield byte-equal strings. The checker keys
// its condition memo on this rendering.
func ExprString(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *Ident:
		sb.WriteString(e.Name)
	case *Constant:
		sb.WriteString(e.Text)
	case *Call:
		writeExpr(sb, e.Fun)
		sb.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, a)
		}
		sb.WriteByte(')')
	case *Unary:
		if e.Postfix {
			writeExpr(sb, e.X)
			sb.WriteString(e.Op)
			return
		}
		if e.Op == "sizeof" {
			sb.WriteString("sizeof(")
			writeExpr(sb, e.X)
			sb.WriteByte(')')
			return
		}
		sb.WriteString(e.Op)
		writeExpr(sb, e.X)
	case *Binary:
		sb.WriteByte('(')
		writeExpr(sb, e.X)
		fmt.Fprintf(sb, " %s ", e.Op)
		writeExpr(sb, e.Y)
		sb.WriteByte(')')
	case *Assign:
		sb.WriteByte('(')
		writeExpr(sb, e.L)
		fmt.Fprintf(sb, " %s ", e.Op)
		writeExpr(sb, e.R)
		sb.WriteByte(')')
	case *Ternary:
		sb.WriteByte('(')
		writeExpr(sb, e.Cond)
		sb.WriteString(" ? ")
		writeExpr(sb, e.Then)
		sb.WriteString(" : ")
		writeExpr(sb, e.Else)
		sb.WriteByte(')')
	case *Index:
		writeExpr(sb, e.X)
		sb.WriteByte('[')
		writeExpr(sb, e.I)
		sb.WriteByte(']')
	case *Member:
		writeExpr(sb, e.X)
		if e.Arrow {
			sb.WriteString("->")
		} else {
			sb.WriteByte('.')
		}
		sb.WriteString(e.Name)
	case *Cast:
		fmt.Fprintf(sb, "(%s)", e.Type)
		writeExpr(sb, e.X)
	}
}
