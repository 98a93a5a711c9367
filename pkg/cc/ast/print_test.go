package ast_test

import (
	"testing"

	"lockwalk/pkg/cc/ast"
)

func TestExprStringForms(t *testing.T) {
	tests := []struct {
		expr ast.Expr
		want string
	}{
		{&ast.Ident{Name: "sc"}, "sc"},
		{&ast.Constant{Text: "0x10"}, "0x10"},
		{
			&ast.Call{
				Fun:  &ast.Ident{Name: "mtx_enter"},
				Args: []ast.Expr{&ast.Unary{Op: "&", X: &ast.Ident{Name: "m"}}},
			},
			"mtx_enter(&m)",
		},
		{
			&ast.Binary{
				Op: "&&",
				X:  &ast.Ident{Name: "a"},
				Y:  &ast.Unary{Op: "!", X: &ast.Ident{Name: "b"}},
			},
			"(a && !b)",
		},
		{
			&ast.Ternary{
				Cond: &ast.Ident{Name: "c"},
				Then: &ast.Constant{Text: "1"},
				Else: &ast.Constant{Text: "2"},
			},
			"(c ? 1 : 2)",
		},
		{
			&ast.Member{
				X:     &ast.Index{X: &ast.Ident{Name: "tab"}, I: &ast.Ident{Name: "i"}},
				Name:  "mtx",
				Arrow: false,
			},
			"tab[i].mtx",
		},
		{
			&ast.Assign{Op: "+=", L: &ast.Ident{Name: "n"}, R: &ast.Constant{Text: "1"}},
			"(n += 1)",
		},
		{&ast.Unary{Op: "++", X: &ast.Ident{Name: "n"}, Postfix: true}, "n++"},
		{&ast.Unary{Op: "sizeof", X: &ast.Ident{Name: "buf"}}, "sizeof(buf)"},
		{&ast.Cast{Type: "u_int32_t", X: &ast.Ident{Name: "v"}}, "(u_int32_t)v"},
	}
	for _, tt := range tests {
		if got := ast.ExprString(tt.expr); got != tt.want {
			t.Errorf("ExprString = %q, want %q", got, tt.want)
		}
	}
}

func TestInspectOrderAndPruning(t *testing.T) {
	// do-while children visit body before condition, matching source
	// order; that order is what backward-goto classification relies on
	loop := &ast.DoWhile{
		Body: &ast.Compound{Items: []ast.Stmt{
			&ast.Label{Name: "top", Stmt: &ast.Empty{}},
		}},
		Cond: &ast.Ident{Name: "again"},
	}
	var order []string
	ast.Inspect(loop, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Label:
			order = append(order, "label:"+n.Name)
		case *ast.Ident:
			order = append(order, "ident:"+n.Name)
		}
		return true
	})
	if len(order) != 2 || order[0] != "label:top" || order[1] != "ident:again" {
		t.Fatalf("visit order = %v", order)
	}

	// returning false must prune the subtree
	seen := 0
	ast.Inspect(loop, func(n ast.Node) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Fatalf("pruned walk visited %d nodes, want 1", seen)
	}
}
