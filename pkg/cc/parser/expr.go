package parser

import (
	"fmt"
	"strings"

	"lockwalk/pkg/cc/ast"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "^=": true, "|=": true, "<<=": true, ">>=": true,
}

var binPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

var prefixOps = map[string]bool{
	"++": true, "--": true, "+": true, "-": true,
	"!": true, "~": true, "*": true, "&": true,
}

// parseExpr parses a full expression, comma operator included.
func (p *parser) parseExpr() (ast.Expr, error) {
	x, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	for p.accept(",") {
		y, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: ",", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseAssignExpr() (ast.Expr, error) {
	x, err := p.parseTernaryExpr()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	if t.kind == tokPunct && assignOps[t.text] {
		p.next()
		r, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Op: t.text, L: x, R: r}, nil
	}
	return x, nil
}

func (p *parser) parseTernaryExpr() (ast.Expr, error) {
	x, err := p.parseBinaryExpr(1)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return x, nil
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Ternary{Cond: x, Then: then, Else: els}, nil
}

func (p *parser) parseBinaryExpr(minPrec int) (ast.Expr, error) {
	x, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.kind != tokPunct {
			break
		}
		prec, ok := binPrec[t.text]
		if !ok || prec < minPrec {
			break
		}
		p.next()
		y, err := p.parseBinaryExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: t.text, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseUnaryExpr() (ast.Expr, error) {
	t := p.cur()
	if t.kind == tokPunct && prefixOps[t.text] {
		p.next()
		x, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: t.text, X: x}, nil
	}
	if t.kind == tokIdent && t.text == "sizeof" {
		p.next()
		if p.at("(") {
			inner, err := p.captureBalanced()
			if err != nil {
				return nil, err
			}
			return &ast.Unary{Op: "sizeof", X: &ast.Constant{Text: inner}}, nil
		}
		x, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: "sizeof", X: x}, nil
	}
	if t.text == "(" && p.atCastType() {
		p.next()
		var sb strings.Builder
		for !p.at(")") {
			if p.cur().kind == tokEOF {
				return nil, fmt.Errorf("line %d: unterminated cast", t.pos.Line)
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(p.next().text)
		}
		p.next()
		x, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Cast{Type: sb.String(), X: x}, nil
	}
	return p.parsePostfixExpr()
}

// atCastType reports whether the "(" at the cursor opens a cast. Only
// unmistakable type spellings count: a type keyword, or an identifier
// with the kernel's _t suffix convention.
func (p *parser) atCastType() bool {
	n := p.peek()
	if n.kind != tokIdent {
		return false
	}
	if stmtKeywords[n.text] {
		return false
	}
	return typeKeywords[n.text] || strings.HasSuffix(n.text, "_t")
}

func (p *parser) parsePostfixExpr() (ast.Expr, error) {
	x, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		switch t.text {
		case "(":
			p.next()
			call := &ast.Call{Fun: x}
			for !p.at(")") {
				a, err := p.parseAssignExpr()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, a)
				if !p.accept(",") {
					break
				}
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			x = call
		case "[":
			p.next()
			i, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &ast.Index{X: x, I: i}
		case ".", "->":
			p.next()
			name := p.next()
			if name.kind != tokIdent {
				return nil, fmt.Errorf("line %d: expected member name", name.pos.Line)
			}
			x = &ast.Member{X: x, Name: name.text, Arrow: t.text == "->"}
		case "++", "--":
			p.next()
			x = &ast.Unary{Op: t.text, X: x, Postfix: true}
		default:
			return x, nil
		}
	}
}

func (p *parser) parsePrimaryExpr() (ast.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokIdent:
		if isKeyword(t.text) {
			return nil, fmt.Errorf("line %d: unexpected %q in expression", t.pos.Line, t.text)
		}
		p.next()
		return &ast.Ident{Name: t.text}, nil
	case tokNumber, tokChar:
		p.next()
		return &ast.Constant{Text: t.text}, nil
	case tokString:
		p.next()
		text := t.text
		for p.cur().kind == tokString {
			text += " " + p.next().text
		}
		return &ast.Constant{Text: text}, nil
	case tokPunct:
		if t.text == "(" {
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return x, p.expect(")")
		}
	}
	return nil, fmt.Errorf("line %d: unexpected %q in expression", t.pos.Line, t.text)
}

// captureBalanced consumes a parenthesized token group and returns its
// rendering, parentheses included.
func (p *parser) captureBalanced() (string, error) {
	start := p.cur().pos.Line
	if err := p.expect("("); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteByte('(')
	depth := 1
	for {
		t := p.next()
		if t.kind == tokEOF {
			return "", fmt.Errorf("line %d: unbalanced parenthesis", start)
		}
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				sb.WriteByte(')')
				return sb.String(), nil
			}
		}
		if sb.Len() > 1 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.text)
	}
}
