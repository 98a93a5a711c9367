// Package parser turns preprocessed C text into the checker's syntax
// tree. It is a lint-grade front end: function definitions are parsed
// in full, every other top-level construct is skipped, and local
// declarations are recognized heuristically (a type-ish prefix) rather
// than through a symbol table. That is enough to find every call site
// and control construct the checker cares about.
package parser

import (
	"fmt"
	"strings"

	"lockwalk/pkg/cc/ast"
)

type parser struct {
	file string
	toks []token
	i    int
}

// ParseFile parses src, keeping only function definitions.
func ParseFile(name, src string) (*ast.File, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	p := &parser{file: name, toks: toks}
	f := &ast.File{Name: name}
	for p.cur().kind != tokEOF {
		fn, err := p.topLevel()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if fn != nil {
			f.Funcs = append(f.Funcs, fn)
		}
	}
	return f, nil
}

func (p *parser) cur() token  { return p.toks[p.i] }
func (p *parser) peek() token {
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) at(text string) bool {
	t := p.cur()
	return t.kind != tokEOF && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.i++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if p.accept(text) {
		return nil
	}
	t := p.cur()
	return fmt.Errorf("line %d: expected %q, found %q", t.pos.Line, text, t.text)
}

// topLevel consumes one external declaration. It returns a FuncDef
// when the declaration turns out to be a function definition with a
// body, nil otherwise.
func (p *parser) topLevel() (*ast.FuncDef, error) {
	name := ""
	sawEq := false
	prev := token{}
	for {
		t := p.cur()
		switch {
		case t.kind == tokEOF:
			return nil, nil
		case t.text == ";":
			p.next()
			return nil, nil
		case t.text == "=":
			sawEq = true
			p.next()
		case t.text == "(":
			if prev.kind == tokIdent && !isKeyword(prev.text) {
				name = prev.text
			}
			if err := p.skipBalanced("(", ")"); err != nil {
				return nil, err
			}
			prev = token{kind: tokPunct, text: ")"}
			continue
		case t.text == "[":
			if err := p.skipBalanced("[", "]"); err != nil {
				return nil, err
			}
			prev = token{kind: tokPunct, text: "]"}
			continue
		case t.text == "{":
			if !sawEq && prev.text == ")" && name != "" {
				body, err := p.parseCompound()
				if err != nil {
					return nil, err
				}
				// a trailing semicolon after the body is tolerated
				p.accept(";")
				return &ast.FuncDef{Name: name, Line: t.pos.Line, Body: body}, nil
			}
			if err := p.skipBalanced("{", "}"); err != nil {
				return nil, err
			}
			prev = token{kind: tokPunct, text: "}"}
			continue
		default:
			p.next()
		}
		if t.text != "=" {
			prev = t
		}
	}
}

// skipBalanced consumes an open..close token group, nesting included.
func (p *parser) skipBalanced(open, close string) error {
	start := p.cur().pos.Line
	if err := p.expect(open); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return fmt.Errorf("line %d: unbalanced %q", start, open)
		case t.text == open:
			depth++
		case t.text == close:
			depth--
		}
	}
	return nil
}

// ---- Statements ----

func (p *parser) parseCompound() (*ast.Compound, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	c := &ast.Compound{}
	for !p.at("}") {
		if p.cur().kind == tokEOF {
			return nil, fmt.Errorf("line %d: unterminated block", p.cur().pos.Line)
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		c.Items = append(c.Items, s)
	}
	p.next()
	c.Items = groupCases(c.Items)
	return c, nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	t := p.cur()
	switch {
	case t.text == "{":
		return p.parseCompound()
	case t.text == ";":
		p.next()
		return &ast.Empty{}, nil
	case t.text == "if":
		return p.parseIf()
	case t.text == "switch":
		return p.parseSwitch()
	case t.text == "while":
		return p.parseWhile()
	case t.text == "do":
		return p.parseDoWhile()
	case t.text == "for":
		return p.parseFor()
	case t.text == "return":
		p.next()
		r := &ast.Return{}
		if !p.at(";") {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			r.X = x
		}
		return r, p.expect(";")
	case t.text == "break":
		p.next()
		return &ast.Break{}, p.expect(";")
	case t.text == "continue":
		p.next()
		return &ast.Continue{}, p.expect(";")
	case t.text == "goto":
		p.next()
		lbl := p.next()
		if lbl.kind != tokIdent {
			return nil, fmt.Errorf("line %d: goto needs a label", lbl.pos.Line)
		}
		return &ast.Goto{Label: lbl.text}, p.expect(";")
	case t.text == "case" || t.text == "default":
		return p.parseCase()
	case t.kind == tokIdent && p.peek().text == ":":
		p.next()
		p.next()
		// a label may close a block with nothing after it
		if p.at("}") {
			return &ast.Label{Name: t.text, Stmt: &ast.Empty{}}, nil
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &ast.Label{Name: t.text, Stmt: s}, nil
	}
	if p.atDeclStart() {
		return p.parseDecl()
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: x}, p.expect(";")
}

func (p *parser) parseIf() (ast.Stmt, error) {
	p.next()
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	n := &ast.If{Cond: cond, Then: then}
	if p.accept("else") {
		els, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		n.Else = els
	}
	return n, nil
}

func (p *parser) parseSwitch() (ast.Stmt, error) {
	p.next()
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.Switch{Cond: cond, Body: body}, nil
}

// parseCase parses a case or default label and the single statement it
// owns. Grouping a whole arm's statement run is done by groupCases once
// the enclosing block is complete.
func (p *parser) parseCase() (ast.Stmt, error) {
	c := &ast.Case{}
	if p.next().text == "case" {
		x, err := p.parseTernaryExpr()
		if err != nil {
			return nil, err
		}
		c.X = x
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	if p.at("}") {
		return c, nil
	}
	s, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	c.Body = append(c.Body, s)
	return c, nil
}

func (p *parser) parseWhile() (ast.Stmt, error) {
	p.next()
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *parser) parseDoWhile() (ast.Stmt, error) {
	p.next()
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if err := p.expect("while"); err != nil {
		return nil, err
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return &ast.DoWhile{Cond: cond, Body: body}, p.expect(";")
}

func (p *parser) parseFor() (ast.Stmt, error) {
	p.next()
	if err := p.expect("("); err != nil {
		return nil, err
	}
	n := &ast.For{}
	if !p.at(";") {
		if p.atDeclStart() {
			d, err := p.parseDecl()
			if err != nil {
				return nil, err
			}
			n.Init = d
		} else {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			n.Init = &ast.ExprStmt{X: x}
			if err := p.expect(";"); err != nil {
				return nil, err
			}
		}
	} else {
		p.next()
	}
	if !p.at(";") {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.Cond = x
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.at(")") {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.Post = x
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	n.Body = body
	return n, nil
}

// groupCases rewrites a block's items so that each Case arm owns the
// statement run up to the next case label. Chained labels
// (case 1: case 2: stmt) become separate arms; the checker's
// fall-through walk strings them back together.
func groupCases(items []ast.Stmt) []ast.Stmt {
	found := false
	for _, it := range items {
		if _, ok := it.(*ast.Case); ok {
			found = true
			break
		}
	}
	if !found {
		return items
	}
	var out []ast.Stmt
	var cur *ast.Case
	var push func(s ast.Stmt)
	push = func(s ast.Stmt) {
		if c, ok := s.(*ast.Case); ok {
			arm := &ast.Case{X: c.X}
			out = append(out, arm)
			cur = arm
			for _, b := range c.Body {
				push(b)
			}
			return
		}
		if cur != nil {
			cur.Body = append(cur.Body, s)
			return
		}
		out = append(out, s)
	}
	for _, it := range items {
		push(it)
	}
	return out
}

// ---- Declarations ----

var typeKeywords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"const": true, "volatile": true, "static": true, "register": true,
	"extern": true, "struct": true, "union": true, "enum": true,
	"u_char": true, "u_short": true, "u_int": true, "u_long": true,
	"size_t": true, "ssize_t": true, "caddr_t": true, "vaddr_t": true,
	"paddr_t": true, "vsize_t": true, "boolean_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
}

var stmtKeywords = map[string]bool{
	"if": true, "switch": true, "while": true, "do": true, "for": true,
	"return": true, "break": true, "continue": true, "goto": true,
	"case": true, "default": true, "else": true, "sizeof": true,
}

func isKeyword(s string) bool { return typeKeywords[s] || stmtKeywords[s] }

// atDeclStart applies the declaration heuristic: a known type keyword,
// or two adjacent identifiers ("mytype_t x"), or ident-star-ident.
// "a * b;" as an expression statement loses to the heuristic, which is
// acceptable for a checker that only looks at calls.
func (p *parser) atDeclStart() bool {
	t := p.cur()
	if t.kind != tokIdent {
		return false
	}
	if typeKeywords[t.text] {
		return true
	}
	if stmtKeywords[t.text] {
		return false
	}
	n := p.peek()
	if n.kind == tokIdent && !stmtKeywords[n.text] {
		return true
	}
	if n.text == "*" && p.i+2 < len(p.toks) {
		nn := p.toks[p.i+2]
		if nn.kind == tokIdent && !isKeyword(nn.text) {
			// require a declarator shape: ident or another star next
			return strings.HasSuffix(t.text, "_t") || p.looksLikeDeclTail(p.i + 2)
		}
	}
	return false
}

// looksLikeDeclTail peeks past a candidate declarator name for ";",
// "=", "," or "[" — the shapes a declaration can continue with.
func (p *parser) looksLikeDeclTail(idx int) bool {
	if idx+1 >= len(p.toks) {
		return false
	}
	switch p.toks[idx+1].text {
	case ";", "=", ",", "[":
		return true
	}
	return false
}

// parseDecl consumes one declaration statement, emitting a Decl per
// declarator. Initializer expressions are preserved (calls inside
// them count toward lock state); everything else about the type is
// discarded.
func (p *parser) parseDecl() (ast.Stmt, error) {
	// swallow type and qualifier tokens
	for {
		t := p.cur()
		if t.kind == tokIdent && (typeKeywords[t.text] || p.nextIsDeclaratorish()) {
			p.next()
			// struct/union/enum may carry an inline body
			if (t.text == "struct" || t.text == "union" || t.text == "enum") && p.cur().kind == tokIdent {
				p.next()
			}
			if p.at("{") {
				if err := p.skipBalanced("{", "}"); err != nil {
					return nil, err
				}
			}
			continue
		}
		break
	}
	var decls []ast.Stmt
	for {
		for p.accept("*") || p.accept("const") || p.accept("volatile") {
		}
		nameTok := p.cur()
		if nameTok.kind != tokIdent {
			return nil, fmt.Errorf("line %d: expected declarator, found %q", nameTok.pos.Line, nameTok.text)
		}
		p.next()
		d := &ast.Decl{Name: nameTok.text}
		for p.at("[") {
			if err := p.skipBalanced("[", "]"); err != nil {
				return nil, err
			}
		}
		if p.accept("=") {
			init, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			d.Init = init
		}
		decls = append(decls, d)
		if p.accept(",") {
			continue
		}
		break
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	if len(decls) == 1 {
		return decls[0], nil
	}
	return &ast.Compound{Items: decls}, nil
}

// nextIsDeclaratorish reports whether the token after the current one
// keeps the declaration prefix going (another identifier or a star).
func (p *parser) nextIsDeclaratorish() bool {
	n := p.peek()
	return n.kind == tokIdent || n.text == "*"
}
