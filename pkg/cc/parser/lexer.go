package parser

import (
	"fmt"
	"strings"

	"lockwalk/pkg/cc/ast"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokChar
	tokPunct
)

type token struct {
	kind tokKind
	text string
	pos  ast.Pos
}

// multi-character operators, longest first so the scanner is greedy.
var operators = []string{
	"<<=", ">>=", "...",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=",
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (lx *lexer) pos() ast.Pos { return ast.Pos{Line: lx.line, Col: lx.col} }

func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.off < len(lx.src); i++ {
		if lx.src[lx.off] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.off++
	}
}

func (lx *lexer) peekByte(i int) byte {
	if lx.off+i >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+i]
}

// tokenize scans the whole input. Comments and whitespace are dropped.
func (lx *lexer) tokenize() ([]token, error) {
	var toks []token
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance(1)
		case c == '/' && lx.peekByte(1) == '/':
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.advance(1)
			}
		case c == '/' && lx.peekByte(1) == '*':
			lx.advance(2)
			for lx.off < len(lx.src) {
				if lx.src[lx.off] == '*' && lx.peekByte(1) == '/' {
					lx.advance(2)
					break
				}
				lx.advance(1)
			}
		case isIdentStart(c):
			toks = append(toks, lx.scanIdent())
		case c >= '0' && c <= '9', c == '.' && lx.peekByte(1) >= '0' && lx.peekByte(1) <= '9':
			toks = append(toks, lx.scanNumber())
		case c == '"':
			t, err := lx.scanQuoted('"', tokString)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		case c == '\'':
			t, err := lx.scanQuoted('\'', tokChar)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		default:
			toks = append(toks, lx.scanPunct())
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: lx.pos()})
	return toks, nil
}

func (lx *lexer) scanIdent() token {
	p := lx.pos()
	start := lx.off
	for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
		lx.advance(1)
	}
	return token{kind: tokIdent, text: lx.src[start:lx.off], pos: p}
}

func (lx *lexer) scanNumber() token {
	p := lx.pos()
	start := lx.off
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		if isIdentPart(c) || c == '.' {
			lx.advance(1)
			continue
		}
		// exponent sign, as in 1e-3
		if (c == '+' || c == '-') && lx.off > start {
			prev := lx.src[lx.off-1]
			if prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P' {
				lx.advance(1)
				continue
			}
		}
		break
	}
	return token{kind: tokNumber, text: lx.src[start:lx.off], pos: p}
}

func (lx *lexer) scanQuoted(q byte, kind tokKind) (token, error) {
	p := lx.pos()
	start := lx.off
	lx.advance(1)
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		if c == '\\' {
			lx.advance(2)
			continue
		}
		lx.advance(1)
		if c == q {
			return token{kind: kind, text: lx.src[start:lx.off], pos: p}, nil
		}
	}
	return token{}, fmt.Errorf("line %d: unterminated literal", p.Line)
}

func (lx *lexer) scanPunct() token {
	p := lx.pos()
	rest := lx.src[lx.off:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			lx.advance(len(op))
			return token{kind: tokPunct, text: op, pos: p}
		}
	}
	t := token{kind: tokPunct, text: rest[:1], pos: p}
	lx.advance(1)
	return t
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
