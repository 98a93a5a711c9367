// Package prefilter normalizes preprocessed C text before parsing.
// Kernel sources carry compiler extensions the parser has no use for;
// stripping them here keeps the grammar small.
package prefilter

import (
	"regexp"
	"strings"
)

var (
	lineMarker = regexp.MustCompile(`(?m)^#.*$`)
	bareToken  = regexp.MustCompile(`\b(__extension__|__restrict__|__restrict|__volatile__|__inline__|__inline|__signed__|__const)\b`)
	parenExt   = regexp.MustCompile(`\b(__attribute__|__asm__|__asm|asm)\b\s*(volatile\b\s*)?`)
)

// Filter returns src with preprocessor line markers and common
// compiler-extension tokens removed. Extensions followed by a
// parenthesized operand lose the operand too.
func Filter(src string) string {
	src = lineMarker.ReplaceAllString(src, "")
	src = bareToken.ReplaceAllString(src, "")

	var sb strings.Builder
	for {
		loc := parenExt.FindStringIndex(src)
		if loc == nil {
			sb.WriteString(src)
			break
		}
		sb.WriteString(src[:loc[0]])
		rest := src[loc[1]:]
		src = stripParens(rest)
	}
	return sb.String()
}

// stripParens drops one balanced parenthesized group at the start of s,
// if present, and returns the remainder.
func stripParens(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	if i >= len(s) || s[i] != '(' {
		return s
	}
	depth := 0
	for ; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[i+1:]
			}
		}
	}
	return ""
}
