package compiler

import (
	"fmt"
	"strings"

	"github.com/schorre/metacc/internal/runeio"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string // decoded text: rule/keyword spelling, or unquoted string content
	pos  int    // rune offset the token started at, for diagnostics
}

// lexer tokenizes a grammar dialect source text, grounded on gothird's
// hand-rolled scan()/literal() token reading idiom (internals.go).
type lexer struct {
	src  []rune
	pos  int
	peek *token
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (lx *lexer) peekTok() token {
	if lx.peek == nil {
		t := lx.scan()
		lx.peek = &t
	}
	return *lx.peek
}

func (lx *lexer) next() token {
	if lx.peek != nil {
		t := *lx.peek
		lx.peek = nil
		return t
	}
	return lx.scan()
}

var singlePunct = "<>()|:;{}"

func (lx *lexer) scan() token {
	lx.skipSpaceAndComments()
	start := lx.pos
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: start}
	}
	r := lx.src[lx.pos]

	switch {
	case r == ':' && lx.pos+2 < len(lx.src) && lx.src[lx.pos+1] == ':' && lx.src[lx.pos+2] == '=':
		lx.pos += 3
		return token{kind: tokPunct, text: "::=", pos: start}
	case strings.ContainsRune(singlePunct, r):
		lx.pos++
		return token{kind: tokPunct, text: string(r), pos: start}
	case r == '\'':
		return lx.scanString(start)
	case isIdentStart(r):
		return lx.scanIdent(start)
	}
	lx.pos++
	return token{kind: tokPunct, text: string(r), pos: start}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '*' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func (lx *lexer) scanIdent(start int) token {
	for lx.pos < len(lx.src) && isIdentCont(lx.src[lx.pos]) {
		lx.pos++
	}
	return token{kind: tokIdent, text: string(lx.src[start:lx.pos]), pos: start}
}

func (lx *lexer) scanString(start int) token {
	lx.pos++ // opening quote
	var sb strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			panic(&SyntaxError{Mess: "unterminated string literal", Pos: start})
		}
		r := lx.src[lx.pos]
		if r == '\'' {
			lx.pos++
			break
		}
		if r == '\\' {
			ch, n := lx.unescape()
			sb.WriteRune(ch)
			lx.pos += n
			continue
		}
		sb.WriteRune(r)
		lx.pos++
	}
	return token{kind: tokString, text: sb.String(), pos: start}
}

// unescape decodes one backslash escape starting at lx.src[lx.pos] (which
// must be '\\'), returning the decoded rune and the number of source
// runes consumed. Supports the dialect's escape set: \\ \' \" \a \b \f
// \n \r \t \v \0 and \uXXXX. \0 and \" are handled directly since Go's
// escape grammar has no bare \0 form and rejects \" inside a single-quoted
// rune literal; every other escape is decoded by wrapping it as a quoted
// rune literal and delegating to runeio.UnquoteRune, the same decoder
// gothird uses for its own rune-literal operands.
func (lx *lexer) unescape() (rune, int) {
	rest := lx.src[lx.pos:]
	if len(rest) >= 2 && rest[1] == '0' {
		return 0, 2
	}
	if len(rest) >= 2 && rest[1] == '"' {
		return '"', 2
	}
	if len(rest) >= 6 && rest[1] == 'u' {
		token := "'" + string(rest[:6]) + "'"
		r, err := runeio.UnquoteRune(token)
		if err != nil {
			panic(&SyntaxError{Mess: fmt.Sprintf("bad \\u escape: %v", err), Pos: lx.pos})
		}
		return r, 6
	}
	if len(rest) >= 2 {
		token := "'\\" + string(rest[1]) + "'"
		r, err := runeio.UnquoteRune(token)
		if err != nil {
			panic(&SyntaxError{Mess: fmt.Sprintf("bad escape: %v", err), Pos: lx.pos})
		}
		return r, 2
	}
	panic(&SyntaxError{Mess: "dangling backslash in string literal", Pos: lx.pos})
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.src) {
		r := lx.src[lx.pos]
		switch {
		case r == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			lx.pos++
		default:
			return
		}
	}
}
