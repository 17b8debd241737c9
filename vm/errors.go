package vm

import (
	"fmt"
	"strings"
)

// ProgramError reports a malformed program: an undefined label, an
// unbound LOAD, or any other condition that indicates the program itself
// (rather than the input it's running over) is wrong. It is analogous to
// gothird's codeError/progError: a halt condition distinct from ordinary
// parse failure. Where the machine was running when the problem was
// found, Input/Position/Rules are filled in the same shape as
// SyntaxError -- mirroring original_source's show_place_of_error, which
// uses this exact windowed-position-plus-call-stack format for both
// syntax errors and internal diagnostics like an unbound LOAD. A
// ProgramError raised before any Machine exists (an undefined label
// found while building the program) leaves them zero.
type ProgramError struct {
	Mess     string
	Input    []rune
	Position int
	Rules    []string // innermost-first, outermost rule already dropped
}

func (e *ProgramError) Error() string {
	before, after := windowAround(e.Input, e.Position, 60)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n***ERROR: %s\n***HERE:\n%s ...\n", before, e.Mess, after)
	for _, rule := range e.Rules {
		fmt.Fprintf(&b, "in <%s> ", rule)
	}
	return b.String()
}

// SyntaxError reports that a Run over input text did not match, anchored
// at the farthest position any rule reached (the high-water mark) rather
// than wherever the final rollback happened to land.
type SyntaxError struct {
	Input    []rune
	Position int
	Rules    []string // innermost-first, outermost rule already dropped
}

func (e *SyntaxError) Error() string {
	before, after := windowAround(e.Input, e.Position, 60)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n***ERROR: Syntax error\n***HERE:\n%s ...\n", before, after)
	for _, rule := range e.Rules {
		fmt.Fprintf(&b, "in <%s> ", rule)
	}
	return b.String()
}

func windowAround(input []rune, pos, width int) (before, after string) {
	lo := pos - width
	if lo < 0 {
		lo = 0
	}
	hi := pos + width
	if hi > len(input) {
		hi = len(input)
	}
	return string(input[lo:pos]), string(input[pos:hi])
}
