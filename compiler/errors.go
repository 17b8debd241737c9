package compiler

import "fmt"

// SyntaxError reports a malformed grammar dialect source text: a bad
// token, an unexpected symbol, or an unterminated string literal. It is
// distinct from vm.SyntaxError, which reports a failed match of a
// compiled program against its own input; this one reports a failure to
// compile the grammar source itself.
type SyntaxError struct {
	Mess string
	Pos  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("grammar syntax error at offset %d: %s", e.Pos, e.Mess)
}
