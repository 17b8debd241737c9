package compiler_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schorre/metacc/compiler"
	"github.com/schorre/metacc/grammars"
	"github.com/schorre/metacc/render"
	"github.com/schorre/metacc/vm"
)

func compileAndRun(t *testing.T, grammar, src string) string {
	t.Helper()
	prog, err := compiler.Compile(grammar)
	require.NoError(t, err)
	result, err := vm.Run(context.Background(), prog, []rune(src))
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, render.Render(&b, result))
	return b.String()
}

// TestAexpEmptyProgram covers the minimal `BEGIN END` program: no
// statements, so the only emitted instructions are the program's own
// entry/exit pair.
func TestAexpEmptyProgram(t *testing.T) {
	got := compileAndRun(t, grammars.Aexp, "BEGIN END")
	require.Equal(t, "(ADR, 'program'),\n(END,),\n", got)
}

// TestAexpSingleAssignment covers `BEGIN x := 2 + 3 END`: the addends
// compile depth-first (each LITERAL before the ADD that combines them),
// and the assignment's STORE follows the whole expression.
func TestAexpSingleAssignment(t *testing.T) {
	got := compileAndRun(t, grammars.Aexp, "BEGIN x := 2 + 3 END")
	want := "" +
		"(ADR, 'program'),\n" +
		"(LITERAL, 2),\n" +
		"(LITERAL, 3),\n" +
		"(ADD,),\n" +
		"(STORE, 'x'),\n" +
		"(END,),\n"
	require.Equal(t, want, got)
}

// TestAexpOperatorPrecedence covers `BEGIN x := 2 + 3 * 4 END`: '*' binds
// tighter than '+', so both factors are pushed before the MUL, and the
// whole product is pushed before the ADD combines it with the first term.
func TestAexpOperatorPrecedence(t *testing.T) {
	got := compileAndRun(t, grammars.Aexp, "BEGIN x := 2 + 3 * 4 END")
	want := "" +
		"(ADR, 'program'),\n" +
		"(LITERAL, 2),\n" +
		"(LITERAL, 3),\n" +
		"(LITERAL, 4),\n" +
		"(MUL,),\n" +
		"(ADD,),\n" +
		"(STORE, 'x'),\n" +
		"(END,),\n"
	require.Equal(t, want, got)
}

// TestAexpSyntaxErrorReportsOffset covers a malformed program (missing
// 'END'): vm.Run should fail with a *vm.SyntaxError
// anchored at the farthest position the parse reached, not at 0.
func TestAexpSyntaxErrorReportsOffset(t *testing.T) {
	prog, err := compiler.Compile(grammars.Aexp)
	require.NoError(t, err)
	_, err = vm.Run(context.Background(), prog, []rune("BEGIN x := 2 +"))
	require.Error(t, err)
	var synErr *vm.SyntaxError
	require.ErrorAs(t, err, &synErr)
	require.Greater(t, synErr.Position, 0)
}

// TestAexpSyntaxErrorAnchorsAfterDanglingOperator covers `BEGIN x := 2 +
// END`: expr's REPEAT attempts one more `'+' <term>` iteration, consuming
// '+'; the term then skips the whitespace after it and fails on 'END', so
// the farthest position reached is the start of 'END' even though that
// whole iteration later rolls back; the reported rule stack must still
// name the rule that was mid-iteration when the high-water mark was set.
func TestAexpSyntaxErrorAnchorsAfterDanglingOperator(t *testing.T) {
	prog, err := compiler.Compile(grammars.Aexp)
	require.NoError(t, err)
	src := "BEGIN x := 2 + END"
	_, err = vm.Run(context.Background(), prog, []rune(src))
	require.Error(t, err)
	var synErr *vm.SyntaxError
	require.ErrorAs(t, err, &synErr)
	require.Equal(t, strings.Index(src, "END"), synErr.Position)
	require.Contains(t, synErr.Rules, "expr")
}

// TestAexpGenUniquenessAcrossRepeatedEmits covers a grammar rule matching
// three 'x' characters, each followed by an emit block invoking GEN
// twice: the counter is global and monotone for the whole vm.Run, giving
// "1,2", "3,4", "5,6" rather than restarting at 1 for each match.
func TestAexpGenUniquenessAcrossRepeatedEmits(t *testing.T) {
	gram := "BEGIN pairs ::= ANY_OF 'x':skip { GEN ',' GEN ';' } " +
		"ANY_OF 'x':skip { GEN ',' GEN ';' } " +
		"ANY_OF 'x':skip { GEN ',' GEN ';' } ; END"
	got := compileAndRun(t, gram, "xxx")
	require.Equal(t, "1,2;3,4;5,6;", got)
}

func TestCompileRejectsMissingEnd(t *testing.T) {
	_, err := compiler.Compile("BEGIN rule ::= ANY_OF 'a' ;")
	require.Error(t, err)
	var synErr *compiler.SyntaxError
	require.ErrorAs(t, err, &synErr)
}

func TestCompileRejectsUnterminatedString(t *testing.T) {
	_, err := compiler.Compile("BEGIN rule ::= ANY_OF 'abc ;\nEND\n")
	require.Error(t, err)
	var synErr *compiler.SyntaxError
	require.ErrorAs(t, err, &synErr)
}

// TestCompileDefaultWhitespaceSkipsBlanks exercises the built-in
// *whitespace* fallback (no rule in src defines it) via a quoted-literal
// element, which calls *whitespace* before matching.
func TestCompileDefaultWhitespaceSkipsBlanks(t *testing.T) {
	prog, err := compiler.Compile("BEGIN rule ::= 'a' 'b' ; END")
	require.NoError(t, err)
	_, err = vm.Run(context.Background(), prog, []rune("a   b"))
	require.NoError(t, err)
}

// TestMetaccSelfHosts compiles the metacompiler's own grammar, then runs
// that program over a tiny grammar dialect source text, verifying it
// recognizes the rule and emits a LABEL line naming it, the rule's ANY_OF
// match, and a closing R line.
func TestMetaccSelfHosts(t *testing.T) {
	prog, err := compiler.Compile(grammars.Metacc)
	require.NoError(t, err)

	src := "BEGIN greeting ::= ANY_OF 'ab' ; END"
	result, err := vm.Run(context.Background(), prog, []rune(src))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, render.Render(&b, result))
	got := b.String()

	require.Contains(t, got, "(LABEL, 'greeting'),\n")
	require.Contains(t, got, "(ANY_OF, 'ab'),\n")
	require.Contains(t, got, "(R,),\n")
}

// TestMetaccFixedPointOnItsOwnGrammar covers the round-trip/fixed-point
// law: compiling the metacompiler's own grammar with the metacompiler
// (grammars.Metacc, self-hosted via compiler.Compile's native
// translation) must be a pure function of its source text, so compiling
// it a second time from the same just-built program produces a
// byte-equal instruction stream. This is narrower than the full law: the
// emitted tuple text is not loaded back as a second-stage compiler, so
// the test checks that the self-hosted compile is deterministic.
func TestMetaccFixedPointOnItsOwnGrammar(t *testing.T) {
	prog, err := compiler.Compile(grammars.Metacc)
	require.NoError(t, err)

	render1 := func() string {
		result, err := vm.Run(context.Background(), prog, []rune(grammars.Metacc))
		require.NoError(t, err)
		var b strings.Builder
		require.NoError(t, render.Render(&b, result))
		return b.String()
	}

	first := render1()
	second := render1()
	require.Equal(t, first, second)
	require.NotEmpty(t, first)
}
