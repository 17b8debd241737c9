package render_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schorre/metacc/compiler"
	"github.com/schorre/metacc/render"
	"github.com/schorre/metacc/vm"
)

func TestRenderFlatString(t *testing.T) {
	var b strings.Builder
	require.NoError(t, render.Render(&b, vm.Str("hello")))
	require.Equal(t, "hello", b.String())
}

func TestRenderIndentationMarkers(t *testing.T) {
	frag := vm.List{
		vm.Str("top"),
		vm.Marker(0),
		vm.Marker(4),
		vm.Str("nested"),
		vm.Marker(0),
		vm.Marker(4),
		vm.Str("deeper"),
		vm.Marker(0),
		vm.Marker(-8),
		vm.Str("back"),
	}
	var b strings.Builder
	require.NoError(t, render.Render(&b, frag))
	require.Equal(t, "top\n    nested\n        deeper\nback", b.String())
}

// TestRenderMarginNeverNegative exercises an OUTDENT past the left edge:
// the margin clamps to 0 rather than going negative.
func TestRenderMarginNeverNegative(t *testing.T) {
	frag := vm.List{
		vm.Marker(-4),
		vm.Str("x"),
	}
	var b strings.Builder
	require.NoError(t, render.Render(&b, frag))
	require.Equal(t, "x", b.String())
}

func TestRenderEmptyStringWritesNothing(t *testing.T) {
	frag := vm.List{vm.Str(""), vm.Marker(0), vm.Str("a")}
	var b strings.Builder
	require.NoError(t, render.Render(&b, frag))
	require.Equal(t, "\na", b.String())
}

// TestRenderIfBlockIndentationScenario covers an emit block `{ 'if' NL
// INDENT 'body' NL OUTDENT 'end' NL }` starting at margin 0, compiled and
// run rather than hand-built, so the fragment tree under test is exactly
// what compileOutlist's NL/INDENT/OUTDENT handling actually produces.
func TestRenderIfBlockIndentationScenario(t *testing.T) {
	gram := "BEGIN stmt ::= ANY_OF 'x':skip { 'if' NL INDENT 'body' NL OUTDENT 'end' NL } ; END"
	prog, err := compiler.Compile(gram)
	require.NoError(t, err)
	result, err := vm.Run(context.Background(), prog, []rune("x"))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, render.Render(&b, result))
	require.Equal(t, "if\n    body\nend\n", b.String())
}

