// Package render flattens a vm.Fragment tree into indentation-aware text,
// the same depth-first flatten-and-replay algorithm the parsing machine's
// original runtime used to turn a RETVAL fragment into output bytes.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/schorre/metacc/internal/runeio"
	"github.com/schorre/metacc/vm"
)

// ErrInternal is returned (wrapped with the offending value) when a
// fragment tree contains something that isn't a vm.Str, vm.Marker, or
// vm.List -- a condition that can only arise from a bug in the
// interpreter or a caller building fragments by hand.
type ErrInternal struct {
	Value vm.Fragment
}

func (e *ErrInternal) Error() string {
	return fmt.Sprintf("internal problem: %#v", e.Value)
}

// Render flattens frag depth-first and writes the resulting text to w.
// An integer marker of 0 starts a new line; any other integer shifts the
// running margin by that amount, clamped to never go negative; a
// non-empty string is padded to the margin if it starts a line, then
// written as-is. No trailing newline is added. The final write goes
// through runeio.WriteANSIString, the same rune-safe writer gothird's
// core.out uses for its OUT instruction: ASCII text, C0 control
// characters included, is written unchanged, NEL becomes "\r\n", other
// C1 controls are written in their 7-bit ESC form, and every other rune
// as UTF-8.
func Render(w io.Writer, frag vm.Fragment) error {
	sb := &strings.Builder{}
	margin := 0
	lineStart := true
	var walk func(f vm.Fragment) error
	walk = func(f vm.Fragment) error {
		switch v := f.(type) {
		case vm.List:
			for _, item := range v {
				if err := walk(item); err != nil {
					return err
				}
			}
		case vm.Marker:
			if v == 0 {
				sb.WriteByte('\n')
				lineStart = true
			} else {
				margin += int(v)
				if margin < 0 {
					margin = 0
				}
			}
		case vm.Str:
			if len(v) > 0 {
				if lineStart {
					sb.WriteString(strings.Repeat(" ", margin))
				}
				lineStart = false
				sb.WriteString(string(v))
			}
		default:
			return &ErrInternal{Value: f}
		}
		return nil
	}
	if err := walk(frag); err != nil {
		return err
	}
	_, err := runeio.WriteANSIString(w, sb.String())
	return err
}
