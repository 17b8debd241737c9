package vm

import (
	"fmt"
	"io"
)

// Dump writes a snapshot of the machine's registers and explicit stacks
// to w, for use by a trace/debug CLI path. Adapted from gothird's memory
// dumper, which formatted its paged integer memory; this machine has no
// such memory, so Dump instead formats the call stack and backtracking
// stack frames that replace it in this domain.
func (m *Machine) Dump(w io.Writer) {
	fmt.Fprintf(w, "pc=%d halted=%v switch=%v pos=%d rule=%q\n", m.pc, m.halted, m.switchFlag, m.pos, m.currentRule)
	fmt.Fprintf(w, "retval=%#v\n", m.retval)
	fmt.Fprintf(w, "call stack (%d frames):\n", len(m.callStack))
	for i := len(m.callStack) - 1; i >= 0; i-- {
		f := m.callStack[i]
		fmt.Fprintf(w, "  #%d return=%d rule=%q vars=%d\n", i, f.returnPC, f.rule, len(f.vars))
	}
	fmt.Fprintf(w, "backtrack stack (%d frames):\n", len(m.exprStack))
	for i := len(m.exprStack) - 1; i >= 0; i-- {
		f := m.exprStack[i]
		if f.hasPos {
			fmt.Fprintf(w, "  #%d pos=%d output=%d\n", i, f.pos, len(f.output))
		} else {
			fmt.Fprintf(w, "  #%d (bra) output=%d\n", i, len(f.output))
		}
	}
}
