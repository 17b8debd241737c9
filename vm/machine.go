package vm

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/schorre/metacc/internal/panicerr"
)

// cacheKey is the packrat memoization key: a rule invoked at a position
// always produces the same result, so the first outcome is remembered.
type cacheKey struct {
	pos  int
	rule string
}

type cacheEntry struct {
	pos    int
	retval Fragment
	ok     bool
}

// frame is a backtracking-scope save point. CHECKPOINT/ROLLBACK/COMMIT
// save both the input position and the output list; BRA/KET save only
// the output list (hasPos is false), per the two distinct scope shapes
// of the original runtime.
type frame struct {
	hasPos bool
	pos    int
	output []Fragment
}

// callFrame is a rule activation record: where to resume, which rule was
// active, and that rule's local variable bindings.
type callFrame struct {
	returnPC int
	rule     string
	vars     map[string]Fragment
}

// Machine holds all interpreter state for one Run: registers, the
// explicit call and backtracking stacks, the packrat cache, and the
// farthest-failure tracker. No state is shared across Machines; a fresh
// Machine is constructed by each call to Run.
type Machine struct {
	prog  *Program
	input []rune

	pc     int
	halted bool

	switchFlag  bool
	retval      Fragment
	currentRule string
	vars        map[string]Fragment
	output      []Fragment
	genCounter  int

	pos int

	callStack []callFrame
	exprStack []frame

	cache map[cacheKey]cacheEntry

	hwmPos   int
	hwmRules []string

	calls      int
	ruleBudget int
	stackLimit int

	logf          func(mess string, args ...interface{})
	dumpOnFailure io.Writer
}

// Run executes prog over input from instruction 0 until it halts (an END
// instruction clears the program counter) or ctx is done. It returns the
// final RETVAL fragment on a successful (SWITCH true) parse, or a
// *SyntaxError if the parse as a whole failed, anchored at the farthest
// position any rule reached. A malformed program or an internal
// inconsistency surfaces as a *ProgramError. Panics during execution are
// recovered into an error the same way gothird's VM.Run recovers a halt.
func Run(ctx context.Context, prog *Program, input []rune, opts ...Option) (Fragment, error) {
	m := newMachine(prog, input, opts...)
	err := panicerr.Recover("vm", func() error {
		return m.run(ctx)
	})
	var synErr *SyntaxError
	var progErr *ProgramError
	switch {
	case errors.As(err, &synErr):
		if m.dumpOnFailure != nil {
			m.Dump(m.dumpOnFailure)
		}
		return nil, synErr
	case errors.As(err, &progErr):
		if m.dumpOnFailure != nil {
			m.Dump(m.dumpOnFailure)
		}
		return nil, progErr
	case err != nil:
		return nil, err
	}
	return m.retval, nil
}

// haltError wraps the typed errors this package raises as panics so that
// panicerr.Recover's generic panicError can Unwrap straight through to
// them via errors.As, the same way gothird's Run unwraps its haltError.
type haltError struct{ err error }

func (h haltError) Error() string { return h.err.Error() }
func (h haltError) Unwrap() error { return h.err }

func (m *Machine) run(ctx context.Context) error {
	for !m.halted {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.step()
	}
	if !m.switchFlag {
		panic(haltError{&SyntaxError{Input: m.input, Position: m.hwmPos, Rules: reverseDropOutermost(m.hwmRules)}})
	}
	return nil
}

// reverseDropOutermost turns a bottom-to-top (outermost-first) call-stack
// rule list into the innermost-first trace SyntaxError/ProgramError
// report, dropping the outermost entry point the same way
// original_source's show_place_of_error pops CALL_STACK down to its last
// frame before printing it.
func reverseDropOutermost(rules []string) []string {
	out := make([]string, len(rules))
	copy(out, rules)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}

// programError builds a *ProgramError anchored at the machine's current
// position and live call stack, giving internal diagnostics (unbound
// LOAD, unknown opcode, budget exhaustion) the same windowed-text-plus-
// call-stack shape a SyntaxError gets.
func (m *Machine) programError(mess string) *ProgramError {
	rules := make([]string, len(m.callStack))
	for i, f := range m.callStack {
		rules[i] = f.rule
	}
	return &ProgramError{
		Mess:     mess,
		Input:    m.input,
		Position: m.pos,
		Rules:    reverseDropOutermost(rules),
	}
}

func (m *Machine) step() {
	instr := m.prog.Instructions[m.pc]
	m.pc++
	if m.logf != nil {
		m.logf("% 4d % -12s %-10s in <%s> pos=%d switch=%v", m.pc-1, instr.Op, instr.Text+instr.Label+instr.Name, m.currentRule, m.pos, m.switchFlag)
	}
	switch instr.Op {
	case OpADR, OpCALL:
		m.call(instr.Target, instr.Label)
	case OpR:
		m.ret()
	case OpB:
		m.pc = instr.Target
	case OpBT:
		if m.switchFlag {
			m.pc = instr.Target
		}
	case OpBF:
		if !m.switchFlag {
			m.pc = instr.Target
		}
	case OpEND:
		m.halted = true

	case OpCHECKPOINT:
		m.checkpoint()
	case OpCOMMIT:
		m.commit()
	case OpROLLBACK:
		m.rollback()
	case OpBRA:
		m.bra()
	case OpKET:
		m.ket()

	case OpANYOF:
		m.matchCharIn(instr.Text)
	case OpANYBUT:
		m.matchCharNotIn(instr.Text)
	case OpLITERAL:
		m.literal(instr.Text)

	case OpCL:
		m.output = append(m.output, Str(instr.Text))
	case OpCI, OpYIELD:
		m.output = append(m.output, m.retval)
	case OpSET:
		m.retval = Str("")
		m.success()
	case OpGEN:
		m.retval = Str(strconv.Itoa(m.genCounter))
		m.genCounter++
		m.success()
	case OpSTORE:
		m.vars[instr.Name] = m.retval
	case OpLOAD:
		v, ok := m.vars[instr.Name]
		if !ok {
			panic(haltError{m.programError("no such variable: " + instr.Name)})
		}
		m.retval = v

	case OpTB:
		m.output = append(m.output, Str(strings.Repeat(" ", 4)))
	case OpLMI:
		m.output = append(m.output, Marker(4))
	case OpLMD:
		m.output = append(m.output, Marker(-4))
	case OpNL:
		m.output = append(m.output, Marker(0))

	default:
		panic(haltError{m.programError("unknown opcode: " + instr.Op.String())})
	}
}

func (m *Machine) success() {
	m.switchFlag = true
	if m.pos > m.hwmPos {
		m.hwmPos = m.pos
		rules := make([]string, len(m.callStack))
		for i, f := range m.callStack {
			rules[i] = f.rule
		}
		m.hwmRules = rules
	}
}

func (m *Machine) failure() { m.switchFlag = false }

func (m *Machine) checkpoint() {
	m.exprStack = append(m.exprStack, frame{hasPos: true, pos: m.pos, output: m.output})
	m.output = nil
}

func (m *Machine) rollback() {
	n := len(m.exprStack) - 1
	f := m.exprStack[n]
	m.exprStack = m.exprStack[:n]
	m.pos = f.pos
	m.output = f.output
	m.retval = Str("")
	m.failure()
}

func (m *Machine) commit() {
	m.retval = consolidate(m.output)
	n := len(m.exprStack) - 1
	f := m.exprStack[n]
	m.exprStack = m.exprStack[:n]
	m.output = f.output
	m.success()
}

func (m *Machine) bra() {
	m.exprStack = append(m.exprStack, frame{hasPos: false, output: m.output})
	m.output = nil
}

// ket is like commit, but preserves SWITCH and the input position.
func (m *Machine) ket() {
	m.retval = consolidate(m.output)
	n := len(m.exprStack) - 1
	f := m.exprStack[n]
	m.exprStack = m.exprStack[:n]
	m.output = f.output
}

func (m *Machine) haveChar() bool { return m.pos < len(m.input) }

func (m *Machine) getChar() rune {
	r := m.input[m.pos]
	m.pos++
	return r
}

func (m *Machine) matchCharIn(candidates string) bool {
	m.checkpoint()
	if m.haveChar() {
		got := m.getChar()
		if strings.ContainsRune(candidates, got) {
			m.output = append(m.output, Str(string(got)))
			m.commit()
		} else {
			m.rollback()
		}
	} else {
		m.rollback()
	}
	return m.switchFlag
}

func (m *Machine) matchCharNotIn(candidates string) bool {
	m.checkpoint()
	if m.haveChar() {
		got := m.getChar()
		if !strings.ContainsRune(candidates, got) {
			m.output = append(m.output, Str(string(got)))
			m.commit()
		} else {
			m.rollback()
		}
	} else {
		m.rollback()
	}
	return m.switchFlag
}

func (m *Machine) literal(x string) {
	m.checkpoint()
	for _, ch := range x {
		if m.matchCharIn(string(ch)) {
			m.output = append(m.output, m.retval)
		} else {
			m.rollback()
			return
		}
	}
	m.commit()
}

// call implements both ADR and CALL: a packrat-memoized rule invocation.
// The position saved in the pushed expr frame is used only as the cache
// key on return (see ret); it is never used to restore the input
// position, matching the original runtime's CALL/R contract.
func (m *Machine) call(target int, rule string) {
	key := cacheKey{pos: m.pos, rule: rule}
	if entry, ok := m.cache[key]; ok {
		m.pos = entry.pos
		m.retval = entry.retval
		m.switchFlag = entry.ok
		return
	}

	m.calls++
	if m.ruleBudget > 0 && m.calls > m.ruleBudget {
		panic(haltError{m.programError("rule budget exceeded")})
	}
	if m.stackLimit > 0 && len(m.callStack)+len(m.exprStack) >= m.stackLimit {
		panic(haltError{m.programError("stack limit exceeded")})
	}

	m.callStack = append(m.callStack, callFrame{returnPC: m.pc, rule: m.currentRule, vars: m.vars})
	m.exprStack = append(m.exprStack, frame{hasPos: true, pos: m.pos, output: m.output})
	m.pc = target
	m.currentRule = rule
	m.output = nil
	m.vars = map[string]Fragment{}
}

func (m *Machine) ret() {
	m.retval = consolidate(m.output)

	n := len(m.exprStack) - 1
	ef := m.exprStack[n]
	m.exprStack = m.exprStack[:n]
	oldPos, savedOutput := ef.pos, ef.output

	m.cache[cacheKey{pos: oldPos, rule: m.currentRule}] = cacheEntry{pos: m.pos, retval: m.retval, ok: m.switchFlag}
	m.output = savedOutput

	cn := len(m.callStack) - 1
	cf := m.callStack[cn]
	m.callStack = m.callStack[:cn]
	m.pc = cf.returnPC
	m.currentRule = cf.rule
	m.vars = cf.vars
}
