// Package vm implements the parsing-machine instruction set and the
// register/stack interpreter that executes it.
package vm

import "fmt"

// Op identifies a parsing-machine instruction.
type Op int

// The full parsing-machine instruction set.
const (
	OpADR Op = iota
	OpCALL
	OpR
	OpB
	OpBT
	OpBF
	OpEND

	OpCHECKPOINT
	OpCOMMIT
	OpROLLBACK
	OpBRA
	OpKET

	OpANYOF
	OpANYBUT
	OpLITERAL

	OpCL
	OpCI
	OpYIELD
	OpSET
	OpGEN
	OpSTORE
	OpLOAD

	OpTB
	OpLMI
	OpLMD
	OpNL
)

var opNames = [...]string{
	OpADR: "ADR", OpCALL: "CALL", OpR: "R", OpB: "B", OpBT: "BT", OpBF: "BF", OpEND: "END",
	OpCHECKPOINT: "CHECKPOINT", OpCOMMIT: "COMMIT", OpROLLBACK: "ROLLBACK", OpBRA: "BRA", OpKET: "KET",
	OpANYOF: "ANY_OF", OpANYBUT: "ANY_BUT", OpLITERAL: "LITERAL",
	OpCL: "CL", OpCI: "CI", OpYIELD: "YIELD", OpSET: "SET", OpGEN: "GEN", OpSTORE: "STORE", OpLOAD: "LOAD",
	OpTB: "TB", OpLMI: "LMI", OpLMD: "LMD", OpNL: "NL",
}

func (op Op) String() string {
	if int(op) >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Instruction is one decoded parsing-machine instruction. Which operand
// field is meaningful depends on Op:
//
//	ADR, CALL, B, BT, BF   -- Label (resolved to Target by Builder.Build)
//	ANY_OF, ANY_BUT        -- Text (the candidate rune set)
//	LITERAL, CL            -- Text (the literal to match or emit)
//	STORE, LOAD            -- Name (the bound variable)
//	everything else        -- no operand
type Instruction struct {
	Op     Op
	Label  string
	Target int
	Text   string
	Name   string
}

// Program is a fully-resolved instruction stream: every control-flow
// operand has been turned into an instruction index.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
}

// Builder assembles a Program. Labels are recorded against the position
// they're defined at as they're encountered; Build resolves every
// control-flow operand against the label table in a single pass, per the
// eager one-pass resolution preferred for this machine.
type Builder struct {
	instrs []Instruction
	labels map[string]int
}

// NewBuilder returns an empty program builder.
func NewBuilder() *Builder {
	return &Builder{labels: map[string]int{}}
}

// Label marks the current instruction position under name. A name may be
// defined only once.
func (b *Builder) Label(name string) {
	b.labels[name] = len(b.instrs)
}

// Emit appends instr, returning its index.
func (b *Builder) Emit(instr Instruction) int {
	b.instrs = append(b.instrs, instr)
	return len(b.instrs) - 1
}

// Len reports the number of instructions emitted so far.
func (b *Builder) Len() int { return len(b.instrs) }

// Build resolves all Label operands against the recorded label table and
// returns the finished Program. A reference to an undefined label is
// reported as a *ProgramError.
func (b *Builder) Build() (*Program, error) {
	prog := &Program{
		Instructions: make([]Instruction, len(b.instrs)),
		Labels:       b.labels,
	}
	copy(prog.Instructions, b.instrs)
	for i, instr := range prog.Instructions {
		switch instr.Op {
		case OpADR, OpCALL, OpB, OpBT, OpBF:
			target, ok := b.labels[instr.Label]
			if !ok {
				return nil, &ProgramError{Mess: "no such label: " + instr.Label}
			}
			prog.Instructions[i].Target = target
		}
	}
	return prog, nil
}

// HasLabel reports whether name was defined by some Label call.
func (b *Builder) HasLabel(name string) bool {
	_, ok := b.labels[name]
	return ok
}
