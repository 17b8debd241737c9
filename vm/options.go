package vm

import "io"

// Option configures a Machine before Run. The functional-options shape
// follows gothird's VMOption/api.go combinator.
type Option interface {
	apply(m *Machine)
}

type optionFunc func(m *Machine)

func (f optionFunc) apply(m *Machine) { f(m) }

// WithLogf installs a leveled step-trace logging function, called once
// per executed instruction with the program counter, current rule, and
// decoded instruction.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return optionFunc(func(m *Machine) { m.logf = logf })
}

// WithRuleBudget bounds the number of CALL/ADR invocations a Run may
// perform before aborting with a *ProgramError, guarding against
// runaway grammars (e.g. an unintended left-recursive rule) the same way
// gothird's memLimit guards against unbounded memory growth.
func WithRuleBudget(n int) Option {
	return optionFunc(func(m *Machine) { m.ruleBudget = n })
}

// WithMemLimit bounds the combined call-stack and backtracking-stack
// depth, checked on each uncached CALL/ADR, guarding against runaway
// recursion independent of the packrat
// cache (unbounded ordinary recursion, rather than unbounded distinct
// rule invocations).
func WithMemLimit(n int) Option {
	return optionFunc(func(m *Machine) { m.stackLimit = n })
}

// WithDumpOnFailure installs a writer that receives a Machine.Dump
// snapshot the moment a Run fails to parse -- either with a *SyntaxError
// or a *ProgramError -- so a trace/debug CLI path can inspect the final
// call stack and backtracking stack alongside the reported error.
func WithDumpOnFailure(w io.Writer) Option {
	return optionFunc(func(m *Machine) { m.dumpOnFailure = w })
}

func newMachine(prog *Program, input []rune, opts ...Option) *Machine {
	m := &Machine{
		prog:       prog,
		input:      input,
		vars:       map[string]Fragment{},
		cache:      map[cacheKey]cacheEntry{},
		genCounter: 1,
		retval:     Str(""),
	}
	for _, opt := range opts {
		opt.apply(m)
	}
	return m
}
