// Package compiler translates the grammar dialect's source text into a
// vm.Program: a hand-written recursive-descent translator, not a
// PEG-generated one, since generating the translator from its own
// grammar would beg the question this package exists to answer.
package compiler

import (
	"fmt"

	"github.com/schorre/metacc/vm"
)

// Compile translates src, a grammar dialect program of the form
// `BEGIN <rule>* END`, into a resolved vm.Program whose entry point ADRs
// to the first rule named in src. If src defines no *whitespace* rule, a
// default one is appended -- REPEAT (ANY_OF " \t\n\r\v\f"), additionally
// trying a user-defined <comment> rule on each iteration if one exists.
func Compile(src string) (prog *vm.Program, err error) {
	c := &compiler{lx: newLexer(src)}
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()
	b := vm.NewBuilder()
	c.compileProgram(b)
	return b.Build()
}

// compiler holds the translator's own state: the token source and a
// monotonic counter used to mint fresh labels (L1, L2, ...) for every
// backtracking scope and loop it emits. Parse errors are reported by
// panicking a *SyntaxError, caught by Compile; this mirrors the panic
// discipline lexer.go's scanString already uses for unterminated string
// literals, rather than threading an error return through every helper.
type compiler struct {
	lx *lexer
	n  int
}

func (c *compiler) newLabel() string {
	c.n++
	return fmt.Sprintf("L%d", c.n)
}

func (c *compiler) fail(t token, mess string) {
	panic(&SyntaxError{Mess: mess, Pos: t.pos})
}

func (c *compiler) expectPunct(text string) token {
	t := c.lx.next()
	if t.kind != tokPunct || t.text != text {
		c.fail(t, "expected '"+text+"'")
	}
	return t
}

func (c *compiler) expectIdent(text string) token {
	t := c.lx.next()
	if t.kind != tokIdent || t.text != text {
		c.fail(t, "expected '"+text+"'")
	}
	return t
}

func (c *compiler) expectString() string {
	t := c.lx.next()
	if t.kind != tokString {
		c.fail(t, "expected a quoted string")
	}
	return t.text
}

func isSequenceEnd(t token) bool {
	if t.kind == tokEOF {
		return true
	}
	return t.kind == tokPunct && (t.text == ";" || t.text == ")" || t.text == "|" || t.text == "}")
}

// compileProgram compiles `BEGIN <rule>* END`, emitting the program's
// entry ADR/END pair ahead of the first rule's own code, then, if the
// source never defined *whitespace* itself, appending the built-in
// fallback rule.
func (c *compiler) compileProgram(b *vm.Builder) {
	c.expectIdent("BEGIN")
	first := true
	for {
		t := c.lx.peekTok()
		if t.kind == tokIdent && t.text == "END" {
			break
		}
		if t.kind == tokEOF {
			c.fail(t, "unexpected end of input, expected END")
		}
		c.compileRule(b, first)
		first = false
	}
	c.expectIdent("END")
	if first {
		c.fail(token{}, "program defines no rules")
	}
	if !b.HasLabel("*whitespace*") {
		c.compileBuiltinWhitespace(b)
	}
}

// compileRule compiles `name '::=' expr1 ';'`. If first is set, the
// program's entry point (ADR name; END) is emitted before the rule's own
// label and body, since the entry point must name whichever rule is
// declared first in source order.
func (c *compiler) compileRule(b *vm.Builder, first bool) string {
	nameTok := c.lx.next()
	if nameTok.kind != tokIdent {
		c.fail(nameTok, "expected rule name")
	}
	name := nameTok.text
	c.expectPunct("::=")
	if first {
		b.Emit(vm.Instruction{Op: vm.OpADR, Label: name})
		b.Emit(vm.Instruction{Op: vm.OpEND})
	}
	b.Label(name)
	c.compileChoice(b)
	b.Emit(vm.Instruction{Op: vm.OpR})
	c.expectPunct(";")
	return name
}

// compileChoice compiles expr1, an ordered choice of one or more
// sequences separated by '|'. Each alternative gets its own
// CHECKPOINT/COMMIT/ROLLBACK scope; on success an alternative YIELDs its
// consolidated result into whatever output list was active before the
// choice started, then jumps to the shared end label, trying the next
// alternative only after a ROLLBACK. The final alternative needs no
// BT hop to the end label since the end label is the very next thing
// control reaches either way.
func (c *compiler) compileChoice(b *vm.Builder) {
	end := c.newLabel()
	for {
		rb := c.newLabel()
		b.Emit(vm.Instruction{Op: vm.OpCHECKPOINT})
		c.compileSequence(b, rb)
		b.Emit(vm.Instruction{Op: vm.OpCOMMIT})
		b.Emit(vm.Instruction{Op: vm.OpYIELD})

		t := c.lx.peekTok()
		if t.kind == tokPunct && t.text == "|" {
			c.lx.next()
			after := c.newLabel()
			b.Emit(vm.Instruction{Op: vm.OpB, Label: after})
			b.Label(rb)
			b.Emit(vm.Instruction{Op: vm.OpROLLBACK})
			b.Label(after)
			b.Emit(vm.Instruction{Op: vm.OpBT, Label: end})
			continue
		}

		b.Emit(vm.Instruction{Op: vm.OpB, Label: end})
		b.Label(rb)
		b.Emit(vm.Instruction{Op: vm.OpROLLBACK})
		break
	}
	b.Label(end)
}

// compileSequence compiles expr2, one or more expr3 elements, each
// followed by a BF to the alternative's shared rollback label rb.
func (c *compiler) compileSequence(b *vm.Builder, rb string) {
	for {
		c.compileElement(b)
		b.Emit(vm.Instruction{Op: vm.OpBF, Label: rb})
		if isSequenceEnd(c.lx.peekTok()) {
			return
		}
	}
}

// compileElement compiles one expr3 primary, followed by its optional
// ':' name binding. An element that is bound STOREs its result instead
// of propagating it; an unbound element YIELDs its result into the
// enclosing output list, except for the quoted-string literal shorthand
// and REPEAT, neither of which has a result worth propagating on its own
// (REPEAT's captured content was already yielded by each iteration of
// its body).
func (c *compiler) compileElement(b *vm.Builder) {
	t := c.lx.peekTok()
	switch {
	case t.kind == tokString:
		c.lx.next()
		c.compileQuotedLiteral(b, t.text)
		c.bindOrYield(b, false)

	case t.kind == tokIdent:
		switch t.text {
		case "ANY_OF":
			c.lx.next()
			b.Emit(vm.Instruction{Op: vm.OpANYOF, Text: c.expectString()})
			c.bindOrYield(b, true)
		case "ANY_BUT":
			c.lx.next()
			b.Emit(vm.Instruction{Op: vm.OpANYBUT, Text: c.expectString()})
			c.bindOrYield(b, true)
		case "LITERAL":
			c.lx.next()
			b.Emit(vm.Instruction{Op: vm.OpLITERAL, Text: c.expectString()})
			c.bindOrYield(b, true)
		case "GEN":
			c.lx.next()
			b.Emit(vm.Instruction{Op: vm.OpGEN})
			c.bindOrYield(b, true)
		case "EMPTY":
			c.lx.next()
			b.Emit(vm.Instruction{Op: vm.OpSET})
			c.bindOrYield(b, true)
		case "REPEAT":
			c.lx.next()
			top := c.newLabel()
			b.Label(top)
			c.compileElement(b)
			b.Emit(vm.Instruction{Op: vm.OpBT, Label: top})
			b.Emit(vm.Instruction{Op: vm.OpSET})
			c.bindOrYield(b, false)
		default:
			c.fail(t, "unexpected identifier '"+t.text+"' in expression")
		}

	case t.kind == tokPunct && t.text == "<":
		c.lx.next()
		nameTok := c.lx.next()
		if nameTok.kind != tokIdent {
			c.fail(nameTok, "expected rule name after '<'")
		}
		c.expectPunct(">")
		b.Emit(vm.Instruction{Op: vm.OpCALL, Label: nameTok.text})
		c.bindOrYield(b, true)

	case t.kind == tokPunct && t.text == "(":
		c.lx.next()
		b.Emit(vm.Instruction{Op: vm.OpBRA})
		c.compileChoice(b)
		b.Emit(vm.Instruction{Op: vm.OpKET})
		c.expectPunct(")")
		c.bindOrYield(b, true)

	case t.kind == tokPunct && t.text == "{":
		c.lx.next()
		b.Emit(vm.Instruction{Op: vm.OpBRA})
		c.compileOutlist(b)
		c.expectPunct("}")
		b.Emit(vm.Instruction{Op: vm.OpKET})
		c.bindOrYield(b, true)

	default:
		c.fail(t, "unexpected token in expression")
	}
}

// bindOrYield compiles the optional `':' name` binding suffix common to
// every expr3 form. When present it always STOREs, overriding yield.
// When absent, yield decides whether this element's result is
// propagated into the enclosing output list.
func (c *compiler) bindOrYield(b *vm.Builder, yield bool) {
	t := c.lx.peekTok()
	if t.kind == tokPunct && t.text == ":" {
		c.lx.next()
		nameTok := c.lx.next()
		if nameTok.kind != tokIdent {
			c.fail(nameTok, "expected name after ':'")
		}
		b.Emit(vm.Instruction{Op: vm.OpSTORE, Name: nameTok.text})
		return
	}
	if yield {
		b.Emit(vm.Instruction{Op: vm.OpYIELD})
	}
}

// compileQuotedLiteral compiles the quoted-string shorthand used for
// grammar punctuation and keywords: skip leading *whitespace*, then
// match text literally. Its matched text is always discarded (never
// yielded) -- the shorthand exists for recognizing fixed tokens whose
// spelling is already known, not for capturing them.
func (c *compiler) compileQuotedLiteral(b *vm.Builder, text string) {
	rb := c.newLabel()
	after := c.newLabel()
	b.Emit(vm.Instruction{Op: vm.OpCHECKPOINT})
	b.Emit(vm.Instruction{Op: vm.OpCALL, Label: "*whitespace*"})
	b.Emit(vm.Instruction{Op: vm.OpBF, Label: rb})
	b.Emit(vm.Instruction{Op: vm.OpLITERAL, Text: text})
	b.Emit(vm.Instruction{Op: vm.OpBF, Label: rb})
	b.Emit(vm.Instruction{Op: vm.OpCOMMIT})
	b.Emit(vm.Instruction{Op: vm.OpB, Label: after})
	b.Label(rb)
	b.Emit(vm.Instruction{Op: vm.OpROLLBACK})
	b.Label(after)
}

// compileOutlist compiles the contents of an emit block `{ ... }`: a
// sequence of quoted strings (CL), NL/TAB/INDENT/OUTDENT directives, GEN
// (mint a fresh name and yield it), or a bare name (load a previously
// bound variable and yield it).
func (c *compiler) compileOutlist(b *vm.Builder) {
	for {
		t := c.lx.peekTok()
		if t.kind == tokPunct && t.text == "}" {
			return
		}
		if t.kind == tokEOF {
			c.fail(t, "unterminated emit block")
		}
		switch {
		case t.kind == tokString:
			c.lx.next()
			b.Emit(vm.Instruction{Op: vm.OpCL, Text: t.text})
		case t.kind == tokIdent:
			c.lx.next()
			switch t.text {
			case "NL":
				b.Emit(vm.Instruction{Op: vm.OpNL})
			case "TAB":
				b.Emit(vm.Instruction{Op: vm.OpTB})
			case "INDENT":
				b.Emit(vm.Instruction{Op: vm.OpLMI})
			case "OUTDENT":
				b.Emit(vm.Instruction{Op: vm.OpLMD})
			case "GEN":
				b.Emit(vm.Instruction{Op: vm.OpGEN})
				b.Emit(vm.Instruction{Op: vm.OpYIELD})
			default:
				b.Emit(vm.Instruction{Op: vm.OpLOAD, Name: t.text})
				b.Emit(vm.Instruction{Op: vm.OpYIELD})
			}
		default:
			c.fail(t, "unexpected token in emit block")
		}
	}
}

// compileBuiltinWhitespace appends the default *whitespace* rule when
// src doesn't define its own, trying a user-defined <comment> rule too
// if one exists. It's compiled through the very same machinery as any
// other rule, by feeding its own tiny grammar fragment through a nested
// compiler sharing this one's label counter, rather than hand-assembling
// its instructions out of band.
func (c *compiler) compileBuiltinWhitespace(b *vm.Builder) {
	body := "*whitespace* ::= REPEAT (ANY_OF ' \t\n\r\v\f');"
	if b.HasLabel("comment") {
		body = "*whitespace* ::= REPEAT (ANY_OF ' \t\n\r\v\f' | <comment>);"
	}
	sub := &compiler{lx: newLexer(body), n: c.n}
	sub.compileRule(b, false)
	c.n = sub.n
}
