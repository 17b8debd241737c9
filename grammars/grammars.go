// Package grammars bundles the sample grammar dialect source texts that
// ship with this module: a small arithmetic-expression evaluator (Aexp)
// and the metacompiler's own grammar (Metacc), written in the same
// dialect compiler.Compile translates. Both are external collaborators
// in the sense spec.md §1 uses the term -- they supply source text for
// the core to compile and run, rather than being part of the core
// itself. The dialect has only one quoting convention (the
// <quoted_string> production used for both input literals and output
// text, per spec.md §4.5), so an embedded single quote inside a literal
// is escaped as \' the same way it would be inside any other quoted
// string.
package grammars

// Aexp recognizes programs of the form `BEGIN <stmt>* END`, where each
// statement is `<ident> ':=' <expr>`, and emits a textual listing of
// target-machine instructions (one Python-tuple-shaped line per
// instruction: ADR/END/LITERAL/LOAD/STORE/ADD/SUB/MUL/DIV/EXP/NEG) for
// cmd/aexp's target interpreter (aexp-runtime-header.py in the original
// stuartwray/metaphor distribution) to execute. Expressions support the
// usual arithmetic precedence: unary '-', '^' (right side of power),
// '*' '/', then '+' '-', plus parenthesized grouping.
const Aexp = `BEGIN

program ::= 'BEGIN' { '(ADR, \'program\'),' NL } <stmtlist> 'END' { '(END,),' NL } ;

stmtlist ::= REPEAT <stmt> ;

stmt ::= <ident>:name ':=' <expr> { '(STORE, \'' name '\'),' NL } ;

expr ::= <term> REPEAT ( '+' <term> { '(ADD,),' NL } | '-' <term> { '(SUB,),' NL } ) ;

term ::= <power> REPEAT ( '*' <power> { '(MUL,),' NL } | '/' <power> { '(DIV,),' NL } ) ;

power ::= <unary> REPEAT ( '^' <unary> { '(EXP,),' NL } ) ;

unary ::= '-' <unary> { '(NEG,),' NL }
        | <primary> ;

primary ::= <number>:n { '(LITERAL, ' n '),' NL }
          | <ident>:name { '(LOAD, \'' name '\'),' NL }
          | '(' <expr> ')' ;

ident ::= <*whitespace*>:ws <lower> REPEAT <lower> ;

number ::= <*whitespace*>:ws <digit> REPEAT <digit> ;

lower ::= ANY_OF 'abcdefghijklmnopqrstuvwxyz' ;

digit ::= ANY_OF '0123456789' ;

END
`

// Metacc is the metacompiler's own grammar, written in the dialect it
// describes. compiler.Compile(Metacc) produces a program that, run over
// some other dialect source text, recognizes the same BEGIN/rule/expr1/
// expr2/expr3/outlist structure compiler.Compile itself parses natively,
// and emits a textual listing for each rule: a LABEL line, one line per
// primitive match, rule call, STORE and emit-block item, then an R line.
// The listing is not a runnable program and does not reproduce
// compiler.Compile's output: it has no CHECKPOINT/COMMIT/ROLLBACK scopes,
// no branches, no REPEAT loops and no generated labels. *whitespace* is
// deliberately left undefined here so the built-in fallback (spec.md
// §4.6) supplies it, folding in <comment> the way that fallback is
// specified to; <comment> therefore starts with LITERAL rather than a
// quoted string, since a quoted string would call *whitespace* again.
const Metacc = `BEGIN

program ::= 'BEGIN' REPEAT <st> 'END' ;

st ::= <ruleid>:name '::=' <ex1>:body ';'
       { '(LABEL, \'' name '\'),' NL body '(R,),' NL } ;

ex1 ::= <ex2> REPEAT ( '|' <ex2> ) ;

ex2 ::= REPEAT <ex3> ;

ex3 ::= <quoted_symbol>
      | <ex3yield> ;

ex3yield ::= ( 'ANY_OF' <string>:s { '(ANY_OF, \'' s '\'),' NL }
             | 'ANY_BUT' <string>:s { '(ANY_BUT, \'' s '\'),' NL }
             | 'LITERAL' <string>:s { '(LITERAL, \'' s '\'),' NL }
             | 'GEN' { '(GEN,),' NL }
             | 'EMPTY' { '(SET,),' NL }
             | 'REPEAT' <ex3>
             | '<' <ruleid>:name '>' { '(CALL, \'' name '\'),' NL }
             | '(' <ex1> ')'
             | '{' <outlist> '}' )
             ( ':' <id>:name { '(STORE, \'' name '\'),' NL } | EMPTY ) ;

outlist ::= REPEAT <out1> ;

out1 ::= <string>:s { '(CL, \'' s '\'),' NL }
       | 'NL' { '(NL,),' NL }
       | 'TAB' { '(TB,),' NL }
       | 'INDENT' { '(LMI,),' NL }
       | 'OUTDENT' { '(LMD,),' NL }
       | 'GEN' { '(GEN,),' NL '(YIELD,),' NL }
       | <id>:name { '(LOAD, \'' name '\'),' NL '(YIELD,),' NL } ;

ruleid ::= <id> | <*whitespace*>:ws LITERAL '*whitespace*' ;

quoted_symbol ::= <string>:s { '(CALL, \'*whitespace*\'),' NL '(LITERAL, \'' s '\'),' NL } ;

lower ::= ANY_OF 'abcdefghijklmnopqrstuvwxyz' ;

upper ::= ANY_OF 'ABCDEFGHIJKLMNOPQRSTUVWXYZ' ;

digit ::= ANY_OF '0123456789' ;

hex_digit ::= ANY_OF '0123456789abcdefABCDEF' ;

hex ::= <hex_digit> <hex_digit> <hex_digit> <hex_digit> ;

id ::= <*whitespace*>:ws ( <lower> | <upper> | ANY_OF '_' )
       REPEAT ( <lower> | <upper> | ANY_OF '_' | <digit> ) ;

number ::= <digit> REPEAT <digit> ;

string_escape ::= '\\' ( ANY_OF '\\' { '\\' }
                       | ANY_OF '\'' { '\'' }
                       | ANY_OF 'n' { NL }
                       | ANY_OF 't' { TAB }
                       | 'u' <hex>:h { h } ) ;

string ::= '\'' REPEAT ( <string_escape> | ANY_BUT '\'' ) '\'' ;

comment ::= LITERAL '#' REPEAT ANY_BUT '\n' ;

END
`
