// Package script implements the small line-oriented language that ttdb
// debugs. A program is a flat list of statements with resolved jump targets;
// the Interpreter executes exactly one statement per Advance call so that a
// debugger can observe and record every step.
//
// Statements are separated by newlines or semicolons:
//
//	let NAME = EXPR             declare in the current scope
//	NAME = EXPR                 assign the nearest declaration
//	NAME[EXPR] = EXPR           set an element of an array or map
//	NAME.KEY = EXPR             set a map entry
//	print EXPR                  append a line to the program output
//	{ ... }                     nested block scope
//	if EXPR { ... }             conditional block
//	while EXPR { ... }          loop
//	fn NAME(a, b) { ... }       function definition (closes over its scope)
//	call NAME(ARGS)             call, discarding the result
//	let NAME = call NAME(ARGS)  call, declaring the result
//	NAME = call NAME(ARGS)      call, assigning the result
//	return [EXPR]               return from the current function
//	# comment                   to the end of the line, also after a statement
//
// Expressions use expr-lang syntax.
package script

import (
	"fmt"
	"strings"
)

// StmtKind identifies the form of a statement.
type StmtKind int

const (
	KindLet StmtKind = iota
	KindAssign
	KindSetIndex
	KindPrint
	KindBlock
	KindIf
	KindWhile
	KindFunc
	KindCall
	KindReturn
	KindEnd
)

var kindNames = map[StmtKind]string{
	KindLet:      "let",
	KindAssign:   "assign",
	KindSetIndex: "set",
	KindPrint:    "print",
	KindBlock:    "block",
	KindIf:       "if",
	KindWhile:    "while",
	KindFunc:     "fn",
	KindCall:     "call",
	KindReturn:   "return",
	KindEnd:      "end",
}

func (k StmtKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("StmtKind(%d)", int(k))
}

// opens reports whether statements of this kind start a brace block.
func (k StmtKind) opens() bool {
	return k == KindBlock || k == KindIf || k == KindWhile || k == KindFunc
}

// Statement is one parsed statement.
type Statement struct {
	Kind StmtKind
	// Line is the 1-based source line the statement starts on.
	Line int
	// Text is the statement's source text.
	Text string
	// Name is the target of let/assign/set, or the name of a function definition.
	Name string
	// Index is the element selector of a set statement.
	Index string
	// Expr is the value, condition or return expression.
	Expr string
	// Params are a function definition's parameter names.
	Params []string
	// Callee and Args describe a call; IsCall marks let/assign with a call value.
	Callee string
	Args   []string
	IsCall bool
	// Match links a block opener to its closing brace and back.
	Match int
}

// Expressions returns every expression the statement evaluates.
func (s Statement) Expressions() []string {
	var exprs []string
	if s.Index != "" {
		exprs = append(exprs, s.Index)
	}
	if s.Expr != "" {
		exprs = append(exprs, s.Expr)
	}
	return append(exprs, s.Args...)
}

func (s Statement) String() string {
	return s.Text
}

// Program is a parsed script.
type Program struct {
	Statements []Statement
	lines      []string
}

// Len returns the number of statements.
func (p *Program) Len() int {
	return len(p.Statements)
}

// StatementsAt returns the statements that start on line.
func (p *Program) StatementsAt(line int) []Statement {
	var stmts []Statement
	for _, s := range p.Statements {
		if s.Line == line {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// LineToSource returns the trimmed source text of a 1-based line, or "" if
// the line does not exist.
func (p *Program) LineToSource(line int) string {
	if line < 1 || line > len(p.lines) {
		return ""
	}
	return strings.TrimSpace(p.lines[line-1])
}

// LineCount returns the number of source lines.
func (p *Program) LineCount() int {
	return len(p.lines)
}

// HasLine reports whether any statement starts on line.
func (p *Program) HasLine(line int) bool {
	for _, s := range p.Statements {
		if s.Line == line {
			return true
		}
	}
	return false
}
