// Package ast holds the call graph the engine executes. Producing it from
// source text is the job of a front end; this package only defines its
// shape plus small builders used by the CLI and tests.
package ast

import (
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Expr is an unevaluated expression.
type Expr interface {
	Span() protocol.Span

	isExpr()
}

// Literal is an already known value.
type Literal struct {
	Val protocol.Value
}

// Var reads a variable, e.g. $name.
type Var struct {
	Name string
	Loc  protocol.Span
}

// ListExpr builds a list.
type ListExpr struct {
	Items []Expr
	Loc   protocol.Span
}

// RecordField is one key of a record expression.
type RecordField struct {
	Key     string
	KeySpan protocol.Span
	Value   Expr
}

// RecordExpr builds a record.
type RecordExpr struct {
	Fields []RecordField
	Loc    protocol.Span
}

// Subexpression runs a block and uses its result as a value.
type Subexpression struct {
	BlockID int
	Loc     protocol.Span
}

// ClosureExpr creates a closure over a block, capturing variables.
type ClosureExpr struct {
	BlockID int
	Loc     protocol.Span
}

// BlockExpr references a block run in place by a keyword, e.g. an if body.
type BlockExpr struct {
	BlockID int
	Loc     protocol.Span
}

// CellPathExpr follows a path into the value of Head, e.g. $x.name.0.
type CellPathExpr struct {
	Head Expr
	Path []protocol.PathMember
	Loc  protocol.Span
}

// StringInterp concatenates the string forms of its parts.
type StringInterp struct {
	Parts []Expr
	Loc   protocol.Span
}

// BinaryOp applies an operator to two operands.
type BinaryOp struct {
	Op  Operator
	LHS Expr
	RHS Expr
	Loc protocol.Span
}

// CallExpr is a builtin or custom command call.
type CallExpr struct {
	Call *Call
}

// ExternalCall runs a program outside the shell.
type ExternalCall struct {
	Head Expr
	Args []Expr
	Loc  protocol.Span
}

func (e *Literal) Span() protocol.Span       { return e.Val.Span() }
func (e *Var) Span() protocol.Span           { return e.Loc }
func (e *ListExpr) Span() protocol.Span      { return e.Loc }
func (e *RecordExpr) Span() protocol.Span    { return e.Loc }
func (e *Subexpression) Span() protocol.Span { return e.Loc }
func (e *ClosureExpr) Span() protocol.Span   { return e.Loc }
func (e *BlockExpr) Span() protocol.Span     { return e.Loc }
func (e *CellPathExpr) Span() protocol.Span  { return e.Loc }
func (e *StringInterp) Span() protocol.Span  { return e.Loc }
func (e *BinaryOp) Span() protocol.Span      { return e.Loc }
func (e *CallExpr) Span() protocol.Span      { return e.Call.Span() }
func (e *ExternalCall) Span() protocol.Span  { return e.Loc }

func (*Literal) isExpr()       {}
func (*Var) isExpr()           {}
func (*ListExpr) isExpr()      {}
func (*RecordExpr) isExpr()    {}
func (*Subexpression) isExpr() {}
func (*ClosureExpr) isExpr()   {}
func (*BlockExpr) isExpr()     {}
func (*CellPathExpr) isExpr()  {}
func (*StringInterp) isExpr()  {}
func (*BinaryOp) isExpr()      {}
func (*CallExpr) isExpr()      {}
func (*ExternalCall) isExpr()  {}

// Operator is a binary operator.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLessThan     Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreaterThan  Operator = ">"
	OpGreaterEqual Operator = ">="
	OpAdd          Operator = "+"
	OpSubtract     Operator = "-"
	OpMultiply     Operator = "*"
	OpDivide       Operator = "/"
	OpModulo       Operator = "mod"
	OpAnd          Operator = "and"
	OpOr           Operator = "or"
	OpIn           Operator = "in"
	OpAppend       Operator = "++"
)
