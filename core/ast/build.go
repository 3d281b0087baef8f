package ast

import (
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Lit wraps a value.
func Lit(v protocol.Value) Expr {
	return &Literal{Val: v}
}

// Str is a string literal.
func Str(s string) Expr {
	return Lit(protocol.NewString(s, protocol.UnknownSpan))
}

// Int is an int literal.
func Int(n int64) Expr {
	return Lit(protocol.NewInt(n, protocol.UnknownSpan))
}

// Variable reads a variable.
func Variable(name string) Expr {
	return &Var{Name: name}
}

// List builds a list expression.
func List(items ...Expr) Expr {
	return &ListExpr{Items: items}
}

// Pos is a positional argument.
func Pos(e Expr) Argument {
	return Argument{Kind: PositionalArg, Value: e, Loc: e.Span()}
}

// Flag is a named argument with a value.
func Flag(name string, e Expr) Argument {
	return Argument{Kind: NamedArg, Name: name, Value: e}
}

// Switch is a named argument without a value.
func Switch(name string) Argument {
	return Argument{Kind: NamedArg, Name: name}
}

// NewCall builds a call expression.
func NewCall(head string, args ...Argument) Expr {
	return &CallExpr{Call: &Call{Head: head, Args: args}}
}

// Binary builds an operator expression.
func Binary(lhs Expr, op Operator, rhs Expr) Expr {
	return &BinaryOp{Op: op, LHS: lhs, RHS: rhs}
}

// Pipe builds a pipeline from expressions.
func Pipe(exprs ...Expr) *Pipeline {
	p := &Pipeline{}
	for _, e := range exprs {
		p.Elements = append(p.Elements, Element{Expr: e})
	}
	return p
}

// NewBlock builds a block from pipelines.
func NewBlock(pipelines ...*Pipeline) *Block {
	return &Block{Pipelines: pipelines}
}

// WithParams sets the parameters of a block, e.g. the |x| of a closure.
func (b *Block) WithParams(names ...string) *Block {
	sig := protocol.NewSignature("closure")
	for _, n := range names {
		sig.Opt(n, protocol.AnyType, "")
	}
	b.Signature = sig
	return b
}

// Capturing sets the outer variables a closure captures.
func (b *Block) Capturing(names ...string) *Block {
	b.Captures = append(b.Captures, names...)
	return b
}
