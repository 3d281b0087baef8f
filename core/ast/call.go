package ast

import (
	"github.com/josephlewis42/pipesh/core/protocol"
)

// ArgKind distinguishes positional from named arguments.
type ArgKind int

const (
	PositionalArg ArgKind = iota
	NamedArg
	// SpreadArg expands a list into several positional arguments.
	SpreadArg
)

// Argument is one call-site argument.
type Argument struct {
	Kind ArgKind
	// Name is the long or short flag name without dashes, for NamedArg.
	Name string
	// Value is nil for a switch.
	Value Expr
	Loc   protocol.Span
}

// Call is a command invocation before argument evaluation.
type Call struct {
	Head     string
	HeadSpan protocol.Span
	Args     []Argument
}

// Span covers the head and all arguments.
func (c *Call) Span() protocol.Span {
	out := c.HeadSpan
	for _, a := range c.Args {
		out = out.Merge(a.Loc)
	}
	return out
}

// Positionals returns the positional argument expressions in order.
func (c *Call) Positionals() []Expr {
	var out []Expr
	for _, a := range c.Args {
		if a.Kind == PositionalArg {
			out = append(out, a.Value)
		}
	}
	return out
}

// Named returns the named argument with the given long or short name.
func (c *Call) Named(names ...string) (Argument, bool) {
	for _, a := range c.Args {
		if a.Kind != NamedArg {
			continue
		}
		for _, n := range names {
			if a.Name == n {
				return a, true
			}
		}
	}
	return Argument{}, false
}

// RedirectTarget names which output stream a redirection captures.
type RedirectTarget int

const (
	RedirectStdout RedirectTarget = iota
	RedirectStderr
	RedirectBoth
)

// Redirection saves a stage's output to a file.
type Redirection struct {
	Target RedirectTarget
	Path   Expr
	Append bool
	Loc    protocol.Span
}

// Element is one stage of a pipeline.
type Element struct {
	Expr     Expr
	Redirect *Redirection
}

// Pipeline is a sequence of stages joined by |.
type Pipeline struct {
	Elements []Element
}

// Span covers every element of the pipeline.
func (p *Pipeline) Span() protocol.Span {
	var out protocol.Span
	for _, el := range p.Elements {
		out = out.Merge(el.Expr.Span())
	}
	return out
}

// Block is a sequence of pipelines with an optional parameter list. Blocks
// are bodies of closures, custom commands and keyword constructs.
type Block struct {
	Signature *protocol.Signature
	Pipelines []*Pipeline
	// Captures names the outer variables a closure over this block captures.
	Captures []string
	// RedirectEnv makes environment changes visible to the caller.
	RedirectEnv bool
	Loc         protocol.Span
}
