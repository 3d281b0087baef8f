package commands

import (
	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// iterate runs body once and reports whether the enclosing loop should
// stop. A return signal is handed back to be propagated.
func iterate(es *engine.State, stack *engine.Stack, body ast.Expr, span protocol.Span) (stop bool, ret *protocol.Outcome, err error) {
	if err := es.Interrupt.Check(span); err != nil {
		return true, nil, err
	}
	out, err := runBody(es, stack, body, protocol.Empty{Loc: span})
	if err != nil {
		return true, nil, err
	}
	if !out.IsSignal() {
		return false, nil, drainBody(stack, out.Data)
	}
	switch out.Signal.Kind {
	case protocol.BreakSignal:
		return true, nil, nil
	case protocol.ContinueSignal:
		return false, nil, nil
	}
	return true, &out, nil
}

// Loop runs a block until it breaks.
func Loop() engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature("loop").
			Describe("Run a block in a loop until break is called.").
			InCategory(protocol.CategoryCore).
			Req("block", protocol.BlockType, "the block to loop").
			IO(protocol.NothingType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			body, _ := rawPositional(call, 0)
			for {
				stop, ret, err := iterate(es, stack, body, call.Span())
				if err != nil {
					return protocol.Outcome{}, err
				}
				if ret != nil {
					return *ret, nil
				}
				if stop {
					return protocol.DataOutcome(protocol.Empty{Loc: call.Span()}), nil
				}
			}
		},
		Ex: []engine.Example{
			{
				Description: "Stop a loop with break.",
				Usage:       "loop { break }",
			},
		},
	}
}

// While runs a block while a condition holds.
func While() engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature("while").
			Describe("Conditionally run a block in a loop.").
			InCategory(protocol.CategoryCore).
			Search("loop").
			Req("cond", protocol.BoolType, "the condition checked before each iteration").
			Req("block", protocol.BlockType, "the block to run").
			IO(protocol.NothingType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			cond, _ := rawPositional(call, 0)
			body, _ := rawPositional(call, 1)
			for {
				ok, err := condition(es, stack, cond)
				if err != nil {
					return protocol.Outcome{}, err
				}
				if !ok {
					break
				}
				stop, ret, err := iterate(es, stack, body, call.Span())
				if err != nil {
					return protocol.Outcome{}, err
				}
				if ret != nil {
					return *ret, nil
				}
				if stop {
					break
				}
			}
			return protocol.DataOutcome(protocol.Empty{Loc: call.Span()}), nil
		},
		Ex: []engine.Example{
			{
				Description: "A loop whose condition is false never runs its block.",
				Usage:       "while false { echo never }",
			},
		},
	}
}

func init() {
	addCommand(Loop)
	addCommand(While)
}
