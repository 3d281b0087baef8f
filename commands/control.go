package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

func signalKeyword(kind protocol.SignalKind, usage string, ex []engine.Example) engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature(kind.String()).
			Describe(usage).
			InCategory(protocol.CategoryCore).
			IO(protocol.AnyType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			closeInput(input)
			return protocol.SignalOutcome(&protocol.Signal{Kind: kind, Span: call.Span()}), nil
		},
		Ex: ex,
	}
}

// Break leaves the innermost loop.
func Break() engine.Command {
	return signalKeyword(protocol.BreakSignal, "Break a loop.", []engine.Example{
		{
			Description: "Break out of a loop.",
			Usage:       "loop { break }",
		},
		{
			Description: "Stop an endless range.",
			Usage:       "for x in 1.. { if $x > 2 { break } }",
		},
	})
}

// Continue skips to the next iteration of the innermost loop.
func Continue() engine.Command {
	return signalKeyword(protocol.ContinueSignal, "Continue a loop from the next iteration.", []engine.Example{
		{
			Description: "Skip an iteration of a loop.",
			Usage:       "for x in [1 2 3] { if $x == 2 { continue } }",
		},
	})
}

// Return ends a closure or custom command with a value.
func Return() engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature("return").
			Describe("Return early from a closure or custom command.").
			InCategory(protocol.CategoryCore).
			Opt("return_value", protocol.AnyType, "optional value to return").
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			closeInput(input)
			var v protocol.Value = protocol.Nothing{Loc: call.Span()}
			if expr, ok := rawPositional(call, 0); ok {
				val, err := es.EvalExpr(stack, expr)
				if err != nil {
					return protocol.Outcome{}, err
				}
				v = val
			}
			return protocol.SignalOutcome(&protocol.Signal{Kind: protocol.ReturnSignal, Value: v, Span: call.Span()}), nil
		},
		Ex: []engine.Example{
			{
				Description: "Return early from a closure.",
				Usage:       "do { return 3; 4 }",
				Result:      protocol.NewInt(3, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Break)
	addCommand(Continue)
	addCommand(Return)
}
