package commands

import (
	"errors"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Do runs a closure with arguments, passing its input through.
func Do() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("do").
			Describe("Run a closure, providing it with the pipeline input.").
			Search("run", "call").
			Req("closure", protocol.ClosureType, "the closure to run").
			RestArgs("rest", protocol.AnyType, "the parameter(s) for the closure").
			Switch("ignore-errors", 'i', "ignore errors as the closure runs").
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			cl, err := call.Closure(0)
			if err != nil {
				return nil, err
			}
			out, err := es.RunClosure(stack, cl, call.Rest(1), input)
			if err == nil || !call.HasFlag("ignore-errors") {
				return out, err
			}
			if errors.Is(err, protocol.ErrInterrupted) {
				return nil, err
			}
			es.Logger.Debug("ignoring error", "cmd", "do", "err", err)
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Run a closure with arguments.",
				Usage:       "do {|a b| $a + $b} 1 2",
				Result:      protocol.NewInt(3, protocol.UnknownSpan),
			},
			{
				Description: "Run a closure on the pipeline input.",
				Usage:       "do { $in * 2 }",
				Input:       protocol.NewInt(21, protocol.UnknownSpan),
				Result:      protocol.NewInt(42, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Do)
}
