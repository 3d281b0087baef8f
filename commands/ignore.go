package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Ignore drains its input and returns nothing.
func Ignore() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("ignore").
			Describe("Ignore the output of the previous command in the pipeline.").
			Search("silent", "quiet", "out-null").
			IO(protocol.AnyType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			trailer, err := protocol.Drain(input)
			if err != nil {
				return nil, err
			}
			engine.RecordExitStatus(stack, trailer)
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Ignore the output of an echo command.",
				Usage:       "echo done | ignore",
			},
		},
	}
}

func init() {
	addCommand(Ignore)
}
