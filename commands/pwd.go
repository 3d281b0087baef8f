package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Pwd returns the working directory of the current frame.
func Pwd() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("pwd").
			Describe("Return the name of the current working directory.").
			InCategory(protocol.CategoryEnv).
			Search("cwd", "directory").
			IO(protocol.NothingType, protocol.StringType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			return protocol.NewValueData(protocol.NewString(stack.Cwd(), call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Get the working directory after changing it.",
				Usage:       "cd /tmp; pwd",
				Result:      protocol.NewString("/tmp", protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Pwd)
}
