package commands

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// HideEnv removes environment variables from the current frame.
func HideEnv() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("hide-env").
			Describe("Hide environment variables in the current scope.").
			InCategory(protocol.CategoryEnv).
			Search("unset", "remove", "delete").
			RestArgs("name", protocol.StringType, "environment variable names to hide").
			Switch("ignore-errors", 'i', "do not throw an error if an environment variable was not found").
			IO(protocol.NothingType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			env := stack.Env()
			ignore := call.HasFlag("ignore-errors")
			names, err := restStrings(call, 0)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				if _, found := env.LookupEnv(name.Val); !found {
					if ignore {
						continue
					}
					return nil, (&protocol.ShellError{
						Kind:  protocol.GenericErrorKind,
						Msg:   fmt.Sprintf("environment variable %q not found", name.Val),
						Label: "not found",
						Span:  name.Loc,
					}).WithHelp("use --ignore-errors to skip missing variables")
				}
				env.Unsetenv(name.Val)
			}
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Hide an environment variable.",
				Usage:       "load-env {A: 1}; hide-env A; $env | get -i A",
				Result:      protocol.NewNothing(protocol.UnknownSpan),
			},
			{
				Description: "Hiding a missing variable can be allowed.",
				Usage:       "hide-env --ignore-errors NOT_SET_ANYWHERE",
			},
		},
	}
}

func init() {
	addCommand(HideEnv)
}
