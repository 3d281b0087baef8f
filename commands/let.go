package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Let binds a variable in the current scope.
func Let() engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature("let").
			Describe("Create a variable and give it a value.").
			InCategory(protocol.CategoryCore).
			Search("set", "const").
			Req("var_name", protocol.StringType, "variable name").
			Req("initial_value", protocol.AnyType, "equals sign followed by the value").
			IO(protocol.AnyType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			closeInput(input)
			nameExpr, _ := rawPositional(call, 0)
			valueExpr, _ := rawPositional(call, 1)

			name, err := evalString(es, stack, nameExpr)
			if err != nil {
				return protocol.Outcome{}, err
			}
			v, err := es.EvalExpr(stack, valueExpr)
			if err != nil {
				return protocol.Outcome{}, err
			}
			stack.AddVar(name, v)
			return protocol.DataOutcome(protocol.Empty{Loc: call.Span()}), nil
		},
		Ex: []engine.Example{
			{
				Description: "Set a variable to a value and read it back.",
				Usage:       "let x = 10; $x + 1",
				Result:      protocol.NewInt(11, protocol.UnknownSpan),
			},
			{
				Description: "Set a variable to the result of a pipeline.",
				Usage:       "let n = echo 1 2 3 | length; $n",
				Result:      protocol.NewInt(3, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Let)
}
