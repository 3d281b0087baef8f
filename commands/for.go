package commands

import (
	"io"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// For runs a block once per element of a list, range or stream.
func For() engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature("for").
			Describe("Loop over a range, list or stream.").
			InCategory(protocol.CategoryCore).
			Search("loop", "iterate").
			Req("var_name", protocol.StringType, "name of the looping variable").
			Req("range", protocol.AnyType, "range of the loop").
			Req("block", protocol.BlockType, "the block to run").
			IO(protocol.NothingType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			nameExpr, _ := rawPositional(call, 0)
			iterExpr, _ := rawPositional(call, 1)
			body, _ := rawPositional(call, 2)

			name, err := evalString(es, stack, nameExpr)
			if err != nil {
				return protocol.Outcome{}, err
			}
			iterable, err := es.EvalExpr(stack, iterExpr)
			if err != nil {
				return protocol.Outcome{}, err
			}

			stream := protocol.IntoListStream(protocol.NewValueData(iterable), es.Interrupt)
			defer stream.Close()
			for {
				item, err := stream.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return protocol.Outcome{}, err
				}

				frame := stack.Push()
				frame.AddVar(name, item)
				stop, ret, err := iterate(es, frame, body, call.Span())
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
				Description: "Run a block for every element of a list.",
				Usage:       "for x in [1 2 3] { $x * $x }",
			},
			{
				Description: "Stop early with break.",
				Usage:       "for x in 1.. { if $x > 3 { break } }",
			},
		},
	}
}

func init() {
	addCommand(For)
}
