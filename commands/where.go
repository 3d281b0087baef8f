package commands

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Where lazily keeps the elements a predicate accepts.
func Where() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("where").
			Describe("Filter values based on a predicate closure.").
			InCategory(protocol.CategoryFilters).
			Search("filter", "find", "search", "condition").
			Req("predicate", protocol.ClosureType, "the closure that must return true for an element to be kept").
			IO(anyList, anyList),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			cl, err := call.Closure(0)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			stream := protocol.IntoListStream(input, es.Interrupt)
			return stream.Filter(func(v protocol.Value) (bool, error) {
				out, err := es.RunClosureValue(stack, cl, v)
				if err != nil {
					return false, err
				}
				b, ok := out.(protocol.Bool)
				if !ok {
					return false, &protocol.ShellError{
						Kind:  protocol.TypeMismatchKind,
						Msg:   fmt.Sprintf("where predicate must return a bool, found %s", protocol.TypeOf(out)),
						Label: "predicate defined here",
						Span:  cl.Loc,
					}
				}
				return b.Val, nil
			}), nil
		},
		Ex: []engine.Example{
			{
				Description: "Keep the even numbers of a range.",
				Usage:       "1..6 | where {|x| $x mod 2 == 0 }",
				Result:      protocol.Ints(protocol.UnknownSpan, 2, 4, 6),
			},
			{
				Description: "Filter rows of a table.",
				Usage:       "[{n: a, size: 1} {n: b, size: 5}] | where {|r| $r.size > 2 } | get n",
				Result:      protocol.Strings(protocol.UnknownSpan, "b"),
			},
		},
	}
}

func init() {
	addCommand(Where)
}
