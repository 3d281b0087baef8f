package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Length counts the elements of its input without keeping them.
func Length() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("length").
			Describe("Count the number of items in an input list or rows in a table.").
			InCategory(protocol.CategoryFilters).
			Search("count", "size", "wc").
			IO(anyList, protocol.IntType).
			IO(protocol.NothingType, protocol.IntType).
			IO(protocol.BinaryType, protocol.IntType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			if vd, ok := input.(protocol.ValueData); ok {
				switch v := vd.Val.(type) {
				case protocol.List:
					return protocol.NewValueData(protocol.NewInt(int64(len(v.Vals)), call.Span())), nil
				case protocol.Binary:
					return protocol.NewValueData(protocol.NewInt(int64(len(v.Val)), call.Span())), nil
				case protocol.Range:
					if v.Open {
						return nil, protocol.GenericError("can't count the elements of an endless range", v.Span())
					}
				case protocol.Nothing:
				default:
					return nil, protocol.UnsupportedInputError("length", protocol.TypeOf(v), v.Span())
				}
			}

			var n int64
			err := protocol.IntoListStream(input, es.Interrupt).Each(func(protocol.Value) error {
				n++
				return nil
			})
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(protocol.NewInt(n, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Count the number of items in a list.",
				Usage:       "[1 2 3 4 5] | length",
				Result:      protocol.NewInt(5, protocol.UnknownSpan),
			},
			{
				Description: "Count the elements of a range.",
				Usage:       "1..10 | length",
				Result:      protocol.NewInt(10, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Length)
}
