package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Reverse collects its input and reverses the order.
func Reverse() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("reverse").
			Describe("Reverses the input list or table.").
			InCategory(protocol.CategoryFilters).
			Search("convert", "inverse", "flip").
			IO(anyList, anyList),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			if vd, ok := input.(protocol.ValueData); ok {
				if r, ok := vd.Val.(protocol.Range); ok && r.Open {
					return nil, protocol.GenericError("can't reverse an endless range", r.Loc)
				}
			}
			v, err := protocol.IntoListStream(input, es.Interrupt).Collect()
			if err != nil {
				return nil, err
			}
			list := v.(protocol.List)
			out := make([]protocol.Value, len(list.Vals))
			for i, item := range list.Vals {
				out[len(out)-1-i] = item
			}
			return protocol.NewValueData(protocol.NewList(out, list.Loc)), nil
		},
		Ex: []engine.Example{
			{
				Description: "Reverse a list.",
				Usage:       "[0 1 2 3] | reverse",
				Result:      protocol.Ints(protocol.UnknownSpan, 3, 2, 1, 0),
			},
		},
	}
}

func init() {
	addCommand(Reverse)
}
