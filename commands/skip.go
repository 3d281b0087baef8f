package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Skip drops the first n elements.
func Skip() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("skip").
			Describe("Skip the first several rows of the input. Counterpart of drop.").
			InCategory(protocol.CategoryFilters).
			Search("ignore", "remove", "last", "slice", "tail").
			OptDefault("n", protocol.IntType, protocol.NewInt(1, protocol.UnknownSpan), "the number of elements to skip").
			IO(anyList, anyList).
			IO(protocol.BinaryType, protocol.BinaryType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			n, err := call.OptInt(0, 1)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			if n < 0 {
				closeInput(input)
				return nil, protocol.ArgumentError("n must not be negative", call.Req(0).Span())
			}

			vd, isValue := input.(protocol.ValueData)
			if isValue {
				if b, ok := vd.Val.(protocol.Binary); ok {
					if int(n) > len(b.Val) {
						n = int64(len(b.Val))
					}
					b.Val = b.Val[n:]
					return protocol.NewValueData(b), nil
				}
			}

			skipped := protocol.IntoListStream(input, es.Interrupt).Skip(int(n))
			if !isValue {
				return skipped, nil
			}
			v, err := skipped.Collect()
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(v), nil
		},
		Ex: []engine.Example{
			{
				Description: "Skip the first value of a list.",
				Usage:       "[2 4 6 8] | skip",
				Result:      protocol.Ints(protocol.UnknownSpan, 4, 6, 8),
			},
			{
				Description: "Skip two rows of a table.",
				Usage:       "[{edition: 2015} {edition: 2018} {edition: 2021}] | skip 2 | get edition",
				Result:      protocol.Ints(protocol.UnknownSpan, 2021),
			},
		},
	}
}

func init() {
	addCommand(Skip)
}
