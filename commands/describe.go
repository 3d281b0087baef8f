package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Describe returns the type of its input.
func Describe() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("describe").
			Describe("Describe the type and structure of the value(s) piped in.").
			Search("type", "typeof").
			Switch("no-collect", 'n', "don't collect streams, only report what kind of stream it is").
			IO(protocol.AnyType, protocol.StringType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			var desc string
			switch data := input.(type) {
			case *protocol.ByteStream:
				desc = "bytestream"
				data.Close()
			case *protocol.ListStream:
				if call.HasFlag("no-collect") {
					desc = "stream"
					data.Close()
					break
				}
				v, err := data.Collect()
				if err != nil {
					return nil, err
				}
				desc = protocol.TypeOf(v).String() + " (stream)"
			default:
				v, err := protocol.IntoValue(input)
				if err != nil {
					return nil, err
				}
				desc = protocol.TypeOf(v).String()
			}
			return protocol.NewValueData(protocol.NewString(desc, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Describe a number.",
				Usage:       "describe",
				Input:       protocol.NewInt(3, protocol.UnknownSpan),
				Result:      protocol.NewString("int", protocol.UnknownSpan),
			},
			{
				Description: "Describe a list of strings.",
				Usage:       "describe",
				Input:       protocol.Strings(protocol.UnknownSpan, "a", "b"),
				Result:      protocol.NewString("list<string>", protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Describe)
}
