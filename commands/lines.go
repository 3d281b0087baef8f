package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Lines splits text into lines. Byte streams are split lazily.
func Lines() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("lines").
			Describe("Converts input to lines.").
			InCategory(protocol.CategoryFilters).
			Search("split", "newline").
			Switch("skip-empty", 's', "skip empty lines").
			IO(protocol.StringType, protocol.ListOf(protocol.TypeString)).
			IO(protocol.ByteStreamType, protocol.ListOf(protocol.TypeString)).
			IO(anyList, protocol.ListOf(protocol.TypeString)),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			skipEmpty := call.HasFlag("skip-empty")
			keep := func(v protocol.Value) (bool, error) {
				s, ok := v.(protocol.String)
				return !skipEmpty || (ok && strings.TrimSpace(s.Val) != ""), nil
			}

			switch data := input.(type) {
			case *protocol.ByteStream:
				return data.Lines().Filter(keep), nil
			case protocol.ValueData:
				if s, ok := data.Val.(protocol.String); ok {
					var out []protocol.Value
					for _, line := range splitLines(s.Val) {
						if skipEmpty && strings.TrimSpace(line) == "" {
							continue
						}
						out = append(out, protocol.NewString(line, s.Loc))
					}
					return protocol.NewValueData(protocol.NewList(out, s.Loc)), nil
				}
			}

			// Lists of strings are flattened into their lines.
			src := protocol.IntoListStream(input, es.Interrupt)
			var pending []string
			span := src.Span()
			out := protocol.NewListStream(span, es.Interrupt, func() (protocol.Value, error) {
				for len(pending) == 0 {
					v, err := src.Next()
					if err != nil {
						return nil, err
					}
					s, ok := v.(protocol.String)
					if !ok {
						return nil, protocol.TypeMismatchError(
							fmt.Sprintf("lines needs strings, found %s", protocol.TypeOf(v)), v.Span())
					}
					pending = splitLines(s.Val)
					span = s.Loc
				}
				line := pending[0]
				pending = pending[1:]
				return protocol.NewString(line, span), nil
			}).OnClose(src.Close)
			return out.Filter(keep), nil
		},
		Ex: []engine.Example{
			{
				Description: "Split multi-line string into lines.",
				Usage:       `"two\nlines" | lines`,
				Result:      protocol.Strings(protocol.UnknownSpan, "two", "lines"),
			},
			{
				Description: "Skip empty lines.",
				Usage:       `"a\n\nb\n" | lines -s`,
				Result:      protocol.Strings(protocol.UnknownSpan, "a", "b"),
			},
		},
	}
}

// splitLines splits on \n and \r\n. A trailing line ending doesn't start
// another line.
func splitLines(s string) []string {
	s = strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

func init() {
	addCommand(Lines)
}
