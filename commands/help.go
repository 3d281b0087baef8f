package commands

import (
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Help lists commands or shows the help text of one.
func Help() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("help").
			Describe("Display help information about commands.").
			InCategory(protocol.CategoryCore).
			Search("man", "usage").
			RestArgs("rest", protocol.StringType, "the name of the command to get help on").
			Named("find", protocol.StringType, 'f', "string to find in command names, descriptions and search terms").
			IO(protocol.NothingType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			find, err := call.FlagString("find", "")
			if err != nil {
				return nil, err
			}

			var words []string
			for _, v := range call.Rest(0) {
				s, err := protocol.CoerceString(v)
				if err != nil {
					return nil, err
				}
				words = append(words, s)
			}
			if len(words) > 0 {
				name := strings.Join(words, " ")
				cmd, ok := es.FindCommand(name)
				if !ok {
					return nil, protocol.CommandNotFoundError(name, es.Suggest(name), call.Span())
				}
				return protocol.NewValueData(protocol.NewString(engine.GetFullHelp(es, cmd), call.Span())), nil
			}

			var rows []protocol.Value
			for _, cmd := range es.Commands() {
				sig := cmd.Signature()
				if find != "" && !matchesHelp(sig, find) {
					continue
				}
				var b protocol.RecordBuilder
				b.Set("name", protocol.NewString(sig.Name, call.Span()))
				b.Set("category", protocol.NewString(string(sig.Category), call.Span()))
				b.Set("usage", protocol.NewString(sig.Usage, call.Span()))
				b.Set("search_terms", protocol.NewString(strings.Join(sig.SearchTerms, ", "), call.Span()))
				rows = append(rows, b.Build(call.Span()))
			}
			return protocol.FromValues(call.Span(), rows, es.Interrupt), nil
		},
		Ex: []engine.Example{
			{
				Description: "Show the help text of a command.",
				Usage:       "help describe | describe",
				Result:      protocol.NewString("string", protocol.UnknownSpan),
			},
			{
				Description: "Search for commands related to loops.",
				Usage:       "help --find loop | get name",
			},
		},
	}
}

func matchesHelp(sig *protocol.Signature, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(sig.Name), term) || strings.Contains(strings.ToLower(sig.Usage), term) {
		return true
	}
	for _, s := range sig.SearchTerms {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func init() {
	addCommand(Help)
}
