package commands

import (
	"sort"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Sort orders a list. The sort is stable.
func Sort() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("sort").
			Describe("Sort in increasing order.").
			Extra("Ints and floats are compared by value and nothing sorts first. Values that can't be compared, such as a string and a number, fail.").
			InCategory(protocol.CategoryFilters).
			Search("order").
			Switch("reverse", 'r', "sort in reverse order").
			IO(anyList, anyList),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			v, err := protocol.IntoListStream(input, es.Interrupt).Collect()
			if err != nil {
				return nil, err
			}
			list := v.(protocol.List)
			vals := append([]protocol.Value(nil), list.Vals...)

			var cmpErr error
			reverse := call.HasFlag("reverse")
			sort.SliceStable(vals, func(i, j int) bool {
				if cmpErr != nil {
					return false
				}
				c, err := protocol.Compare(vals[i], vals[j])
				if err != nil {
					cmpErr = err
					return false
				}
				if reverse {
					return c > 0
				}
				return c < 0
			})
			if cmpErr != nil {
				return nil, cmpErr
			}
			return protocol.NewValueData(protocol.NewList(vals, list.Loc)), nil
		},
		Ex: []engine.Example{
			{
				Description: "Sort the list by increasing value.",
				Usage:       "[2 0 1] | sort",
				Result:      protocol.Ints(protocol.UnknownSpan, 0, 1, 2),
			},
			{
				Description: "Sort the list by decreasing value.",
				Usage:       "[2 0 1] | sort -r",
				Result:      protocol.Ints(protocol.UnknownSpan, 2, 1, 0),
			},
			{
				Description: "Sort strings.",
				Usage:       "[betty amy sarah] | sort",
				Result:      protocol.Strings(protocol.UnknownSpan, "amy", "betty", "sarah"),
			},
		},
	}
}

func init() {
	addCommand(Sort)
}
