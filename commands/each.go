package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Each lazily runs a closure on every element of its input.
func Each() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("each").
			Describe("Run a closure on each row of the input list, creating a new list with the results.").
			Extra("Elements are processed one at a time as they are pulled downstream. Closures returning nothing drop the element unless --keep-empty is given.").
			InCategory(protocol.CategoryFilters).
			Search("for", "loop", "iterate", "map").
			Req("closure", protocol.ClosureType, "the closure to run").
			Switch("keep-empty", 'k', "keep empty result cells").
			IO(anyList, anyList).
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			cl, err := call.Closure(0)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			keepEmpty := call.HasFlag("keep-empty")

			if vd, ok := input.(protocol.ValueData); ok {
				switch vd.Val.(type) {
				case protocol.List, protocol.Range:
				default:
					// A single value is mapped directly.
					out, err := es.RunClosureValue(stack, cl, vd.Val)
					if err != nil {
						return nil, err
					}
					return protocol.NewValueData(out), nil
				}
			}

			stream := protocol.IntoListStream(input, es.Interrupt)
			return stream.FilterMap(func(v protocol.Value) (protocol.Value, bool, error) {
				out, err := es.RunClosureValue(stack, cl, v)
				if err != nil {
					return nil, false, err
				}
				if protocol.IsNothing(out) && !keepEmpty {
					return nil, false, nil
				}
				return out, true, nil
			}), nil
		},
		Ex: []engine.Example{
			{
				Description: "Multiply elements in the list.",
				Usage:       "[1 2 3] | each {|e| 2 * $e }",
				Result:      protocol.Ints(protocol.UnknownSpan, 2, 4, 6),
			},
			{
				Description: "Iterate over each element, dropping the ones that return nothing.",
				Usage:       "[1 2 3] | each {|x| if $x == 2 { 'found' } }",
				Result:      protocol.Strings(protocol.UnknownSpan, "found"),
			},
			{
				Description: "Map a range lazily and only take what's needed.",
				Usage:       "1.. | each {|x| $x * 10 } | first 2",
				Result:      protocol.Ints(protocol.UnknownSpan, 10, 20),
			},
		},
	}
}

func init() {
	addCommand(Each)
}
