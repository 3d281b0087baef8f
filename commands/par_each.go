package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// ParEach runs a closure on every element using several workers, keeping
// the input order.
func ParEach() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("par-each").
			Describe("Run a closure on each row of the input list in parallel, creating a new list with the results.").
			Extra("Each worker runs with its own copy of the variables and environment. Results keep the order of the input.").
			InCategory(protocol.CategoryFilters).
			Search("parallel", "map").
			Req("closure", protocol.ClosureType, "the closure to run").
			Named("threads", protocol.IntType, 't', "the number of threads to use").
			Switch("keep-empty", 'k', "keep empty result cells").
			IO(anyList, anyList),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			cl, err := call.Closure(0)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			threads, err := call.FlagInt("threads", 0)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			if threads < 0 {
				closeInput(input)
				return nil, protocol.ArgumentError("threads must not be negative", call.Span())
			}

			stream := protocol.IntoListStream(input, es.Interrupt)
			out, err := es.ParMap(stack, stream, int(threads), func(frame *engine.Stack, _ int, v protocol.Value) (protocol.Value, error) {
				return es.RunClosureValue(frame, cl, v)
			})
			if err != nil {
				return nil, err
			}
			if call.HasFlag("keep-empty") {
				return protocol.NewValueData(out), nil
			}
			list := out.(protocol.List)
			kept := list.Vals[:0:0]
			for _, v := range list.Vals {
				if !protocol.IsNothing(v) {
					kept = append(kept, v)
				}
			}
			return protocol.NewValueData(protocol.NewList(kept, list.Loc)), nil
		},
		Ex: []engine.Example{
			{
				Description: "Multiply each number, keeping the input order.",
				Usage:       "[1 2 3] | par-each {|e| $e * 2 }",
				Result:      protocol.Ints(protocol.UnknownSpan, 2, 4, 6),
			},
			{
				Description: "Use a single worker.",
				Usage:       "1..3 | par-each --threads 1 {|e| $e + 1 }",
				Result:      protocol.Ints(protocol.UnknownSpan, 2, 3, 4),
			},
		},
	}
}

func init() {
	addCommand(ParEach)
}
