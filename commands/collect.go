package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Collect materializes a stream into a value, optionally handing it to a
// closure.
func Collect() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("collect").
			Describe("Collect a stream into a value.").
			Extra("If a closure is given, the collected value is passed to it as its argument and as $in.").
			Opt("closure", protocol.ClosureType, "the closure to run once the stream is collected").
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			v, err := collectChecked(stack, input, call.Span())
			if err != nil {
				return nil, err
			}
			if protocol.IsNothing(call.Req(0)) {
				return protocol.NewValueData(v), nil
			}
			cl, err := call.Closure(0)
			if err != nil {
				return nil, err
			}
			return es.RunClosure(stack, cl, []protocol.Value{v}, protocol.NewValueData(v))
		},
		Ex: []engine.Example{
			{
				Description: "Use the whole stream as one value.",
				Usage:       "collect {|x| $x | length}",
				Input:       protocol.Ints(protocol.UnknownSpan, 1, 2, 3),
				Result:      protocol.NewInt(3, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Collect)
}
