package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Echo returns its arguments: one argument is returned as is, several
// become a list.
func Echo() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("echo").
			Describe("Returns its arguments, ignoring the piped-in value.").
			Extra("Unlike echo in other shells, nothing is printed: the arguments become the output of the pipeline.").
			InCategory(protocol.CategoryCore).
			Search("print", "display").
			RestArgs("rest", protocol.AnyType, "the values to echo").
			IO(protocol.NothingType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			args := call.Rest(0)
			switch len(args) {
			case 0:
				return protocol.Empty{Loc: call.Span()}, nil
			case 1:
				return protocol.NewValueData(args[0]), nil
			}
			return protocol.FromValues(call.Span(), args, es.Interrupt), nil
		},
		Ex: []engine.Example{
			{
				Description: "Put a list of numbers in the pipeline.",
				Usage:       "echo 1 2 3",
				Result:      protocol.Ints(protocol.UnknownSpan, 1, 2, 3),
			},
			{
				Description: "A single argument is returned unchanged.",
				Usage:       "echo hello",
				Result:      protocol.NewString("hello", protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Echo)
}
