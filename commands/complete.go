package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Complete gathers the output, error output and exit code of a process.
func Complete() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature(engine.CompleteCommand).
			Describe("Capture the outputs and exit code from an external piped in command.").
			Extra("The error output of a process piped straight into complete is captured instead of shown.").
			InCategory(protocol.CategorySystem).
			IO(protocol.ByteStreamType, protocol.RecordType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			bs, ok := input.(*protocol.ByteStream)
			if !ok {
				closeInput(input)
				return nil, protocol.UnsupportedInputError("complete", protocol.TypeOfData(input), input.Span())
			}
			stdout, err := bs.IntoValue()
			if err != nil {
				return nil, err
			}
			trailer, err := bs.Wait()
			if err != nil {
				return nil, err
			}
			engine.RecordExitStatus(stack, &trailer)

			var stderr protocol.Value = protocol.NewString("", call.Span())
			if len(trailer.Stderr) > 0 {
				s, err := es.Format.DecodeBytes(trailer.Stderr, call.Span())
				if err != nil {
					stderr = protocol.NewBinary(trailer.Stderr, call.Span())
				} else {
					stderr = protocol.NewString(s, call.Span())
				}
			}

			var b protocol.RecordBuilder
			b.Set("stdout", stdout)
			b.Set("stderr", stderr)
			b.Set("exit_code", protocol.NewInt(int64(trailer.ExitStatus.Code), call.Span()))
			return protocol.NewValueData(b.Build(call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Any byte stream can be completed, reading a file always succeeds.",
				Usage:       "'hi' | save /tmp/c.txt; open --raw /tmp/c.txt | complete",
				Result: (&protocol.RecordBuilder{}).
					Set("stdout", protocol.NewString("hi", protocol.UnknownSpan)).
					Set("stderr", protocol.NewString("", protocol.UnknownSpan)).
					Set("exit_code", protocol.NewInt(0, protocol.UnknownSpan)).
					Build(protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Complete)
}
