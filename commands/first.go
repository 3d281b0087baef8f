package commands

import (
	"io"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// First returns the first element, or the first n elements as a list.
func First() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("first").
			Describe("Return only the first several rows of the input. Counterpart of last.").
			Extra("Without a count the first element itself is returned. Streams are never pulled past the requested rows.").
			InCategory(protocol.CategoryFilters).
			Search("head").
			Opt("rows", protocol.IntType, "starting from the front, the number of rows to return").
			IO(anyList, protocol.AnyType).
			IO(protocol.BinaryType, protocol.BinaryType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			rows, hasRows := call.Provided(0)
			n := int64(1)
			if hasRows {
				var err error
				if n, err = call.Int(0); err != nil {
					closeInput(input)
					return nil, err
				}
				if n < 0 {
					closeInput(input)
					return nil, protocol.ArgumentError("rows must not be negative", rows.Span())
				}
			}

			if vd, ok := input.(protocol.ValueData); ok {
				if b, ok := vd.Val.(protocol.Binary); ok {
					if int(n) < len(b.Val) {
						b.Val = b.Val[:n]
					}
					return protocol.NewValueData(b), nil
				}
			}

			stream := protocol.IntoListStream(input, es.Interrupt)
			if hasRows {
				return takeRows(stream, int(n), input)
			}
			defer stream.Close()
			v, err := stream.Next()
			if err == io.EOF {
				return nil, (&protocol.ShellError{
					Kind:  protocol.GenericErrorKind,
					Msg:   "no first element",
					Label: "the input is empty",
					Span:  input.Span(),
				}).WithHelp("use first 1 to get an empty list instead")
			}
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(v), nil
		},
		Ex: []engine.Example{
			{
				Description: "Return the first item of a list.",
				Usage:       "[1 2 3] | first",
				Result:      protocol.NewInt(1, protocol.UnknownSpan),
			},
			{
				Description: "Return the first 2 items of a list.",
				Usage:       "[1 2 3] | first 2",
				Result:      protocol.Ints(protocol.UnknownSpan, 1, 2),
			},
			{
				Description: "Return the first 2 bytes of a binary value.",
				Usage:       "'abc' | into binary | first 2",
				Result:      protocol.NewBinary([]byte("ab"), protocol.UnknownSpan),
			},
		},
	}
}

// takeRows keeps at most n rows. Materialized lists stay lists, streams
// stay lazy.
func takeRows(stream *protocol.ListStream, n int, input protocol.PipelineData) (protocol.PipelineData, error) {
	taken := stream.Take(n)
	if _, ok := input.(protocol.ValueData); !ok {
		return taken, nil
	}
	v, err := taken.Collect()
	if err != nil {
		return nil, err
	}
	return protocol.NewValueData(v), nil
}

// Take returns the first n elements.
func Take() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("take").
			Describe("Take only the first n elements of a list, or the first n bytes of a binary value.").
			InCategory(protocol.CategoryFilters).
			Search("first", "slice", "head").
			Req("n", protocol.IntType, "starting from the front, the number of elements to return").
			IO(anyList, anyList).
			IO(protocol.BinaryType, protocol.BinaryType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			n, err := call.Int(0)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			if n < 0 {
				closeInput(input)
				return nil, protocol.ArgumentError("n must not be negative", call.Req(0).Span())
			}
			if vd, ok := input.(protocol.ValueData); ok {
				if b, ok := vd.Val.(protocol.Binary); ok {
					if int(n) < len(b.Val) {
						b.Val = b.Val[:n]
					}
					return protocol.NewValueData(b), nil
				}
			}
			return takeRows(protocol.IntoListStream(input, es.Interrupt), int(n), input)
		},
		Ex: []engine.Example{
			{
				Description: "Return the first 2 items of a list.",
				Usage:       "[1 2 3] | take 2",
				Result:      protocol.Ints(protocol.UnknownSpan, 1, 2),
			},
			{
				Description: "Take from an endless range.",
				Usage:       "0.. | take 3",
				Result:      protocol.Ints(protocol.UnknownSpan, 0, 1, 2),
			},
		},
	}
}

func init() {
	addCommand(First)
	addCommand(Take)
}
