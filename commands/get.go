package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Get extracts data with cell paths.
func Get() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("get").
			Describe("Extract data using a cell path.").
			Extra("A column name used on a list of records returns that column of every row. Several cell paths return a list with one entry per path.").
			InCategory(protocol.CategoryFilters).
			Search("pick", "column", "index").
			Req("cell_path", protocol.CellPathType, "the cell path to the data").
			RestArgs("rest", protocol.CellPathType, "additional cell paths").
			Switch("ignore-errors", 'i', "return nothing for missing cells instead of failing").
			IO(protocol.RecordType, protocol.AnyType).
			IO(anyList, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			if r, ok := v.(protocol.Range); ok {
				if v, err = r.Stream(es.Interrupt).Collect(); err != nil {
					return nil, err
				}
			}

			optional := call.HasFlag("ignore-errors")
			paths := append([]protocol.Value{call.Req(0)}, call.Rest(1)...)
			var out []protocol.Value
			for _, p := range paths {
				path, err := cellPath(p, optional)
				if err != nil {
					return nil, err
				}
				got, err := protocol.FollowCellPath(v, path)
				if err != nil {
					return nil, err
				}
				out = append(out, got)
			}
			if len(out) == 1 {
				return protocol.NewValueData(out[0]), nil
			}
			return protocol.NewValueData(protocol.NewList(out, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Get an item from a list.",
				Usage:       "[0 1 2] | get 1",
				Result:      protocol.NewInt(1, protocol.UnknownSpan),
			},
			{
				Description: "Get a column from a table.",
				Usage:       "[{A: A0}] | get A",
				Result:      protocol.Strings(protocol.UnknownSpan, "A0"),
			},
			{
				Description: "Get a nested value from a record.",
				Usage:       "{a: {b: 5}} | get a.b",
				Result:      protocol.NewInt(5, protocol.UnknownSpan),
			},
			{
				Description: "Missing cells become nothing with --ignore-errors.",
				Usage:       "{a: 1} | get -i b",
				Result:      protocol.NewNothing(protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Get)
}
