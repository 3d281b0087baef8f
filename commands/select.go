package commands

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Select keeps the given columns of records, or the given rows of a list.
func Select() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("select").
			Describe("Select only these columns or rows from the input. Opposite of reject.").
			Extra("Column names keep those columns of a record or of every row of a table, in the order given. Row numbers keep those rows of a list.").
			InCategory(protocol.CategoryFilters).
			Search("pick", "choose", "get").
			RestArgs("rest", protocol.CellPathType, "the columns or row numbers to select").
			Switch("ignore-errors", 'i', "fill missing columns with nothing instead of failing").
			IO(protocol.RecordType, protocol.RecordType).
			IO(anyList, anyList),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			optional := call.HasFlag("ignore-errors")
			var cols [][]protocol.PathMember
			var rows []int
			for _, arg := range call.Rest(0) {
				path, err := cellPath(arg, optional)
				if err != nil {
					closeInput(input)
					return nil, err
				}
				if len(path) == 1 && path[0].IsIndex {
					rows = append(rows, path[0].Index)
					continue
				}
				cols = append(cols, path)
			}
			if len(rows) > 0 && len(cols) > 0 {
				closeInput(input)
				return nil, protocol.ArgumentError("can't select rows and columns at the same time", call.Span())
			}

			if vd, ok := input.(protocol.ValueData); ok {
				if rec, ok := vd.Val.(protocol.Record); ok {
					if len(rows) > 0 {
						return nil, protocol.TypeMismatchError("can't select rows of a record", call.Span())
					}
					out, err := selectColumns(rec, cols, call.Span())
					if err != nil {
						return nil, err
					}
					return protocol.NewValueData(out), nil
				}
			}

			stream := protocol.IntoListStream(input, es.Interrupt)
			var selected *protocol.ListStream
			if len(rows) > 0 {
				selected = selectRows(stream, rows)
			} else {
				selected = stream.Map(func(v protocol.Value) (protocol.Value, error) {
					rec, ok := v.(protocol.Record)
					if !ok {
						return nil, protocol.TypeMismatchError(
							fmt.Sprintf("can only select columns of records, found %s", protocol.TypeOf(v)), v.Span())
					}
					return selectColumns(rec, cols, call.Span())
				})
			}
			if _, ok := input.(protocol.ValueData); !ok {
				return selected, nil
			}
			v, err := selected.Collect()
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(v), nil
		},
		Ex: []engine.Example{
			{
				Description: "Select a column in a table.",
				Usage:       "[{a: a, b: b}] | select a | get a",
				Result:      protocol.Strings(protocol.UnknownSpan, "a"),
			},
			{
				Description: "Select rows of a list.",
				Usage:       "[a b c d] | select 0 2",
				Result:      protocol.Strings(protocol.UnknownSpan, "a", "c"),
			},
			{
				Description: "Missing columns become nothing with --ignore-errors.",
				Usage:       "{a: 1} | select -i a b | get b",
				Result:      protocol.NewNothing(protocol.UnknownSpan),
			},
		},
	}
}

func selectColumns(rec protocol.Record, cols [][]protocol.PathMember, span protocol.Span) (protocol.Record, error) {
	var b protocol.RecordBuilder
	for _, path := range cols {
		v, err := protocol.FollowCellPath(rec, path)
		if err != nil {
			return protocol.Record{}, err
		}
		name := ""
		for i, m := range path {
			if i > 0 {
				name += "."
			}
			name += m.Name
		}
		b.Set(name, v)
	}
	return b.Build(span), nil
}

// selectRows lazily keeps the rows at the given indexes, in input order,
// and stops pulling after the last one.
func selectRows(stream *protocol.ListStream, rows []int) *protocol.ListStream {
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)
	want := make(map[int]bool, len(sorted))
	for _, r := range sorted {
		want[r] = true
	}
	last := sorted[len(sorted)-1]

	i := -1
	return stream.Take(last + 1).FilterMap(func(v protocol.Value) (protocol.Value, bool, error) {
		i++
		return v, want[i], nil
	})
}

func init() {
	addCommand(Select)
}
