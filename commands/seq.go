package commands

import (
	"io"
	"math"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Seq produces a lazy sequence of numbers.
func Seq() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("seq").
			Describe("Output sequences of numbers.").
			Extra("seq last counts from 1, seq first last counts by one and seq first increment last counts by increment. " +
				"With --endless the arguments are first and an optional increment and the sequence never ends; take what you need with first.").
			InCategory(protocol.CategoryFilters).
			Search("range", "count").
			RestArgs("rest", protocol.NumberType, "sequence values").
			Switch("endless", 'e', "never stop counting").
			IO(protocol.NothingType, protocol.ListOf(protocol.TypeNumber)),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			args := call.Rest(0)
			endless := call.HasFlag("endless")

			var first, step, last protocol.Value
			one := protocol.NewInt(1, call.Span())
			switch {
			case endless && len(args) == 1:
				first, step = args[0], one
			case endless && len(args) == 2:
				first, step = args[0], args[1]
			case !endless && len(args) == 1:
				first, step, last = one, one, args[0]
			case !endless && len(args) == 2:
				first, step, last = args[0], one, args[1]
			case !endless && len(args) == 3:
				first, step, last = args[0], args[1], args[2]
			default:
				return nil, (&protocol.ShellError{
					Kind:  protocol.ArgumentBindingKind,
					Msg:   "wrong number of arguments",
					Label: "seq takes one to three numbers",
					Span:  call.Span(),
				}).WithHelp("seq last, seq first last, seq first increment last or seq --endless first (increment)")
			}

			if isZero(step) {
				return nil, protocol.ArgumentError("increment can't be zero", step.Span())
			}
			// Counting down needs a negative increment.
			if last != nil && len(args) < 3 {
				if c, err := protocol.Compare(first, last); err == nil && c > 0 {
					step = protocol.NewInt(-1, call.Span())
				}
			}

			fi, fok := first.(protocol.Int)
			si, sok := step.(protocol.Int)
			li, lok := last.(protocol.Int)
			if fok && sok && (last == nil || lok) {
				if last == nil {
					return protocol.NewOpenRange(fi.Val, si.Val, call.Span()).Stream(es.Interrupt), nil
				}
				r, err := protocol.NewRange(fi.Val, li.Val, si.Val, call.Span())
				if err != nil {
					return protocol.FromValues(call.Span(), nil, es.Interrupt), nil
				}
				return r.Stream(es.Interrupt), nil
			}
			return floatSeq(es, call.Span(), toFloat(first), toFloat(step), last), nil
		},
		Ex: []engine.Example{
			{
				Description: "Sequence 1 to 5.",
				Usage:       "seq 5",
				Result:      protocol.Ints(protocol.UnknownSpan, 1, 2, 3, 4, 5),
			},
			{
				Description: "Count down.",
				Usage:       "seq 3 1",
				Result:      protocol.Ints(protocol.UnknownSpan, 3, 2, 1),
			},
			{
				Description: "Sequence by an increment.",
				Usage:       "seq 1 3 10",
				Result:      protocol.Ints(protocol.UnknownSpan, 1, 4, 7, 10),
			},
			{
				Description: "Sequence of floats.",
				Usage:       "seq 1.0 0.5 2.0",
				Result: protocol.NewList([]protocol.Value{
					protocol.NewFloat(1, protocol.UnknownSpan),
					protocol.NewFloat(1.5, protocol.UnknownSpan),
					protocol.NewFloat(2, protocol.UnknownSpan),
				}, protocol.UnknownSpan),
			},
			{
				Description: "An endless sequence, cut short.",
				Usage:       "seq --endless 10 10 | first 3",
				Result:      protocol.Ints(protocol.UnknownSpan, 10, 20, 30),
			},
		},
	}
}

func isZero(v protocol.Value) bool {
	return toFloat(v) == 0
}

func toFloat(v protocol.Value) float64 {
	switch n := v.(type) {
	case protocol.Int:
		return float64(n.Val)
	case protocol.Float:
		return n.Val
	}
	return math.NaN()
}

// floatSeq counts in floats. Each element is computed from its index so
// rounding errors don't add up.
func floatSeq(es *engine.State, span protocol.Span, first, step float64, last protocol.Value) *protocol.ListStream {
	end := toFloat(last)
	i := 0
	return protocol.NewListStream(span, es.Interrupt, func() (protocol.Value, error) {
		cur := first + float64(i)*step
		if last != nil && ((step > 0 && cur > end) || (step < 0 && cur < end)) {
			return nil, io.EOF
		}
		i++
		return protocol.NewFloat(cur, span), nil
	})
}

func init() {
	addCommand(Seq)
}
