package commands

import (
	"errors"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Try runs a block and turns its failure into data for a catch closure.
func Try() engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature("try").
			Describe("Try to run a block, if it fails optionally run a catch closure.").
			Extra("The output of the block is collected so that failures of external commands and streams are caught. The catch closure receives the error as its argument.").
			InCategory(protocol.CategoryCore).
			Search("catch", "rescue").
			Req("try_block", protocol.BlockType, "the block to run").
			Opt("catch_closure", protocol.ClosureType, "the closure to run if the block fails").
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			body, _ := rawPositional(call, 0)
			out, err := runBody(es, stack, body, input)
			if err == nil && out.IsSignal() {
				return out, nil
			}
			var v protocol.Value
			if err == nil {
				v, err = collectChecked(stack, out.Data, call.Span())
			}
			if err == nil {
				return protocol.DataOutcome(protocol.NewValueData(v)), nil
			}

			var sigErr *protocol.SignalError
			if errors.As(err, &sigErr) || errors.Is(err, protocol.ErrInterrupted) {
				return protocol.Outcome{}, err
			}
			es.Logger.Debug("try caught error", "err", err)

			catch, ok := rawPositional(call, 1)
			if !ok {
				return protocol.DataOutcome(protocol.Empty{Loc: call.Span()}), nil
			}
			errVal := protocol.NewError(protocol.AsShellError(err, call.Span()), call.Span())
			if _, isBlock := catch.(*ast.BlockExpr); isBlock {
				frame := stack.Push()
				frame.AddVar(engine.InVariable, errVal)
				return runBody(es, frame, catch, protocol.NewValueData(errVal))
			}
			cv, err := es.EvalExpr(stack, catch)
			if err != nil {
				return protocol.Outcome{}, err
			}
			cl, isClosure := cv.(protocol.Closure)
			if !isClosure {
				return protocol.DataOutcome(protocol.NewValueData(cv)), nil
			}
			pd, err := es.RunClosure(stack, cl, []protocol.Value{errVal}, protocol.NewValueData(errVal))
			if err != nil {
				return protocol.Outcome{}, err
			}
			return protocol.DataOutcome(pd), nil
		},
		Ex: []engine.Example{
			{
				Description: "Try to run a division by zero.",
				Usage:       "try { 1 / 0 }",
			},
			{
				Description: "Recover from a failure with a catch closure.",
				Usage:       "try { 1 / 0 } catch { 'divided by zero' }",
				Result:      protocol.NewString("divided by zero", protocol.UnknownSpan),
			},
			{
				Description: "The catch closure receives the error.",
				Usage:       "try { error make {msg: boom} } catch {|e| $e.msg }",
				Result:      protocol.NewString("boom", protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Try)
}
