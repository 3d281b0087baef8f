package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// If runs one of two blocks depending on a condition.
func If() engine.Command {
	return &KeywordCommand{
		Sig: protocol.NewSignature("if").
			Describe("Conditionally run a block.").
			Extra("The else branch may be another if, forming an if/else if chain.").
			InCategory(protocol.CategoryCore).
			Search("else", "conditional").
			Req("cond", protocol.BoolType, "the condition to check").
			Req("then_block", protocol.BlockType, "the block to run if the condition is true").
			Opt("else_block", protocol.AnyType, "the block or if to run if the condition is false").
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
			cond, _ := rawPositional(call, 0)
			ok, err := condition(es, stack, cond)
			if err != nil {
				closeInput(input)
				return protocol.Outcome{}, err
			}
			if ok {
				then, _ := rawPositional(call, 1)
				return runBody(es, stack, then, input)
			}
			if otherwise, ok := rawPositional(call, 2); ok {
				return runBody(es, stack, otherwise, input)
			}
			closeInput(input)
			return protocol.DataOutcome(protocol.Empty{Loc: call.Span()}), nil
		},
		Ex: []engine.Example{
			{
				Description: "Output a value if a condition matches, otherwise return nothing.",
				Usage:       "if 2 < 3 { 'yes!' }",
				Result:      protocol.NewString("yes!", protocol.UnknownSpan),
			},
			{
				Description: "Chain multiple if's together.",
				Usage:       "if 5 < 3 { 'yes!' } else if 4 < 5 { 'no!' } else { 'okay!' }",
				Result:      protocol.NewString("no!", protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(If)
}
