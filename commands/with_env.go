package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// WithEnv runs a closure with extra environment variables.
func WithEnv() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("with-env").
			Describe("Runs a closure with an environment update.").
			Extra("The update is only visible inside the closure.").
			InCategory(protocol.CategoryEnv).
			Search("env", "temporary").
			Req("variables", protocol.RecordType, "the environment variables to set").
			Req("block", protocol.ClosureType, "the closure to run").
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			rec, ok := call.Req(0).(protocol.Record)
			if !ok {
				closeInput(input)
				return nil, protocol.TypeMismatchError("expected record", call.Req(0).Span())
			}
			cl, err := call.Closure(1)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			frame := stack.Snapshot()
			if err := loadEnv(es, frame, frame.Env(), rec); err != nil {
				closeInput(input)
				return nil, err
			}
			return es.RunClosure(frame, cl, nil, input)
		},
		Ex: []engine.Example{
			{
				Description: "Set a variable for the duration of a closure.",
				Usage:       "with-env {GREETING: hello} { $env.GREETING }",
				Result:      protocol.NewString("hello", protocol.UnknownSpan),
			},
			{
				Description: "The update doesn't leak out of the closure.",
				Usage:       "with-env {TEMP_ONLY: 1} { 1 }; $env | get -i TEMP_ONLY",
				Result:      protocol.NewNothing(protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(WithEnv)
}
