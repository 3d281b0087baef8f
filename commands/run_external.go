package commands

import (
	"io"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/process"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// RunExternal runs a program found on PATH.
func RunExternal() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("run-external").
			Describe("Runs an external command.").
			Extra("Without --redirect-stdout the program writes straight to the shell's output and nothing is returned. " +
				"Arguments after the command name are passed to the program unchanged, including ones that look like flags.").
			InCategory(protocol.CategorySystem).
			Search("exec", "spawn").
			Req("command", protocol.StringType, "external command to run").
			RestArgs("args", protocol.AnyType, "arguments for the external command").
			Switch("redirect-stdout", 'o', "return the program's output as a byte stream").
			Switch("redirect-stderr", 'e', "capture the program's error output").
			Switch("redirect-combine", 'c', "merge the program's error output into its output").
			Switch("trim-end-newline", 't', "collect the output and trim the trailing newline").
			PassThroughArgs().
			IO(protocol.AnyType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			name, err := call.String(0)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			if err := process.CheckInput(name, input); err != nil {
				closeInput(input)
				return nil, err
			}

			args := append(append([]protocol.Value(nil), call.Rest(1)...), call.Extra()...)
			req := engine.ExternalRequest{
				Name:   name,
				Args:   args,
				Input:  input,
				Span:   call.Span(),
				Stderr: es.StderrMode(),
			}
			switch {
			case call.HasFlag("redirect-combine"):
				req.Stderr = process.StderrMerge
			case call.HasFlag("redirect-stderr"):
				req.Stderr = process.StderrCapture
			}

			bs, err := es.RunExternal(stack, req)
			if err != nil {
				return nil, err
			}

			if call.HasFlag("trim-end-newline") {
				s, err := bs.IntoString()
				if err != nil {
					return nil, err
				}
				trailer, err := bs.Wait()
				if err != nil {
					return nil, err
				}
				engine.RecordExitStatus(stack, &trailer)
				s = strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
				return protocol.NewValueData(protocol.NewString(s, call.Span())), nil
			}
			if call.HasFlag("redirect-stdout") {
				return bs, nil
			}

			if _, err := io.Copy(es.Stdout, bs.Reader()); err != nil {
				bs.Close()
				return nil, protocol.IOError(err, call.Span())
			}
			trailer, err := bs.Wait()
			if err != nil {
				return nil, err
			}
			engine.RecordExitStatus(stack, &trailer)
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Handle a program that isn't installed.",
				Usage:       "try { run-external no-such-program-here } catch { 'not installed' }",
				Result:      protocol.NewString("not installed", protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(RunExternal)
}
