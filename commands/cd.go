package commands

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Cd changes the working directory of the current frame.
func Cd() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("cd").
			Describe("Change directory.").
			Extra("With no argument cd goes to $env.HOME, '-' goes back to the previous directory. The change is visible to the enclosing block but not outside a closure.").
			InCategory(protocol.CategoryEnv).
			Search("change", "directory", "dir", "folder", "switch").
			Opt("path", protocol.StringType, "the path to change to").
			IO(protocol.NothingType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			env := stack.Env()
			arg, err := call.OptString(0, "")
			if err != nil {
				return nil, err
			}

			var target string
			switch arg {
			case "":
				target = env.Getenv(engine.EnvHome)
				if target == "" {
					return nil, protocol.GenericError("$env.HOME is not set", call.Span())
				}
			case "-":
				target = env.Getenv(engine.EnvOldPwd)
				if target == "" {
					return nil, protocol.GenericError("no previous directory", call.Span())
				}
			default:
				target = stack.ExpandPath(arg)
			}

			argSpan := call.Span()
			if v, ok := call.Provided(0); ok {
				argSpan = v.Span()
			}
			info, err := es.Fs.Stat(target)
			if err != nil {
				return nil, protocol.IOError(err, argSpan).WithHelp(fmt.Sprintf("%q doesn't exist", target))
			}
			if !info.IsDir() {
				return nil, protocol.ArgumentError(fmt.Sprintf("%q is not a directory", target), argSpan)
			}

			es.Logger.Debug("changing directory", "from", stack.Cwd(), "to", target)
			env.Setenv(engine.EnvOldPwd, stack.Cwd())
			stack.SetCwd(target)
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Change to the root directory.",
				Usage:       "cd /; $env.PWD",
				Result:      protocol.NewString("/", protocol.UnknownSpan),
			},
			{
				Description: "Go back to the previous directory.",
				Usage:       "cd /; cd -",
			},
		},
	}
}

func init() {
	addCommand(Cd)
}
