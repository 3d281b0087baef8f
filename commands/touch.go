package commands

import (
	"errors"
	"io/fs"
	"time"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Touch updates modification times, creating missing files.
func Touch() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("touch").
			Describe("Creates one or more files.").
			Extra("Existing files have their access and modification times set to now.").
			InCategory(protocol.CategoryFilesystem).
			Search("create", "file").
			RestArgs("files", protocol.StringType, "the file(s) to create or update").
			Switch("no-create", 'c', "do not create a file if it does not exist").
			IO(protocol.NothingType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			files, err := restStrings(call, 0)
			if err != nil {
				return nil, err
			}
			noCreate := call.HasFlag("no-create")

			now := time.Now()
			for _, file := range files {
				path := stack.ExpandPath(file.Val)
				err := es.Fs.Chtimes(path, now, now)
				switch {
				case errors.Is(err, fs.ErrNotExist) && noCreate:
					// Not an error.
				case errors.Is(err, fs.ErrNotExist):
					fd, err := es.Fs.Create(path)
					if err != nil {
						return nil, protocol.IOError(err, file.Loc)
					}
					fd.Close()
				case err != nil:
					return nil, protocol.IOError(err, file.Loc)
				}
			}
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Create an empty file.",
				Usage:       "touch /tmp/new.txt; ls /tmp | get name",
				Result:      protocol.Strings(protocol.UnknownSpan, "/tmp/new.txt"),
			},
			{
				Description: "Only update files that already exist.",
				Usage:       "touch -c /tmp/absent.txt; ls /tmp | length",
				Result:      protocol.NewInt(0, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Touch)
}
