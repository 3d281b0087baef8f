package commands

import (
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Mkdir creates directories, including missing parents.
func Mkdir() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("mkdir").
			Describe("Create directories, with intermediary directories if required.").
			InCategory(protocol.CategoryFilesystem).
			Search("directory", "folder", "create", "make_dirs").
			RestArgs("rest", protocol.StringType, "the name(s) of the path(s) to create").
			Switch("verbose", 'v', "return the created directories").
			IO(protocol.NothingType, protocol.NothingType).
			IO(protocol.NothingType, protocol.ListOf(protocol.TypeString)),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			dirs, err := restStrings(call, 0)
			if err != nil {
				return nil, err
			}
			if len(dirs) == 0 {
				return nil, protocol.ArgumentError("missing operand", call.Span()).
					WithHelp("give at least one directory to create")
			}

			var created []protocol.Value
			for _, dir := range dirs {
				path := stack.ExpandPath(dir.Val)
				if err := es.Fs.MkdirAll(path, 0o777); err != nil {
					return nil, protocol.IOError(err, dir.Loc)
				}
				created = append(created, protocol.NewString(path, dir.Loc))
			}

			if call.HasFlag("verbose") {
				return protocol.NewValueData(protocol.NewList(created, call.Span())), nil
			}
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Make a directory and its parents.",
				Usage:       "mkdir /tmp/a/b; ls /tmp/a | get name",
				Result:      protocol.Strings(protocol.UnknownSpan, "/tmp/a/b"),
			},
			{
				Description: "Return the directories that were made.",
				Usage:       "cd /tmp; mkdir -v x y",
				Result:      protocol.Strings(protocol.UnknownSpan, "/tmp/x", "/tmp/y"),
			},
		},
	}
}

func init() {
	addCommand(Mkdir)
}
