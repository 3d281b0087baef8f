package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Rm removes files and, with --recursive, directories.
func Rm() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("rm").
			Describe("Remove files and directories.").
			InCategory(protocol.CategoryFilesystem).
			Search("delete", "remove").
			RestArgs("paths", protocol.StringType, "the file paths(s) to remove").
			Switch("recursive", 'r', "delete subdirectories recursively").
			Switch("force", 'f', "suppress error when no file").
			IO(protocol.NothingType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			paths, err := restStrings(call, 0)
			if err != nil {
				return nil, err
			}
			recursive := call.HasFlag("recursive")
			force := call.HasFlag("force")

			for _, p := range paths {
				path := stack.ExpandPath(p.Val)
				info, err := es.Fs.Stat(path)
				switch {
				case errors.Is(err, fs.ErrNotExist):
					if force {
						continue
					}
					return nil, protocol.IOError(err, p.Loc).WithHelp("use --force to ignore missing files")
				case err != nil:
					return nil, protocol.IOError(err, p.Loc)
				case info.IsDir() && !recursive:
					return nil, protocol.ArgumentError(fmt.Sprintf("can't remove %q: is a directory", p.Val), p.Loc).
						WithHelp("use --recursive to remove directories")
				case info.IsDir():
					err = es.Fs.RemoveAll(path)
				default:
					err = es.Fs.Remove(path)
				}
				if err != nil {
					return nil, protocol.IOError(err, p.Loc)
				}
				es.Logger.Debug("removed", "path", path)
			}
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Delete a file.",
				Usage:       "touch /tmp/gone.txt; rm /tmp/gone.txt; ls /tmp | length",
				Result:      protocol.NewInt(0, protocol.UnknownSpan),
			},
			{
				Description: "Delete a directory and everything in it.",
				Usage:       "mkdir /tmp/d/e; rm -r /tmp/d",
			},
			{
				Description: "Ignore files that don't exist.",
				Usage:       "rm -f /tmp/never-existed",
			},
		},
	}
}

func init() {
	addCommand(Rm)
}
