package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/afero"
)

// Save writes the input to a file.
func Save() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("save").
			Describe("Save a file.").
			Extra("Structured data is converted with the 'to' command matching the file extension unless --raw is given. Byte streams are written as they arrive.").
			InCategory(protocol.CategoryFilesystem).
			Search("write", "write_file", "append", "redirection", "file", "io", ">", ">>").
			Req("filename", protocol.StringType, "the filename to use").
			Named("stderr", protocol.StringType, 'e', "the filename used to save stderr, only works with --raw").
			Switch("raw", 'r', "save file as raw binary").
			Switch("append", 'a', "append input to the end of the file").
			Switch("force", 'f', "overwrite the destination").
			IO(protocol.AnyType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			name, err := call.String(0)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			argSpan := call.Req(0).Span()
			path := stack.ExpandPath(name)
			appendMode := call.HasFlag("append")
			raw := call.HasFlag("raw")

			stderrPath, err := call.FlagString("stderr", "")
			if err != nil {
				closeInput(input)
				return nil, err
			}

			if !raw {
				to := "to " + formatFor(path)
				if _, ok := es.FindCommand(to); ok && !isByteStream(input) {
					if input, err = es.RunCommand(stack, to, nil, input); err != nil {
						return nil, err
					}
				}
			}

			f, err := createFile(es.Fs, path, appendMode, call.HasFlag("force"))
			if err != nil {
				closeInput(input)
				if errors.Is(err, fs.ErrExist) {
					return nil, protocol.IOError(err, argSpan).WithHelp("use --force to overwrite the file")
				}
				return nil, protocol.IOError(err, argSpan)
			}
			defer f.Close()

			if bs, ok := input.(*protocol.ByteStream); ok {
				if _, err := io.Copy(f, bs.Reader()); err != nil {
					bs.Close()
					return nil, protocol.IOError(err, call.Span())
				}
				trailer, err := bs.Wait()
				if err != nil {
					return nil, err
				}
				engine.RecordExitStatus(stack, &trailer)
				if stderrPath != "" {
					if err := afero.WriteFile(es.Fs, stack.ExpandPath(stderrPath), trailer.Stderr, 0o644); err != nil {
						return nil, protocol.IOError(err, call.Span())
					}
				}
				return protocol.Empty{Loc: call.Span()}, nil
			}

			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			data, err := saveBytes(es.Format, v)
			if err != nil {
				return nil, err
			}
			if _, err := f.Write(data); err != nil {
				return nil, protocol.IOError(err, call.Span())
			}
			es.Logger.Debug("saved file", "path", path, "bytes", len(data), "append", appendMode)
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Save a string to a file.",
				Usage:       "'save me' | save -f /tmp/save-example.txt",
			},
			{
				Description: "Append to a file.",
				Usage:       "'a' | save -f /tmp/save-append.txt; 'b' | save --append /tmp/save-append.txt; open /tmp/save-append.txt",
				Result:      protocol.NewString("ab", protocol.UnknownSpan),
			},
			{
				Description: "Save a record as JSON by the file extension.",
				Usage:       "{a: 1} | save -f /tmp/save-example.json; open --raw /tmp/save-example.json",
				Result:      protocol.NewString("{\n  \"a\": 1\n}", protocol.UnknownSpan),
			},
		},
	}
}

func isByteStream(pd protocol.PipelineData) bool {
	_, ok := pd.(*protocol.ByteStream)
	return ok
}

// createFile opens path for writing. Existing files are only replaced with
// force.
func createFile(fsys afero.Fs, path string, appendMode, force bool) (afero.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case appendMode:
		flags |= os.O_APPEND
	case force:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_EXCL
	}
	f, err := fsys.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%s already exists: %w", path, err)
	}
	return f, err
}

// saveBytes renders a value as file contents. Lists of strings are
// written one per line.
func saveBytes(f protocol.Format, v protocol.Value) ([]byte, error) {
	switch val := v.(type) {
	case protocol.Nothing:
		return nil, nil
	case protocol.Binary:
		return val.Val, nil
	case protocol.String:
		return []byte(val.Val), nil
	case protocol.List:
		var buf bytes.Buffer
		for _, item := range val.Vals {
			b, err := saveBytes(f, item)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
			if _, isBinary := item.(protocol.Binary); !isBinary {
				buf.WriteByte('\n')
			}
		}
		return buf.Bytes(), nil
	case protocol.Record:
		return nil, protocol.UnsupportedInputError("save", protocol.TypeOf(v), v.Span()).
			WithHelp("save records to a file with a known extension such as .json, or convert them first")
	}
	s, err := f.String(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func init() {
	addCommand(Save)
}
