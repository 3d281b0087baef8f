package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// formatAliases maps file extensions to the format command handling them.
var formatAliases = map[string]string{
	"yml":   "yaml",
	"jsonc": "json",
	"pb":    "protobuf",
}

// formatFor returns the format name for a file extension.
func formatFor(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if alias, ok := formatAliases[ext]; ok {
		return alias
	}
	return ext
}

// Open reads a file.
func Open() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("open").
			Describe("Load a file into a cell, converting to table if possible (avoid by appending '--raw').").
			Extra("Files are streamed. When a 'from' command exists for the file extension the contents are parsed with it.").
			InCategory(protocol.CategoryFilesystem).
			Search("load", "read", "load_file", "read_file", "cat").
			Req("filename", protocol.StringType, "the filename to use").
			Switch("raw", 'r', "open file as raw binary").
			IO(protocol.NothingType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			name, err := call.String(0)
			if err != nil {
				return nil, err
			}
			argSpan := call.Req(0).Span()
			path := stack.ExpandPath(name)

			info, err := es.Fs.Stat(path)
			if err != nil {
				return nil, protocol.IOError(err, argSpan).WithHelp(fmt.Sprintf("%q doesn't exist", path))
			}
			if info.IsDir() {
				return nil, protocol.ArgumentError(fmt.Sprintf("%q is a directory", path), argSpan)
			}
			f, err := es.Fs.Open(path)
			if err != nil {
				return nil, protocol.IOError(err, argSpan)
			}
			es.Logger.Debug("opened file", "path", path, "size", info.Size())

			bs := protocol.NewByteStream(f, call.Span(), es.Interrupt,
				protocol.WithSource(protocol.SourceFile, path),
				protocol.WithEncoding(es.Format.Encoding),
				protocol.WithChunkSize(es.Config.Stream.ChunkSize))
			if call.HasFlag("raw") {
				return bs, nil
			}
			from := "from " + formatFor(path)
			if _, ok := es.FindCommand(from); !ok {
				return bs, nil
			}
			return es.RunCommand(stack, from, nil, bs)
		},
		Ex: []engine.Example{
			{
				Description: "Open a file, parsing it by its extension.",
				Usage:       "{a: 1} | save -f /tmp/open-example.json; open /tmp/open-example.json",
				Result: (&protocol.RecordBuilder{}).
					Set("a", protocol.NewInt(1, protocol.UnknownSpan)).
					Build(protocol.UnknownSpan),
			},
			{
				Description: "Open a file as raw text.",
				Usage:       `'{"a": 1}' | save --raw -f /tmp/open-raw.json; open --raw /tmp/open-raw.json`,
				Result:      protocol.NewString(`{"a": 1}`, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Open)
}
