package commands

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/afero"
)

// Ls lists directory entries as a table.
func Ls() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("ls").
			Describe("List the filenames, sizes, and modification times of items in a directory.").
			Extra("The pattern may be a directory, a file or a glob. Names are shown relative to the pattern unless --full-paths is given.").
			InCategory(protocol.CategoryFilesystem).
			Search("dir", "list", "files").
			Opt("pattern", protocol.StringType, "the glob pattern to use").
			Switch("all", 'a', "show hidden files").
			Switch("long", 'l', "get all available columns for each entry").
			Switch("full-paths", 'f', "display paths as absolute paths").
			IO(protocol.NothingType, protocol.TableType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			pattern, err := call.OptString(0, ".")
			if err != nil {
				return nil, err
			}
			span := call.Span()
			if v, ok := call.Provided(0); ok {
				span = v.Span()
			}

			l := lister{
				fsys:      es.Fs,
				all:       call.HasFlag("all"),
				long:      call.HasFlag("long"),
				fullPaths: call.HasFlag("full-paths"),
				span:      call.Span(),
			}
			rows, err := l.list(stack, pattern)
			if err != nil {
				return nil, protocol.IOError(err, span)
			}
			return protocol.NewValueData(protocol.NewList(rows, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "List the names of the files in a directory.",
				Usage:       "cd /tmp; touch b.txt a.txt; ls | get name",
				Result:      protocol.Strings(protocol.UnknownSpan, "a.txt", "b.txt"),
			},
			{
				Description: "Hidden files are only listed with --all.",
				Usage:       "touch /tmp/.hidden; [(ls /tmp | length) (ls -a /tmp | length)]",
				Result:      protocol.Ints(protocol.UnknownSpan, 0, 1),
			},
			{
				Description: "List the files matching a glob.",
				Usage:       "touch /tmp/x.json /tmp/y.txt; ls /tmp/*.json | get name",
				Result:      protocol.Strings(protocol.UnknownSpan, "/tmp/x.json"),
			},
		},
	}
}

type lister struct {
	fsys      afero.Fs
	all       bool
	long      bool
	fullPaths bool
	span      protocol.Span
}

// list returns a row per entry matched by pattern, sorted by name.
func (l *lister) list(stack *engine.Stack, pattern string) ([]protocol.Value, error) {
	abs := stack.ExpandPath(pattern)

	type entry struct {
		name string
		info fs.FileInfo
	}
	var entries []entry

	if strings.ContainsAny(pattern, "*?[") {
		matches, err := afero.Glob(l.fsys, abs)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			info, err := l.fsys.Stat(m)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{name: filepath.Join(filepath.Dir(pattern), filepath.Base(m)), info: info})
		}
	} else {
		info, err := l.fsys.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			entries = append(entries, entry{name: pattern, info: info})
		} else {
			infos, err := afero.ReadDir(l.fsys, abs)
			if err != nil {
				return nil, err
			}
			for _, info := range infos {
				name := info.Name()
				if pattern != "." {
					name = filepath.Join(pattern, name)
				}
				entries = append(entries, entry{name: name, info: info})
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})

	rows := make([]protocol.Value, 0, len(entries))
	for _, e := range entries {
		if !l.all && strings.HasPrefix(e.info.Name(), ".") {
			continue
		}
		name := e.name
		if l.fullPaths {
			name = stack.ExpandPath(name)
		}
		rows = append(rows, l.row(name, e.info))
	}
	return rows, nil
}

func (l *lister) row(name string, info fs.FileInfo) protocol.Value {
	b := (&protocol.RecordBuilder{}).
		Set("name", protocol.NewString(name, l.span)).
		Set("type", protocol.NewString(fileType(info.Mode()), l.span)).
		Set("size", protocol.NewFileSize(info.Size(), l.span)).
		Set("modified", protocol.NewDate(info.ModTime(), l.span))
	if l.long {
		b.Set("mode", protocol.NewString(info.Mode().Perm().String(), l.span))
	}
	return b.Build(l.span)
}

func fileType(mode fs.FileMode) string {
	switch {
	case mode.IsDir():
		return "dir"
	case mode&fs.ModeSymlink != 0:
		return "symlink"
	case mode.IsRegular():
		return "file"
	}
	return "unknown"
}

func init() {
	addCommand(Ls)
}
