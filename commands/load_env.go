package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// LoadEnv sets environment variables from a record.
func LoadEnv() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("load-env").
			Describe("Loads an environment update from a record.").
			Extra("Values are converted to strings, lists are joined with the path list separator. Setting PWD changes the working directory.").
			InCategory(protocol.CategoryEnv).
			Search("set", "export", "environment").
			Opt("update", protocol.RecordType, "the record to use for updates").
			IO(protocol.NothingType, protocol.NothingType).
			IO(protocol.RecordType, protocol.NothingType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			update, ok := call.Provided(0)
			if !ok {
				v, err := protocol.IntoValue(input)
				if err != nil {
					return nil, err
				}
				update = v
			}
			rec, ok := update.(protocol.Record)
			if !ok {
				return nil, protocol.TypeMismatchError(fmt.Sprintf("expected record, found %s", protocol.TypeOf(update)), update.Span())
			}
			if err := loadEnv(es, stack, stack.Env(), rec); err != nil {
				return nil, err
			}
			return protocol.Empty{Loc: call.Span()}, nil
		},
		Ex: []engine.Example{
			{
				Description: "Load variables from a record.",
				Usage:       "load-env {NAME: 'pipesh', LEVEL: 2}; $env.LEVEL",
				Result:      protocol.NewString("2", protocol.UnknownSpan),
			},
			{
				Description: "Load variables from the pipeline.",
				Usage:       "{NAME: 'pipesh'} | load-env; $env.NAME",
				Result:      protocol.NewString("pipesh", protocol.UnknownSpan),
			},
		},
	}
}

// loadEnv writes every column of rec into env.
func loadEnv(es *engine.State, stack *engine.Stack, env *engine.Env, rec protocol.Record) error {
	for i := 0; i < rec.Len(); i++ {
		key, val := rec.At(i)
		s, err := envString(es.Format, val)
		if err != nil {
			return err
		}
		if key == engine.EnvPwd {
			dir := stack.ExpandPath(s)
			info, err := es.Fs.Stat(dir)
			if err != nil {
				return protocol.IOError(err, val.Span())
			}
			if !info.IsDir() {
				return protocol.ArgumentError(fmt.Sprintf("%q is not a directory", dir), val.Span())
			}
			s = dir
		}
		env.Setenv(key, s)
	}
	return nil
}

// envString converts a value to its environment form.
func envString(f protocol.Format, v protocol.Value) (string, error) {
	list, ok := v.(protocol.List)
	if !ok {
		return f.String(v)
	}
	parts := make([]string, len(list.Vals))
	for i, item := range list.Vals {
		s, err := f.String(item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, string(filepath.ListSeparator)), nil
}

func init() {
	addCommand(LoadEnv)
}
