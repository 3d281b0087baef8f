package commands

import (
	"time"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/pelletier/go-toml/v2"
)

// FromTOML parses TOML text into a record.
func FromTOML() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("from toml").
			Describe("Parse text as .toml and create record.").
			Extra("Keys are sorted. Local dates and times are kept as strings.").
			InCategory(protocol.CategoryFormats).
			Search("parse", "config").
			IO(protocol.StringType, protocol.RecordType).
			IO(protocol.ByteStreamType, protocol.RecordType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			text, span, err := textInput("from toml", input)
			if err != nil {
				return nil, err
			}
			var doc map[string]any
			if err := toml.Unmarshal([]byte(text), &doc); err != nil {
				return nil, protocol.ParseError("toml", err, span)
			}
			if doc == nil {
				doc = map[string]any{}
			}
			v, err := fromNative("toml", doc, span)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(v), nil
		},
		Ex: []engine.Example{
			{
				Description: "Parse a table.",
				Usage:       `"name = 'pipesh'\n[server]\nport = 8080" | from toml`,
				Result: (&protocol.RecordBuilder{}).
					Set("name", protocol.NewString("pipesh", protocol.UnknownSpan)).
					Set("server", (&protocol.RecordBuilder{}).
						Set("port", protocol.NewInt(8080, protocol.UnknownSpan)).
						Build(protocol.UnknownSpan)).
					Build(protocol.UnknownSpan),
			},
		},
	}
}

// ToTOML renders a record as TOML text.
func ToTOML() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("to toml").
			Describe("Convert record into .toml text.").
			Extra("TOML has no null, so records holding nothing can't be converted.").
			InCategory(protocol.CategoryFormats).
			Search("serialize", "config").
			IO(protocol.RecordType, protocol.StringType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			if _, ok := v.(protocol.Record); !ok {
				return nil, protocol.UnsupportedInputError("to toml", protocol.TypeOf(v), v.Span()).
					WithHelp("the top level of a toml document is always a record")
			}
			enc := &nativeEncoder{
				format:    "toml",
				interrupt: es.Interrupt,
				date:      func(t time.Time) any { return t },
				nothing: func(span protocol.Span) error {
					return protocol.CantConvertError("nothing", "toml", span)
				},
			}
			native, err := enc.native(v)
			if err != nil {
				return nil, err
			}
			out, err := toml.Marshal(native)
			if err != nil {
				return nil, protocol.WrapError(protocol.TypeMismatchKind, "can't convert to toml", err, v.Span())
			}
			return protocol.NewValueData(protocol.NewString(string(out), call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Render a record.",
				Usage:       "{name: pipesh, port: 8080} | to toml",
				Result:      protocol.NewString("name = 'pipesh'\nport = 8080\n", protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(FromTOML)
	addCommand(ToTOML)
}
