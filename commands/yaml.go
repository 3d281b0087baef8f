package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"gopkg.in/yaml.v2"
)

// FromYAML parses YAML text into structured data.
func FromYAML() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("from yaml").
			Describe("Parse text as .yaml/.yml and create table.").
			Extra("Mappings keep their key order when the document is a mapping or a sequence of mappings.").
			InCategory(protocol.CategoryFormats).
			Search("parse", "yml").
			IO(protocol.StringType, protocol.AnyType).
			IO(protocol.ByteStreamType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			text, span, err := textInput("from yaml", input)
			if err != nil {
				return nil, err
			}
			v, err := parseYAML([]byte(text), span)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(v), nil
		},
		Ex: []engine.Example{
			{
				Description: "Parse a mapping.",
				Usage:       `"b: 1\na: [x, 2]" | from yaml`,
				Result: (&protocol.RecordBuilder{}).
					Set("b", protocol.NewInt(1, protocol.UnknownSpan)).
					Set("a", protocol.NewList([]protocol.Value{
						protocol.NewString("x", protocol.UnknownSpan),
						protocol.NewInt(2, protocol.UnknownSpan),
					}, protocol.UnknownSpan)).
					Build(protocol.UnknownSpan),
			},
		},
	}
}

func parseYAML(data []byte, span protocol.Span) (protocol.Value, error) {
	var probe any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, protocol.ParseError("yaml", err, span)
	}

	// Decoding into MapSlice makes nested mappings MapSlices too, which
	// keeps their order.
	switch probe.(type) {
	case map[any]any:
		var ms yaml.MapSlice
		if err := yaml.Unmarshal(data, &ms); err == nil {
			return yamlValue(ms, span)
		}
	case []any:
		var rows []yaml.MapSlice
		if err := yaml.Unmarshal(data, &rows); err == nil {
			vals := make([]protocol.Value, len(rows))
			for i, row := range rows {
				v, err := yamlValue(row, span)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			return protocol.NewList(vals, span), nil
		}
	}
	return yamlValue(probe, span)
}

func yamlValue(x any, span protocol.Span) (protocol.Value, error) {
	switch val := x.(type) {
	case yaml.MapSlice:
		b := &protocol.RecordBuilder{}
		for _, item := range val {
			v, err := yamlValue(item.Value, span)
			if err != nil {
				return nil, err
			}
			b.Set(fmt.Sprint(item.Key), v)
		}
		return b.Build(span), nil
	case []any:
		out := make([]protocol.Value, len(val))
		for i, item := range val {
			v, err := yamlValue(item, span)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return protocol.NewList(out, span), nil
	}
	return fromNative("yaml", x, span)
}

// ToYAML renders structured data as YAML text.
func ToYAML() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("to yaml").
			Describe("Convert table into .yaml/.yml text.").
			InCategory(protocol.CategoryFormats).
			Search("serialize", "yml").
			IO(protocol.AnyType, protocol.StringType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			enc := &nativeEncoder{
				format:    "yaml",
				interrupt: es.Interrupt,
				record: func(cols []string, vals []any) any {
					ms := make(yaml.MapSlice, len(cols))
					for i, col := range cols {
						ms[i] = yaml.MapItem{Key: col, Value: vals[i]}
					}
					return ms
				},
				date: func(t time.Time) any { return t },
			}
			native, err := enc.native(v)
			if err != nil {
				return nil, err
			}
			out, err := yaml.Marshal(native)
			if err != nil {
				return nil, protocol.WrapError(protocol.TypeMismatchKind, "can't convert to yaml", err, v.Span())
			}
			return protocol.NewValueData(protocol.NewString(string(out), call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Render a record, keeping the column order.",
				Usage:       "{b: 1, a: [x z]} | to yaml",
				Result:      protocol.NewString(strings.Join([]string{"b: 1", "a:", "- x", "- z", ""}, "\n"), protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(FromYAML)
	addCommand(ToYAML)
}
