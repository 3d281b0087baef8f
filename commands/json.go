package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/tidwall/jsonc"
)

// FromJSON parses JSON text into structured data.
func FromJSON() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("from json").
			Describe("Convert from json to structured data.").
			Extra("Comments and trailing commas are accepted unless --strict is given. Object keys keep their order.").
			InCategory(protocol.CategoryFormats).
			Search("parse", "jsonc").
			Switch("strict", 's', "reject comments and trailing commas").
			IO(protocol.StringType, protocol.AnyType).
			IO(protocol.ByteStreamType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			text, span, err := textInput("from json", input)
			if err != nil {
				return nil, err
			}
			v, err := parseJSON([]byte(text), call.HasFlag("strict"), span)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(v), nil
		},
		Ex: []engine.Example{
			{
				Description: "Parse an object.",
				Usage:       `'{"b": [true, null], "a": 1}' | from json`,
				Result: (&protocol.RecordBuilder{}).
					Set("b", protocol.NewList([]protocol.Value{
						protocol.NewBool(true, protocol.UnknownSpan),
						protocol.NewNothing(protocol.UnknownSpan),
					}, protocol.UnknownSpan)).
					Set("a", protocol.NewInt(1, protocol.UnknownSpan)).
					Build(protocol.UnknownSpan),
			},
			{
				Description: "Trailing commas are allowed.",
				Usage:       "'[1, 2.5,]' | from json",
				Result: protocol.NewList([]protocol.Value{
					protocol.NewInt(1, protocol.UnknownSpan),
					protocol.NewFloat(2.5, protocol.UnknownSpan),
				}, protocol.UnknownSpan),
			},
		},
	}
}

func parseJSON(data []byte, strict bool, span protocol.Span) (protocol.Value, error) {
	if !strict {
		data = jsonc.ToJSON(data)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return protocol.NewNothing(span), nil
	}
	if !json.Valid(data) {
		var discard any
		err := json.Unmarshal(data, &discard)
		return nil, protocol.ParseError("json", err, span)
	}
	value, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, protocol.ParseError("json", err, span)
	}
	return jsonValue(value, dt, span)
}

// jsonValue converts one raw JSON value of the given type.
func jsonValue(data []byte, dt jsonparser.ValueType, span protocol.Span) (protocol.Value, error) {
	switch dt {
	case jsonparser.Null:
		return protocol.NewNothing(span), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil, protocol.ParseError("json", err, span)
		}
		return protocol.NewBool(b, span), nil
	case jsonparser.Number:
		if n, err := jsonparser.ParseInt(data); err == nil {
			return protocol.NewInt(n, span), nil
		}
		f, err := jsonparser.ParseFloat(data)
		if err != nil {
			return nil, protocol.ParseError("json", err, span)
		}
		return protocol.NewFloat(f, span), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return nil, protocol.ParseError("json", err, span)
		}
		return protocol.NewString(s, span), nil
	case jsonparser.Array:
		out := []protocol.Value{}
		var walkErr error
		_, err := jsonparser.ArrayEach(data, func(value []byte, vt jsonparser.ValueType, _ int, err error) {
			if walkErr != nil {
				return
			}
			if err != nil {
				walkErr = protocol.ParseError("json", err, span)
				return
			}
			v, err := jsonValue(value, vt, span)
			if err != nil {
				walkErr = err
				return
			}
			out = append(out, v)
		})
		if walkErr != nil {
			return nil, walkErr
		}
		if err != nil {
			return nil, protocol.ParseError("json", err, span)
		}
		return protocol.NewList(out, span), nil
	case jsonparser.Object:
		b := &protocol.RecordBuilder{}
		err := jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
			k, err := jsonparser.ParseString(key)
			if err != nil {
				return protocol.ParseError("json", err, span)
			}
			v, err := jsonValue(value, vt, span)
			if err != nil {
				return err
			}
			b.Set(k, v)
			return nil
		})
		if err != nil {
			return nil, protocol.AsShellError(err, span)
		}
		return b.Build(span), nil
	}
	return nil, protocol.ParseError("json", fmt.Errorf("unexpected %s", dt), span)
}

// ToJSON renders structured data as JSON text.
func ToJSON() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("to json").
			Describe("Converts table data into JSON text.").
			Extra("Durations are written in nanoseconds, file sizes in bytes and binary data as a list of byte values.").
			InCategory(protocol.CategoryFormats).
			Search("serialize", "encode").
			Switch("raw", 'r', "remove all of the whitespace").
			NamedDefault("indent", protocol.IntType, 'i', protocol.NewInt(2, protocol.UnknownSpan), "specify indentation width").
			IO(protocol.AnyType, protocol.StringType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			indent, err := call.FlagInt("indent", 2)
			if err != nil {
				return nil, err
			}
			if indent < 0 || indent > 16 {
				v, _ := call.GetFlag("indent")
				return nil, protocol.ArgumentError("indent must be between 0 and 16", v.Span())
			}
			if call.HasFlag("raw") {
				indent = -1
			}
			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			s, err := renderJSON(v, int(indent), es.Interrupt)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(protocol.NewString(s, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Render a record without whitespace.",
				Usage:       "{b: 1, a: [x 2.0]} | to json --raw",
				Result:      protocol.NewString(`{"b":1,"a":["x",2.0]}`, protocol.UnknownSpan),
			},
			{
				Description: "Render a list with the default indentation.",
				Usage:       "[1 2] | to json",
				Result:      protocol.NewString("[\n  1,\n  2\n]", protocol.UnknownSpan),
			},
		},
	}
}

// renderJSON writes v as JSON; a negative indent means compact output.
func renderJSON(v protocol.Value, indent int, interrupt *protocol.Interrupt) (string, error) {
	enc := &nativeEncoder{
		format:    "json",
		interrupt: interrupt,
		record: func(cols []string, vals []any) any {
			return jsonObject{cols: cols, vals: vals}
		},
		float: func(f float64) any { return jsonFloat(f) },
	}
	native, err := enc.native(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	je := json.NewEncoder(&buf)
	je.SetEscapeHTML(false)
	if indent >= 0 {
		je.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := je.Encode(native); err != nil {
		return "", protocol.WrapError(protocol.TypeMismatchKind, "can't convert to json", err, v.Span())
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// jsonObject is a record that keeps its column order when marshaled.
type jsonObject struct {
	cols []string
	vals []any
}

func (o jsonObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range o.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalJSON(col)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := marshalJSON(o.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonFloat always renders with a fraction or exponent so floats stay
// floats when parsed back.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%v has no json representation", v)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func init() {
	addCommand(FromJSON)
	addCommand(ToJSON)
}
