package commands

import (
	"math"
	"sort"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// FromProtobuf decodes a serialized google.protobuf.Value.
func FromProtobuf() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("from protobuf").
			Describe("Convert a serialized google.protobuf.Value to structured data.").
			Extra("Numbers without a fraction that fit an int become ints. Struct keys are sorted.").
			InCategory(protocol.CategoryFormats).
			Search("parse", "proto", "binary").
			IO(protocol.BinaryType, protocol.AnyType).
			IO(protocol.ByteStreamType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			data, span, err := binaryInput("from protobuf", input)
			if err != nil {
				return nil, err
			}
			msg := &structpb.Value{}
			if err := proto.Unmarshal(data, msg); err != nil {
				return nil, protocol.ParseError("protobuf", err, span)
			}
			return protocol.NewValueData(protoValue(msg, span)), nil
		},
		Ex: []engine.Example{
			{
				Description: "Round trip a record.",
				Usage:       "{name: pipesh, n: 3} | to protobuf | from protobuf",
				Result: (&protocol.RecordBuilder{}).
					Set("n", protocol.NewInt(3, protocol.UnknownSpan)).
					Set("name", protocol.NewString("pipesh", protocol.UnknownSpan)).
					Build(protocol.UnknownSpan),
			},
		},
	}
}

func protoValue(v *structpb.Value, span protocol.Span) protocol.Value {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return protocol.NewBool(kind.BoolValue, span)
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return protocol.NewInt(int64(f), span)
		}
		return protocol.NewFloat(f, span)
	case *structpb.Value_StringValue:
		return protocol.NewString(kind.StringValue, span)
	case *structpb.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]protocol.Value, len(items))
		for i, item := range items {
			out[i] = protoValue(item, span)
		}
		return protocol.NewList(out, span)
	case *structpb.Value_StructValue:
		fields := kind.StructValue.GetFields()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b := &protocol.RecordBuilder{}
		for _, k := range keys {
			b.Set(k, protoValue(fields[k], span))
		}
		return b.Build(span)
	}
	return protocol.NewNothing(span)
}

// ToProtobuf serializes structured data as a google.protobuf.Value.
func ToProtobuf() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("to protobuf").
			Describe("Convert structured data to a serialized google.protobuf.Value.").
			Extra("Every number is stored as a double. Dates are stored as RFC 3339 strings.").
			InCategory(protocol.CategoryFormats).
			Search("serialize", "proto", "binary").
			IO(protocol.AnyType, protocol.BinaryType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			enc := &nativeEncoder{format: "protobuf", interrupt: es.Interrupt}
			native, err := enc.native(v)
			if err != nil {
				return nil, err
			}
			msg, err := structpb.NewValue(native)
			if err != nil {
				return nil, protocol.WrapError(protocol.TypeMismatchKind, "can't convert to protobuf", err, v.Span())
			}
			out, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
			if err != nil {
				return nil, protocol.WrapError(protocol.TypeMismatchKind, "can't convert to protobuf", err, v.Span())
			}
			return protocol.NewValueData(protocol.NewBinary(out, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Serialize a boolean.",
				Usage:       "true | to protobuf",
				Result:      protocol.NewBinary([]byte{0x20, 0x01}, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(FromProtobuf)
	addCommand(ToProtobuf)
}
