package commands

import (
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// cborEnc writes Core Deterministic Encoding: sorted map keys and the
// smallest encoding of every integer.
var cborEnc cbor.EncMode

var cborDec cbor.DecMode

func init() {
	var err error
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	opts.TimeTag = cbor.EncTagRequired
	cborEnc, err = opts.EncMode()
	if err != nil {
		panic("cbor encoder: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("cbor decoder: " + err.Error())
	}
}

// FromCBOR decodes CBOR data.
func FromCBOR() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("from cbor").
			Describe("Convert from CBOR to structured data.").
			Extra("Map keys must be strings and are sorted. Tagged dates become dates.").
			InCategory(protocol.CategoryFormats).
			Search("parse", "binary", "rfc8949").
			IO(protocol.BinaryType, protocol.AnyType).
			IO(protocol.ByteStreamType, protocol.AnyType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			data, span, err := binaryInput("from cbor", input)
			if err != nil {
				return nil, err
			}
			var doc any
			if err := cborDec.Unmarshal(data, &doc); err != nil {
				return nil, protocol.ParseError("cbor", err, span)
			}
			v, err := fromNative("cbor", cborNative(doc), span)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(v), nil
		},
		Ex: []engine.Example{
			{
				Description: "Decode a CBOR map.",
				Usage:       "{a: 1} | to cbor | from cbor",
				Result: (&protocol.RecordBuilder{}).
					Set("a", protocol.NewInt(1, protocol.UnknownSpan)).
					Build(protocol.UnknownSpan),
			},
		},
	}
}

// cborNative unwraps tags the value conversion doesn't know.
func cborNative(x any) any {
	switch val := x.(type) {
	case cbor.Tag:
		return cborNative(val.Content)
	case []any:
		for i, item := range val {
			val[i] = cborNative(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = cborNative(item)
		}
		return val
	}
	return x
}

// ToCBOR encodes structured data as CBOR.
func ToCBOR() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("to cbor").
			Describe("Convert structured data to CBOR.").
			Extra("The output uses core deterministic encoding, so equal data always gives equal bytes.").
			InCategory(protocol.CategoryFormats).
			Search("serialize", "binary", "rfc8949").
			IO(protocol.AnyType, protocol.BinaryType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			enc := &nativeEncoder{
				format:    "cbor",
				interrupt: es.Interrupt,
				binary:    func(b []byte) any { return b },
				date:      func(t time.Time) any { return t },
			}
			native, err := enc.native(v)
			if err != nil {
				return nil, err
			}
			out, err := cborEnc.Marshal(native)
			if err != nil {
				return nil, protocol.WrapError(protocol.TypeMismatchKind, "can't convert to cbor", err, v.Span())
			}
			return protocol.NewValueData(protocol.NewBinary(out, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Encode a small list.",
				Usage:       "[1 true] | to cbor",
				Result:      protocol.NewBinary([]byte{0x82, 0x01, 0xf5}, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(FromCBOR)
	addCommand(ToCBOR)
}
