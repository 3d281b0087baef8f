package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// lookupEncoding resolves an IANA encoding name.
func lookupEncoding(name string, span protocol.Span) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, (&protocol.ShellError{
			Kind:  protocol.ArgumentBindingKind,
			Msg:   fmt.Sprintf("unsupported encoding %q", name),
			Label: "unknown encoding",
			Span:  span,
		}).WithHelp("use an IANA name such as utf-8, utf-16le, iso-8859-1 or shift_jis")
	}
	return enc, nil
}

// encodingArg reads the optional encoding argument, falling back to the
// configured encoding.
func encodingArg(es *engine.State, call *engine.Call) (encoding.Encoding, error) {
	v, ok := call.Provided(0)
	if !ok {
		if es.Format.Encoding == nil {
			return unicode.UTF8, nil
		}
		return es.Format.Encoding, nil
	}
	name, ok := v.(protocol.String)
	if !ok {
		return nil, protocol.TypeMismatchError(fmt.Sprintf("expected string, found %s", protocol.TypeOf(v)), v.Span())
	}
	return lookupEncoding(name.Val, name.Loc)
}

// Decode turns bytes into text.
func Decode() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("decode").
			Describe("Decode bytes into a string.").
			Extra("Without an encoding the configured one is used. Bytes that aren't valid in the encoding are an error.").
			InCategory(protocol.CategoryStrings).
			Search("text", "encoding", "charset").
			Opt("encoding", protocol.StringType, "the IANA name of the text encoding").
			IO(protocol.BinaryType, protocol.StringType).
			IO(protocol.ByteStreamType, protocol.StringType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			enc, err := encodingArg(es, call)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			v, err := intoInput(input, true)
			if err != nil {
				return nil, err
			}
			b, ok := v.(protocol.Binary)
			if !ok {
				return nil, protocol.UnsupportedInputError("decode", protocol.TypeOf(v), v.Span())
			}
			s, err := protocol.Format{Encoding: enc}.DecodeBytes(b.Val, b.Loc)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(protocol.NewString(s, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Decode UTF-8 bytes.",
				Usage:       "'héllo' | into binary | decode",
				Result:      protocol.NewString("héllo", protocol.UnknownSpan),
			},
			{
				Description: "Decode Latin-1 bytes.",
				Usage:       "'héllo' | encode iso-8859-1 | decode iso-8859-1",
				Result:      protocol.NewString("héllo", protocol.UnknownSpan),
			},
		},
	}
}

// Encode turns text into bytes.
func Encode() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("encode").
			Describe("Encode a string into bytes.").
			Extra("Characters the encoding can't represent are an error unless --ignore-errors replaces them with HTML character references.").
			InCategory(protocol.CategoryStrings).
			Search("text", "encoding", "charset").
			Opt("encoding", protocol.StringType, "the IANA name of the text encoding").
			Switch("ignore-errors", 'i', "replace characters the encoding can't represent").
			IO(protocol.StringType, protocol.BinaryType).
			IO(protocol.ByteStreamType, protocol.BinaryType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			enc, err := encodingArg(es, call)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			var text string
			var span protocol.Span
			if bs, ok := input.(*protocol.ByteStream); ok {
				if text, err = bs.IntoString(); err != nil {
					return nil, err
				}
				span = bs.Span()
			} else {
				v, err := protocol.IntoValue(input)
				if err != nil {
					return nil, err
				}
				s, ok := v.(protocol.String)
				if !ok {
					return nil, protocol.UnsupportedInputError("encode", protocol.TypeOf(v), v.Span())
				}
				text, span = s.Val, s.Loc
			}

			encoder := enc.NewEncoder()
			if call.HasFlag("ignore-errors") {
				encoder = encoding.HTMLEscapeUnsupported(encoder)
			}
			out, err := encoder.Bytes([]byte(text))
			if err != nil {
				return nil, protocol.WrapError(protocol.TypeMismatchKind, "can't encode string", err, span).
					WithHelp("use --ignore-errors to replace characters the encoding can't represent")
			}
			return protocol.NewValueData(protocol.NewBinary(out, call.Span())), nil
		},
		Ex: []engine.Example{
			{
				Description: "Encode a string as Latin-1.",
				Usage:       "'é' | encode iso-8859-1",
				Result:      protocol.NewBinary([]byte{0xe9}, protocol.UnknownSpan),
			},
			{
				Description: "Replace characters Latin-1 can't hold.",
				Usage:       "'中' | encode iso-8859-1 --ignore-errors",
				Result:      protocol.NewBinary([]byte("&#20013;"), protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Decode)
	addCommand(Encode)
}
