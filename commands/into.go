package commands

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// intoInput materializes the input of an into command. Byte streams are
// read whole, as bytes when asBytes is set.
func intoInput(input protocol.PipelineData, asBytes bool) (protocol.Value, error) {
	if bs, ok := input.(*protocol.ByteStream); ok && asBytes {
		b, err := bs.IntoBytes()
		if err != nil {
			return nil, err
		}
		return protocol.NewBinary(b, bs.Span()), nil
	}
	return protocol.IntoValue(input)
}

// IntoString converts values to strings.
func IntoString() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("into string").
			Describe("Convert value to string.").
			InCategory(protocol.CategoryConversion).
			Search("convert", "text").
			Named("decimals", protocol.IntType, 'd', "decimal digits to which to round floats").
			IO(protocol.BoolType, protocol.StringType).
			IO(protocol.IntType, protocol.StringType).
			IO(protocol.FloatType, protocol.StringType).
			IO(protocol.StringType, protocol.StringType).
			IO(protocol.BinaryType, protocol.StringType).
			IO(protocol.DateType, protocol.StringType).
			IO(protocol.DurationType, protocol.StringType).
			IO(protocol.FileSizeType, protocol.StringType).
			IO(protocol.NothingType, protocol.StringType).
			IO(protocol.ByteStreamType, protocol.StringType).
			IO(anyList, protocol.ListOf(protocol.TypeString)),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			decimals, err := call.FlagInt("decimals", -1)
			if err != nil {
				return nil, err
			}
			if bs, ok := input.(*protocol.ByteStream); ok {
				s, err := bs.IntoString()
				if err != nil {
					return nil, err
				}
				return protocol.NewValueData(protocol.NewString(s, call.Span())), nil
			}
			convert := func(v protocol.Value) (protocol.Value, error) {
				switch val := v.(type) {
				case protocol.Float:
					if decimals >= 0 {
						return protocol.NewString(strconv.FormatFloat(val.Val, 'f', int(decimals), 64), val.Loc), nil
					}
				case protocol.Record, protocol.List, protocol.Closure:
					return nil, protocol.UnsupportedInputError("into string", protocol.TypeOf(v), v.Span())
				}
				s, err := es.Format.String(v)
				if err != nil {
					return nil, err
				}
				return protocol.NewString(s, v.Span()), nil
			}
			if ls, ok := input.(*protocol.ListStream); ok {
				return ls.Map(convert), nil
			}
			v, err := protocol.IntoValue(input)
			if err != nil {
				return nil, err
			}
			if r, ok := v.(protocol.Range); ok {
				return r.Stream(es.Interrupt).Map(convert), nil
			}
			out, err := mapValues(v, convert)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(out), nil
		},
		Ex: []engine.Example{
			{
				Description: "Convert an integer to a string.",
				Usage:       "5 | into string",
				Result:      protocol.NewString("5", protocol.UnknownSpan),
			},
			{
				Description: "Round a float while converting it.",
				Usage:       "1.7 | into string --decimals 0",
				Result:      protocol.NewString("2", protocol.UnknownSpan),
			},
			{
				Description: "Convert every element of a list.",
				Usage:       "[1 true] | into string",
				Result:      protocol.Strings(protocol.UnknownSpan, "1", "true"),
			},
		},
	}
}

// IntoInt converts values to integers.
func IntoInt() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("into int").
			Describe("Convert value to integer.").
			Extra("Binary data is read as a two's complement integer of at most eight bytes.").
			InCategory(protocol.CategoryConversion).
			Search("convert", "number", "integer").
			NamedDefault("radix", protocol.IntType, 'r', protocol.NewInt(10, protocol.UnknownSpan), "radix of the string, from 2 to 36").
			NamedDefault("endian", protocol.StringType, 'e', protocol.NewString("little", protocol.UnknownSpan), "byte order of binary input: little or big").
			IO(protocol.StringType, protocol.IntType).
			IO(protocol.IntType, protocol.IntType).
			IO(protocol.FloatType, protocol.IntType).
			IO(protocol.BoolType, protocol.IntType).
			IO(protocol.BinaryType, protocol.IntType).
			IO(protocol.DateType, protocol.IntType).
			IO(protocol.DurationType, protocol.IntType).
			IO(protocol.FileSizeType, protocol.IntType).
			IO(anyList, protocol.ListOf(protocol.TypeInt)),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			radix, err := call.FlagInt("radix", 10)
			if err != nil {
				return nil, err
			}
			if radix < 2 || radix > 36 {
				v, _ := call.GetFlag("radix")
				return nil, protocol.ArgumentError("radix must be between 2 and 36", v.Span())
			}
			endian, err := call.FlagString("endian", "little")
			if err != nil {
				return nil, err
			}
			if endian != "little" && endian != "big" {
				v, _ := call.GetFlag("endian")
				return nil, protocol.ArgumentError("endian must be little or big", v.Span())
			}
			convert := func(v protocol.Value) (protocol.Value, error) {
				n, err := toInt(v, int(radix), endian == "big")
				if err != nil {
					return nil, err
				}
				return protocol.NewInt(n, v.Span()), nil
			}

			if ls, ok := input.(*protocol.ListStream); ok {
				return ls.Map(convert), nil
			}
			v, err := intoInput(input, true)
			if err != nil {
				return nil, err
			}
			if r, ok := v.(protocol.Range); ok {
				return r.Stream(es.Interrupt).Map(convert), nil
			}
			out, err := mapValues(v, convert)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(out), nil
		},
		Ex: []engine.Example{
			{
				Description: "Convert a string to an integer.",
				Usage:       "'42' | into int",
				Result:      protocol.NewInt(42, protocol.UnknownSpan),
			},
			{
				Description: "Convert a hexadecimal string.",
				Usage:       "'ff' | into int --radix 16",
				Result:      protocol.NewInt(255, protocol.UnknownSpan),
			},
			{
				Description: "Convert booleans and floats.",
				Usage:       "[true 2.9] | into int",
				Result:      protocol.Ints(protocol.UnknownSpan, 1, 2),
			},
			{
				Description: "Read an integer from binary data.",
				Usage:       "1 | into binary | into int",
				Result:      protocol.NewInt(1, protocol.UnknownSpan),
			},
		},
	}
}

func toInt(v protocol.Value, radix int, bigEndian bool) (int64, error) {
	switch val := v.(type) {
	case protocol.Int:
		return val.Val, nil
	case protocol.Bool:
		if val.Val {
			return 1, nil
		}
		return 0, nil
	case protocol.Float:
		if math.IsNaN(val.Val) || math.IsInf(val.Val, 0) || math.Abs(val.Val) >= math.MaxInt64 {
			return 0, protocol.CantConvertError("float", "int", val.Loc).WithHelp("the value is out of range")
		}
		return int64(val.Val), nil
	case protocol.String:
		s := strings.TrimSpace(val.Val)
		n, err := strconv.ParseInt(s, radix, 64)
		if err == nil {
			return n, nil
		}
		if radix == 10 {
			// Accept file sizes such as "1 KiB".
			if size, serr := humanize.ParseBytes(s); serr == nil && size <= math.MaxInt64 {
				return int64(size), nil
			}
		}
		return 0, protocol.CantConvertError("string", "int", val.Loc).WithHelp(fmt.Sprintf("%q is not an integer in base %d", val.Val, radix))
	case protocol.FileSize:
		return val.Val, nil
	case protocol.Duration:
		return int64(val.Val), nil
	case protocol.Date:
		return val.Val.UnixNano(), nil
	case protocol.Binary:
		if len(val.Val) > 8 {
			return 0, protocol.CantConvertError("binary", "int", val.Loc).WithHelp("binary data longer than 8 bytes can't fit an int")
		}
		buf := make([]byte, 8)
		if bigEndian {
			copy(buf[8-len(val.Val):], val.Val)
			return int64(binary.BigEndian.Uint64(buf)), nil
		}
		copy(buf, val.Val)
		return int64(binary.LittleEndian.Uint64(buf)), nil
	}
	return 0, protocol.CantConvertError(protocol.TypeOf(v).String(), "int", v.Span())
}

// IntoBinary converts values to binary.
func IntoBinary() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("into binary").
			Describe("Convert value to a binary primitive.").
			Extra("Numbers are written as eight little-endian bytes, strings as their UTF-8 bytes.").
			InCategory(protocol.CategoryConversion).
			Search("convert", "bytes").
			Switch("compact", 'c', "output without padding zeros").
			IO(protocol.StringType, protocol.BinaryType).
			IO(protocol.IntType, protocol.BinaryType).
			IO(protocol.FloatType, protocol.BinaryType).
			IO(protocol.BoolType, protocol.BinaryType).
			IO(protocol.BinaryType, protocol.BinaryType).
			IO(protocol.DateType, protocol.BinaryType).
			IO(protocol.DurationType, protocol.BinaryType).
			IO(protocol.FileSizeType, protocol.BinaryType).
			IO(protocol.ByteStreamType, protocol.BinaryType).
			IO(anyList, protocol.ListOf(protocol.TypeBinary)),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			compact := call.HasFlag("compact")
			convert := func(v protocol.Value) (protocol.Value, error) {
				b, err := toBinary(v)
				if err != nil {
					return nil, err
				}
				if compact {
					b = trimZeros(b)
				}
				return protocol.NewBinary(b, v.Span()), nil
			}
			if ls, ok := input.(*protocol.ListStream); ok {
				return ls.Map(convert), nil
			}
			v, err := intoInput(input, true)
			if err != nil {
				return nil, err
			}
			out, err := mapValues(v, convert)
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(out), nil
		},
		Ex: []engine.Example{
			{
				Description: "Convert a string to its bytes.",
				Usage:       "'abc' | into binary",
				Result:      protocol.NewBinary([]byte("abc"), protocol.UnknownSpan),
			},
			{
				Description: "Convert an integer, dropping the padding.",
				Usage:       "258 | into binary --compact",
				Result:      protocol.NewBinary([]byte{2, 1}, protocol.UnknownSpan),
			},
		},
	}
}

func toBinary(v protocol.Value) ([]byte, error) {
	le := func(n uint64) []byte {
		return binary.LittleEndian.AppendUint64(nil, n)
	}
	switch val := v.(type) {
	case protocol.Binary:
		return val.Val, nil
	case protocol.String:
		return []byte(val.Val), nil
	case protocol.Int:
		return le(uint64(val.Val)), nil
	case protocol.FileSize:
		return le(uint64(val.Val)), nil
	case protocol.Duration:
		return le(uint64(val.Val)), nil
	case protocol.Date:
		return le(uint64(val.Val.UnixNano())), nil
	case protocol.Float:
		return le(math.Float64bits(val.Val)), nil
	case protocol.Bool:
		if val.Val {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	}
	return nil, protocol.CantConvertError(protocol.TypeOf(v).String(), "binary", v.Span())
}

// trimZeros drops trailing zero bytes, keeping at least one byte.
func trimZeros(b []byte) []byte {
	end := len(b)
	for end > 1 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}

func init() {
	addCommand(IntoString)
	addCommand(IntoInt)
	addCommand(IntoBinary)
}
