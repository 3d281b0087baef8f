package commands

import (
	"encoding/hex"
	"hash"
	"io"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// hashCommand builds a command hashing its input with newHash. Byte
// streams are hashed chunk by chunk; lists hash each element.
func hashCommand(name, algorithm string, newHash func() hash.Hash, ex []engine.Example) func() engine.Command {
	return func() engine.Command {
		return &SimpleCommand{
			Sig: protocol.NewSignature("hash "+name).
				Describe("Hash a value using the "+algorithm+" hash algorithm.").
				Extra("The digest is returned as lowercase hex unless --binary is given.").
				InCategory(protocol.CategoryHash).
				Search("hash", "digest", "checksum", name).
				Switch("binary", 'b', "output binary instead of hexadecimal representation").
				IO(protocol.StringType, protocol.AnyType).
				IO(protocol.BinaryType, protocol.AnyType).
				IO(protocol.ByteStreamType, protocol.AnyType).
				IO(anyList, protocol.ListOf(protocol.TypeAny)),
			Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
				asBinary := call.HasFlag("binary")
				digest := func(sum []byte) protocol.Value {
					if asBinary {
						return protocol.NewBinary(sum, call.Span())
					}
					return protocol.NewString(hex.EncodeToString(sum), call.Span())
				}

				if bs, ok := input.(*protocol.ByteStream); ok {
					h := newHash()
					for {
						chunk, err := bs.Next()
						if err == io.EOF {
							break
						}
						if err != nil {
							bs.Close()
							return nil, err
						}
						h.Write(chunk)
					}
					if _, err := bs.Wait(); err != nil {
						return nil, err
					}
					return protocol.NewValueData(digest(h.Sum(nil))), nil
				}

				sumValue := func(v protocol.Value) (protocol.Value, error) {
					h := newHash()
					switch val := v.(type) {
					case protocol.String:
						io.WriteString(h, val.Val)
					case protocol.Binary:
						h.Write(val.Val)
					default:
						return nil, protocol.UnsupportedInputError("hash "+name, protocol.TypeOf(v), v.Span())
					}
					return digest(h.Sum(nil)), nil
				}
				if ls, ok := input.(*protocol.ListStream); ok {
					return ls.Map(sumValue), nil
				}
				v, err := protocol.IntoValue(input)
				if err != nil {
					return nil, err
				}
				out, err := mapValues(v, sumValue)
				if err != nil {
					return nil, err
				}
				return protocol.NewValueData(out), nil
			},
			Ex: ex,
		}
	}
}

var (
	HashBlake2b = hashCommand("blake2b", "BLAKE2b-256", func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	}, []engine.Example{
		{
			Description: "Hash a string.",
			Usage:       "'abc' | hash blake2b",
			Result:      protocol.NewString("bddd813c634239723171ef3fee98579b94964e3bb1cb3e427262c8c068d52319", protocol.UnknownSpan),
		},
	})

	HashSHA3 = hashCommand("sha3-256", "SHA3-256", sha3.New256, []engine.Example{
		{
			Description: "Hash a string.",
			Usage:       "'abc' | hash sha3-256",
			Result:      protocol.NewString("3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532", protocol.UnknownSpan),
		},
		{
			Description: "Get the digest as binary.",
			Usage:       "'' | hash sha3-256 --binary | length",
			Result:      protocol.NewInt(32, protocol.UnknownSpan),
		},
	})

	HashBlake3 = hashCommand("blake3", "BLAKE3", func() hash.Hash { return blake3.New() }, []engine.Example{
		{
			Description: "Hash a string.",
			Usage:       "'abc' | hash blake3",
			Result:      protocol.NewString("6437b3ac38465133ffb63b75273a8db548c558465d79db03fd359c6cd5bd9d85", protocol.UnknownSpan),
		},
	})
)

func init() {
	addCommand(HashBlake2b)
	addCommand(HashSHA3)
	addCommand(HashBlake3)
}
