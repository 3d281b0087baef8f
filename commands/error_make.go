package commands

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// ErrorMake turns a record into a failure.
func ErrorMake() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("error make").
			Describe("Create an error.").
			Extra("The record needs a msg column. label and help are optional; label may be a record with text and span columns, span holding start and end offsets.").
			InCategory(protocol.CategoryCore).
			Search("panic", "crash", "throw").
			Req("error_struct", protocol.RecordType, "the error to create").
			Switch("unspanned", 'u', "remove the labels from the error").
			IO(protocol.NothingType, protocol.ErrorType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			rec, ok := call.Req(0).(protocol.Record)
			if !ok {
				return nil, protocol.TypeMismatchError("expected a record", call.Req(0).Span())
			}
			return nil, makeError(rec, call.Span(), call.HasFlag("unspanned"))
		},
		Ex: []engine.Example{
			{
				Description: "Create a simple error and catch it.",
				Usage:       "try { error make {msg: 'my custom error message'} } catch {|e| $e.msg }",
				Result:      protocol.NewString("my custom error message", protocol.UnknownSpan),
			},
		},
	}
}

func makeError(rec protocol.Record, span protocol.Span, unspanned bool) error {
	msg, err := recordString(rec, "msg")
	if err != nil {
		return err
	}
	if msg == "" {
		return (&protocol.ShellError{
			Kind:  protocol.GenericErrorKind,
			Msg:   "error make needs a msg",
			Label: "missing msg column",
			Span:  rec.Loc,
		}).WithHelp("add a msg column, e.g. {msg: 'something went wrong'}")
	}
	help, err := recordString(rec, "help")
	if err != nil {
		return err
	}

	out := &protocol.ShellError{Kind: protocol.GenericErrorKind, Msg: msg, Span: span, Help: help}
	switch label := getOr(rec, "label").(type) {
	case protocol.String:
		out.Label = label.Val
	case protocol.Record:
		text, err := recordString(label, "text")
		if err != nil {
			return err
		}
		out.Label = text
		if s, ok := label.Get("span"); ok {
			if out.Span, err = spanFromRecord(s); err != nil {
				return err
			}
		}
	case protocol.Nothing:
	default:
		return protocol.TypeMismatchError(fmt.Sprintf("label must be a string or record, found %s", protocol.TypeOf(label)), label.Span())
	}
	if unspanned {
		out.Label = ""
		out.Span = protocol.UnknownSpan
	}
	return out
}

func getOr(rec protocol.Record, col string) protocol.Value {
	if v, ok := rec.Get(col); ok {
		return v
	}
	return protocol.Nothing{Loc: rec.Loc}
}

func recordString(rec protocol.Record, col string) (string, error) {
	switch v := getOr(rec, col).(type) {
	case protocol.Nothing:
		return "", nil
	case protocol.String:
		return v.Val, nil
	default:
		return "", protocol.TypeMismatchError(fmt.Sprintf("%s must be a string, found %s", col, protocol.TypeOf(v)), v.Span())
	}
}

func spanFromRecord(v protocol.Value) (protocol.Span, error) {
	rec, ok := v.(protocol.Record)
	if !ok {
		return protocol.Span{}, protocol.TypeMismatchError("span must be a record with start and end", v.Span())
	}
	start, sok := getOr(rec, "start").(protocol.Int)
	end, eok := getOr(rec, "end").(protocol.Int)
	if !sok || !eok {
		return protocol.Span{}, protocol.TypeMismatchError("span must have int start and end columns", v.Span())
	}
	return protocol.NewSpan(int(start.Val), int(end.Val)), nil
}

func init() {
	addCommand(ErrorMake)
}
