package commands

import (
	"regexp"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// matcher decides whether one value matches the search.
type matcher func(v protocol.Value) bool

// Find lazily keeps the elements matching search terms or a regex.
func Find() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("find").
			Describe("Searches terms in the input.").
			Extra("Strings match when they contain a term. Records match when one of their values does, optionally only in the given columns. Other values match when they equal a term.").
			InCategory(protocol.CategoryFilters).
			Search("filter", "regex", "search", "condition", "grep").
			RestArgs("rest", protocol.AnyType, "terms to search").
			Named("regex", protocol.StringType, 'r', "regex to match with").
			Switch("ignore-case", 'i', "case-insensitive regex mode").
			Switch("multiline", 'm', "multi-line regex mode: ^ and $ match begin/end of line").
			Switch("dotall", 's', "dotall regex mode: allow a dot . to match newlines").
			Switch("invert", 'v', "invert the match").
			Named("columns", anyList, 'c', "column names to be searched").
			IO(anyList, anyList).
			IO(protocol.StringType, protocol.AnyType).
			IO(protocol.ByteStreamType, anyList),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			match, err := buildMatcher(es, call)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			columns, err := findColumns(call)
			if err != nil {
				closeInput(input)
				return nil, err
			}
			invert := call.HasFlag("invert")

			keep := func(v protocol.Value) (bool, error) {
				found := false
				if rec, ok := v.(protocol.Record); ok {
					found = matchRecord(rec, columns, match)
				} else {
					found = match(v)
				}
				return found != invert, nil
			}

			vd, isValue := input.(protocol.ValueData)
			if isValue {
				if s, ok := vd.Val.(protocol.String); ok {
					ok, _ := keep(s)
					if !ok {
						return protocol.Empty{Loc: call.Span()}, nil
					}
					return vd, nil
				}
			}

			filtered := protocol.IntoListStream(input, es.Interrupt).Filter(keep)
			if !isValue {
				return filtered, nil
			}
			out, err := filtered.Collect()
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(out), nil
		},
		Ex: []engine.Example{
			{
				Description: "Search for multiple terms in a list.",
				Usage:       "[abc bde arc abf] | find ab bf",
				Result:      protocol.Strings(protocol.UnknownSpan, "abc", "abf"),
			},
			{
				Description: "Search a number in a list of numbers.",
				Usage:       "[1 5 3 7 5] | find 5",
				Result:      protocol.Ints(protocol.UnknownSpan, 5, 5),
			},
			{
				Description: "Find values using a case-insensitive regex.",
				Usage:       "[abc odb arc abf] | find --regex 'B' -i",
				Result:      protocol.Strings(protocol.UnknownSpan, "abc", "odb", "abf"),
			},
			{
				Description: "Remove matching values with --invert.",
				Usage:       "[ab cd ef] | find -v cd",
				Result:      protocol.Strings(protocol.UnknownSpan, "ab", "ef"),
			},
			{
				Description: "Search only some columns of a table.",
				Usage:       "[{a: x, b: y} {a: y, b: x}] | find y --columns [a] | get b",
				Result:      protocol.Strings(protocol.UnknownSpan, "x"),
			},
		},
	}
}

func buildMatcher(es *engine.State, call *engine.Call) (matcher, error) {
	pattern, err := call.FlagString("regex", "")
	if err != nil {
		return nil, err
	}
	terms := call.Rest(0)

	if pattern == "" {
		if len(terms) == 0 {
			return nil, protocol.ArgumentError("find needs search terms or --regex", call.Span())
		}
		if call.HasFlag("ignore-case") || call.HasFlag("multiline") || call.HasFlag("dotall") {
			return nil, protocol.ArgumentError("regex flags need --regex", call.Span())
		}
		return termMatcher(es, terms), nil
	}
	if len(terms) > 0 {
		return nil, protocol.ArgumentError("search terms can't be combined with --regex", terms[0].Span())
	}

	var flags string
	if call.HasFlag("ignore-case") {
		flags += "i"
	}
	if call.HasFlag("multiline") {
		flags += "m"
	}
	if call.HasFlag("dotall") {
		flags += "s"
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		v, _ := call.GetFlag("regex")
		return nil, protocol.WrapError(protocol.ArgumentBindingKind, "invalid regex", err, v.Span())
	}
	return func(v protocol.Value) bool {
		s, err := es.Format.String(v)
		return err == nil && re.MatchString(s)
	}, nil
}

func termMatcher(es *engine.State, terms []protocol.Value) matcher {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		if s, err := es.Format.String(t); err == nil {
			lowered[i] = strings.ToLower(s)
		}
	}
	return func(v protocol.Value) bool {
		if s, ok := v.(protocol.String); ok {
			hay := strings.ToLower(s.Val)
			for _, term := range lowered {
				if term != "" && strings.Contains(hay, term) {
					return true
				}
			}
			return false
		}
		for _, t := range terms {
			if protocol.Equal(v, t) {
				return true
			}
		}
		return false
	}
}

func findColumns(call *engine.Call) ([]string, error) {
	v, ok := call.GetFlag("columns")
	if !ok {
		return nil, nil
	}
	var cols []string
	switch val := v.(type) {
	case protocol.List:
		for _, c := range val.Vals {
			s, ok := c.(protocol.String)
			if !ok {
				return nil, protocol.TypeMismatchError("columns must be strings", c.Span())
			}
			cols = append(cols, s.Val)
		}
	case protocol.String:
		cols = []string{val.Val}
	default:
		return nil, protocol.TypeMismatchError("columns must be a list of strings", v.Span())
	}
	return cols, nil
}

func matchRecord(rec protocol.Record, columns []string, match matcher) bool {
	if len(columns) == 0 {
		for _, v := range rec.Values() {
			if match(v) {
				return true
			}
		}
		return false
	}
	for _, c := range columns {
		if v, ok := rec.Get(c); ok && match(v) {
			return true
		}
	}
	return false
}

func init() {
	addCommand(Find)
}
