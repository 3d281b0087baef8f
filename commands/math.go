package commands

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

type mathFunc func(vals []protocol.Value, span protocol.Span) (protocol.Value, error)

// mathCommand wraps a function over a whole list of numbers.
func mathCommand(name, usage string, search []string, fn mathFunc, ex []engine.Example) engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature(name).
			Describe(usage).
			InCategory(protocol.CategoryMath).
			Search(search...).
			IO(protocol.ListOf(protocol.TypeNumber), protocol.NumberType).
			IO(protocol.ListOf(protocol.TypeDuration), protocol.DurationType).
			IO(protocol.ListOf(protocol.TypeFileSize), protocol.FileSizeType).
			IO(protocol.RangeType, protocol.NumberType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			if vd, ok := input.(protocol.ValueData); ok {
				if r, ok := vd.Val.(protocol.Range); ok && r.Open {
					return nil, protocol.GenericError("can't compute over an endless range", r.Loc)
				}
			}
			v, err := protocol.IntoListStream(input, es.Interrupt).Collect()
			if err != nil {
				return nil, err
			}
			out, err := fn(v.(protocol.List).Vals, call.Span())
			if err != nil {
				return nil, err
			}
			return protocol.NewValueData(out), nil
		},
		Ex: ex,
	}
}

// MathSum adds up a list.
func MathSum() engine.Command {
	return mathCommand("math sum", "Returns the sum of a list of numbers or of durations.", []string{"plus", "add", "total"}, sum,
		[]engine.Example{
			{
				Description: "Sum a list of numbers.",
				Usage:       "[1 2 3] | math sum",
				Result:      protocol.NewInt(6, protocol.UnknownSpan),
			},
			{
				Description: "Sum a range.",
				Usage:       "1..10 | math sum",
				Result:      protocol.NewInt(55, protocol.UnknownSpan),
			},
		})
}

// MathAvg computes the arithmetic mean.
func MathAvg() engine.Command {
	return mathCommand("math avg", "Returns the average of a list of numbers.", []string{"average", "mean", "statistics"}, avg,
		[]engine.Example{
			{
				Description: "Compute the average of a list of numbers.",
				Usage:       "[-50 100.0 25] | math avg",
				Result:      protocol.NewFloat(25, protocol.UnknownSpan),
			},
		})
}

// MathMedian computes the middle value.
func MathMedian() engine.Command {
	return mathCommand("math median", "Computes the median of a list of numbers.", []string{"middle", "statistics"}, median,
		[]engine.Example{
			{
				Description: "Compute the median of a list of numbers.",
				Usage:       "[3 8 9 12 12 15] | math median",
				Result:      protocol.NewFloat(10.5, protocol.UnknownSpan),
			},
			{
				Description: "An odd number of values has a middle element.",
				Usage:       "[5 1 3] | math median",
				Result:      protocol.NewInt(3, protocol.UnknownSpan),
			},
		})
}

// MathMode returns the most frequent values.
func MathMode() engine.Command {
	cmd := mathCommand("math mode", "Returns the most frequent element(s) from a list of numbers.", []string{"common", "statistics"}, mode,
		[]engine.Example{
			{
				Description: "Compute the mode(s) of a list of numbers.",
				Usage:       "[3 3 9 12 12 15] | math mode",
				Result:      protocol.Ints(protocol.UnknownSpan, 3, 12),
			},
		}).(*SimpleCommand)
	sig := cmd.Sig
	for i := range sig.InputOutput {
		sig.InputOutput[i].Out = protocol.ListOf(sig.InputOutput[i].Out.Kind)
	}
	return cmd
}

func sum(vals []protocol.Value, span protocol.Span) (protocol.Value, error) {
	if len(vals) == 0 {
		return protocol.NewInt(0, span), nil
	}
	acc := vals[0]
	if err := checkNumeric(acc); err != nil {
		return nil, err
	}
	for _, v := range vals[1:] {
		if err := checkNumeric(v); err != nil {
			return nil, err
		}
		next, err := engine.ApplyOperator(ast.OpAdd, acc, v, span)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc.WithSpan(span), nil
}

func avg(vals []protocol.Value, span protocol.Span) (protocol.Value, error) {
	if len(vals) == 0 {
		return nil, emptyInput("math avg", span)
	}
	total, err := sum(vals, span)
	if err != nil {
		return nil, err
	}
	return divide(total, len(vals), span)
}

func divide(total protocol.Value, n int, span protocol.Span) (protocol.Value, error) {
	switch t := total.(type) {
	case protocol.Duration:
		return engine.ApplyOperator(ast.OpDivide, t, protocol.NewInt(int64(n), span), span)
	case protocol.FileSize:
		return protocol.NewFileSize(t.Val/int64(n), span), nil
	}
	return engine.ApplyOperator(ast.OpDivide, total, protocol.NewFloat(float64(n), span), span)
}

func median(vals []protocol.Value, span protocol.Span) (protocol.Value, error) {
	if len(vals) == 0 {
		return nil, emptyInput("math median", span)
	}
	sorted, err := sortedNumbers(vals)
	if err != nil {
		return nil, err
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid].WithSpan(span), nil
	}
	total, err := sum(sorted[mid-1:mid+1], span)
	if err != nil {
		return nil, err
	}
	return divide(total, 2, span)
}

func mode(vals []protocol.Value, span protocol.Span) (protocol.Value, error) {
	if len(vals) == 0 {
		return nil, emptyInput("math mode", span)
	}
	sorted, err := sortedNumbers(vals)
	if err != nil {
		return nil, err
	}

	var modes []protocol.Value
	best := 0
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && protocol.Equal(sorted[i], sorted[j]) {
			j++
		}
		switch n := j - i; {
		case n > best:
			best = n
			modes = []protocol.Value{sorted[i]}
		case n == best:
			modes = append(modes, sorted[i])
		}
		i = j
	}
	return protocol.NewList(modes, span), nil
}

func sortedNumbers(vals []protocol.Value) ([]protocol.Value, error) {
	sorted := append([]protocol.Value(nil), vals...)
	for _, v := range sorted {
		if err := checkNumeric(v); err != nil {
			return nil, err
		}
	}
	var cmpErr error
	sort.SliceStable(sorted, func(i, j int) bool {
		c, err := protocol.Compare(sorted[i], sorted[j])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return c < 0
	})
	return sorted, cmpErr
}

func checkNumeric(v protocol.Value) error {
	switch v.(type) {
	case protocol.Int, protocol.Float, protocol.Duration, protocol.FileSize:
		return nil
	}
	return protocol.TypeMismatchError(fmt.Sprintf("expected a number, found %s", protocol.TypeOf(v)), v.Span())
}

func emptyInput(cmd string, span protocol.Span) error {
	return &protocol.ShellError{
		Kind:  protocol.GenericErrorKind,
		Msg:   fmt.Sprintf("%s needs at least one value", cmd),
		Label: "empty input",
		Span:  span,
	}
}

func init() {
	addCommand(MathSum)
	addCommand(MathAvg)
	addCommand(MathMedian)
	addCommand(MathMode)
}
