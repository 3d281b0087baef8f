package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
)

func (es *State) evalBinary(stack *Stack, op *ast.BinaryOp) (protocol.Value, error) {
	lhs, err := es.EvalExpr(stack, op.LHS)
	if err != nil {
		return nil, err
	}

	// and/or short-circuit
	if op.Op == ast.OpAnd || op.Op == ast.OpOr {
		l, ok := lhs.(protocol.Bool)
		if !ok {
			return nil, operandError(op, lhs)
		}
		if (op.Op == ast.OpAnd && !l.Val) || (op.Op == ast.OpOr && l.Val) {
			return protocol.NewBool(l.Val, op.Loc), nil
		}
		rhs, err := es.EvalExpr(stack, op.RHS)
		if err != nil {
			return nil, err
		}
		r, ok := rhs.(protocol.Bool)
		if !ok {
			return nil, operandError(op, rhs)
		}
		return protocol.NewBool(r.Val, op.Loc), nil
	}

	rhs, err := es.EvalExpr(stack, op.RHS)
	if err != nil {
		return nil, err
	}
	return ApplyOperator(op.Op, lhs, rhs, op.Loc)
}

// ApplyOperator applies a binary operator to two values.
func ApplyOperator(op ast.Operator, lhs, rhs protocol.Value, span protocol.Span) (protocol.Value, error) {
	switch op {
	case ast.OpEqual:
		return protocol.NewBool(protocol.Equal(lhs, rhs), span), nil
	case ast.OpNotEqual:
		return protocol.NewBool(!protocol.Equal(lhs, rhs), span), nil
	case ast.OpLessThan, ast.OpLessEqual, ast.OpGreaterThan, ast.OpGreaterEqual:
		return compareOp(op, lhs, rhs, span)
	case ast.OpAdd, ast.OpSubtract, ast.OpMultiply, ast.OpDivide, ast.OpModulo:
		return arithmetic(op, lhs, rhs, span)
	case ast.OpIn:
		return contains(rhs, lhs, span)
	case ast.OpAppend:
		return appendValues(lhs, rhs, span)
	case ast.OpAnd, ast.OpOr:
		l, lok := lhs.(protocol.Bool)
		r, rok := rhs.(protocol.Bool)
		if !lok || !rok {
			return nil, mismatch(op, lhs, rhs, span)
		}
		if op == ast.OpAnd {
			return protocol.NewBool(l.Val && r.Val, span), nil
		}
		return protocol.NewBool(l.Val || r.Val, span), nil
	}
	return nil, protocol.GenericError(fmt.Sprintf("unknown operator %s", op), span)
}

func compareOp(op ast.Operator, lhs, rhs protocol.Value, span protocol.Span) (protocol.Value, error) {
	c, err := protocol.Compare(lhs, rhs)
	if err != nil {
		return nil, err
	}
	var out bool
	switch op {
	case ast.OpLessThan:
		out = c < 0
	case ast.OpLessEqual:
		out = c <= 0
	case ast.OpGreaterThan:
		out = c > 0
	default:
		out = c >= 0
	}
	return protocol.NewBool(out, span), nil
}

func arithmetic(op ast.Operator, lhs, rhs protocol.Value, span protocol.Span) (protocol.Value, error) {
	switch l := lhs.(type) {
	case protocol.Int:
		switch r := rhs.(type) {
		case protocol.Int:
			return intArithmetic(op, l.Val, r.Val, span)
		case protocol.Float:
			return floatArithmetic(op, float64(l.Val), r.Val, span)
		case protocol.Duration:
			if op == ast.OpMultiply {
				return protocol.NewDuration(time.Duration(l.Val)*r.Val, span), nil
			}
		case protocol.FileSize:
			if op == ast.OpMultiply {
				return protocol.NewFileSize(l.Val*r.Val, span), nil
			}
		}
	case protocol.Float:
		switch r := rhs.(type) {
		case protocol.Int:
			return floatArithmetic(op, l.Val, float64(r.Val), span)
		case protocol.Float:
			return floatArithmetic(op, l.Val, r.Val, span)
		}
	case protocol.String:
		if r, ok := rhs.(protocol.String); ok && op == ast.OpAdd {
			return protocol.NewString(l.Val+r.Val, span), nil
		}
	case protocol.Duration:
		switch r := rhs.(type) {
		case protocol.Duration:
			switch op {
			case ast.OpAdd:
				return protocol.NewDuration(l.Val+r.Val, span), nil
			case ast.OpSubtract:
				return protocol.NewDuration(l.Val-r.Val, span), nil
			}
		case protocol.Int:
			switch op {
			case ast.OpMultiply:
				return protocol.NewDuration(l.Val*time.Duration(r.Val), span), nil
			case ast.OpDivide:
				if r.Val == 0 {
					return nil, divideByZero(span)
				}
				return protocol.NewDuration(l.Val/time.Duration(r.Val), span), nil
			}
		}
	case protocol.FileSize:
		switch r := rhs.(type) {
		case protocol.FileSize:
			switch op {
			case ast.OpAdd:
				return protocol.NewFileSize(l.Val+r.Val, span), nil
			case ast.OpSubtract:
				return protocol.NewFileSize(l.Val-r.Val, span), nil
			}
		case protocol.Int:
			if op == ast.OpMultiply {
				return protocol.NewFileSize(l.Val*r.Val, span), nil
			}
		}
	case protocol.Date:
		if r, ok := rhs.(protocol.Duration); ok {
			switch op {
			case ast.OpAdd:
				return protocol.NewDate(l.Val.Add(r.Val), span), nil
			case ast.OpSubtract:
				return protocol.NewDate(l.Val.Add(-r.Val), span), nil
			}
		}
		if r, ok := rhs.(protocol.Date); ok && op == ast.OpSubtract {
			return protocol.NewDuration(l.Val.Sub(r.Val), span), nil
		}
	}
	return nil, mismatch(op, lhs, rhs, span)
}

func intArithmetic(op ast.Operator, l, r int64, span protocol.Span) (protocol.Value, error) {
	switch op {
	case ast.OpAdd:
		out := l + r
		if (out > l) != (r > 0) {
			return nil, overflow(span)
		}
		return protocol.NewInt(out, span), nil
	case ast.OpSubtract:
		out := l - r
		if (out < l) != (r > 0) {
			return nil, overflow(span)
		}
		return protocol.NewInt(out, span), nil
	case ast.OpMultiply:
		if l != 0 && r != 0 {
			out := l * r
			if out/r != l || (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
				return nil, overflow(span)
			}
			return protocol.NewInt(out, span), nil
		}
		return protocol.NewInt(0, span), nil
	case ast.OpDivide:
		if r == 0 {
			return nil, divideByZero(span)
		}
		if l%r == 0 {
			return protocol.NewInt(l/r, span), nil
		}
		return protocol.NewFloat(float64(l)/float64(r), span), nil
	default:
		if r == 0 {
			return nil, divideByZero(span)
		}
		// Floored modulo, the sign follows the divisor.
		m := l % r
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return protocol.NewInt(m, span), nil
	}
}

func floatArithmetic(op ast.Operator, l, r float64, span protocol.Span) (protocol.Value, error) {
	switch op {
	case ast.OpAdd:
		return protocol.NewFloat(l+r, span), nil
	case ast.OpSubtract:
		return protocol.NewFloat(l-r, span), nil
	case ast.OpMultiply:
		return protocol.NewFloat(l*r, span), nil
	case ast.OpDivide:
		if r == 0 {
			return nil, divideByZero(span)
		}
		return protocol.NewFloat(l/r, span), nil
	default:
		if r == 0 {
			return nil, divideByZero(span)
		}
		m := math.Mod(l, r)
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return protocol.NewFloat(m, span), nil
	}
}

// contains implements "needle in haystack".
func contains(haystack, needle protocol.Value, span protocol.Span) (protocol.Value, error) {
	switch h := haystack.(type) {
	case protocol.List:
		for _, v := range h.Vals {
			if protocol.Equal(v, needle) {
				return protocol.NewBool(true, span), nil
			}
		}
		return protocol.NewBool(false, span), nil
	case protocol.String:
		if n, ok := needle.(protocol.String); ok {
			return protocol.NewBool(strings.Contains(h.Val, n.Val), span), nil
		}
	case protocol.Record:
		if n, ok := needle.(protocol.String); ok {
			_, found := h.Get(n.Val)
			return protocol.NewBool(found, span), nil
		}
	case protocol.Range:
		if n, ok := needle.(protocol.Int); ok {
			return protocol.NewBool(rangeContains(h, n.Val), span), nil
		}
	}
	return nil, mismatch(ast.OpIn, needle, haystack, span)
}

func rangeContains(r protocol.Range, n int64) bool {
	if r.Step > 0 {
		if n < r.Start || (!r.Open && (n > r.End || (!r.Inclusive && n == r.End))) {
			return false
		}
		return (n-r.Start)%r.Step == 0
	}
	if n > r.Start || (!r.Open && (n < r.End || (!r.Inclusive && n == r.End))) {
		return false
	}
	return (r.Start-n)%(-r.Step) == 0
}

func appendValues(lhs, rhs protocol.Value, span protocol.Span) (protocol.Value, error) {
	switch l := lhs.(type) {
	case protocol.List:
		vals := append([]protocol.Value{}, l.Vals...)
		if r, ok := rhs.(protocol.List); ok {
			vals = append(vals, r.Vals...)
		} else {
			vals = append(vals, rhs)
		}
		return protocol.NewList(vals, span), nil
	case protocol.String:
		if r, ok := rhs.(protocol.String); ok {
			return protocol.NewString(l.Val+r.Val, span), nil
		}
	case protocol.Binary:
		if r, ok := rhs.(protocol.Binary); ok {
			out := append(append([]byte{}, l.Val...), r.Val...)
			return protocol.NewBinary(out, span), nil
		}
	}
	return nil, mismatch(ast.OpAppend, lhs, rhs, span)
}

func mismatch(op ast.Operator, lhs, rhs protocol.Value, span protocol.Span) error {
	return &protocol.ShellError{
		Kind:  protocol.TypeMismatchKind,
		Msg:   fmt.Sprintf("%s is not supported between %s and %s", op, protocol.TypeOf(lhs), protocol.TypeOf(rhs)),
		Label: "unsupported operation",
		Span:  span,
		Related: []protocol.Labeled{
			{Label: protocol.TypeOf(lhs).String(), Span: lhs.Span()},
			{Label: protocol.TypeOf(rhs).String(), Span: rhs.Span()},
		},
	}
}

func operandError(op *ast.BinaryOp, v protocol.Value) error {
	return &protocol.ShellError{
		Kind:  protocol.TypeMismatchKind,
		Msg:   fmt.Sprintf("%s expects bool operands, found %s", op.Op, protocol.TypeOf(v)),
		Label: "expected bool",
		Span:  v.Span(),
	}
}

func divideByZero(span protocol.Span) error {
	return &protocol.ShellError{Kind: protocol.GenericErrorKind, Msg: "division by zero", Label: "divisor is zero", Span: span}
}

func overflow(span protocol.Span) error {
	return &protocol.ShellError{Kind: protocol.GenericErrorKind, Msg: "integer overflow", Label: "result doesn't fit in an int", Span: span}
}
