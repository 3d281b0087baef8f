package protocol

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// Equal is structural, kind-exact equality. Spans are ignored and Int 1 is
// not equal to Float 1.0.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return IsNothing(a) && IsNothing(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Nothing:
		return true
	case Bool:
		return av.Val == b.(Bool).Val
	case Int:
		return av.Val == b.(Int).Val
	case Float:
		return av.Val == b.(Float).Val
	case String:
		return av.Val == b.(String).Val
	case Binary:
		return bytes.Equal(av.Val, b.(Binary).Val)
	case Date:
		return av.Val.Equal(b.(Date).Val)
	case Duration:
		return av.Val == b.(Duration).Val
	case FileSize:
		return av.Val == b.(FileSize).Val
	case Range:
		bv := b.(Range)
		av.Loc, bv.Loc = Span{}, Span{}
		return av == bv
	case List:
		bv := b.(List)
		if len(av.Vals) != len(bv.Vals) {
			return false
		}
		for i := range av.Vals {
			if !Equal(av.Vals[i], bv.Vals[i]) {
				return false
			}
		}
		return true
	case Record:
		bv := b.(Record)
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.cols {
			if av.cols[i] != bv.cols[i] || !Equal(av.vals[i], bv.vals[i]) {
				return false
			}
		}
		return true
	case Closure:
		bv := b.(Closure)
		if av.BlockID != bv.BlockID || len(av.Captures) != len(bv.Captures) {
			return false
		}
		for i := range av.Captures {
			if av.Captures[i].Name != bv.Captures[i].Name || !Equal(av.Captures[i].Value, bv.Captures[i].Value) {
				return false
			}
		}
		return true
	case Error:
		bv := b.(Error)
		return av.Err.Kind == bv.Err.Kind && av.Err.Msg == bv.Err.Msg
	case Custom:
		bv := b.(Custom)
		if av.Val.TypeName() != bv.Val.TypeName() {
			return false
		}
		cmp, ok := av.Val.PartialCompare(bv)
		return ok && cmp == 0
	}
	return false
}

// Compare orders two values. Values of the same kind are totally ordered,
// Int and Float compare numerically with NaN after every number, and
// Nothing sorts before everything.
// Other combinations fail with a type mismatch.
func Compare(a, b Value) (int, error) {
	aNothing, bNothing := IsNothing(a), IsNothing(b)
	switch {
	case aNothing && bNothing:
		return 0, nil
	case aNothing:
		return -1, nil
	case bNothing:
		return 1, nil
	}

	if af, bf, ok := numericPair(a, b); ok {
		return cmpFloat(af, bf), nil
	}

	if a.Kind() != b.Kind() {
		if c, ok := a.(Custom); ok {
			if cmp, ok := c.Val.PartialCompare(b); ok {
				return cmp, nil
			}
		}
		return 0, incomparable(a, b)
	}

	switch av := a.(type) {
	case Bool:
		bv := b.(Bool).Val
		switch {
		case av.Val == bv:
			return 0, nil
		case !av.Val:
			return -1, nil
		default:
			return 1, nil
		}
	case Int:
		return cmpOrdered(av.Val, b.(Int).Val), nil
	case String:
		return strings.Compare(av.Val, b.(String).Val), nil
	case Binary:
		return bytes.Compare(av.Val, b.(Binary).Val), nil
	case Date:
		return av.Val.Compare(b.(Date).Val), nil
	case Duration:
		return cmpOrdered(av.Val, b.(Duration).Val), nil
	case FileSize:
		return cmpOrdered(av.Val, b.(FileSize).Val), nil
	case Range:
		bv := b.(Range)
		if c := cmpOrdered(av.Start, bv.Start); c != 0 {
			return c, nil
		}
		return cmpOrdered(av.End, bv.End), nil
	case List:
		bv := b.(List)
		for i := 0; i < len(av.Vals) && i < len(bv.Vals); i++ {
			c, err := Compare(av.Vals[i], bv.Vals[i])
			if err != nil || c != 0 {
				return c, err
			}
		}
		return cmpOrdered(len(av.Vals), len(bv.Vals)), nil
	case Record:
		bv := b.(Record)
		for i := 0; i < av.Len() && i < bv.Len(); i++ {
			if c := strings.Compare(av.cols[i], bv.cols[i]); c != 0 {
				return c, nil
			}
			c, err := Compare(av.vals[i], bv.vals[i])
			if err != nil || c != 0 {
				return c, err
			}
		}
		return cmpOrdered(av.Len(), bv.Len()), nil
	case Custom:
		if cmp, ok := av.Val.PartialCompare(b); ok {
			return cmp, nil
		}
	}
	return 0, incomparable(a, b)
}

func incomparable(a, b Value) error {
	return &ShellError{
		Kind:  TypeMismatchKind,
		Msg:   fmt.Sprintf("can't compare %s with %s", TypeOf(a), TypeOf(b)),
		Label: "incomparable values",
		Span:  a.Span().Merge(b.Span()),
	}
}

func numericPair(a, b Value) (float64, float64, bool) {
	_, aIsInt := a.(Int)
	_, bIsInt := b.(Int)
	if aIsInt && bIsInt {
		// Compared exactly in the Int case of Compare.
		return 0, 0, false
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return 0, 0, false
	}
	return af, bf, true
}

func asFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n.Val), true
	case Float:
		return n.Val, true
	}
	return 0, false
}

type ordered interface {
	~int | ~int64 | ~float64
}

// cmpFloat orders NaN after every number and equal to itself.
func cmpFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmpOrdered(a, b)
}

func cmpOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
