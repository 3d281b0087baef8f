package protocol

import (
	"fmt"
	"io"
	"strconv"
)

// Range is an integer range from Start towards End, moving by Step.
// An open range has no end and produces values forever.
type Range struct {
	Start     int64
	Step      int64
	End       int64
	Open      bool
	Inclusive bool
	Loc       Span
}

// NewRange creates an inclusive range. A zero step is inferred from the
// direction of the bounds.
func NewRange(start, end, step int64, span Span) (Range, error) {
	if step == 0 {
		step = 1
		if end < start {
			step = -1
		}
	}
	if (end > start && step < 0) || (end < start && step > 0) {
		return Range{}, GenericError("range step moves away from its end", span)
	}
	return Range{Start: start, End: end, Step: step, Inclusive: true, Loc: span}, nil
}

// NewOpenRange creates a range with no end.
func NewOpenRange(start, step int64, span Span) Range {
	if step == 0 {
		step = 1
	}
	return Range{Start: start, Step: step, Open: true, Loc: span}
}

func (r Range) contains(n int64) bool {
	if r.Open {
		return true
	}
	switch {
	case r.Step > 0 && r.Inclusive:
		return n <= r.End
	case r.Step > 0:
		return n < r.End
	case r.Inclusive:
		return n >= r.End
	default:
		return n > r.End
	}
}

// Stream returns a lazy stream over the range.
func (r Range) Stream(interrupt *Interrupt) *ListStream {
	cur := r.Start
	done := false
	return NewListStream(r.Loc, interrupt, func() (Value, error) {
		if done || !r.contains(cur) {
			return nil, io.EOF
		}
		out := NewInt(cur, r.Loc)
		next := cur + r.Step
		// Stop rather than wrap around on overflow.
		if (r.Step > 0 && next < cur) || (r.Step < 0 && next > cur) {
			done = true
		}
		cur = next
		return out, nil
	})
}

func (r Range) String() string {
	op := ".."
	if !r.Inclusive && !r.Open {
		op = "..<"
	}
	start := strconv.FormatInt(r.Start, 10)
	if r.Step != 1 {
		start = fmt.Sprintf("%d..%d", r.Start, r.Start+r.Step)
	}
	if r.Open {
		return start + op
	}
	return fmt.Sprintf("%s%s%d", start, op, r.End)
}
