package protocol

import "fmt"

// Span is a half-open range of byte offsets into the source text that
// produced a value or call. Spans are only used for diagnostics.
type Span struct {
	Start int
	End   int
}

// UnknownSpan is used for values that did not originate from source text.
var UnknownSpan = Span{}

// NewSpan creates a span, swapping the ends if they are reversed.
func NewSpan(start, end int) Span {
	if end < start {
		start, end = end, start
	}
	return Span{Start: start, End: end}
}

// IsUnknown returns true if the span doesn't point at any source.
func (s Span) IsUnknown() bool {
	return s == UnknownSpan
}

// Merge returns the smallest span covering both spans.
func (s Span) Merge(other Span) Span {
	switch {
	case s.IsUnknown():
		return other
	case other.IsUnknown():
		return s
	}
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
