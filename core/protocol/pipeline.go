package protocol

import (
	"io"
)

// PipelineData is what flows between pipeline stages. Exactly one variant is
// active: Empty, ValueData, *ListStream or *ByteStream.
type PipelineData interface {
	// Span is the location of the syntax that produced the data.
	Span() Span

	isPipelineData()
}

// Empty is the absence of data.
type Empty struct {
	Loc Span
}

// ValueData is a single materialized value.
type ValueData struct {
	Val Value
}

func (e Empty) Span() Span     { return e.Loc }
func (v ValueData) Span() Span { return v.Val.Span() }

func (Empty) isPipelineData()       {}
func (ValueData) isPipelineData()   {}
func (*ListStream) isPipelineData() {}
func (*ByteStream) isPipelineData() {}

// NewValueData wraps a value. A nil value becomes Nothing.
func NewValueData(v Value) PipelineData {
	if v == nil {
		v = Nothing{}
	}
	return ValueData{Val: v}
}

// IsEmpty reports whether pd carries no data.
func IsEmpty(pd PipelineData) bool {
	if pd == nil {
		return true
	}
	_, ok := pd.(Empty)
	return ok
}

// IntoValue materializes any carrier into one value: streams are collected
// into a List, byte streams are decoded into a String (or Binary if they
// aren't text) and Empty becomes Nothing.
func IntoValue(pd PipelineData) (Value, error) {
	switch data := pd.(type) {
	case nil:
		return Nothing{}, nil
	case Empty:
		return Nothing{Loc: data.Loc}, nil
	case ValueData:
		return data.Val, nil
	case *ListStream:
		return data.Collect()
	case *ByteStream:
		return data.IntoValue()
	}
	return nil, GenericError("unknown pipeline data", pd.Span())
}

// IntoListStream exposes the elements of any carrier lazily. Lists and
// ranges are walked, byte streams become a stream of lines and any other
// value is a single element.
func IntoListStream(pd PipelineData, interrupt *Interrupt) *ListStream {
	switch data := pd.(type) {
	case nil:
		return FromValues(UnknownSpan, nil, interrupt)
	case Empty:
		return FromValues(data.Loc, nil, interrupt)
	case *ListStream:
		return data
	case *ByteStream:
		return data.Lines()
	case ValueData:
		switch v := data.Val.(type) {
		case List:
			return FromValues(v.Loc, v.Vals, interrupt)
		case Range:
			return v.Stream(interrupt)
		case Nothing:
			return FromValues(v.Loc, nil, interrupt)
		default:
			return FromValues(v.Span(), []Value{v}, interrupt)
		}
	}
	return FromValues(pd.Span(), nil, interrupt)
}

// Drain consumes and discards pd. For byte streams produced by a process
// the trailer is returned so callers can record the exit status.
func Drain(pd PipelineData) (*Trailer, error) {
	switch data := pd.(type) {
	case *ListStream:
		for {
			_, err := data.Next()
			if err == io.EOF {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
		}
	case *ByteStream:
		if _, err := io.Copy(io.Discard, data.Reader()); err != nil {
			return nil, err
		}
		trailer, err := data.Wait()
		if err != nil {
			return nil, err
		}
		if !data.HasExitStatus() {
			return nil, nil
		}
		return &trailer, nil
	}
	return nil, nil
}
