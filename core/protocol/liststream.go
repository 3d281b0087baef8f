package protocol

import (
	"io"
)

// ListStream is a single-pass, possibly infinite, lazy sequence of values.
// Elements are produced on demand by pulling with Next; a stream is owned by
// whoever is pulling from it and must not be shared.
type ListStream struct {
	next      func() (Value, error)
	closers   []func()
	span      Span
	interrupt *Interrupt
	done      bool
	err       error
}

// NewListStream creates a stream from a producer. The producer returns
// io.EOF once it has no more values and is never called again after it
// returns an error.
func NewListStream(span Span, interrupt *Interrupt, next func() (Value, error)) *ListStream {
	return &ListStream{next: next, span: span, interrupt: interrupt}
}

// FromValues streams a fixed slice.
func FromValues(span Span, vals []Value, interrupt *Interrupt) *ListStream {
	i := 0
	return NewListStream(span, interrupt, func() (Value, error) {
		if i >= len(vals) {
			return nil, io.EOF
		}
		v := vals[i]
		i++
		return v, nil
	})
}

// Span is the location of the code that created the stream.
func (s *ListStream) Span() Span {
	return s.span
}

// Interrupt returns the interrupt the stream observes.
func (s *ListStream) Interrupt() *Interrupt {
	return s.interrupt
}

// OnClose registers fn to run once the stream is exhausted or closed.
func (s *ListStream) OnClose(fn func()) *ListStream {
	s.closers = append(s.closers, fn)
	return s
}

// Next pulls the next element. It returns io.EOF at the end of the stream
// and an Interrupted error, without pulling, if the interrupt was raised.
func (s *ListStream) Next() (Value, error) {
	if s.done {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	if err := s.interrupt.Check(s.span); err != nil {
		s.finish(err)
		return nil, err
	}

	v, err := s.next()
	if err != nil {
		if err == io.EOF {
			s.finish(nil)
		} else {
			s.finish(err)
		}
		return nil, err
	}
	return v, nil
}

// Close stops the stream early, releasing whatever produces it.
func (s *ListStream) Close() {
	if !s.done {
		s.finish(nil)
	}
}

func (s *ListStream) finish(err error) {
	s.done = true
	s.err = err
	closers := s.closers
	s.closers = nil
	for _, c := range closers {
		c()
	}
}

// Collect pulls every element into a List value.
func (s *ListStream) Collect() (Value, error) {
	var vals []Value
	for {
		v, err := s.Next()
		if err == io.EOF {
			return List{Vals: vals, Loc: s.span}, nil
		}
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
}

// Each calls fn for every element until the stream ends or fn fails.
func (s *ListStream) Each(fn func(Value) error) error {
	for {
		v, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			s.Close()
			return err
		}
	}
}

// Map lazily transforms each element.
func (s *ListStream) Map(fn func(Value) (Value, error)) *ListStream {
	out := NewListStream(s.span, s.interrupt, func() (Value, error) {
		v, err := s.Next()
		if err != nil {
			return nil, err
		}
		return fn(v)
	})
	return out.OnClose(s.Close)
}

// FilterMap lazily transforms elements, dropping those where keep is false.
func (s *ListStream) FilterMap(fn func(Value) (out Value, keep bool, err error)) *ListStream {
	out := NewListStream(s.span, s.interrupt, func() (Value, error) {
		for {
			v, err := s.Next()
			if err != nil {
				return nil, err
			}
			mapped, keep, err := fn(v)
			if err != nil {
				return nil, err
			}
			if keep {
				return mapped, nil
			}
		}
	})
	return out.OnClose(s.Close)
}

// Filter lazily keeps elements matching pred.
func (s *ListStream) Filter(pred func(Value) (bool, error)) *ListStream {
	return s.FilterMap(func(v Value) (Value, bool, error) {
		keep, err := pred(v)
		return v, keep, err
	})
}

// Take yields at most n elements, never pulling the n+1th from upstream.
func (s *ListStream) Take(n int) *ListStream {
	taken := 0
	out := NewListStream(s.span, s.interrupt, func() (Value, error) {
		if taken >= n {
			s.Close()
			return nil, io.EOF
		}
		v, err := s.Next()
		if err != nil {
			return nil, err
		}
		taken++
		return v, nil
	})
	return out.OnClose(s.Close)
}

// Skip drops the first n elements.
func (s *ListStream) Skip(n int) *ListStream {
	skipped := false
	out := NewListStream(s.span, s.interrupt, func() (Value, error) {
		if !skipped {
			skipped = true
			for i := 0; i < n; i++ {
				if _, err := s.Next(); err != nil {
					return nil, err
				}
			}
		}
		return s.Next()
	})
	return out.OnClose(s.Close)
}
