package protocol

import "fmt"

// Record maps unique string keys to values in insertion order. Records are
// immutable; the methods that "change" a record return a new one.
type Record struct {
	cols []string
	vals []Value
	Loc  Span
}

// NewRecord creates a record from parallel column and value slices.
// It fails if a column appears twice.
func NewRecord(cols []string, vals []Value, span Span) (Record, error) {
	if len(cols) != len(vals) {
		return Record{}, GenericError(
			fmt.Sprintf("record has %d columns but %d values", len(cols), len(vals)), span)
	}
	seen := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, ok := seen[c]; ok {
			return Record{}, ColumnDefinedTwiceError(c, span, span)
		}
		seen[c] = i
	}
	return Record{
		cols: append([]string(nil), cols...),
		vals: append([]Value(nil), vals...),
		Loc:  span,
	}, nil
}

// RecordBuilder accumulates columns for a new record.
type RecordBuilder struct {
	cols []string
	vals []Value
	idx  map[string]int
}

// Set adds a column or replaces the value of an existing one in place.
func (b *RecordBuilder) Set(col string, val Value) *RecordBuilder {
	if b.idx == nil {
		b.idx = make(map[string]int)
	}
	if i, ok := b.idx[col]; ok {
		b.vals[i] = val
		return b
	}
	b.idx[col] = len(b.cols)
	b.cols = append(b.cols, col)
	b.vals = append(b.vals, val)
	return b
}

// Has returns true if the column was already set.
func (b *RecordBuilder) Has(col string) bool {
	_, ok := b.idx[col]
	return ok
}

// Len returns the number of columns set so far.
func (b *RecordBuilder) Len() int {
	return len(b.cols)
}

// Build returns the record. The builder must not be used afterwards.
func (b *RecordBuilder) Build(span Span) Record {
	return Record{cols: b.cols, vals: b.vals, Loc: span}
}

// Len is the number of columns.
func (r Record) Len() int {
	return len(r.cols)
}

// Columns returns a copy of the column names in order.
func (r Record) Columns() []string {
	return append([]string(nil), r.cols...)
}

// Values returns a copy of the values in column order.
func (r Record) Values() []Value {
	return append([]Value(nil), r.vals...)
}

// At returns the i-th column and value.
func (r Record) At(i int) (string, Value) {
	return r.cols[i], r.vals[i]
}

// Get looks up a column.
func (r Record) Get(col string) (Value, bool) {
	for i, c := range r.cols {
		if c == col {
			return r.vals[i], true
		}
	}
	return nil, false
}

// With returns a copy of the record with the column set. Existing columns
// keep their position.
func (r Record) With(col string, val Value) Record {
	out := Record{Loc: r.Loc}
	out.cols = append([]string(nil), r.cols...)
	out.vals = append([]Value(nil), r.vals...)
	for i, c := range out.cols {
		if c == col {
			out.vals[i] = val
			return out
		}
	}
	out.cols = append(out.cols, col)
	out.vals = append(out.vals, val)
	return out
}

// Without returns a copy of the record with the given columns removed.
func (r Record) Without(cols ...string) Record {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	out := Record{Loc: r.Loc}
	for i, c := range r.cols {
		if drop[c] {
			continue
		}
		out.cols = append(out.cols, c)
		out.vals = append(out.vals, r.vals[i])
	}
	return out
}
