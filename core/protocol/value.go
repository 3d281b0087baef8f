package protocol

import (
	"time"
)

// Kind identifies which member of the closed value union a Value is.
type Kind int

const (
	KindNothing Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindDate
	KindDuration
	KindFileSize
	KindRange
	KindList
	KindRecord
	KindClosure
	KindError
	KindCustom
)

var kindNames = map[Kind]string{
	KindNothing:  "nothing",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindBinary:   "binary",
	KindDate:     "date",
	KindDuration: "duration",
	KindFileSize: "filesize",
	KindRange:    "range",
	KindList:     "list",
	KindRecord:   "record",
	KindClosure:  "closure",
	KindError:    "error",
	KindCustom:   "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a single structured unit of data. The set of implementations is
// closed; extension kinds go through Custom.
type Value interface {
	Kind() Kind
	// Span returns where the value came from. It never affects equality.
	Span() Span
	// WithSpan returns a copy of the value pointing at a different location.
	WithSpan(Span) Value

	isValue()
}

type Nothing struct {
	Loc Span
}

type Bool struct {
	Val bool
	Loc Span
}

type Int struct {
	Val int64
	Loc Span
}

type Float struct {
	Val float64
	Loc Span
}

type String struct {
	Val string
	Loc Span
}

// Binary holds raw bytes. The slice must not be modified once the value is
// constructed.
type Binary struct {
	Val []byte
	Loc Span
}

// Date is a timestamp with its own zone offset.
type Date struct {
	Val time.Time
	Loc Span
}

// Duration is a signed number of nanoseconds.
type Duration struct {
	Val time.Duration
	Loc Span
}

// FileSize is a signed number of bytes.
type FileSize struct {
	Val int64
	Loc Span
}

// List is an immutable ordered sequence of values.
type List struct {
	Vals []Value
	Loc  Span
}

// Closure references a compiled block plus the variables it captured when
// it was created.
type Closure struct {
	BlockID  int
	Captures []Capture
	Loc      Span
}

// Capture is one variable binding captured by a closure.
type Capture struct {
	Name  string
	Value Value
}

// Error carries a failure as ordinary data.
type Error struct {
	Err *ShellError
	Loc Span
}

// Custom wraps an extension value.
type Custom struct {
	Val CustomValue
	Loc Span
}

// CustomValue is the capability set an extension value kind must provide.
type CustomValue interface {
	// TypeName is the name shown by describe and used in signatures.
	TypeName() string
	// String renders the value for display and interpolation.
	String() string
	// PartialCompare orders the value against another value. ok is false if
	// the two values can't be compared.
	PartialCompare(other Value) (cmp int, ok bool)
}

func (Nothing) Kind() Kind  { return KindNothing }
func (Bool) Kind() Kind     { return KindBool }
func (Int) Kind() Kind      { return KindInt }
func (Float) Kind() Kind    { return KindFloat }
func (String) Kind() Kind   { return KindString }
func (Binary) Kind() Kind   { return KindBinary }
func (Date) Kind() Kind     { return KindDate }
func (Duration) Kind() Kind { return KindDuration }
func (FileSize) Kind() Kind { return KindFileSize }
func (Range) Kind() Kind    { return KindRange }
func (List) Kind() Kind     { return KindList }
func (Record) Kind() Kind   { return KindRecord }
func (Closure) Kind() Kind  { return KindClosure }
func (Error) Kind() Kind    { return KindError }
func (Custom) Kind() Kind   { return KindCustom }

func (v Nothing) Span() Span  { return v.Loc }
func (v Bool) Span() Span     { return v.Loc }
func (v Int) Span() Span      { return v.Loc }
func (v Float) Span() Span    { return v.Loc }
func (v String) Span() Span   { return v.Loc }
func (v Binary) Span() Span   { return v.Loc }
func (v Date) Span() Span     { return v.Loc }
func (v Duration) Span() Span { return v.Loc }
func (v FileSize) Span() Span { return v.Loc }
func (v Range) Span() Span    { return v.Loc }
func (v List) Span() Span     { return v.Loc }
func (v Record) Span() Span   { return v.Loc }
func (v Closure) Span() Span  { return v.Loc }
func (v Error) Span() Span    { return v.Loc }
func (v Custom) Span() Span   { return v.Loc }

func (v Nothing) WithSpan(s Span) Value  { v.Loc = s; return v }
func (v Bool) WithSpan(s Span) Value     { v.Loc = s; return v }
func (v Int) WithSpan(s Span) Value      { v.Loc = s; return v }
func (v Float) WithSpan(s Span) Value    { v.Loc = s; return v }
func (v String) WithSpan(s Span) Value   { v.Loc = s; return v }
func (v Binary) WithSpan(s Span) Value   { v.Loc = s; return v }
func (v Date) WithSpan(s Span) Value     { v.Loc = s; return v }
func (v Duration) WithSpan(s Span) Value { v.Loc = s; return v }
func (v FileSize) WithSpan(s Span) Value { v.Loc = s; return v }
func (v Range) WithSpan(s Span) Value    { v.Loc = s; return v }
func (v List) WithSpan(s Span) Value     { v.Loc = s; return v }
func (v Record) WithSpan(s Span) Value   { v.Loc = s; return v }
func (v Closure) WithSpan(s Span) Value  { v.Loc = s; return v }
func (v Error) WithSpan(s Span) Value    { v.Loc = s; return v }
func (v Custom) WithSpan(s Span) Value   { v.Loc = s; return v }

func (Nothing) isValue()  {}
func (Bool) isValue()     {}
func (Int) isValue()      {}
func (Float) isValue()    {}
func (String) isValue()   {}
func (Binary) isValue()   {}
func (Date) isValue()     {}
func (Duration) isValue() {}
func (FileSize) isValue() {}
func (Range) isValue()    {}
func (List) isValue()     {}
func (Record) isValue()   {}
func (Closure) isValue()  {}
func (Error) isValue()    {}
func (Custom) isValue()   {}

// Constructors, mostly for readability at call sites.

func NewNothing(span Span) Value             { return Nothing{Loc: span} }
func NewBool(b bool, span Span) Value        { return Bool{Val: b, Loc: span} }
func NewInt(i int64, span Span) Value        { return Int{Val: i, Loc: span} }
func NewFloat(f float64, span Span) Value    { return Float{Val: f, Loc: span} }
func NewString(s string, span Span) Value    { return String{Val: s, Loc: span} }
func NewBinary(b []byte, span Span) Value    { return Binary{Val: b, Loc: span} }
func NewDate(t time.Time, span Span) Value   { return Date{Val: t, Loc: span} }
func NewFileSize(n int64, span Span) Value   { return FileSize{Val: n, Loc: span} }
func NewList(vals []Value, span Span) Value  { return List{Vals: vals, Loc: span} }
func NewError(err *ShellError, span Span) Value {
	return Error{Err: err, Loc: span}
}
func NewCustom(c CustomValue, span Span) Value { return Custom{Val: c, Loc: span} }

func NewDuration(d time.Duration, span Span) Value {
	return Duration{Val: d, Loc: span}
}

// Strings builds a list of string values.
func Strings(span Span, strs ...string) Value {
	out := make([]Value, len(strs))
	for i, s := range strs {
		out[i] = NewString(s, span)
	}
	return NewList(out, span)
}

// Ints builds a list of int values.
func Ints(span Span, ints ...int64) Value {
	out := make([]Value, len(ints))
	for i, n := range ints {
		out[i] = NewInt(n, span)
	}
	return NewList(out, span)
}

// IsNothing returns true if v is nil or the Nothing kind.
func IsNothing(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Nothing)
	return ok
}

// IsScalar returns true for kinds that have a natural single-line string form.
func IsScalar(v Value) bool {
	switch v.Kind() {
	case KindList, KindRecord, KindClosure, KindError:
		return false
	default:
		return true
	}
}
