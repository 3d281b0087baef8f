package commands

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/josephlewis42/pipesh/core/protocol"
)

// nativeEncoder converts values into plain Go data for a serializer.
// Each format decides how records, binary data and dates are represented.
type nativeEncoder struct {
	format    string
	interrupt *protocol.Interrupt
	record    func(cols []string, vals []any) any
	binary    func(b []byte) any
	date      func(t time.Time) any
	float     func(f float64) any
	// nothing, if set, is called for Nothing values the format can't hold.
	nothing func(span protocol.Span) error
}

func (e *nativeEncoder) native(v protocol.Value) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case protocol.Nothing:
		if e.nothing != nil {
			return nil, e.nothing(val.Loc)
		}
		return nil, nil
	case protocol.Bool:
		return val.Val, nil
	case protocol.Int:
		return val.Val, nil
	case protocol.Float:
		if e.float != nil {
			return e.float(val.Val), nil
		}
		return val.Val, nil
	case protocol.String:
		return val.Val, nil
	case protocol.FileSize:
		return val.Val, nil
	case protocol.Duration:
		return int64(val.Val), nil
	case protocol.Date:
		if e.date != nil {
			return e.date(val.Val), nil
		}
		return val.Val.Format(time.RFC3339Nano), nil
	case protocol.Binary:
		if e.binary != nil {
			return e.binary(val.Val), nil
		}
		out := make([]any, len(val.Val))
		for i, b := range val.Val {
			out[i] = int64(b)
		}
		return out, nil
	case protocol.Range:
		if val.Open {
			return nil, protocol.CantConvertError("unbounded range", e.format, val.Loc)
		}
		list, err := val.Stream(e.interrupt).Collect()
		if err != nil {
			return nil, err
		}
		return e.native(list)
	case protocol.List:
		out := make([]any, len(val.Vals))
		for i, item := range val.Vals {
			n, err := e.native(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case protocol.Record:
		cols := val.Columns()
		vals := make([]any, len(cols))
		for i, item := range val.Values() {
			n, err := e.native(item)
			if err != nil {
				return nil, err
			}
			vals[i] = n
		}
		if e.record != nil {
			return e.record(cols, vals), nil
		}
		m := make(map[string]any, len(cols))
		for i, col := range cols {
			m[col] = vals[i]
		}
		return m, nil
	}
	return nil, protocol.CantConvertError(protocol.TypeOf(v).String(), e.format, v.Span())
}

// fromNative converts decoded Go data into a value. Map keys are sorted
// since Go maps don't keep the order of the source.
func fromNative(format string, x any, span protocol.Span) (protocol.Value, error) {
	switch val := x.(type) {
	case nil:
		return protocol.NewNothing(span), nil
	case bool:
		return protocol.NewBool(val, span), nil
	case int:
		return protocol.NewInt(int64(val), span), nil
	case int8:
		return protocol.NewInt(int64(val), span), nil
	case int16:
		return protocol.NewInt(int64(val), span), nil
	case int32:
		return protocol.NewInt(int64(val), span), nil
	case int64:
		return protocol.NewInt(val, span), nil
	case uint:
		return fromUint(uint64(val), span), nil
	case uint8:
		return protocol.NewInt(int64(val), span), nil
	case uint16:
		return protocol.NewInt(int64(val), span), nil
	case uint32:
		return protocol.NewInt(int64(val), span), nil
	case uint64:
		return fromUint(val, span), nil
	case float32:
		return protocol.NewFloat(float64(val), span), nil
	case float64:
		return protocol.NewFloat(val, span), nil
	case string:
		return protocol.NewString(val, span), nil
	case []byte:
		return protocol.NewBinary(val, span), nil
	case time.Time:
		return protocol.NewDate(val, span), nil
	case fmt.Stringer:
		return protocol.NewString(val.String(), span), nil
	case []any:
		out := make([]protocol.Value, len(val))
		for i, item := range val {
			v, err := fromNative(format, item, span)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return protocol.NewList(out, span), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b := &protocol.RecordBuilder{}
		for _, k := range keys {
			v, err := fromNative(format, val[k], span)
			if err != nil {
				return nil, err
			}
			b.Set(k, v)
		}
		return b.Build(span), nil
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = item
		}
		return fromNative(format, m, span)
	}
	return nil, protocol.ParseError(format, fmt.Errorf("unsupported value of type %T", x), span)
}

// fromUint keeps values past the int range as floats.
func fromUint(n uint64, span protocol.Span) protocol.Value {
	if n > math.MaxInt64 {
		return protocol.NewFloat(float64(n), span)
	}
	return protocol.NewInt(int64(n), span)
}

// textInput reads the input of a from command as text.
func textInput(name string, input protocol.PipelineData) (string, protocol.Span, error) {
	if bs, ok := input.(*protocol.ByteStream); ok {
		s, err := bs.IntoString()
		return s, bs.Span(), err
	}
	v, err := protocol.IntoValue(input)
	if err != nil {
		return "", input.Span(), err
	}
	s, ok := v.(protocol.String)
	if !ok {
		return "", v.Span(), protocol.UnsupportedInputError(name, protocol.TypeOf(v), v.Span())
	}
	return s.Val, s.Loc, nil
}

// binaryInput reads the input of a from command as bytes.
func binaryInput(name string, input protocol.PipelineData) ([]byte, protocol.Span, error) {
	v, err := intoInput(input, true)
	if err != nil {
		return nil, input.Span(), err
	}
	b, ok := v.(protocol.Binary)
	if !ok {
		return nil, v.Span(), protocol.UnsupportedInputError(name, protocol.TypeOf(v), v.Span())
	}
	return b.Val, b.Loc, nil
}
