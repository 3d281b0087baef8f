package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/encoding"
)

// Format controls how values are coerced to strings.
type Format struct {
	// Encoding is used to decode Binary values. Nil means UTF-8.
	Encoding encoding.Encoding
	// DecimalSizes renders file sizes with SI units instead of IEC units.
	DecimalSizes bool
	// DateLayout is the time layout for dates, RFC 3339 if empty.
	DateLayout string
}

// DefaultFormat is UTF-8 with binary file sizes.
var DefaultFormat = Format{}

// CoerceString converts a value to a string with the default format.
func CoerceString(v Value) (string, error) {
	return DefaultFormat.String(v)
}

// String converts a value into the string used for interpolation and for
// external command arguments.
func (f Format) String(v Value) (string, error) {
	switch val := v.(type) {
	case nil, Nothing:
		return "", nil
	case Bool:
		return strconv.FormatBool(val.Val), nil
	case Int:
		return strconv.FormatInt(val.Val, 10), nil
	case Float:
		return FormatFloat(val.Val), nil
	case String:
		return val.Val, nil
	case Binary:
		return f.DecodeBytes(val.Val, val.Loc)
	case Date:
		layout := f.DateLayout
		if layout == "" {
			layout = time.RFC3339
		}
		return val.Val.Format(layout), nil
	case Duration:
		return val.Val.String(), nil
	case FileSize:
		return f.FileSize(val.Val), nil
	case Range:
		return val.String(), nil
	case List:
		parts := make([]string, len(val.Vals))
		for i, item := range val.Vals {
			s, err := f.String(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case Record:
		parts := make([]string, val.Len())
		for i := range val.cols {
			s, err := f.String(val.vals[i])
			if err != nil {
				return "", err
			}
			parts[i] = val.cols[i] + ": " + s
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case Closure:
		return fmt.Sprintf("<closure %d>", val.BlockID), nil
	case Error:
		return val.Err.Error(), nil
	case Custom:
		return val.Val.String(), nil
	}
	return "", CantConvertError(TypeOf(v).String(), "string", v.Span())
}

// DecodeBytes decodes bytes under the format's encoding. It fails if the
// bytes aren't valid in that encoding.
func (f Format) DecodeBytes(b []byte, span Span) (string, error) {
	if f.Encoding == nil || f.Encoding == encoding.Nop {
		if !utf8.Valid(b) {
			return "", CantConvertError("binary", "string", span).
				WithHelp("the data is not valid UTF-8; use decode with an explicit encoding")
		}
		return string(b), nil
	}
	// Decoders substitute invalid sequences, strict mode has to be
	// checked by hand.
	out, err := f.Encoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", WrapError(TypeMismatchKind, "can't decode binary", err, span)
	}
	if strings.ContainsRune(string(out), utf8.RuneError) {
		return "", CantConvertError("binary", "string", span)
	}
	return string(out), nil
}

// FileSize renders a byte count.
func (f Format) FileSize(n int64) string {
	if n < 0 {
		return "-" + f.FileSize(-n)
	}
	if f.DecimalSizes {
		return humanize.Bytes(uint64(n))
	}
	return humanize.IBytes(uint64(n))
}

// FormatFloat renders floats so they stay distinguishable from ints.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
