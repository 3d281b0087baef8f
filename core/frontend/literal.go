package frontend

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/josephlewis42/pipesh/core/protocol"
)

var durationUnits = map[string]time.Duration{
	"ns":  time.Nanosecond,
	"us":  time.Microsecond,
	"ms":  time.Millisecond,
	"sec": time.Second,
	"min": time.Minute,
	"hr":  time.Hour,
	"day": 24 * time.Hour,
	"wk":  7 * 24 * time.Hour,
}

// guessLiteral reads a bare word the way it would be typed at a prompt:
// numbers, booleans, null, ranges, durations and file sizes are recognized
// and anything else is a string.
func guessLiteral(text string, span protocol.Span) protocol.Value {
	switch text {
	case "true":
		return protocol.NewBool(true, span)
	case "false":
		return protocol.NewBool(false, span)
	case "null":
		return protocol.NewNothing(span)
	}

	if !looksNumeric(text) {
		return protocol.NewString(text, span)
	}
	if v, ok := parseNumber(text, span); ok {
		return v
	}
	if v, ok := parseRange(text, span); ok {
		return v
	}
	if v, ok := parseDuration(text, span); ok {
		return v
	}
	if v, ok := parseFileSize(text, span); ok {
		return v
	}
	return protocol.NewString(text, span)
}

// typedLiteral reads a bare word given to a parameter of type t. Words
// that don't fit t are guessed so the binder reports the mismatch.
func typedLiteral(text string, t protocol.Type, span protocol.Span) protocol.Value {
	switch t.Kind {
	case protocol.TypeString:
		return protocol.NewString(text, span)
	case protocol.TypeCellPath:
		if n, err := strconv.Atoi(text); err == nil && n >= 0 {
			return protocol.NewInt(int64(n), span)
		}
		return protocol.NewString(text, span)
	}
	return guessLiteral(text, span)
}

func looksNumeric(text string) bool {
	s := strings.TrimLeft(text, "+-")
	if s == "" {
		return false
	}
	if s[0] == '.' && len(s) > 1 {
		return unicode.IsDigit(rune(s[1]))
	}
	return unicode.IsDigit(rune(s[0]))
}

func isNegativeNumber(text string) bool {
	if !strings.HasPrefix(text, "-") || !looksNumeric(text) {
		return false
	}
	_, ok := parseNumber(text, protocol.UnknownSpan)
	return ok
}

func parseNumber(text string, span protocol.Span) (protocol.Value, bool) {
	clean := strings.ReplaceAll(text, "_", "")
	unsigned := strings.TrimLeft(clean, "+-")
	base := 10
	if len(unsigned) > 2 && unsigned[0] == '0' {
		switch unsigned[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			base = 0
		}
	}
	if n, err := strconv.ParseInt(clean, base, 64); err == nil {
		return protocol.NewInt(n, span), true
	}
	if base == 10 {
		if f, err := strconv.ParseFloat(clean, 64); err == nil {
			return protocol.NewFloat(f, span), true
		}
	}
	return nil, false
}

// parseRange reads start..end, start..<end and the open start.. form.
func parseRange(text string, span protocol.Span) (protocol.Value, bool) {
	idx := strings.Index(text, "..")
	if idx <= 0 {
		return nil, false
	}
	start, err := strconv.ParseInt(text[:idx], 10, 64)
	if err != nil {
		return nil, false
	}
	rest := text[idx+2:]
	if rest == "" {
		return protocol.NewOpenRange(start, 1, span), true
	}
	exclusive := strings.HasPrefix(rest, "<")
	end, err := strconv.ParseInt(strings.TrimPrefix(rest, "<"), 10, 64)
	if err != nil {
		return nil, false
	}
	r, err := protocol.NewRange(start, end, 0, span)
	if err != nil {
		return nil, false
	}
	r.Inclusive = !exclusive
	return r, true
}

func parseDuration(text string, span protocol.Span) (protocol.Value, bool) {
	i := strings.IndexFunc(text, unicode.IsLetter)
	if i <= 0 {
		return nil, false
	}
	unit, ok := durationUnits[text[i:]]
	if !ok {
		return nil, false
	}
	n, err := strconv.ParseFloat(text[:i], 64)
	if err != nil {
		return nil, false
	}
	return protocol.NewDuration(time.Duration(n*float64(unit)), span), true
}

func parseFileSize(text string, span protocol.Span) (protocol.Value, bool) {
	if !strings.HasSuffix(strings.ToLower(text), "b") {
		return nil, false
	}
	n, err := humanize.ParseBytes(text)
	if err != nil {
		return nil, false
	}
	return protocol.NewFileSize(int64(n), span), true
}

// unquote strips the quotes of a quoted token. Double quoted strings
// understand Go escapes.
func unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	if text[0] == '"' {
		if s, err := strconv.Unquote(text); err == nil {
			return s
		}
	}
	return text[1 : len(text)-1]
}
