package protocol

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	rec := func(kv ...interface{}) Value {
		b := &RecordBuilder{}
		for i := 0; i < len(kv); i += 2 {
			b.Set(kv[i].(string), kv[i+1].(Value))
		}
		return b.Build(UnknownSpan)
	}

	cases := map[string]struct {
		a, b  Value
		equal bool
	}{
		"spans ignored":       {NewInt(1, Span{0, 1}), NewInt(1, Span{5, 6}), true},
		"int vs float":        {NewInt(1, UnknownSpan), NewFloat(1, UnknownSpan), false},
		"strings":             {NewString("a", UnknownSpan), NewString("a", UnknownSpan), true},
		"nil is nothing":      {nil, NewNothing(UnknownSpan), true},
		"binary":              {NewBinary([]byte{1, 2}, UnknownSpan), NewBinary([]byte{1, 2}, UnknownSpan), true},
		"nested lists":        {Ints(UnknownSpan, 1, 2), Ints(Span{1, 2}, 1, 2), true},
		"list length differs": {Ints(UnknownSpan, 1, 2), Ints(UnknownSpan, 1), false},
		"records":             {rec("a", NewInt(1, UnknownSpan)), rec("a", NewInt(1, Span{3, 4})), true},
		"record order":        {rec("a", NewInt(1, UnknownSpan), "b", NewInt(2, UnknownSpan)), rec("b", NewInt(2, UnknownSpan), "a", NewInt(1, UnknownSpan)), false},
		"dates across zones": {
			NewDate(time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC), UnknownSpan),
			NewDate(time.Date(2020, 1, 1, 13, 0, 0, 0, time.FixedZone("x", 3600)), UnknownSpan),
			true,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.equal, Equal(tc.a, tc.b))
			assert.Equal(t, tc.equal, Equal(tc.b, tc.a))
		})
	}
}

func TestCompare(t *testing.T) {
	cases := map[string]struct {
		a, b Value
		want int
	}{
		"ints":                 {NewInt(1, UnknownSpan), NewInt(2, UnknownSpan), -1},
		"int and float":        {NewInt(2, UnknownSpan), NewFloat(1.5, UnknownSpan), 1},
		"nothing first":        {NewNothing(UnknownSpan), NewString("a", UnknownSpan), -1},
		"nothing last":         {NewInt(-100, UnknownSpan), NewNothing(UnknownSpan), 1},
		"strings":              {NewString("b", UnknownSpan), NewString("a", UnknownSpan), 1},
		"bools":                {NewBool(false, UnknownSpan), NewBool(true, UnknownSpan), -1},
		"filesizes":            {NewFileSize(10, UnknownSpan), NewFileSize(10, UnknownSpan), 0},
		"list prefix":          {Ints(UnknownSpan, 1), Ints(UnknownSpan, 1, 0), -1},
		"durations":            {NewDuration(time.Second, UnknownSpan), NewDuration(time.Minute, UnknownSpan), -1},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := Compare(tc.a, tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompare_NaN(t *testing.T) {
	nan := NewFloat(math.NaN(), UnknownSpan)
	cases := map[string]struct {
		a, b Value
		want int
	}{
		"nan after int":   {nan, NewInt(1, UnknownSpan), 1},
		"nan after float": {nan, NewFloat(math.Inf(1), UnknownSpan), 1},
		"number before":   {NewFloat(2, UnknownSpan), nan, -1},
		"nan with nan":    {nan, nan, 0},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := Compare(tc.a, tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompare_incomparable(t *testing.T) {
	_, err := Compare(NewString("a", Span{0, 1}), NewInt(1, Span{4, 5}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	var shellErr *ShellError
	require.True(t, errors.As(err, &shellErr))
	assert.Equal(t, Span{0, 5}, shellErr.Span)
}

type version struct{ major int }

func (v version) TypeName() string { return "version" }
func (v version) String() string   { return "v" + string(rune('0'+v.major)) }
func (v version) PartialCompare(other Value) (int, bool) {
	o, ok := other.(Custom)
	if !ok {
		return 0, false
	}
	ov, ok := o.Val.(version)
	if !ok {
		return 0, false
	}
	return cmpOrdered(v.major, ov.major), true
}

func TestCompare_custom(t *testing.T) {
	a := NewCustom(version{1}, UnknownSpan)
	b := NewCustom(version{2}, UnknownSpan)

	got, err := Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, -1, got)
	assert.True(t, Equal(a, NewCustom(version{1}, Span{1, 2})))
	assert.Equal(t, CustomType("version"), TypeOf(a))

	_, err = Compare(a, NewInt(1, UnknownSpan))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}
