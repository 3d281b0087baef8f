package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	rec := (&RecordBuilder{}).Set("a", NewInt(1, UnknownSpan)).Build(UnknownSpan)

	cases := map[string]struct {
		val  Value
		want string
	}{
		"int list":   {Ints(UnknownSpan, 1, 2), "list<int>"},
		"mixed list": {NewList([]Value{NewInt(1, UnknownSpan), NewString("a", UnknownSpan)}, UnknownSpan), "list<any>"},
		"empty list": {NewList(nil, UnknownSpan), "list<any>"},
		"table":      {NewList([]Value{rec, rec}, UnknownSpan), "table"},
		"record":     {rec, "record"},
		"nothing":    {nil, "nothing"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, TypeOf(tc.val).String())
		})
	}
}

func TestType_IsSubtype(t *testing.T) {
	cases := []struct {
		sub, super Type
		want       bool
	}{
		{IntType, AnyType, true},
		{IntType, NumberType, true},
		{FloatType, NumberType, true},
		{StringType, NumberType, false},
		{ByteStreamType, StringType, true},
		{ByteStreamType, BinaryType, true},
		{ByteStreamType, ListOf(TypeAny), false},
		{ListOf(TypeInt), ListOf(TypeAny), true},
		{ListOf(TypeInt), ListOf(TypeNumber), true},
		{ListOf(TypeAny), ListOf(TypeInt), false},
		{TableType, ListOf(TypeAny), true},
		{ListOf(TypeRecord), TableType, true},
		{NothingType, ListOf(TypeAny), false},
		{CustomType("version"), CustomType(""), true},
		{RangeType, ListOf(TypeInt), true},
		{RangeType, ListOf(TypeNumber), true},
		{RangeType, ListOf(TypeString), false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.sub.IsSubtype(tc.super), "%s <: %s", tc.sub, tc.super)
	}
}

func TestType_Compatible(t *testing.T) {
	assert.True(t, AnyType.Compatible(StringType))
	assert.True(t, ListOf(TypeAny).Compatible(ListOf(TypeInt)))
	assert.True(t, ListOf(TypeAny).Compatible(TableType))
	assert.False(t, ListOf(TypeAny).Compatible(StringType))
	assert.False(t, NothingType.Compatible(StringType))
}

func TestSignature_OutputsForTypes(t *testing.T) {
	sig := NewSignature("sum").
		IO(ListOf(TypeNumber), NumberType).
		IO(RangeType, IntType)

	outs, ok := sig.OutputsFor(ListOf(TypeInt))
	assert.True(t, ok)
	assert.Equal(t, []Type{NumberType}, outs)

	outs, ok = sig.OutputsFor(RangeType)
	assert.True(t, ok)
	assert.Equal(t, []Type{NumberType, IntType}, outs)

	_, ok = sig.OutputsFor(StringType)
	assert.False(t, ok)

	outs, ok = NewSignature("anything").OutputsFor(StringType)
	assert.True(t, ok)
	assert.Equal(t, []Type{AnyType}, outs)
}

func TestParseType(t *testing.T) {
	for _, in := range []string{"int", "list<string>", "table", "bytestream", "any"} {
		got, err := ParseType(in)
		require.NoError(t, err)
		assert.Equal(t, in, got.String())
	}

	_, err := ParseType("widget")
	assert.Error(t, err)
}

func TestRecord(t *testing.T) {
	_, err := NewRecord([]string{"a", "a"}, []Value{NewInt(1, UnknownSpan), NewInt(2, UnknownSpan)}, UnknownSpan)
	assert.Error(t, err)

	r, err := NewRecord([]string{"a", "b"}, []Value{NewInt(1, UnknownSpan), NewInt(2, UnknownSpan)}, UnknownSpan)
	require.NoError(t, err)

	updated := r.With("a", NewInt(10, UnknownSpan)).With("c", NewInt(3, UnknownSpan))
	assert.Equal(t, []string{"a", "b", "c"}, updated.Columns())
	assert.Equal(t, []string{"a", "b"}, r.Columns(), "original is untouched")

	got, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, NewInt(1, UnknownSpan), got)

	assert.Equal(t, []string{"b"}, r.Without("a").Columns())
}

func TestFollowCellPath(t *testing.T) {
	row := func(name string) Value {
		return (&RecordBuilder{}).Set("name", NewString(name, UnknownSpan)).Build(UnknownSpan)
	}
	table := NewList([]Value{row("a"), row("b")}, UnknownSpan)
	doc := (&RecordBuilder{}).Set("items", table).Build(UnknownSpan)

	got, err := FollowCellPath(doc, ParseCellPath("items.1.name", UnknownSpan))
	require.NoError(t, err)
	assert.Equal(t, NewString("b", UnknownSpan), got)

	got, err = FollowCellPath(doc, ParseCellPath("items.name", UnknownSpan))
	require.NoError(t, err)
	assert.Equal(t, Strings(UnknownSpan, "a", "b"), got)

	_, err = FollowCellPath(doc, ParseCellPath("missing", UnknownSpan))
	assert.Error(t, err)

	got, err = FollowCellPath(doc, ParseCellPath("missing?", UnknownSpan))
	require.NoError(t, err)
	assert.True(t, IsNothing(got))
}
