package commands

import (
	"testing"
	"time"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInt(t *testing.T) {
	span := protocol.UnknownSpan
	cases := []struct {
		name      string
		in        protocol.Value
		radix     int
		bigEndian bool
		want      int64
		wantErr   bool
	}{
		{name: "int", in: protocol.NewInt(-4, span), radix: 10, want: -4},
		{name: "false", in: protocol.NewBool(false, span), radix: 10, want: 0},
		{name: "float truncates", in: protocol.NewFloat(-2.9, span), radix: 10, want: -2},
		{name: "float out of range", in: protocol.NewFloat(1e20, span), radix: 10, wantErr: true},
		{name: "padded string", in: protocol.NewString(" 12 ", span), radix: 10, want: 12},
		{name: "binary digits", in: protocol.NewString("1010", span), radix: 2, want: 10},
		{name: "file size text", in: protocol.NewString("1 KiB", span), radix: 10, want: 1024},
		{name: "size text only in base 10", in: protocol.NewString("1 KiB", span), radix: 16, wantErr: true},
		{name: "not a number", in: protocol.NewString("twelve", span), radix: 10, wantErr: true},
		{name: "file size", in: protocol.NewFileSize(2048, span), radix: 10, want: 2048},
		{name: "duration", in: protocol.NewDuration(time.Second, span), radix: 10, want: 1e9},
		{name: "date", in: protocol.NewDate(time.Unix(1, 5).UTC(), span), radix: 10, want: 1e9 + 5},
		{name: "little endian", in: protocol.NewBinary([]byte{1, 2}, span), radix: 10, want: 0x0201},
		{name: "big endian", in: protocol.NewBinary([]byte{1, 2}, span), radix: 10, bigEndian: true, want: 0x0102},
		{name: "binary too long", in: protocol.NewBinary(make([]byte, 9), span), radix: 10, wantErr: true},
		{name: "record", in: (&protocol.RecordBuilder{}).Build(span), radix: 10, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toInt(tc.in, tc.radix, tc.bigEndian)
			if tc.wantErr {
				assert.Equal(t, protocol.TypeMismatchKind, kindOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTrimZeros(t *testing.T) {
	assert.Equal(t, []byte{1, 0, 2}, trimZeros([]byte{1, 0, 2, 0, 0}))
	assert.Equal(t, []byte{0}, trimZeros([]byte{0, 0, 0}))
	assert.Equal(t, []byte{}, trimZeros([]byte{}))
}

func TestInto(t *testing.T) {
	f := newShell(t, nil)

	cases := map[string]protocol.Value{
		"1.23456 | into string --decimals 2":     protocol.NewString("1.23", protocol.UnknownSpan),
		"'-80' | into int --radix 16":            protocol.NewInt(-128, protocol.UnknownSpan),
		"258 | into binary -c | into int -e big": protocol.NewInt(513, protocol.UnknownSpan),
		"-1 | into binary | into int":            protocol.NewInt(-1, protocol.UnknownSpan),
		"1..3 | into string":                     protocol.Strings(protocol.UnknownSpan, "1", "2", "3"),
		"true | into binary":                     protocol.NewBinary([]byte{1}, protocol.UnknownSpan),
		"[a b] | into binary | into string":      protocol.Strings(protocol.UnknownSpan, "a", "b"),
	}
	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			got, err := f.run(src, nil)
			require.NoError(t, err)
			assert.True(t, protocol.Equal(want, got), "got %s", fmtValue(got))
		})
	}

	for _, src := range []string{
		"'1' | into int --radix 40",
		"'1' | into int --endian middle",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := f.run(src, nil)
			assert.Equal(t, protocol.ArgumentBindingKind, kindOf(t, err))
		})
	}
}
