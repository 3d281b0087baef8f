package protocol

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/charmap"
)

func ExampleCoerceString() {
	b := &RecordBuilder{}
	b.Set("name", NewString("pipesh", UnknownSpan))
	b.Set("size", NewFileSize(2048, UnknownSpan))

	for _, v := range []Value{
		NewInt(42, UnknownSpan),
		NewFloat(3, UnknownSpan),
		NewFloat(2.5, UnknownSpan),
		NewBool(true, UnknownSpan),
		NewNothing(UnknownSpan),
		NewDuration(90*time.Second, UnknownSpan),
		Strings(UnknownSpan, "a", "b"),
		b.Build(UnknownSpan),
	} {
		s, _ := CoerceString(v)
		fmt.Printf("%q\n", s)
	}

	// Output: "42"
	// "3.0"
	// "2.5"
	// "true"
	// ""
	// "1m30s"
	// "[a, b]"
	// "{name: pipesh, size: 2.0 KiB}"
}

func TestFormat_binary(t *testing.T) {
	valid := NewBinary([]byte("héllo"), UnknownSpan)
	invalid := NewBinary([]byte{0xff, 0xfe, 0x00}, Span{1, 4})

	t.Run("utf-8", func(t *testing.T) {
		s, err := CoerceString(valid)
		assert.NoError(t, err)
		assert.Equal(t, "héllo", s)

		_, err = CoerceString(invalid)
		assert.True(t, errors.Is(err, ErrTypeMismatch))
	})

	t.Run("latin-1", func(t *testing.T) {
		f := Format{Encoding: charmap.ISO8859_1}
		s, err := f.String(NewBinary([]byte{0x63, 0x61, 0x66, 0xe9}, UnknownSpan))
		assert.NoError(t, err)
		assert.Equal(t, "café", s)
	})
}

func TestFormat_fileSize(t *testing.T) {
	assert.Equal(t, "1.0 KiB", DefaultFormat.FileSize(1024))
	assert.Equal(t, "1.0 kB", Format{DecimalSizes: true}.FileSize(1000))
	assert.Equal(t, "-10 B", DefaultFormat.FileSize(-10))
}
