package protocol

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestByteStream_IntoValue(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		got, err := ByteStreamFromString("hello", Span{1, 2}, nil).IntoValue()
		require.NoError(t, err)
		assert.Equal(t, NewString("hello", Span{1, 2}), got)
	})

	t.Run("binary fallback", func(t *testing.T) {
		got, err := ByteStreamFromBytes([]byte{0xff, 0x00}, UnknownSpan, nil).IntoValue()
		require.NoError(t, err)
		assert.Equal(t, KindBinary, got.Kind())
	})

	t.Run("declared encoding", func(t *testing.T) {
		bs := NewByteStream(strings.NewReader("caf\xe9"), UnknownSpan, nil, WithEncoding(charmap.ISO8859_1))
		got, err := bs.IntoValue()
		require.NoError(t, err)
		assert.Equal(t, NewString("café", UnknownSpan), got)
	})
}

func TestByteStream_Lines(t *testing.T) {
	bs := ByteStreamFromString("a\r\nb\n\nc", UnknownSpan, nil)

	got, err := bs.Lines().Collect()
	require.NoError(t, err)
	assert.Equal(t, Strings(UnknownSpan, "a", "b", "", "c"), got)
}

func TestByteStream_Chunks(t *testing.T) {
	bs := NewByteStream(strings.NewReader("abcdef"), UnknownSpan, nil, WithChunkSize(4))

	chunk, err := bs.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), chunk)

	chunk, err = bs.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("ef"), chunk)

	_, err = bs.Next()
	assert.Equal(t, io.EOF, err)
}

func TestByteStream_Trailer(t *testing.T) {
	waits := 0
	bs := NewByteStream(strings.NewReader("out"), UnknownSpan, nil,
		WithSource(SourceProcess, "false"),
		WithTrailer(func() (Trailer, error) {
			waits++
			return Trailer{ExitStatus: ExitStatus{Code: 1}}, nil
		}))

	assert.True(t, bs.HasExitStatus())
	trailer, err := Drain(bs)
	require.NoError(t, err)
	require.NotNil(t, trailer)
	assert.Equal(t, 1, trailer.ExitStatus.Code)
	assert.False(t, trailer.ExitStatus.Success())

	_, err = bs.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, waits)
}

func TestByteStream_Interrupt(t *testing.T) {
	interrupt := NewInterrupt()
	stopped := false
	bs := NewByteStream(strings.NewReader(strings.Repeat("x", 100)), UnknownSpan, interrupt,
		WithChunkSize(10),
		WithStop(func() { stopped = true }))

	_, err := bs.Next()
	require.NoError(t, err)

	interrupt.Trigger()
	_, err = bs.Next()
	assert.True(t, errors.Is(err, ErrInterrupted))
	assert.True(t, stopped)
}
