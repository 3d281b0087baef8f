package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_StreamMatchesValue(t *testing.T) {
	text := strings.Repeat("pipesh ", 1000)

	for _, name := range []string{"hash blake2b", "hash sha3-256", "hash blake3"} {
		t.Run(name, func(t *testing.T) {
			f := newShell(t, nil)

			whole, err := f.run(name, protocol.NewValueData(protocol.NewString(text, protocol.UnknownSpan)))
			require.NoError(t, err)

			stream := protocol.NewByteStream(bytes.NewBufferString(text), protocol.UnknownSpan, f.es.Interrupt, protocol.WithChunkSize(7))
			chunked, err := f.run(name, stream)
			require.NoError(t, err)

			assert.True(t, protocol.Equal(whole, chunked), "%s != %s", fmtValue(whole), fmtValue(chunked))
		})
	}
}

func TestHash_Lists(t *testing.T) {
	f := newShell(t, nil)

	v := f.mustRun(t, "[a b] | hash sha3-256")
	list, ok := v.(protocol.List)
	require.True(t, ok)
	require.Len(t, list.Vals, 2)
	assert.NotEqual(t, list.Vals[0].(protocol.String).Val, list.Vals[1].(protocol.String).Val)

	_, err := f.run("{a: 1} | hash blake3", nil)
	assert.Equal(t, protocol.TypeMismatchKind, kindOf(t, err))
}
