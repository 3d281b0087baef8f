package commands

import (
	"testing"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/stretchr/testify/assert"
)

func TestDecodeEncode(t *testing.T) {
	cases := map[string]struct {
		src  string
		want protocol.Value
	}{
		"default encoding round trip": {"'héllo' | encode | decode", protocol.NewString("héllo", protocol.UnknownSpan)},
		"default encoding is utf-8":   {"'é' | encode | length", protocol.NewInt(2, protocol.UnknownSpan)},
		"named encoding":              {"'é' | encode iso-8859-1 | length", protocol.NewInt(1, protocol.UnknownSpan)},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f := newShell(t, nil)
			got := f.mustRun(t, tc.src)
			assert.True(t, protocol.Equal(tc.want, got), "got %s", fmtValue(got))
		})
	}
}

func TestDecodeEncode_Errors(t *testing.T) {
	f := newShell(t, nil)

	_, err := f.run("'x' | encode no-such-charset", nil)
	assert.Equal(t, protocol.ArgumentBindingKind, kindOf(t, err))

	_, err = f.run("'中' | encode iso-8859-1", nil)
	assert.Equal(t, protocol.TypeMismatchKind, kindOf(t, err))
}
