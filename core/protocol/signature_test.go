package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_Flags(t *testing.T) {
	sig := NewSignature("demo").
		Switch("verbose", 'v', "talk more").
		Named("indent", IntType, 'i', "indent width").
		NamedDefault("sep", StringType, 0, NewString(",", UnknownSpan), "separator")

	var longs []string
	for _, f := range sig.Flags {
		longs = append(longs, f.Long)
	}
	assert.Equal(t, []string{HelpFlag, "verbose", "indent", "sep"}, longs)

	cases := map[string]struct {
		name     string
		long     string
		isSwitch bool
	}{
		"long switch":  {"--verbose", "verbose", true},
		"short switch": {"-v", "verbose", true},
		"short named":  {"i", "indent", false},
		"help":         {"-h", HelpFlag, true},
	}
	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f, ok := sig.FindFlag(tc.name)
			require.True(t, ok)
			assert.Equal(t, tc.long, f.Long)
			assert.Equal(t, tc.isSwitch, f.IsSwitch())
		})
	}

	f, ok := sig.FindFlag("sep")
	require.True(t, ok)
	assert.Equal(t, IntType.Kind, (*sig.Flags[2].Type).Kind)
	assert.True(t, Equal(NewString(",", UnknownSpan), f.Default))

	_, ok = sig.FindFlag("missing")
	assert.False(t, ok)
}

func TestSignature_OutputsFor(t *testing.T) {
	sig := NewSignature("demo").
		IO(StringType, IntType).
		IO(AnyType, StringType)

	outs, ok := sig.OutputsFor(StringType)
	require.True(t, ok)
	assert.Len(t, outs, 2)

	outs, ok = NewSignature("open").OutputsFor(IntType)
	require.True(t, ok)
	assert.Equal(t, []Type{AnyType}, outs)

	_, ok = NewSignature("narrow").IO(StringType, StringType).OutputsFor(IntType)
	assert.False(t, ok)
}
