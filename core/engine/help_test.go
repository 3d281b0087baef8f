package engine

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFullHelp(t *testing.T) {
	for _, name := range []string{"upper", "first"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			cmd, ok := f.es.FindCommand(name)
			require.True(t, ok)

			g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
			g.Assert(t, name, []byte(GetFullHelp(f.es, cmd)))
		})
	}
}

func TestFlagSet(t *testing.T) {
	f := newFixture(t)
	cmd, _ := f.es.FindCommand("upper")

	set, values, switches := FlagSet(cmd.Signature())
	require.NoError(t, set.Getopt([]string{"upper", "-t", "--times=3", "rest"}, nil))

	assert.True(t, *switches["trim"])
	assert.False(t, *switches["help"])
	assert.Equal(t, "3", *values["times"])
	assert.Equal(t, []string{"rest"}, set.Args())
}

func TestUsageLine(t *testing.T) {
	f := newFixture(t)

	cases := map[string]string{
		"numbers": "numbers {flags} <n>",
		"do":      "do {flags} <closure> ...args",
		"break":   "break {flags}",
	}
	for name, want := range cases {
		cmd, ok := f.es.FindCommand(name)
		require.True(t, ok)
		assert.Equal(t, want, usageLine(cmd.Signature()), name)
	}
}
