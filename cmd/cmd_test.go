package cmd

import (
	"bytes"
	"testing"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetErr(&errOut)

	s, err := newSession(c, engine.WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	return s, &out, &errOut
}

func TestSession_Eval(t *testing.T) {
	cases := []struct {
		src, want string
	}{
		{"echo 1 2 3", "1\n2\n3\n"},
		{"[1 2] | to json --raw", "[1,2]\n"},
		{"seq 1 3 | each {|x| $x * 2 }", "2\n4\n6\n"},
		{"echo", ""},
		{"'a' | into binary", "a\n"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			s, out, errOut := newTestSession(t)
			require.NoError(t, s.eval("test", tc.src))
			assert.Equal(t, tc.want, out.String())
			assert.Empty(t, errOut.String())
		})
	}
}

func TestSession_EvalError(t *testing.T) {
	s, out, errOut := newTestSession(t)

	err := s.eval("test", "echo 1 | no-such-command-here")
	require.Error(t, err)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "no-such-command-here")
}

func TestSession_ExitCode(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.Equal(t, 0, s.exitCode())

	s.stack.Env().Setenv(engine.EnvLastExitCode, "3")
	assert.Equal(t, 3, s.exitCode())
}

func TestSession_Prompt(t *testing.T) {
	s, _, _ := newTestSession(t)
	env := s.stack.Env()
	env.Setenv(engine.EnvHome, "/home/user")
	env.Setenv(engine.EnvPwd, "/home/user/src")
	env.Unsetenv(EnvPrompt)
	assert.Equal(t, "~/src> ", s.prompt())

	env.Setenv(EnvPrompt, `pipesh:\w$ `)
	env.Setenv(engine.EnvPwd, "/etc")
	assert.Equal(t, "pipesh:/etc$ ", s.prompt())
}

func TestBuiltinsCmd(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"builtins"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "hash sha3-256: string -> any, binary -> any")
	assert.Contains(t, out.String(), "\necho: nothing -> any\n")
}

func TestHelpCmd(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"help", "hide-env"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Hide environment variables")
}
