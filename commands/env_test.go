package commands

import (
	"testing"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindOf(t *testing.T, err error) protocol.ErrorKind {
	t.Helper()
	require.Error(t, err)
	return protocol.AsShellError(err, protocol.UnknownSpan).Kind
}

func TestCd(t *testing.T) {
	f := newShell(t, nil)
	require.NoError(t, f.fs.MkdirAll("/srv/data", 0o755))

	f.mustRun(t, "cd /srv/data")
	assert.Equal(t, "/srv/data", f.stack.Cwd())

	f.mustRun(t, "cd ..")
	assert.Equal(t, "/srv", f.stack.Cwd())
	assert.Equal(t, "/srv/data", f.stack.Env().Getenv("OLDPWD"))

	f.mustRun(t, "cd -")
	assert.Equal(t, "/srv/data", f.stack.Cwd())

	f.mustRun(t, "cd")
	assert.Equal(t, "/home/user", f.stack.Cwd())

	f.mustRun(t, "cd ~/")
	assert.Equal(t, "/home/user", f.stack.Cwd())
}

func TestCd_Errors(t *testing.T) {
	f := newShell(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, "/file.txt", []byte("x"), 0o644))

	cases := map[string]protocol.ErrorKind{
		"cd /missing":  protocol.IOErrorKind,
		"cd /file.txt": protocol.ArgumentBindingKind,
	}
	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := f.run(src, nil)
			assert.Equal(t, want, kindOf(t, err))
			assert.Equal(t, "/", f.stack.Cwd())
		})
	}

	t.Run("no previous directory", func(t *testing.T) {
		_, err := f.run("cd -", nil)
		assert.Equal(t, protocol.GenericErrorKind, kindOf(t, err))
	})
}

func TestCd_ScopedToClosure(t *testing.T) {
	f := newShell(t, nil)

	got := f.mustRun(t, "do { cd /tmp; $env.PWD }")
	assert.Equal(t, "/tmp", got.(protocol.String).Val)
	assert.Equal(t, "/", f.stack.Cwd())

	f.mustRun(t, "if true { cd /tmp }")
	assert.Equal(t, "/tmp", f.stack.Cwd(), "blocks share the environment of their caller")
}

func TestLoadEnv(t *testing.T) {
	f := newShell(t, nil)

	f.mustRun(t, "load-env {A: 'x', N: 3, P: ['/bin' '/usr/bin']}")
	assert.Equal(t, "x", f.stack.Env().Getenv("A"))
	assert.Equal(t, "3", f.stack.Env().Getenv("N"))
	assert.Equal(t, "/bin:/usr/bin", f.stack.Env().Getenv("P"))

	f.mustRun(t, "{FROM_PIPE: 'yes'} | load-env")
	assert.Equal(t, "yes", f.stack.Env().Getenv("FROM_PIPE"))

	f.mustRun(t, "load-env {PWD: tmp}")
	assert.Equal(t, "/tmp", f.stack.Cwd())

	_, err := f.run("load-env {PWD: '/nowhere'}", nil)
	assert.Equal(t, protocol.IOErrorKind, kindOf(t, err))
	assert.Equal(t, "/tmp", f.stack.Cwd())
}

func TestHideEnv(t *testing.T) {
	f := newShell(t, nil)
	f.stack.Env().Setenv("SECRET", "1")

	f.mustRun(t, "hide-env SECRET")
	_, ok := f.stack.Env().LookupEnv("SECRET")
	assert.False(t, ok)

	_, err := f.run("hide-env SECRET", nil)
	assert.Equal(t, protocol.GenericErrorKind, kindOf(t, err))

	f.mustRun(t, "hide-env -i SECRET")
}

func TestWithEnv(t *testing.T) {
	f := newShell(t, nil)
	f.stack.Env().Setenv("LEVEL", "outer")

	got := f.mustRun(t, "with-env {LEVEL: inner} { $env.LEVEL }")
	assert.Equal(t, "inner", got.(protocol.String).Val)
	assert.Equal(t, "outer", f.stack.Env().Getenv("LEVEL"))

	got = f.mustRun(t, "with-env {A: 1, B: 2} { [$env.A $env.B] }")
	assert.True(t, protocol.Equal(protocol.Strings(protocol.UnknownSpan, "1", "2"), got))
}
