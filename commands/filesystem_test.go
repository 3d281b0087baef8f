package commands

import (
	"testing"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	f := newShell(t, nil)

	f.mustRun(t, "'first' | save /tmp/out.txt")
	_, err := f.run("'second' | save /tmp/out.txt", nil)
	assert.Equal(t, protocol.IOErrorKind, kindOf(t, err))
	assert.Contains(t, protocol.AsShellError(err, protocol.UnknownSpan).Help, "--force")

	data, err := afero.ReadFile(f.fs, "/tmp/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	f.mustRun(t, "'second' | save --force /tmp/out.txt")
	f.mustRun(t, "[x y] | save --append /tmp/out.txt")
	data, err = afero.ReadFile(f.fs, "/tmp/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "secondx\ny\n", string(data))
}

func TestSave_RelativePath(t *testing.T) {
	f := newShell(t, nil)

	f.mustRun(t, "cd ~; {a: 1} | save data.yaml")
	data, err := afero.ReadFile(f.fs, "/home/user/data.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))
}

func TestSave_Errors(t *testing.T) {
	f := newShell(t, nil)

	_, err := f.run("{a: 1} | save --raw /tmp/rec.txt", nil)
	assert.Equal(t, protocol.TypeMismatchKind, kindOf(t, err))

	_, err = f.run("'x' | save /tmp", nil)
	assert.Equal(t, protocol.IOErrorKind, kindOf(t, err))
}

func TestOpen(t *testing.T) {
	f := newShell(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, "/tmp/conf.toml", []byte("port = 80\n"), 0o644))
	require.NoError(t, afero.WriteFile(f.fs, "/tmp/notes", []byte("line one\nline two\n"), 0o644))

	v := f.mustRun(t, "open /tmp/conf.toml | get port")
	assert.Equal(t, int64(80), v.(protocol.Int).Val)

	v = f.mustRun(t, "open /tmp/conf.toml --raw")
	assert.Equal(t, "port = 80\n", v.(protocol.String).Val)

	v = f.mustRun(t, "open /tmp/notes | lines | length")
	assert.Equal(t, int64(2), v.(protocol.Int).Val)

	v = f.mustRun(t, "cd /tmp; open notes --raw | into binary | length")
	assert.Equal(t, int64(18), v.(protocol.Int).Val)
}

func TestOpen_Errors(t *testing.T) {
	f := newShell(t, nil)

	_, err := f.run("open /tmp/absent.json", nil)
	assert.Equal(t, protocol.IOErrorKind, kindOf(t, err))

	_, err = f.run("open /tmp", nil)
	assert.Equal(t, protocol.ArgumentBindingKind, kindOf(t, err))

	require.NoError(t, afero.WriteFile(f.fs, "/tmp/bad.json", []byte("{"), 0o644))
	_, err = f.run("open /tmp/bad.json", nil)
	assert.Equal(t, protocol.ParseErrorKind, kindOf(t, err))
}
