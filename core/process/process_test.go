package process

import (
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shRequest(t *testing.T, script string) Request {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return Request{
		Name:      "sh",
		Path:      sh,
		Args:      []string{"-c", script},
		Interrupt: protocol.NewInterrupt(),
		KillGrace: time.Second,
	}
}

func TestSpawn_Output(t *testing.T) {
	stream, err := Spawn(shRequest(t, "printf hello"))
	require.NoError(t, err)

	src, name := stream.Source()
	assert.Equal(t, protocol.SourceProcess, src)
	assert.Equal(t, "sh", name)
	assert.True(t, stream.HasExitStatus())

	out, err := stream.IntoString()
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	trailer, err := stream.Wait()
	require.NoError(t, err)
	assert.True(t, trailer.ExitStatus.Success())
}

func TestSpawn_ExitCodeIsData(t *testing.T) {
	stream, err := Spawn(shRequest(t, "exit 3"))
	require.NoError(t, err)

	trailer, err := protocol.Drain(stream)
	require.NoError(t, err)
	require.NotNil(t, trailer)
	assert.Equal(t, 3, trailer.ExitStatus.Code)

	err = Check("sh", *trailer, protocol.UnknownSpan)
	assert.ErrorIs(t, err, protocol.ErrExternalCommandFailed)
	se := protocol.AsShellError(err, protocol.UnknownSpan)
	assert.Equal(t, 3, se.ExitCode)
}

func TestSpawn_Input(t *testing.T) {
	cases := map[string]struct {
		input protocol.PipelineData
		want  string
	}{
		"scalar": {
			input: protocol.NewValueData(protocol.NewString("abc", protocol.UnknownSpan)),
			want:  "abc",
		},
		"list": {
			input: protocol.NewValueData(protocol.Ints(protocol.UnknownSpan, 1, 2)),
			want:  "1\n2\n",
		},
		"binary": {
			input: protocol.NewValueData(protocol.NewBinary([]byte{'x', 'y'}, protocol.UnknownSpan)),
			want:  "xy",
		},
		"bytestream": {
			input: protocol.ByteStreamFromString("raw\nbytes", protocol.UnknownSpan, nil),
			want:  "raw\nbytes",
		},
		"liststream": {
			input: protocol.FromValues(protocol.UnknownSpan, []protocol.Value{
				protocol.NewString("a", protocol.UnknownSpan),
				protocol.NewString("b", protocol.UnknownSpan),
			}, nil),
			want: "a\nb\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			req := shRequest(t, "cat")
			req.Input = tc.input

			stream, err := Spawn(req)
			require.NoError(t, err)
			out, err := stream.IntoString()
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestSpawn_StructuredInputRejected(t *testing.T) {
	rec := (&protocol.RecordBuilder{}).Set("a", protocol.NewInt(1, protocol.UnknownSpan)).Build(protocol.UnknownSpan)

	req := shRequest(t, "cat")
	req.Input = protocol.NewValueData(rec)

	_, err := Spawn(req)
	assert.ErrorIs(t, err, protocol.ErrTypeMismatch)
}

func TestSpawn_StderrModes(t *testing.T) {
	t.Run("capture", func(t *testing.T) {
		req := shRequest(t, "echo oops >&2; echo out")
		req.Stderr = StderrCapture

		stream, err := Spawn(req)
		require.NoError(t, err)
		out, err := stream.IntoString()
		require.NoError(t, err)
		assert.Equal(t, "out\n", out)

		trailer, err := stream.Wait()
		require.NoError(t, err)
		assert.Equal(t, "oops\n", string(trailer.Stderr))
	})

	t.Run("merge", func(t *testing.T) {
		req := shRequest(t, "echo oops >&2")
		req.Stderr = StderrMerge

		stream, err := Spawn(req)
		require.NoError(t, err)
		out, err := stream.IntoString()
		require.NoError(t, err)
		assert.Equal(t, "oops\n", out)
	})
}

func TestSpawn_EarlyClose(t *testing.T) {
	stream, err := Spawn(shRequest(t, "while :; do echo y; done"))
	require.NoError(t, err)

	chunk, err := stream.Next()
	require.NoError(t, err)
	assert.NotEmpty(t, chunk)

	done := make(chan error, 1)
	go func() { done <- stream.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("closing the stream didn't stop the process")
	}
}

func TestSpawn_Interrupt(t *testing.T) {
	req := shRequest(t, "sleep 10")
	stream, err := Spawn(req)
	require.NoError(t, err)

	req.Interrupt.Trigger()
	_, err = io.ReadAll(stream.Reader())
	assert.ErrorIs(t, err, protocol.ErrInterrupted)
}

func TestLookPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/tool", []byte("#!/bin/sh"), 0755))
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/data", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/home/u/bin/local", []byte("x"), 0755))

	got, err := LookPath(fs, "/", "/bin:/usr/bin", "tool")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/tool", got)

	_, err = LookPath(fs, "/", "/bin:/usr/bin", "data")
	assert.True(t, IsNotFound(err))

	got, err = LookPath(fs, "/home/u", "", "./bin/local")
	require.NoError(t, err)
	assert.Equal(t, "/home/u/bin/local", got)

	_, err = LookPath(fs, "/", "/usr/bin", "missing")
	assert.True(t, IsNotFound(err))
}

func TestRequest_CommandLine(t *testing.T) {
	req := Request{Name: "echo", Args: []string{"hello world", "plain", ""}}
	assert.Equal(t, "echo 'hello world' plain ''", req.CommandLine())
}
