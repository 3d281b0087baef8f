package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/josephlewis42/pipesh/core/protocol"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"mvdan.cc/sh/v3/syntax"
)

// StderrMode controls what happens to a process's error output.
type StderrMode int

const (
	// StderrInherit forwards stderr to the shell's own stderr.
	StderrInherit StderrMode = iota
	// StderrCapture collects stderr into the stream trailer.
	StderrCapture
	// StderrMerge interleaves stderr into the output stream.
	StderrMerge
)

func (m StderrMode) String() string {
	switch m {
	case StderrCapture:
		return "capture"
	case StderrMerge:
		return "merge"
	default:
		return "inherit"
	}
}

// defaultKillGrace is used when a request doesn't set KillGrace.
const defaultKillGrace = 2 * time.Second

// Request describes a process to spawn.
type Request struct {
	// Name is the program as the user typed it, used for messages and argv[0].
	Name string
	// Path is the resolved executable.
	Path string
	Args []string
	Dir  string
	Env  []string

	Input protocol.PipelineData

	Stderr StderrMode
	// StderrWriter receives stderr in inherit mode, os.Stderr if nil.
	StderrWriter io.Writer
	// Closers are closed once the process has exited, e.g. a file stderr
	// is redirected to.
	Closers []io.Closer

	Interrupt *protocol.Interrupt
	// KillGrace is how long a process gets between the terminate signal and
	// being killed.
	KillGrace time.Duration

	Span      protocol.Span
	ChunkSize int
	Encoding  encoding.Encoding
	Format    protocol.Format
	Logger    *log.Logger
}

// CommandLine renders the request the way a user would type it in a POSIX
// shell.
func (r *Request) CommandLine() string {
	parts := make([]string, 0, len(r.Args)+1)
	for _, word := range append([]string{r.Name}, r.Args...) {
		quoted, err := syntax.Quote(word, syntax.LangPOSIX)
		if err != nil {
			// Words that can't be quoted, such as ones holding NUL bytes,
			// are only used for logging.
			quoted = word
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

// Spawn starts the process and returns its stdout as a byte stream. The
// process's exit status is reported by the stream's trailer, never as an
// error: deciding whether a non-zero exit is a failure is up to the caller.
//
// Input is written from its own goroutine so that reading the output can
// proceed concurrently. If the stream is closed before being exhausted the
// process is sent SIGTERM, then killed once the grace period runs out.
func Spawn(req Request) (*protocol.ByteStream, error) {
	if err := CheckInput(req.Name, req.Input); err != nil {
		closeExtra(req.Closers)
		return nil, err
	}

	logger := req.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := req.Interrupt.Context(context.Background())

	cmd := exec.CommandContext(ctx, req.Path, req.Args...)
	cmd.Args[0] = req.Name
	cmd.Dir = req.Dir
	cmd.Env = req.Env
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = req.KillGrace
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultKillGrace
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		cancel()
		closeExtra(req.Closers)
		return nil, protocol.IOError(err, req.Span)
	}
	cmd.Stdout = stdoutW

	var stderrBuf bytes.Buffer
	switch req.Stderr {
	case StderrMerge:
		cmd.Stderr = stdoutW
	case StderrCapture:
		cmd.Stderr = &stderrBuf
	default:
		if req.StderrWriter != nil {
			cmd.Stderr = req.StderrWriter
		} else {
			cmd.Stderr = os.Stderr
		}
	}

	var stdinR, stdinW *os.File
	if !protocol.IsEmpty(req.Input) {
		stdinR, stdinW, err = os.Pipe()
		if err != nil {
			cancel()
			stdoutR.Close()
			stdoutW.Close()
			closeExtra(req.Closers)
			return nil, protocol.IOError(err, req.Span)
		}
		cmd.Stdin = stdinR
	}

	closeAll := func() {
		for _, f := range []*os.File{stdoutR, stdoutW, stdinR, stdinW} {
			if f != nil {
				f.Close()
			}
		}
		closeExtra(req.Closers)
	}

	logger.Debug("spawning external command", "cmd", req.CommandLine(), "dir", req.Dir, "stderr", req.Stderr)
	if err := cmd.Start(); err != nil {
		cancel()
		closeAll()
		return nil, protocol.IOError(err, req.Span)
	}

	// The child holds its own copies now.
	stdoutW.Close()
	if stdinR != nil {
		stdinR.Close()
	}

	var writers errgroup.Group
	if stdinW != nil {
		writers.Go(func() error {
			defer stdinW.Close()
			err := WriteInput(stdinW, req.Name, req.Input, req.Format)
			if err != nil && !isBrokenPipe(err) {
				return err
			}
			return nil
		})
	}

	var stopped atomic.Bool
	stop := func() {
		stopped.Store(true)
		cancel()
	}

	wait := func() (protocol.Trailer, error) {
		inputErr := writers.Wait()
		waitErr := cmd.Wait()
		interrupted := req.Interrupt.Triggered()
		cancel()
		closeExtra(req.Closers)

		trailer := protocol.Trailer{ExitStatus: exitStatus(cmd.ProcessState)}
		if req.Stderr == StderrCapture {
			trailer.Stderr = stderrBuf.Bytes()
		}
		logger.Debug("external command finished", "cmd", req.Name, "status", trailer.ExitStatus)

		switch {
		case interrupted && !stopped.Load():
			return trailer, protocol.InterruptedError(req.Span)
		case inputErr != nil:
			return trailer, protocol.AsShellError(inputErr, req.Span)
		case waitErr == nil, stopped.Load():
			return trailer, nil
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return trailer, nil
		}
		return trailer, protocol.IOError(waitErr, req.Span)
	}

	return protocol.NewByteStream(stdoutR, req.Span, req.Interrupt,
		protocol.WithSource(protocol.SourceProcess, req.Name),
		protocol.WithEncoding(req.Encoding),
		protocol.WithChunkSize(req.ChunkSize),
		protocol.WithTrailer(wait),
		protocol.WithStop(stop),
	), nil
}

func closeExtra(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

func exitStatus(state *os.ProcessState) protocol.ExitStatus {
	if state == nil {
		return protocol.ExitStatus{Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return protocol.ExitStatus{Code: 128 + int(ws.Signal()), Signal: ws.Signal().String()}
	}
	return protocol.ExitStatus{Code: state.ExitCode()}
}

// Check turns an unsuccessful exit status into an ExternalCommandFailed
// error.
func Check(name string, trailer protocol.Trailer, span protocol.Span) error {
	if trailer.ExitStatus.Success() {
		return nil
	}
	err := protocol.ExternalCommandFailedError(name, trailer.ExitStatus, span)
	if msg := strings.TrimSpace(string(trailer.Stderr)); msg != "" {
		return err.WithHelp(msg)
	}
	return err
}
