package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DefaultChunkSize is the read size used by ByteStream.Next.
const DefaultChunkSize = 8192

// ByteStreamSource hints where the bytes of a stream come from.
type ByteStreamSource int

const (
	SourceMemory ByteStreamSource = iota
	SourceFile
	SourceProcess
)

func (s ByteStreamSource) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceProcess:
		return "process"
	default:
		return "memory"
	}
}

// ExitStatus is how a process finished.
type ExitStatus struct {
	Code int
	// Signal is set if the process was terminated by a signal.
	Signal string
}

// Success is true for a zero exit code.
func (e ExitStatus) Success() bool {
	return e.Code == 0 && e.Signal == ""
}

func (e ExitStatus) String() string {
	if e.Signal != "" {
		return fmt.Sprintf("signal %s", e.Signal)
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Trailer is the metadata available once a stream has been fully produced.
type Trailer struct {
	ExitStatus ExitStatus
	// Stderr holds the captured error output of a process, if it was
	// captured.
	Stderr []byte
}

// ByteStream is a single-pass lazy sequence of raw byte chunks.
type ByteStream struct {
	r         io.ReadCloser
	span      Span
	source    ByteStreamSource
	name      string
	enc       encoding.Encoding
	interrupt *Interrupt
	chunkSize int

	wait     func() (Trailer, error)
	stop     func()
	waitOnce sync.Once
	trailer  Trailer
	waitErr  error
	eof      bool
}

// ByteStreamOption configures a new ByteStream.
type ByteStreamOption func(*ByteStream)

// WithSource tags the stream with the kind and name of its producer.
func WithSource(src ByteStreamSource, name string) ByteStreamOption {
	return func(b *ByteStream) {
		b.source = src
		b.name = name
	}
}

// WithEncoding declares the text encoding of the bytes.
func WithEncoding(enc encoding.Encoding) ByteStreamOption {
	return func(b *ByteStream) {
		b.enc = enc
	}
}

// WithChunkSize sets the size of chunks returned by Next.
func WithChunkSize(n int) ByteStreamOption {
	return func(b *ByteStream) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithTrailer sets a function producing the trailer once the stream is
// exhausted, e.g. waiting on a process. It's called at most once.
func WithTrailer(wait func() (Trailer, error)) ByteStreamOption {
	return func(b *ByteStream) {
		b.wait = wait
	}
}

// WithStop sets a function that stops the producer when the stream is
// closed before being exhausted.
func WithStop(stop func()) ByteStreamOption {
	return func(b *ByteStream) {
		b.stop = stop
	}
}

// NewByteStream wraps a reader.
func NewByteStream(r io.Reader, span Span, interrupt *Interrupt, opts ...ByteStreamOption) *ByteStream {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	out := &ByteStream{
		r:         rc,
		span:      span,
		interrupt: interrupt,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// ByteStreamFromBytes streams an in-memory buffer.
func ByteStreamFromBytes(b []byte, span Span, interrupt *Interrupt) *ByteStream {
	return NewByteStream(bytes.NewReader(b), span, interrupt)
}

// ByteStreamFromString streams an in-memory string.
func ByteStreamFromString(s string, span Span, interrupt *Interrupt) *ByteStream {
	return NewByteStream(strings.NewReader(s), span, interrupt)
}

// Span is the location of the code that created the stream.
func (b *ByteStream) Span() Span {
	return b.span
}

// Source returns the kind and name of the producer.
func (b *ByteStream) Source() (ByteStreamSource, string) {
	return b.source, b.name
}

// Encoding returns the declared encoding, nil if unknown.
func (b *ByteStream) Encoding() encoding.Encoding {
	return b.enc
}

// HasExitStatus reports whether the trailer carries a process exit status.
func (b *ByteStream) HasExitStatus() bool {
	return b.source == SourceProcess && b.wait != nil
}

// Next returns the next chunk of bytes or io.EOF.
func (b *ByteStream) Next() ([]byte, error) {
	buf := make([]byte, b.chunkSize)
	n, err := b.Reader().Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		// Readers may return 0, nil; treat it as a short read.
		return []byte{}, nil
	}
	return nil, err
}

// Reader exposes the remaining bytes as an io.ReadCloser that observes
// the interrupt between reads.
func (b *ByteStream) Reader() io.ReadCloser {
	return (*byteStreamReader)(b)
}

type byteStreamReader ByteStream

func (r *byteStreamReader) Read(p []byte) (int, error) {
	b := (*ByteStream)(r)
	if b.eof {
		return 0, io.EOF
	}
	if err := b.interrupt.Check(b.span); err != nil {
		b.Close()
		return 0, err
	}
	n, err := b.r.Read(p)
	if err == io.EOF {
		b.eof = true
	}
	return n, err
}

func (r *byteStreamReader) Close() error {
	return (*ByteStream)(r).Close()
}

// Wait blocks until the producer is finished and returns the trailer. It
// must only be called after the bytes were consumed or the stream closed.
func (b *ByteStream) Wait() (Trailer, error) {
	b.waitOnce.Do(func() {
		if b.wait != nil {
			b.trailer, b.waitErr = b.wait()
		}
	})
	return b.trailer, b.waitErr
}

// Close releases the stream, stopping the producer if it wasn't exhausted,
// and waits for it to finish.
func (b *ByteStream) Close() error {
	if !b.eof && b.stop != nil {
		b.stop()
	}
	closeErr := b.r.Close()
	b.eof = true
	if _, err := b.Wait(); err != nil {
		return err
	}
	return closeErr
}

// IntoBytes reads the whole stream and waits for the producer.
func (b *ByteStream) IntoBytes() ([]byte, error) {
	data, err := io.ReadAll(b.Reader())
	if err != nil {
		b.Close()
		return nil, IOError(err, b.span)
	}
	if _, err := b.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// IntoString reads the whole stream and decodes it, failing if the bytes
// aren't valid text.
func (b *ByteStream) IntoString() (string, error) {
	data, err := b.IntoBytes()
	if err != nil {
		return "", err
	}
	return Format{Encoding: b.enc}.DecodeBytes(data, b.span)
}

// IntoValue reads the whole stream into a String, or Binary if the bytes
// don't decode.
func (b *ByteStream) IntoValue() (Value, error) {
	data, err := b.IntoBytes()
	if err != nil {
		return nil, err
	}
	s, err := Format{Encoding: b.enc}.DecodeBytes(data, b.span)
	if err != nil {
		return Binary{Val: data, Loc: b.span}, nil
	}
	return String{Val: s, Loc: b.span}, nil
}

// Lines streams the decoded text line by line, without line endings.
func (b *ByteStream) Lines() *ListStream {
	var r io.Reader = b.Reader()
	if b.enc != nil {
		r = transform.NewReader(r, b.enc.NewDecoder())
	}
	br := bufio.NewReader(r)
	stream := NewListStream(b.span, b.interrupt, func() (Value, error) {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if err != nil && line == "" {
			if _, werr := b.Wait(); werr != nil {
				return nil, werr
			}
			return nil, io.EOF
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		return String{Val: line, Loc: b.span}, nil
	})
	return stream.OnClose(func() { b.Close() })
}

// Chunks streams raw chunks as Binary values, or String values if the
// stream has a declared encoding.
func (b *ByteStream) Chunks() *ListStream {
	stream := NewListStream(b.span, b.interrupt, func() (Value, error) {
		chunk, err := b.Next()
		if err != nil {
			if err == io.EOF {
				if _, werr := b.Wait(); werr != nil {
					return nil, werr
				}
			}
			return nil, err
		}
		if b.enc != nil {
			s, derr := Format{Encoding: b.enc}.DecodeBytes(chunk, b.span)
			if derr == nil {
				return String{Val: s, Loc: b.span}, nil
			}
		}
		return Binary{Val: chunk, Loc: b.span}, nil
	})
	return stream.OnClose(func() { b.Close() })
}
