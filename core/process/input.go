package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/josephlewis42/pipesh/core/protocol"
)

// CheckInput rejects input that can't be written to a process before the
// process is started. Streams are checked element by element while they're
// written.
func CheckInput(name string, pd protocol.PipelineData) error {
	vd, ok := pd.(protocol.ValueData)
	if !ok {
		return nil
	}
	switch v := vd.Val.(type) {
	case protocol.List:
		for _, elem := range v.Vals {
			if err := checkLine(name, elem); err != nil {
				return err
			}
		}
		return nil
	case protocol.Range, protocol.Binary:
		return nil
	default:
		return checkLine(name, v)
	}
}

func checkLine(name string, v protocol.Value) error {
	if protocol.IsScalar(v) {
		return nil
	}
	return protocol.UnsupportedInputError(name, protocol.TypeOf(v), v.Span()).
		WithHelp("convert structured data to text first, for example with to json")
}

// WriteInput serializes pd onto w: a single scalar is written as its string
// form, a list or stream as one line per element and bytes are copied
// verbatim.
func WriteInput(w io.Writer, name string, pd protocol.PipelineData, f protocol.Format) error {
	bw := bufio.NewWriter(w)
	if err := writeInput(bw, name, pd, f); err != nil {
		return err
	}
	return bw.Flush()
}

func writeInput(w *bufio.Writer, name string, pd protocol.PipelineData, f protocol.Format) error {
	switch data := pd.(type) {
	case nil, protocol.Empty:
		return nil
	case *protocol.ByteStream:
		if _, err := io.Copy(w, data.Reader()); err != nil {
			data.Close()
			return err
		}
		_, err := data.Wait()
		return err
	case *protocol.ListStream:
		return writeLines(w, name, data, f)
	case protocol.ValueData:
		switch v := data.Val.(type) {
		case protocol.Nothing:
			return nil
		case protocol.Binary:
			_, err := w.Write(v.Val)
			return err
		case protocol.List, protocol.Range:
			return writeLines(w, name, protocol.IntoListStream(data, nil), f)
		default:
			if err := checkLine(name, v); err != nil {
				return err
			}
			s, err := f.String(v)
			if err != nil {
				return err
			}
			_, err = w.WriteString(s)
			return err
		}
	}
	return fmt.Errorf("unknown pipeline data %T", pd)
}

func writeLines(w *bufio.Writer, name string, stream *protocol.ListStream, f protocol.Format) error {
	return stream.Each(func(v protocol.Value) error {
		if err := checkLine(name, v); err != nil {
			return err
		}
		if b, ok := v.(protocol.Binary); ok {
			_, err := w.Write(b.Val)
			return err
		}
		s, err := f.String(v)
		if err != nil {
			return err
		}
		if _, err := w.WriteString(s); err != nil {
			return err
		}
		return w.WriteByte('\n')
	})
}

// isBrokenPipe is true when the process exited without reading all of its
// input, which isn't an error for the writer.
func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}
