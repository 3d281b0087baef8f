package cmd

import (
	"fmt"
	"io"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// printData writes the result of a pipeline to w. Byte streams are copied
// as they arrive, list elements are written one per line.
func printData(es *engine.State, stack *engine.Stack, w io.Writer, pd protocol.PipelineData) error {
	switch data := pd.(type) {
	case nil, protocol.Empty:
		return nil
	case *protocol.ByteStream:
		if _, err := io.Copy(w, data.Reader()); err != nil {
			data.Close()
			return protocol.IOError(err, data.Span())
		}
		trailer, err := data.Wait()
		if err != nil {
			return err
		}
		if data.HasExitStatus() {
			engine.RecordExitStatus(stack, &trailer)
		}
		return nil
	case *protocol.ListStream:
		defer data.Close()
		for {
			v, err := data.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := printValue(es, w, v); err != nil {
				return err
			}
		}
	}

	v, err := protocol.IntoValue(pd)
	if err != nil {
		return err
	}
	if list, ok := v.(protocol.List); ok {
		for _, item := range list.Vals {
			if err := printValue(es, w, item); err != nil {
				return err
			}
		}
		return nil
	}
	return printValue(es, w, v)
}

func printValue(es *engine.State, w io.Writer, v protocol.Value) error {
	if protocol.IsNothing(v) {
		return nil
	}
	s, err := es.Format.String(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
