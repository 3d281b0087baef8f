package engine

import (
	"io"
	"os"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/process"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// ExternalRequest describes a call of a program outside the shell.
type ExternalRequest struct {
	Name  string
	Args  []protocol.Value
	Input protocol.PipelineData
	Span  protocol.Span

	Stderr       process.StderrMode
	StderrWriter io.Writer
	Closers      []io.Closer
}

// RunExternal resolves req.Name on PATH and spawns it in the working
// directory and environment of stack. The program's stdout is returned as
// a byte stream whose trailer carries the exit status.
func (es *State) RunExternal(stack *Stack, req ExternalRequest) (*protocol.ByteStream, error) {
	fail := func(err error) (*protocol.ByteStream, error) {
		closeData(req.Input)
		for _, c := range req.Closers {
			c.Close()
		}
		return nil, err
	}

	path, err := process.LookPath(es.Fs, stack.Cwd(), stack.Env().Getenv(EnvPath), req.Name)
	if err != nil {
		if process.IsNotFound(err) {
			return fail(protocol.CommandNotFoundError(req.Name, es.Suggest(req.Name), req.Span))
		}
		return fail(protocol.IOError(err, req.Span))
	}

	args, err := es.externalArgs(req.Args)
	if err != nil {
		return fail(err)
	}

	stream, err := process.Spawn(process.Request{
		Name:         req.Name,
		Path:         path,
		Args:         args,
		Dir:          stack.Cwd(),
		Env:          stack.Env().Environ(),
		Input:        req.Input,
		Stderr:       req.Stderr,
		StderrWriter: es.stderrWriter(req.StderrWriter),
		Closers:      req.Closers,
		Interrupt:    es.Interrupt,
		KillGrace:    es.killGrace,
		Span:         req.Span,
		ChunkSize:    es.Config.Stream.ChunkSize,
		Encoding:     es.Format.Encoding,
		Format:       es.Format,
		Logger:       es.Logger,
	})
	if err != nil {
		closeData(req.Input)
		return nil, err
	}
	return stream, nil
}

func (es *State) stderrWriter(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return es.Stderr
}

// externalArgs coerces arguments to strings. Lists are spread into
// several arguments.
func (es *State) externalArgs(vals []protocol.Value) ([]string, error) {
	var out []string
	for _, v := range vals {
		if list, ok := v.(protocol.List); ok {
			spread, err := es.externalArgs(list.Vals)
			if err != nil {
				return nil, err
			}
			out = append(out, spread...)
			continue
		}
		if !protocol.IsScalar(v) {
			return nil, protocol.CantConvertError(protocol.TypeOf(v).String(), "an external command argument", v.Span())
		}
		s, err := es.Format.String(v)
		if err != nil {
			return nil, protocol.AsShellError(err, v.Span())
		}
		out = append(out, s)
	}
	return out, nil
}

func (es *State) evalExternal(stack *Stack, e *ast.ExternalCall, input protocol.PipelineData, redirect *ast.Redirection, captureStderr bool) (protocol.PipelineData, error) {
	head, err := es.EvalExpr(stack, e.Head)
	if err != nil {
		return nil, err
	}
	name, err := asString(head)
	if err != nil {
		return nil, err
	}

	args := make([]protocol.Value, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := es.EvalExpr(stack, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	req := ExternalRequest{
		Name:   name,
		Args:   args,
		Input:  input,
		Span:   e.Loc,
		Stderr: es.StderrMode(),
	}
	if captureStderr {
		req.Stderr = process.StderrCapture
	}

	if redirect != nil {
		switch redirect.Target {
		case ast.RedirectBoth:
			req.Stderr = process.StderrMerge
		case ast.RedirectStderr:
			f, err := es.openRedirect(stack, redirect)
			if err != nil {
				return nil, err
			}
			req.Stderr = process.StderrInherit
			req.StderrWriter = f
			req.Closers = append(req.Closers, f)
		}
	}

	return es.RunExternal(stack, req)
}

func (es *State) redirectPath(stack *Stack, r *ast.Redirection) (string, error) {
	v, err := es.EvalExpr(stack, r.Path)
	if err != nil {
		return "", err
	}
	p, err := asString(v)
	if err != nil {
		return "", err
	}
	return stack.ExpandPath(p), nil
}

func (es *State) openRedirect(stack *Stack, r *ast.Redirection) (io.WriteCloser, error) {
	p, err := es.redirectPath(stack, r)
	if err != nil {
		return nil, err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if r.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := es.Fs.OpenFile(p, flags, 0644)
	if err != nil {
		return nil, protocol.IOError(err, r.Loc)
	}
	return f, nil
}

// redirect sends the output of a stage to a file through the save
// command. Redirecting stderr only leaves the output alone: for external
// commands the file was attached when the process was spawned.
func (es *State) redirect(stack *Stack, el ast.Element, data protocol.PipelineData) (protocol.PipelineData, error) {
	r := el.Redirect
	if r.Target == ast.RedirectStderr {
		if _, external := el.Expr.(*ast.ExternalCall); !external {
			f, err := es.openRedirect(stack, r)
			if err != nil {
				closeData(data)
				return nil, err
			}
			f.Close()
		}
		return data, nil
	}

	p, err := es.redirectPath(stack, r)
	if err != nil {
		closeData(data)
		return nil, err
	}

	args := []ast.Argument{
		ast.Pos(ast.Lit(protocol.NewString(p, r.Loc))),
		ast.Switch("raw"),
		ast.Switch("force"),
	}
	if r.Append {
		args = append(args, ast.Switch("append"))
	}

	out, err := es.RunCommand(stack, "save", args, data)
	if err != nil {
		return nil, err
	}

	if bs, ok := data.(*protocol.ByteStream); ok && bs.HasExitStatus() {
		trailer, err := bs.Wait()
		if err != nil {
			return nil, err
		}
		RecordExitStatus(stack, &trailer)
	}
	return out, nil
}
