package engine

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcCommand struct {
	sig *protocol.Signature
	run func(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error)
}

func (c *funcCommand) Signature() *protocol.Signature { return c.sig }

func (c *funcCommand) Run(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
	return c.run(es, stack, call, input)
}

type signalCommand struct {
	sig  *protocol.Signature
	kind protocol.SignalKind
}

func (c *signalCommand) Signature() *protocol.Signature { return c.sig }

func (c *signalCommand) Run(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
	return nil, errors.New("keyword called as a command")
}

func (c *signalCommand) RunKeyword(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.Outcome, error) {
	sig := &protocol.Signal{Kind: c.kind, Span: call.Span()}
	if c.kind == protocol.ReturnSignal {
		sig.Value = protocol.Nothing{}
		if args := call.Raw.Positionals(); len(args) > 0 {
			v, err := es.EvalExpr(stack, args[0])
			if err != nil {
				return protocol.Outcome{}, err
			}
			sig.Value = v
		}
	}
	return protocol.SignalOutcome(sig), nil
}

type fixture struct {
	es    *State
	stack *Stack

	pulls   atomic.Int64
	upperCt atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	es, err := NewState(WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	f := &fixture{es: es, stack: NewStack(NewEnvFromList([]string{"HOME=/home/user", "PWD=/"}))}

	require.NoError(t, es.Register(
		&funcCommand{
			sig: protocol.NewSignature("numbers").
				Req("n", protocol.IntType, "how many").
				IO(protocol.NothingType, protocol.ListOf(protocol.TypeInt)),
			run: func(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
				n, err := call.Int(0)
				if err != nil {
					return nil, err
				}
				i := int64(0)
				return protocol.NewListStream(call.Span(), es.Interrupt, func() (protocol.Value, error) {
					if i >= n {
						return nil, io.EOF
					}
					f.pulls.Add(1)
					i++
					return protocol.NewInt(i, call.Span()), nil
				}), nil
			},
		},
		&funcCommand{
			sig: protocol.NewSignature("first").
				OptDefault("rows", protocol.IntType, protocol.NewInt(1, protocol.UnknownSpan), "rows to keep").
				IO(protocol.ListOf(protocol.TypeAny), protocol.ListOf(protocol.TypeAny)),
			run: func(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
				n, err := call.OptInt(0, 1)
				if err != nil {
					return nil, err
				}
				return protocol.IntoListStream(input, es.Interrupt).Take(int(n)), nil
			},
		},
		&funcCommand{
			sig: protocol.NewSignature("upper").
				Describe("Make text uppercase.").
				Switch("trim", 't', "trim whitespace first").
				Named("times", protocol.IntType, 'n', "repeat count").
				IO(protocol.StringType, protocol.StringType),
			run: func(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
				f.upperCt.Add(1)
				v, err := protocol.IntoValue(input)
				if err != nil {
					return nil, err
				}
				s, err := asString(v)
				if err != nil {
					return nil, err
				}
				out := []rune(s)
				for i, r := range out {
					if r >= 'a' && r <= 'z' {
						out[i] = r - 'a' + 'A'
					}
				}
				return protocol.NewValueData(protocol.NewString(string(out), call.Span())), nil
			},
		},
		&funcCommand{
			sig: protocol.NewSignature("setenv").
				Req("key", protocol.StringType, "variable").
				Req("value", protocol.StringType, "value").
				IO(protocol.AnyType, protocol.NothingType),
			run: func(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
				k, _ := call.String(0)
				v, _ := call.String(1)
				stack.Env().Setenv(k, v)
				return nil, nil
			},
		},
		&funcCommand{
			sig: protocol.NewSignature("do").
				Req("closure", protocol.ClosureType, "what to run").
				RestArgs("args", protocol.AnyType, "closure arguments").
				IO(protocol.AnyType, protocol.AnyType),
			run: func(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
				c, err := call.Closure(0)
				if err != nil {
					return nil, err
				}
				return es.RunClosure(stack, c, call.Rest(1), input)
			},
		},
		&signalCommand{sig: protocol.NewSignature("return").Opt("value", protocol.AnyType, "result"), kind: protocol.ReturnSignal},
		&signalCommand{sig: protocol.NewSignature("break"), kind: protocol.BreakSignal},
	))
	return f
}

func (f *fixture) run(t *testing.T, p *ast.Pipeline) (protocol.Value, error) {
	t.Helper()
	out, err := f.es.EvalPipeline(f.stack, p, nil)
	if err != nil {
		return nil, err
	}
	if out.IsSignal() {
		return nil, &protocol.SignalError{Signal: out.Signal}
	}
	return f.es.collect(f.stack, out.Data)
}

func (f *fixture) closure(block *ast.Block) ast.Expr {
	id := f.es.AddBlock(block)
	return &ast.ClosureExpr{BlockID: id}
}

func TestEvalPipeline_Composition(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, ast.Pipe(ast.Str("hello"), ast.NewCall("upper")))
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out.(protocol.String).Val)
}

func TestEvalPipeline_TypeGateRunsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, ast.Pipe(ast.NewCall("numbers", ast.Pos(ast.Int(3))), ast.NewCall("upper")))
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrTypeMismatch)
	assert.Zero(t, f.pulls.Load())
	assert.Zero(t, f.upperCt.Load())
}

func TestEvalPipeline_NeedsInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, ast.Pipe(ast.NewCall("upper")))
	require.Error(t, err)

	var se *protocol.ShellError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upper needs input", se.Msg)
	assert.Contains(t, se.Help, "string")
}

func TestEvalPipeline_Lazy(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, ast.Pipe(
		ast.NewCall("numbers", ast.Pos(ast.Int(10000))),
		ast.NewCall("first", ast.Pos(ast.Int(3))),
	))
	require.NoError(t, err)
	assert.Len(t, out.(protocol.List).Vals, 3)
	assert.LessOrEqual(t, f.pulls.Load(), int64(3))
}

func TestEvalPipeline_Interrupted(t *testing.T) {
	f := newFixture(t)
	f.es.Interrupt.Trigger()

	_, err := f.run(t, ast.Pipe(ast.NewCall("numbers", ast.Pos(ast.Int(10)))))
	assert.ErrorIs(t, err, protocol.ErrInterrupted)
	assert.Zero(t, f.pulls.Load())
}

func TestEvalPipeline_CommandNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, ast.Pipe(ast.NewCall("uper")))
	require.Error(t, err)

	var se *protocol.ShellError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, protocol.CommandNotFoundKind, se.Kind)
	assert.Contains(t, se.Help, "upper")
}

func TestEvalPipeline_Help(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, ast.Pipe(ast.NewCall("upper", ast.Switch("help"))))
	require.NoError(t, err)
	assert.Contains(t, out.(protocol.String).Val, "Make text uppercase.")
}

func TestBindCall(t *testing.T) {
	cases := map[string]struct {
		args    []ast.Argument
		kind    protocol.ErrorKind
		message string
	}{
		"missing required": {
			kind:    protocol.ArgumentBindingKind,
			message: "missing required positional argument n",
		},
		"wrong type": {
			args:    []ast.Argument{ast.Pos(ast.Str("three"))},
			kind:    protocol.TypeMismatchKind,
			message: "n expects int, found string",
		},
		"extra positional": {
			args:    []ast.Argument{ast.Pos(ast.Int(1)), ast.Pos(ast.Int(2))},
			kind:    protocol.ArgumentBindingKind,
			message: "extra positional argument",
		},
		"unknown flag": {
			args:    []ast.Argument{ast.Pos(ast.Int(1)), ast.Switch("fast")},
			kind:    protocol.ArgumentBindingKind,
			message: "numbers doesn't have flag fast",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.run(t, ast.Pipe(ast.NewCall("numbers", tc.args...)))
			require.Error(t, err)

			var se *protocol.ShellError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.kind, se.Kind)
			assert.Equal(t, tc.message, se.Msg)
		})
	}
}

func TestBindCall_Flags(t *testing.T) {
	f := newFixture(t)
	cmd, _ := f.es.FindCommand("upper")

	raw := &ast.Call{Head: "upper", Args: []ast.Argument{ast.Switch("t"), ast.Flag("times", ast.Int(2))}}
	call, err := f.es.bindCall(f.stack, cmd.Signature(), raw, true)
	require.NoError(t, err)

	assert.True(t, call.HasFlag("trim"))
	assert.False(t, call.HasFlag("help"))
	n, err := call.FlagInt("times", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	raw = &ast.Call{Head: "upper", Args: []ast.Argument{ast.Switch("times")}}
	_, err = f.es.bindCall(f.stack, cmd.Signature(), raw, true)
	assert.ErrorIs(t, err, protocol.ErrArgumentBinding)
}

func TestEvalBlock_DrainsStatements(t *testing.T) {
	f := newFixture(t)

	block := ast.NewBlock(
		ast.Pipe(ast.NewCall("numbers", ast.Pos(ast.Int(5)))),
		ast.Pipe(ast.Str("done")),
	)
	out, err := f.es.EvalBlock(f.stack, block, nil)
	require.NoError(t, err)
	v, err := protocol.IntoValue(out.Data)
	require.NoError(t, err)

	assert.Equal(t, "done", v.(protocol.String).Val)
	assert.EqualValues(t, 5, f.pulls.Load())
}

func TestClosure_Return(t *testing.T) {
	f := newFixture(t)

	body := ast.NewBlock(
		ast.Pipe(ast.NewCall("return", ast.Pos(ast.Binary(ast.Variable("x"), ast.OpMultiply, ast.Int(2))))),
		ast.Pipe(ast.Str("unreachable")),
	).WithParams("x")

	out, err := f.run(t, ast.Pipe(ast.NewCall("do", ast.Pos(f.closure(body)), ast.Pos(ast.Int(21)))))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewInt(42, protocol.UnknownSpan), out.WithSpan(protocol.UnknownSpan))
}

func TestClosure_BreakEscapes(t *testing.T) {
	f := newFixture(t)

	body := ast.NewBlock(ast.Pipe(ast.NewCall("break")))
	_, err := f.run(t, ast.Pipe(ast.NewCall("do", ast.Pos(f.closure(body)))))
	assert.ErrorIs(t, err, protocol.ErrControlSignalEscaped)
}

func TestClosure_Captures(t *testing.T) {
	f := newFixture(t)
	f.stack.AddVar("greeting", protocol.NewString("hi", protocol.UnknownSpan))

	body := ast.NewBlock(ast.Pipe(ast.Variable("greeting"))).Capturing("greeting")
	closure, err := f.es.EvalExpr(f.stack, f.closure(body))
	require.NoError(t, err)

	f.stack.AddVar("greeting", protocol.NewString("changed", protocol.UnknownSpan))
	out, err := f.es.RunClosureValue(f.stack, closure.(protocol.Closure))
	require.NoError(t, err)
	assert.Equal(t, "hi", out.(protocol.String).Val)
}

func TestClosure_RecursionLimit(t *testing.T) {
	f := newFixture(t)

	sig := protocol.NewSignature("forever")
	require.NoError(t, f.es.AddCustomCommand(sig, ast.NewBlock(ast.Pipe(ast.NewCall("forever")))))

	_, err := f.run(t, ast.Pipe(ast.NewCall("forever")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursion limit reached")
}

func TestCustomCommand(t *testing.T) {
	f := newFixture(t)

	sig := protocol.NewSignature("greet").
		Req("name", protocol.StringType, "who").
		Switch("loud", 'l', "shout")
	body := ast.NewBlock(ast.Pipe(&ast.StringInterp{Parts: []ast.Expr{
		ast.Str("hello "), ast.Variable("name"), ast.Str(" "), ast.Variable("loud"),
	}}))
	require.NoError(t, f.es.AddCustomCommand(sig, body))

	out, err := f.run(t, ast.Pipe(ast.NewCall("greet", ast.Pos(ast.Str("bob")))))
	require.NoError(t, err)
	assert.Equal(t, "hello bob false", out.(protocol.String).Val)
}

func TestCustomCommand_RedirectEnv(t *testing.T) {
	f := newFixture(t)
	f.stack.Env().Setenv("OLD", "1")

	body := ast.NewBlock(ast.Pipe(ast.NewCall("setenv", ast.Pos(ast.Str("NEW")), ast.Pos(ast.Str("2")))))
	body.RedirectEnv = true
	require.NoError(t, f.es.AddCustomCommand(protocol.NewSignature("export-new"), body))

	plain := ast.NewBlock(ast.Pipe(ast.NewCall("setenv", ast.Pos(ast.Str("LOST")), ast.Pos(ast.Str("3")))))
	require.NoError(t, f.es.AddCustomCommand(protocol.NewSignature("export-lost"), plain))

	_, err := f.run(t, ast.Pipe(ast.NewCall("export-new")))
	require.NoError(t, err)
	_, err = f.run(t, ast.Pipe(ast.NewCall("export-lost")))
	require.NoError(t, err)

	assert.Equal(t, "2", f.stack.Env().Getenv("NEW"))
	assert.Equal(t, "1", f.stack.Env().Getenv("OLD"))
	_, found := f.stack.Env().LookupEnv("LOST")
	assert.False(t, found)
}

func TestEvalExpr_DuplicateColumn(t *testing.T) {
	f := newFixture(t)

	rec := &ast.RecordExpr{Fields: []ast.RecordField{
		{Key: "a", KeySpan: protocol.NewSpan(1, 2), Value: ast.Int(1)},
		{Key: "a", KeySpan: protocol.NewSpan(8, 9), Value: ast.Int(2)},
	}}
	_, err := f.es.EvalExpr(f.stack, rec)
	require.Error(t, err)

	var se *protocol.ShellError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, protocol.NewSpan(8, 9), se.Span)
	require.Len(t, se.Related, 1)
	assert.Equal(t, protocol.NewSpan(1, 2), se.Related[0].Span)
}

func TestEvalExpr_InVariable(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, ast.Pipe(ast.Int(4), ast.Binary(ast.Variable("in"), ast.OpAdd, ast.Int(1))))
	require.NoError(t, err)
	assert.EqualValues(t, 5, out.(protocol.Int).Val)
}
