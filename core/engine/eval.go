package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// EvalBlock runs the pipelines of block in order. The input is handed to
// the first pipeline; the output of every pipeline but the last is drained
// and discarded, and the last one's output is returned unconsumed.
func (es *State) EvalBlock(stack *Stack, block *ast.Block, input protocol.PipelineData) (protocol.Outcome, error) {
	if len(block.Pipelines) == 0 {
		closeData(input)
		return protocol.DataOutcome(protocol.Empty{Loc: block.Loc}), nil
	}

	last := len(block.Pipelines) - 1
	in := input
	for _, p := range block.Pipelines[:last] {
		out, err := es.EvalPipeline(stack, p, in)
		if err != nil || out.IsSignal() {
			return out, err
		}
		if err := es.drainStatement(stack, out.Data); err != nil {
			return protocol.Outcome{}, err
		}
		in = protocol.Empty{Loc: p.Span()}
	}
	return es.EvalPipeline(stack, block.Pipelines[last], in)
}

// drainStatement consumes the output of a pipeline nobody reads, keeping
// the exit status of an external command.
func (es *State) drainStatement(stack *Stack, pd protocol.PipelineData) error {
	trailer, err := protocol.Drain(pd)
	if err != nil {
		return err
	}
	RecordExitStatus(stack, trailer)
	return nil
}

// RecordExitStatus stores the exit status of an external command in
// LAST_EXIT_CODE. A nil trailer is ignored.
func RecordExitStatus(stack *Stack, trailer *protocol.Trailer) {
	if trailer == nil {
		return
	}
	stack.Env().Setenv(EnvLastExitCode, strconv.Itoa(trailer.ExitStatus.Code))
}

// EvalPipeline type checks p against input and runs its stages in order,
// each stage consuming the output of the one before it. Control signals
// stop the pipeline and are returned as the outcome.
func (es *State) EvalPipeline(stack *Stack, p *ast.Pipeline, input protocol.PipelineData) (protocol.Outcome, error) {
	if input == nil {
		input = protocol.Empty{Loc: p.Span()}
	}
	if err := es.CheckPipeline(p, protocol.TypeOfData(input)); err != nil {
		closeData(input)
		return protocol.Outcome{}, err
	}

	es.Logger.Debug("running pipeline", "stages", len(p.Elements), "input", describeData(input))

	data := input
	for i, el := range p.Elements {
		if err := es.Interrupt.Check(el.Expr.Span()); err != nil {
			es.Logger.Debug("interrupt observed between stages")
			closeData(data)
			return protocol.Outcome{}, err
		}

		captureStderr := i+1 < len(p.Elements) && feedsComplete(p.Elements[i+1])
		out, err := es.evalElement(stack, el, data, captureStderr)
		if err != nil {
			closeData(data)
			var sigErr *protocol.SignalError
			if errors.As(err, &sigErr) {
				es.Logger.Debug("control signal", "kind", sigErr.Signal.Kind)
				return protocol.SignalOutcome(sigErr.Signal), nil
			}
			return protocol.Outcome{}, err
		}
		if out.IsSignal() {
			es.Logger.Debug("control signal", "kind", out.Signal.Kind)
			return out, nil
		}
		data = out.Data
	}
	return protocol.DataOutcome(data), nil
}

// CompleteCommand is the command that collects a process's output, error
// output and exit code. Processes piped into it have their stderr captured.
const CompleteCommand = "complete"

func feedsComplete(next ast.Element) bool {
	call, ok := next.Expr.(*ast.CallExpr)
	return ok && call.Call.Head == CompleteCommand
}

func (es *State) evalElement(stack *Stack, el ast.Element, input protocol.PipelineData, captureStderr bool) (protocol.Outcome, error) {
	var out protocol.Outcome
	var err error

	switch e := el.Expr.(type) {
	case *ast.CallExpr:
		out, err = es.evalCall(stack, e.Call, input)
	case *ast.ExternalCall:
		var pd protocol.PipelineData
		pd, err = es.evalExternal(stack, e, input, el.Redirect, captureStderr)
		out = protocol.DataOutcome(pd)
	default:
		var v protocol.Value
		v, err = es.evalExprStage(stack, el.Expr, input)
		out = protocol.DataOutcome(protocol.NewValueData(v))
	}
	if err != nil || out.IsSignal() || el.Redirect == nil {
		return out, err
	}

	pd, err := es.redirect(stack, el, out.Data)
	return protocol.DataOutcome(pd), err
}

// evalExprStage evaluates an expression used as a pipeline stage. Input to
// the stage is available as $in.
func (es *State) evalExprStage(stack *Stack, expr ast.Expr, input protocol.PipelineData) (protocol.Value, error) {
	if lit, ok := expr.(*ast.Literal); ok {
		closeData(input)
		return lit.Val, nil
	}
	if protocol.IsEmpty(input) {
		return es.EvalExpr(stack, expr)
	}

	in, err := protocol.IntoValue(input)
	if err != nil {
		return nil, err
	}
	frame := stack.Push()
	frame.AddVar(InVariable, in)
	return es.EvalExpr(frame, expr)
}

func (es *State) evalCall(stack *Stack, raw *ast.Call, input protocol.PipelineData) (protocol.Outcome, error) {
	cmd, ok := es.FindCommand(raw.Head)
	if !ok {
		closeData(input)
		return protocol.Outcome{}, protocol.CommandNotFoundError(raw.Head, es.Suggest(raw.Head), raw.HeadSpan)
	}
	sig := cmd.Signature()

	if wantsHelp(raw) {
		closeData(input)
		help := protocol.NewString(GetFullHelp(es, cmd), raw.Span())
		return protocol.DataOutcome(protocol.NewValueData(help)), nil
	}

	if err := checkInput(sig, input, raw.HeadSpan); err != nil {
		closeData(input)
		return protocol.Outcome{}, err
	}

	kw, isKeyword := cmd.(Keyword)
	call, err := es.bindCall(stack, sig, raw, !isKeyword)
	if err != nil {
		closeData(input)
		return protocol.Outcome{}, err
	}

	es.Logger.Debug("running command", "cmd", raw.Head, "input", describeData(input))

	if isKeyword {
		out, err := kw.RunKeyword(es, stack, call, input)
		if err != nil {
			return protocol.Outcome{}, annotate(err, call.Span())
		}
		if out.Data == nil {
			out.Data = protocol.Empty{Loc: call.Span()}
		}
		return out, nil
	}

	pd, err := cmd.Run(es, stack, call, input)
	if err != nil {
		return protocol.Outcome{}, annotate(err, call.Span())
	}
	if pd == nil {
		pd = protocol.Empty{Loc: call.Span()}
	}

	if producesNothing(sig) && !protocol.IsEmpty(pd) {
		if _, err := protocol.Drain(pd); err != nil {
			return protocol.Outcome{}, annotate(err, call.Span())
		}
		pd = protocol.Empty{Loc: call.Span()}
	}
	return protocol.DataOutcome(pd), nil
}

// RunCommand calls a registered command by name with already evaluated
// arguments, for commands built on top of other commands.
func (es *State) RunCommand(stack *Stack, name string, args []ast.Argument, input protocol.PipelineData) (protocol.PipelineData, error) {
	raw := &ast.Call{Head: name, Args: args}
	out, err := es.evalCall(stack, raw, input)
	if err != nil {
		return nil, err
	}
	if out.IsSignal() {
		return nil, &protocol.SignalError{Signal: out.Signal}
	}
	return out.Data, nil
}

func producesNothing(sig *protocol.Signature) bool {
	if len(sig.InputOutput) == 0 {
		return false
	}
	for _, io := range sig.InputOutput {
		if io.Out.Kind != protocol.TypeNothing {
			return false
		}
	}
	return true
}

// annotate gives errors without a location the span of the call that
// failed.
func annotate(err error, span protocol.Span) error {
	var sigErr *protocol.SignalError
	if errors.As(err, &sigErr) {
		return err
	}
	se := protocol.AsShellError(err, span)
	if se.Span.IsUnknown() {
		return se.WithSpan(span)
	}
	return se
}

// EvalExpr evaluates an expression to a value.
func (es *State) EvalExpr(stack *Stack, expr ast.Expr) (protocol.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Val, nil

	case *ast.Var:
		return es.lookupVar(stack, e)

	case *ast.ListExpr:
		vals := make([]protocol.Value, 0, len(e.Items))
		for _, item := range e.Items {
			v, err := es.EvalExpr(stack, item)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return protocol.NewList(vals, e.Loc), nil

	case *ast.RecordExpr:
		return es.evalRecord(stack, e)

	case *ast.Subexpression:
		return es.evalSubexpression(stack, e)

	case *ast.ClosureExpr:
		return es.makeClosure(stack, e.BlockID, e.Loc)

	case *ast.BlockExpr:
		return protocol.Closure{BlockID: e.BlockID, Loc: e.Loc}, nil

	case *ast.CellPathExpr:
		head, err := es.EvalExpr(stack, e.Head)
		if err != nil {
			return nil, err
		}
		return protocol.FollowCellPath(head, e.Path)

	case *ast.StringInterp:
		var sb strings.Builder
		for _, part := range e.Parts {
			v, err := es.EvalExpr(stack, part)
			if err != nil {
				return nil, err
			}
			s, err := es.Format.String(v)
			if err != nil {
				return nil, protocol.AsShellError(err, part.Span())
			}
			sb.WriteString(s)
		}
		return protocol.NewString(sb.String(), e.Loc), nil

	case *ast.BinaryOp:
		return es.evalBinary(stack, e)

	case *ast.CallExpr, *ast.ExternalCall:
		pipeline := &ast.Pipeline{Elements: []ast.Element{{Expr: expr}}}
		return es.collectPipeline(stack, pipeline, expr.Span())
	}
	return nil, protocol.GenericError(fmt.Sprintf("can't evaluate %T", expr), expr.Span())
}

func (es *State) lookupVar(stack *Stack, v *ast.Var) (protocol.Value, error) {
	if val, ok := stack.GetVar(v.Name); ok {
		return val, nil
	}
	switch v.Name {
	case InVariable:
		return protocol.Nothing{Loc: v.Loc}, nil
	case EnvVariable:
		return stack.EnvRecord(v.Loc), nil
	}
	return nil, &protocol.ShellError{
		Kind:  protocol.GenericErrorKind,
		Msg:   fmt.Sprintf("variable $%s not found", v.Name),
		Label: "variable not found",
		Span:  v.Loc,
	}
}

func (es *State) evalRecord(stack *Stack, e *ast.RecordExpr) (protocol.Value, error) {
	b := &protocol.RecordBuilder{}
	seen := make(map[string]protocol.Span, len(e.Fields))
	for _, field := range e.Fields {
		if first, ok := seen[field.Key]; ok {
			return nil, protocol.ColumnDefinedTwiceError(field.Key, field.KeySpan, first)
		}
		seen[field.Key] = field.KeySpan

		v, err := es.EvalExpr(stack, field.Value)
		if err != nil {
			return nil, err
		}
		b.Set(field.Key, v)
	}
	return b.Build(e.Loc), nil
}

func (es *State) evalSubexpression(stack *Stack, e *ast.Subexpression) (protocol.Value, error) {
	block, err := es.Block(e.BlockID)
	if err != nil {
		return nil, err
	}
	out, err := es.EvalBlock(stack.Push(), block, protocol.Empty{Loc: e.Loc})
	if err != nil {
		return nil, err
	}
	if out.IsSignal() {
		return nil, &protocol.SignalError{Signal: out.Signal}
	}
	return es.collect(stack, out.Data)
}

func (es *State) collectPipeline(stack *Stack, p *ast.Pipeline, span protocol.Span) (protocol.Value, error) {
	out, err := es.EvalPipeline(stack, p, protocol.Empty{Loc: span})
	if err != nil {
		return nil, err
	}
	if out.IsSignal() {
		return nil, &protocol.SignalError{Signal: out.Signal}
	}
	return es.collect(stack, out.Data)
}

// collect materializes pipeline output used as a value. Process output
// loses its trailing newline, the way command substitution works in other
// shells.
func (es *State) collect(stack *Stack, pd protocol.PipelineData) (protocol.Value, error) {
	bs, ok := pd.(*protocol.ByteStream)
	if !ok || !bs.HasExitStatus() {
		return protocol.IntoValue(pd)
	}

	v, err := bs.IntoValue()
	if err != nil {
		return nil, err
	}
	trailer, err := bs.Wait()
	if err != nil {
		return nil, err
	}
	RecordExitStatus(stack, &trailer)

	if s, ok := v.(protocol.String); ok {
		s.Val = strings.TrimRight(s.Val, "\r\n")
		return s, nil
	}
	return v, nil
}

func (es *State) makeClosure(stack *Stack, blockID int, span protocol.Span) (protocol.Value, error) {
	block, err := es.Block(blockID)
	if err != nil {
		return nil, err
	}
	captures := make([]protocol.Capture, 0, len(block.Captures))
	for _, name := range block.Captures {
		v, err := es.lookupVar(stack, &ast.Var{Name: name, Loc: span})
		if err != nil {
			return nil, err
		}
		captures = append(captures, protocol.Capture{Name: name, Value: v})
	}
	return protocol.Closure{BlockID: blockID, Captures: captures, Loc: span}, nil
}

func closeData(pd protocol.PipelineData) {
	switch data := pd.(type) {
	case *protocol.ListStream:
		data.Close()
	case *protocol.ByteStream:
		data.Close()
	}
}

func describeData(pd protocol.PipelineData) string {
	switch data := pd.(type) {
	case nil, protocol.Empty:
		return "empty"
	case protocol.ValueData:
		return "value:" + protocol.TypeOf(data.Val).String()
	case *protocol.ListStream:
		return "list stream"
	case *protocol.ByteStream:
		src, name := data.Source()
		if name != "" {
			return fmt.Sprintf("byte stream from %s %s", src, name)
		}
		return "byte stream from " + src.String()
	}
	return fmt.Sprintf("%T", pd)
}
