package commands

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/process"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// RunFunc is the body of a builtin command.
type RunFunc = func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error)

// KeywordFunc is the body of a keyword, which evaluates its own arguments.
type KeywordFunc = func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error)

// AllCommands holds a constructor for every builtin, keyed by name.
var AllCommands = make(map[string]func() engine.Command)

// addCommand registers a builtin constructor under the name of its
// signature.
func addCommand(ctor func() engine.Command) {
	name := ctor().Signature().Name
	if _, ok := AllCommands[name]; ok {
		panic(fmt.Sprintf("builtin %q registered twice", name))
	}
	AllCommands[name] = ctor
}

// BuiltinCommand is a named builtin.
type BuiltinCommand struct {
	Name string
	Cmd  engine.Command
}

// ListBuiltinCommands returns every builtin sorted by name.
func ListBuiltinCommands() []BuiltinCommand {
	var out []BuiltinCommand
	for name, ctor := range AllCommands {
		out = append(out, BuiltinCommand{Name: name, Cmd: ctor()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// RegisterAll adds every builtin to the engine.
func RegisterAll(es *engine.State) error {
	for _, b := range ListBuiltinCommands() {
		if err := es.Register(b.Cmd); err != nil {
			return err
		}
	}
	return nil
}

// SimpleCommand is a builtin made of a signature and a function.
type SimpleCommand struct {
	Sig *protocol.Signature
	Fn  RunFunc
	// Ex holds documented examples, which are also run as tests.
	Ex []engine.Example
}

var _ engine.Exampler = (*SimpleCommand)(nil)

func (s *SimpleCommand) Signature() *protocol.Signature { return s.Sig }

func (s *SimpleCommand) Run(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
	return s.Fn(es, stack, call, input)
}

func (s *SimpleCommand) Examples() []engine.Example { return s.Ex }

// KeywordCommand is a builtin that controls evaluation of its arguments.
type KeywordCommand struct {
	Sig *protocol.Signature
	Fn  KeywordFunc
	Ex  []engine.Example
}

var _ engine.Keyword = (*KeywordCommand)(nil)

func (k *KeywordCommand) Signature() *protocol.Signature { return k.Sig }

func (k *KeywordCommand) Run(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
	out, err := k.Fn(es, stack, call, input)
	if err != nil {
		return nil, err
	}
	if out.IsSignal() {
		return nil, &protocol.SignalError{Signal: out.Signal}
	}
	return out.Data, nil
}

func (k *KeywordCommand) RunKeyword(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
	return k.Fn(es, stack, call, input)
}

func (k *KeywordCommand) Examples() []engine.Example { return k.Ex }

// runBody runs the body of a keyword. Blocks run in a child frame of
// stack so they see and may change its environment; closures run the way
// they always do.
func runBody(es *engine.State, stack *engine.Stack, body ast.Expr, input protocol.PipelineData) (protocol.Outcome, error) {
	switch e := body.(type) {
	case *ast.BlockExpr:
		block, err := es.Block(e.BlockID)
		if err != nil {
			return protocol.Outcome{}, err
		}
		return es.EvalBlock(stack.Push(), block, input)
	case *ast.CallExpr:
		return es.EvalPipeline(stack, &ast.Pipeline{Elements: []ast.Element{{Expr: e}}}, input)
	}

	v, err := es.EvalExpr(stack, body)
	if err != nil {
		return protocol.Outcome{}, err
	}
	cl, ok := v.(protocol.Closure)
	if !ok {
		return protocol.DataOutcome(protocol.NewValueData(v)), nil
	}
	pd, err := es.RunClosure(stack, cl, nil, input)
	if err != nil {
		return protocol.Outcome{}, err
	}
	return protocol.DataOutcome(pd), nil
}

// collectChecked materializes pd. Process output is checked for a
// failing exit status, which becomes an error.
func collectChecked(stack *engine.Stack, pd protocol.PipelineData, span protocol.Span) (protocol.Value, error) {
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
	engine.RecordExitStatus(stack, &trailer)
	_, name := bs.Source()
	if err := process.Check(name, trailer, span); err != nil {
		return nil, err
	}
	return v, nil
}

// rawPositional returns the i-th unevaluated positional argument of a
// keyword call.
func rawPositional(call *engine.Call, i int) (ast.Expr, bool) {
	args := call.Raw.Positionals()
	if i >= len(args) {
		return nil, false
	}
	return args[i], true
}

// evalString evaluates a keyword argument that must be a string.
func evalString(es *engine.State, stack *engine.Stack, expr ast.Expr) (string, error) {
	v, err := es.EvalExpr(stack, expr)
	if err != nil {
		return "", err
	}
	s, ok := v.(protocol.String)
	if !ok {
		return "", protocol.TypeMismatchError(fmt.Sprintf("expected string, found %s", protocol.TypeOf(v)), v.Span())
	}
	return s.Val, nil
}

// mapValues applies fn to each element of a list or to a single value.
func mapValues(v protocol.Value, fn func(protocol.Value) (protocol.Value, error)) (protocol.Value, error) {
	list, ok := v.(protocol.List)
	if !ok {
		return fn(v)
	}
	out := make([]protocol.Value, 0, len(list.Vals))
	for _, item := range list.Vals {
		mapped, err := fn(item)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return protocol.NewList(out, list.Loc), nil
}

var (
	anyList = protocol.ListOf(protocol.TypeAny)
	table   = protocol.TableType
)

// closeInput releases input a command won't read.
func closeInput(pd protocol.PipelineData) {
	switch data := pd.(type) {
	case *protocol.ListStream:
		data.Close()
	case *protocol.ByteStream:
		data.Close()
	}
}

// drainBody discards the output of a loop iteration, keeping the exit
// status of external commands.
func drainBody(stack *engine.Stack, pd protocol.PipelineData) error {
	trailer, err := protocol.Drain(pd)
	if err != nil {
		return err
	}
	engine.RecordExitStatus(stack, trailer)
	return nil
}

// condition evaluates a keyword condition, which must be a bool.
func condition(es *engine.State, stack *engine.Stack, expr ast.Expr) (bool, error) {
	v, err := es.EvalExpr(stack, expr)
	if err != nil {
		return false, err
	}
	b, ok := v.(protocol.Bool)
	if !ok {
		return false, &protocol.ShellError{
			Kind:  protocol.TypeMismatchKind,
			Msg:   fmt.Sprintf("expected bool, found %s", protocol.TypeOf(v)),
			Label: "condition must be a bool",
			Span:  expr.Span(),
		}
	}
	return b.Val, nil
}

// cellPath converts a cell path argument into path members. Optional
// marks every member as optional.
func cellPath(v protocol.Value, optional bool) ([]protocol.PathMember, error) {
	var path []protocol.PathMember
	switch val := v.(type) {
	case protocol.Int:
		if val.Val < 0 {
			return nil, protocol.ArgumentError("row numbers must not be negative", val.Loc)
		}
		path = []protocol.PathMember{{Index: int(val.Val), IsIndex: true, Span: val.Loc}}
	case protocol.String:
		path = protocol.ParseCellPath(val.Val, val.Loc)
	default:
		return nil, protocol.TypeMismatchError(fmt.Sprintf("expected a cell path, found %s", protocol.TypeOf(v)), v.Span())
	}
	if optional {
		for i := range path {
			path[i].Optional = true
		}
	}
	return path, nil
}

// restStrings returns the rest arguments starting at start, which must all
// be strings.
func restStrings(call *engine.Call, start int) ([]protocol.String, error) {
	var out []protocol.String
	for _, arg := range call.Rest(start) {
		s, ok := arg.(protocol.String)
		if !ok {
			return nil, protocol.TypeMismatchError(fmt.Sprintf("expected string, found %s", protocol.TypeOf(arg)), arg.Span())
		}
		out = append(out, s)
	}
	return out, nil
}
