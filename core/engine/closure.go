package engine

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// calleeFrame creates the frame a closure or custom command body runs in,
// enforcing the recursion limit.
func (es *State) calleeFrame(stack *Stack, span protocol.Span) (*Stack, error) {
	callee := stack.CalleeFrame()
	if callee.Depth() > es.RecursionLimit() {
		return nil, (&protocol.ShellError{
			Kind:  protocol.GenericErrorKind,
			Msg:   "recursion limit reached",
			Label: "this call is nested too deeply",
			Span:  span,
		}).WithHelp(fmt.Sprintf("the limit is %d, set recursion_limit to change it", es.RecursionLimit()))
	}
	return callee, nil
}

// RunClosure calls a closure with positional arguments. A closure with
// parameters gets args bound to them and the first argument as $in; a
// closure without parameters gets input as its pipeline input.
//
// return ends the closure with its value. break and continue can't leave
// a closure and fail with ControlSignalEscaped.
func (es *State) RunClosure(stack *Stack, c protocol.Closure, args []protocol.Value, input protocol.PipelineData) (protocol.PipelineData, error) {
	block, err := es.Block(c.BlockID)
	if err != nil {
		return nil, err
	}
	callee, err := es.calleeFrame(stack, c.Loc)
	if err != nil {
		closeData(input)
		return nil, err
	}

	for _, capture := range c.Captures {
		callee.AddVar(capture.Name, capture.Value)
	}

	hasParams := block.Signature != nil && (block.Signature.NumPositionals() > 0 || block.Signature.Rest != nil)
	if hasParams {
		if err := bindClosureParams(callee, block.Signature, args, c.Loc); err != nil {
			closeData(input)
			return nil, err
		}
		if len(args) > 0 {
			callee.AddVar(InVariable, args[0])
		}
	} else if vd, ok := input.(protocol.ValueData); ok {
		callee.AddVar(InVariable, vd.Val)
	}

	body := input
	if hasParams {
		closeData(input)
		body = protocol.Empty{Loc: c.Loc}
	}

	out, err := es.EvalBlock(callee, block, body)
	if err != nil {
		return nil, err
	}
	if block.RedirectEnv {
		stack.RedirectEnvFrom(callee)
	}
	return closureResult(out)
}

// RunClosureValue calls a closure and collects its output into a value.
func (es *State) RunClosureValue(stack *Stack, c protocol.Closure, args ...protocol.Value) (protocol.Value, error) {
	var input protocol.PipelineData = protocol.Empty{Loc: c.Loc}
	if len(args) > 0 {
		input = protocol.NewValueData(args[0])
	}
	out, err := es.RunClosure(stack, c, args, input)
	if err != nil {
		return nil, err
	}
	return es.collect(stack, out)
}

func closureResult(out protocol.Outcome) (protocol.PipelineData, error) {
	if !out.IsSignal() {
		return out.Data, nil
	}
	if out.Signal.Kind == protocol.ReturnSignal {
		return protocol.NewValueData(out.Signal.Value), nil
	}
	return nil, protocol.SignalEscapedError(out.Signal)
}

func bindClosureParams(callee *Stack, sig *protocol.Signature, args []protocol.Value, span protocol.Span) error {
	n := sig.NumPositionals()
	if len(args) > n && sig.Rest == nil {
		return protocol.ArgumentError(
			fmt.Sprintf("closure takes %d arguments, got %d", n, len(args)), span)
	}
	for i := 0; i < n; i++ {
		param, _ := sig.Positional(i)
		var v protocol.Value = protocol.Nothing{Loc: span}
		switch {
		case i < len(args):
			v = args[i]
		case i < len(sig.Required):
			return protocol.ArgumentError(
				fmt.Sprintf("closure is missing argument %s", param.Name), span)
		case param.Default != nil:
			v = param.Default
		}
		callee.AddVar(VarName(param.Name), v)
	}
	if sig.Rest != nil {
		var rest []protocol.Value
		if len(args) > n {
			rest = args[n:]
		}
		callee.AddVar(VarName(sig.Rest.Name), protocol.NewList(rest, span))
	}
	return nil
}

// VarName is the variable a parameter or flag is bound to: dashes become
// underscores.
func VarName(param string) string {
	return strings.ReplaceAll(strings.TrimLeft(param, "-"), "-", "_")
}

// CustomCommand is a command whose body is a block, e.g. one defined by a
// user's startup script.
type CustomCommand struct {
	sig     *protocol.Signature
	blockID int
}

var _ Command = (*CustomCommand)(nil)

// AddCustomCommand registers block as the body of a new command. The
// block runs in a fresh frame with the captured variables of the block
// plus the bound parameters.
func (es *State) AddCustomCommand(sig *protocol.Signature, block *ast.Block) error {
	if sig.Category == "" || sig.Category == protocol.CategoryCore {
		sig.InCategory(protocol.CategoryCustom)
	}
	if block.RedirectEnv {
		sig.RedirectEnv = true
	}
	id := es.AddBlock(block)

	return es.Register(&CustomCommand{sig: sig, blockID: id})
}

func (c *CustomCommand) Signature() *protocol.Signature {
	return c.sig
}

func (c *CustomCommand) Run(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error) {
	block, err := es.Block(c.blockID)
	if err != nil {
		return nil, err
	}
	callee, err := es.calleeFrame(stack, call.Span())
	if err != nil {
		closeData(input)
		return nil, err
	}

	for _, name := range block.Captures {
		if v, ok := stack.GetVar(name); ok {
			callee.AddVar(name, v)
		}
	}

	for i := 0; i < c.sig.NumPositionals(); i++ {
		param, _ := c.sig.Positional(i)
		callee.AddVar(VarName(param.Name), call.Req(i))
	}
	if c.sig.Rest != nil {
		callee.AddVar(VarName(c.sig.Rest.Name), protocol.NewList(call.Rest(c.sig.NumPositionals()), call.Span()))
	}
	for _, flag := range c.sig.Flags {
		if flag.Long == protocol.HelpFlag {
			continue
		}
		v, ok := call.named[flag.Long]
		if !ok {
			v = protocol.Nothing{Loc: call.Span()}
		}
		callee.AddVar(VarName(flag.Long), v)
	}
	if vd, ok := input.(protocol.ValueData); ok {
		callee.AddVar(InVariable, vd.Val)
	}

	out, err := es.EvalBlock(callee, block, input)
	if err != nil {
		return nil, err
	}
	if c.sig.RedirectEnv {
		stack.RedirectEnvFrom(callee)
	}
	return closureResult(out)
}
