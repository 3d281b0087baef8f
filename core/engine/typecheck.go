package engine

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// CheckPipeline verifies, before anything runs, that every command of p
// exists and that the types declared by each stage's outputs can be fed to
// the next stage. Stages whose output can't be known statically yield any,
// which is accepted everywhere and checked again at runtime.
func (es *State) CheckPipeline(p *ast.Pipeline, input protocol.Type) error {
	cur := input
	for _, el := range p.Elements {
		out, err := es.stageOutput(el.Expr, cur)
		if err != nil {
			return err
		}
		if el.Redirect != nil && el.Redirect.Target != ast.RedirectStderr {
			out = protocol.NothingType
		}
		cur = out
	}
	return nil
}

func (es *State) stageOutput(expr ast.Expr, in protocol.Type) (protocol.Type, error) {
	switch e := expr.(type) {
	case *ast.CallExpr:
		return es.callOutput(e.Call, in)
	case *ast.ExternalCall:
		return protocol.ByteStreamType, nil
	case *ast.Literal:
		return protocol.TypeOf(e.Val), nil
	}
	return protocol.AnyType, nil
}

func (es *State) callOutput(call *ast.Call, in protocol.Type) (protocol.Type, error) {
	cmd, ok := es.FindCommand(call.Head)
	if !ok {
		return protocol.AnyType, protocol.CommandNotFoundError(call.Head, es.Suggest(call.Head), call.HeadSpan)
	}
	sig := cmd.Signature()
	if wantsHelp(call) {
		return protocol.StringType, nil
	}

	outs, ok := sig.OutputsFor(in)
	if !ok {
		return protocol.AnyType, inputMismatchError(sig, in, call.HeadSpan)
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return protocol.AnyType, nil
}

// checkInput is the runtime counterpart of CheckPipeline for data whose
// type is only known once it's produced.
func checkInput(sig *protocol.Signature, input protocol.PipelineData, span protocol.Span) error {
	if len(sig.InputOutput) == 0 {
		return nil
	}
	in := protocol.TypeOfData(input)
	if _, ok := sig.OutputsFor(in); ok {
		return nil
	}
	return inputMismatchError(sig, in, span)
}

func inputMismatchError(sig *protocol.Signature, in protocol.Type, span protocol.Span) error {
	var accepted []string
	for _, t := range sig.AcceptedInputs() {
		accepted = append(accepted, t.String())
	}
	err := protocol.UnsupportedInputError(sig.Name, in, span)
	if in.Kind == protocol.TypeNothing {
		err.Msg = fmt.Sprintf("%s needs input", sig.Name)
	}
	return err.WithHelp("accepted input types: " + strings.Join(accepted, ", "))
}

func wantsHelp(call *ast.Call) bool {
	_, ok := call.Named(protocol.HelpFlag, "h")
	return ok
}
