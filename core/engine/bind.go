package engine

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// bindCall matches the arguments of raw against sig. When evaluate is
// false only the shape of the call is checked, which is how keywords are
// bound.
func (es *State) bindCall(stack *Stack, sig *protocol.Signature, raw *ast.Call, evaluate bool) (*Call, error) {
	call := &Call{
		Head:     raw.Head,
		HeadSpan: raw.HeadSpan,
		Raw:      raw,
		sig:      sig,
		named:    make(map[string]protocol.Value),
	}
	callSpan := raw.Span()

	var positional []ast.Argument
	for _, arg := range raw.Args {
		switch arg.Kind {
		case ast.NamedArg:
			if err := es.bindFlag(stack, call, arg, evaluate); err != nil {
				return nil, err
			}
		default:
			positional = append(positional, arg)
		}
	}

	count := 0
	for _, arg := range positional {
		var vals []protocol.Value
		switch {
		case !evaluate:
			vals = []protocol.Value{nil}
		case arg.Kind == ast.SpreadArg:
			v, err := es.EvalExpr(stack, arg.Value)
			if err != nil {
				return nil, err
			}
			list, ok := v.(protocol.List)
			if !ok {
				return nil, protocol.TypeMismatchError(
					fmt.Sprintf("can only spread lists, found %s", protocol.TypeOf(v)), arg.Loc)
			}
			vals = list.Vals
		default:
			v, err := es.EvalExpr(stack, arg.Value)
			if err != nil {
				return nil, err
			}
			vals = []protocol.Value{v}
		}

		for _, v := range vals {
			param, ok := sig.Positional(count)
			if !ok {
				if sig.AllowUnknownArgs {
					call.extra = append(call.extra, v)
					continue
				}
				return nil, extraPositionalError(sig, arg.Loc)
			}
			if evaluate {
				if err := checkArgType(param.Name, param.Type, v); err != nil {
					return nil, err
				}
			}
			call.positional = append(call.positional, v)
			count++
		}
	}

	if count < len(sig.Required) {
		missing := sig.Required[count]
		return nil, (&protocol.ShellError{
			Kind:  protocol.ArgumentBindingKind,
			Msg:   fmt.Sprintf("missing required positional argument %s", missing.Name),
			Label: fmt.Sprintf("missing %s", missing.Name),
			Span:  protocol.Span{Start: callSpan.End, End: callSpan.End},
		}).WithHelp(usageLine(sig))
	}

	for i := count; i < sig.NumPositionals(); i++ {
		param, _ := sig.Positional(i)
		var def protocol.Value = protocol.Nothing{Loc: callSpan}
		if param.Default != nil {
			def = param.Default
		}
		call.positional = append(call.positional, def)
	}

	for _, flag := range sig.Flags {
		if _, ok := call.named[flag.Long]; ok {
			continue
		}
		switch {
		case flag.Required:
			return nil, protocol.ArgumentError(
				fmt.Sprintf("missing required flag --%s", flag.Long), callSpan)
		case flag.IsSwitch():
			call.named[flag.Long] = protocol.NewBool(false, callSpan)
		case flag.Default != nil:
			call.named[flag.Long] = flag.Default
		}
	}

	return call, nil
}

func (es *State) bindFlag(stack *Stack, call *Call, arg ast.Argument, evaluate bool) error {
	sig := call.sig
	flag, ok := sig.FindFlag(arg.Name)
	if !ok {
		if sig.AllowUnknownArgs {
			return es.passThroughFlag(stack, call, arg, evaluate)
		}
		return unknownFlagError(sig, arg)
	}

	if flag.IsSwitch() {
		if arg.Value == nil || !evaluate {
			call.named[flag.Long] = protocol.NewBool(true, arg.Loc)
			return nil
		}
		v, err := es.EvalExpr(stack, arg.Value)
		if err != nil {
			return err
		}
		if err := checkArgType(flag.Long, protocol.BoolType, v); err != nil {
			return err
		}
		call.named[flag.Long] = v
		return nil
	}

	if arg.Value == nil {
		return protocol.ArgumentError(
			fmt.Sprintf("flag --%s requires a %s value", flag.Long, flag.Type), arg.Loc)
	}
	if !evaluate {
		call.named[flag.Long] = protocol.Nothing{Loc: arg.Loc}
		return nil
	}
	v, err := es.EvalExpr(stack, arg.Value)
	if err != nil {
		return err
	}
	if err := checkArgType("--"+flag.Long, *flag.Type, v); err != nil {
		return err
	}
	call.named[flag.Long] = v
	return nil
}

func (es *State) passThroughFlag(stack *Stack, call *Call, arg ast.Argument, evaluate bool) error {
	name := "--" + arg.Name
	if len([]rune(arg.Name)) == 1 {
		name = "-" + arg.Name
	}
	call.extra = append(call.extra, protocol.NewString(name, arg.Loc))
	if arg.Value == nil || !evaluate {
		return nil
	}
	v, err := es.EvalExpr(stack, arg.Value)
	if err != nil {
		return err
	}
	call.extra = append(call.extra, v)
	return nil
}

// checkArgType verifies an evaluated argument against its declared type.
func checkArgType(name string, want protocol.Type, v protocol.Value) error {
	got := protocol.TypeOf(v)
	switch want.Kind {
	case protocol.TypeAny:
		return nil
	case protocol.TypeCellPath:
		switch v.(type) {
		case protocol.String, protocol.Int:
			return nil
		}
	case protocol.TypeBlock:
		if _, ok := v.(protocol.Closure); ok {
			return nil
		}
	}
	if protocol.IsNothing(v) || got.Compatible(want) {
		return nil
	}
	return &protocol.ShellError{
		Kind:  protocol.TypeMismatchKind,
		Msg:   fmt.Sprintf("%s expects %s, found %s", name, want, got),
		Label: fmt.Sprintf("expected %s", want),
		Span:  v.Span(),
	}
}

func unknownFlagError(sig *protocol.Signature, arg ast.Argument) error {
	var known []string
	for _, f := range sig.Flags {
		known = append(known, "--"+f.Long)
	}
	return (&protocol.ShellError{
		Kind:  protocol.ArgumentBindingKind,
		Msg:   fmt.Sprintf("%s doesn't have flag %s", sig.Name, arg.Name),
		Label: "unknown flag",
		Span:  arg.Loc,
	}).WithHelp("available flags: " + strings.Join(known, ", "))
}

func extraPositionalError(sig *protocol.Signature, span protocol.Span) error {
	return (&protocol.ShellError{
		Kind:  protocol.ArgumentBindingKind,
		Msg:   "extra positional argument",
		Label: fmt.Sprintf("%s takes %d positional arguments", sig.Name, sig.NumPositionals()),
		Span:  span,
	}).WithHelp(usageLine(sig))
}
