package frontend

import (
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// parseDef reads def [--env] name [params] { body } and registers the
// command right away.
//
// Parameters are written as:
//
//	name         required, any type
//	name: type   required, typed
//	name?        optional
//	...rest      rest arguments
//	--flag       switch
//	--flag: type valued flag
//	--flag(-f)   flag with a short name
func (p *Parser) parseDef() error {
	def := p.next()

	redirectEnv := false
	if p.peekIs("--env") {
		p.next()
		redirectEnv = true
	}

	nameTok, ok := p.peek()
	if !ok || isTerminator(nameTok) {
		return parseErr(p.spanOrEOF(ok, nameTok), "expected a command name", "def needs a name")
	}
	p.next()
	name := nameTok.text
	if nameTok.kind == quotedToken {
		name = unquote(name)
	}

	open, ok := p.peek()
	if !ok || !open.is("[") {
		return parseErr(p.spanOrEOF(ok, open), "expected a parameter list", "e.g. [name: string]")
	}
	p.next()

	sig := protocol.NewSignature(name).InCategory(protocol.CategoryCustom).IO(protocol.AnyType, protocol.AnyType)
	locals, err := p.parseParams(sig, open)
	if err != nil {
		return err
	}

	brace, ok := p.peek()
	if !ok || !brace.is("{") {
		return parseErr(p.spanOrEOF(ok, brace), "expected the command body", "body goes here")
	}
	p.next()

	s := p.pushScope(locals...)
	block, err := p.parseBlock("}")
	p.popScope()
	if err != nil {
		return err
	}
	closing, err := p.expect("}", brace.span)
	if err != nil {
		return err
	}
	block.Signature = sig
	block.Captures = s.captures
	block.RedirectEnv = redirectEnv
	block.Loc = brace.span.Merge(closing.span)

	if err := p.es.AddCustomCommand(sig, block); err != nil {
		return &protocol.ShellError{
			Kind:  protocol.ParseErrorKind,
			Msg:   err.Error(),
			Label: "defined here",
			Span:  def.span.Merge(nameTok.span),
		}
	}
	return nil
}

func (p *Parser) parseParams(sig *protocol.Signature, open token) ([]string, error) {
	var locals []string
	sawOptional := false
	for {
		p.skip(",")
		t, ok := p.peek()
		if !ok {
			return nil, parseErr(open.span, "parameter list isn't closed", "missing ]")
		}
		p.next()
		if t.is("]") {
			return locals, nil
		}
		if t.kind != wordToken {
			return nil, parseErr(t.span, "expected a parameter name", "not a name")
		}

		switch {
		case strings.HasPrefix(t.text, "--"):
			long, typeName, hasType := strings.Cut(t.text[2:], ":")
			var short rune
			if p.peekIs("(") {
				p.next()
				st := p.next()
				s := strings.TrimPrefix(st.text, "-")
				if len(s) != 1 {
					return nil, parseErr(st.span, "short flags are a single character", "e.g. (-f)")
				}
				short = rune(s[0])
				if _, err := p.expect(")", st.span); err != nil {
					return nil, err
				}
			}
			typ, typed, err := p.paramType(t, typeName, hasType)
			if err != nil {
				return nil, err
			}
			if typed {
				sig.Named(long, typ, short, "")
			} else {
				sig.Switch(long, short, "")
			}
			locals = append(locals, engine.VarName(long))

		case strings.HasPrefix(t.text, "..."):
			name, typeName, hasType := strings.Cut(t.text[3:], ":")
			typ, _, err := p.paramType(t, typeName, hasType)
			if err != nil {
				return nil, err
			}
			sig.RestArgs(name, typ, "")
			locals = append(locals, name)

		default:
			name, typeName, hasType := strings.Cut(t.text, ":")
			optional := strings.HasSuffix(name, "?")
			name = strings.TrimSuffix(name, "?")
			typ, _, err := p.paramType(t, typeName, hasType)
			if err != nil {
				return nil, err
			}
			if optional {
				sawOptional = true
				sig.Opt(name, typ, "")
			} else {
				if sawOptional {
					return nil, parseErr(t.span, "required parameter after an optional one", "move it before the optional parameters")
				}
				sig.Req(name, typ, "")
			}
			locals = append(locals, name)
		}
	}
}

// paramType reads the type annotation of a parameter, which may be glued
// to the name (a:int), follow the colon (a: int) or stand alone (a :int).
func (p *Parser) paramType(t token, typeName string, hasColon bool) (protocol.Type, bool, error) {
	if !hasColon {
		if next, ok := p.peek(); ok && next.kind == wordToken && strings.HasPrefix(next.text, ":") {
			p.next()
			typeName, hasColon = next.text[1:], true
		}
	}
	if !hasColon {
		return protocol.AnyType, false, nil
	}
	if typeName == "" {
		next, ok := p.peek()
		if !ok || next.kind != wordToken || next.is("]") {
			return protocol.Type{}, false, parseErr(t.span, "missing parameter type", "expected a type after :")
		}
		p.next()
		typeName = next.text
	}
	typ, err := protocol.ParseType(typeName)
	if err != nil {
		return protocol.Type{}, false, parseErr(t.span, err.Error(), "parameter type")
	}
	return typ, true, nil
}
