package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/pborman/getopt/v2"
)

// item is one argument of a command before binding. Bare words are handed
// to getopt as they are; everything else is already an expression.
type item struct {
	tok    token
	word   bool
	expr   ast.Expr
	spread bool
	used   bool
}

func (it *item) span() protocol.Span {
	if it.expr != nil {
		return it.expr.Span()
	}
	return it.tok.span
}

// maxCommandWords is the most words a command name has, e.g. "from json".
const maxCommandWords = 3

func (p *Parser) parseCommand() (ast.Expr, error) {
	head := p.next()
	if strings.HasPrefix(head.text, "^") {
		return p.parseExternal(head, head.text[1:])
	}

	name, span := p.commandName(head)
	cmd, ok := p.es.FindCommand(name)
	if !ok {
		return p.parseExternal(head, name)
	}
	_, keyword := cmd.(engine.Keyword)

	var args []ast.Argument
	var err error
	switch {
	case p.peekIs("--help") || p.peekIs("-h"):
		args, err = p.parseGeneric(cmd.Signature(), keyword, span)
	case name == "let":
		args, err = p.parseLet()
	case name == "for":
		args, err = p.parseFor()
	case name == "if":
		args, err = p.parseIf()
	case name == "while":
		args, err = p.parseWhile()
	case name == "return":
		args, err = p.parseReturn()
	default:
		args, err = p.parseGeneric(cmd.Signature(), keyword, span)
	}
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{Call: &ast.Call{Head: name, HeadSpan: span, Args: args}}, nil
}

// commandName joins head with the following words while they name a
// registered command.
func (p *Parser) commandName(head token) (string, protocol.Span) {
	words := []string{head.text}
	spans := []protocol.Span{head.span}
	for i := 0; i < maxCommandWords-1 && p.pos+i < len(p.toks); i++ {
		t := p.toks[p.pos+i]
		if t.kind != wordToken || isTerminator(t) {
			break
		}
		words = append(words, t.text)
		spans = append(spans, t.span)
	}
	for n := len(words); n > 1; n-- {
		name := strings.Join(words[:n], " ")
		if _, ok := p.es.FindCommand(name); ok {
			p.pos += n - 1
			return name, spans[0].Merge(spans[n-1])
		}
	}
	return head.text, head.span
}

func (p *Parser) parseItems(keyword bool) ([]*item, error) {
	var items []*item
	for {
		t, ok := p.peek()
		if !ok || isTerminator(t) {
			return items, nil
		}

		switch {
		case t.kind == wordToken && strings.HasPrefix(t.text, "...$"):
			p.next()
			inner := token{kind: wordToken, text: t.text[3:], span: protocol.NewSpan(t.span.Start+3, t.span.End)}
			expr, err := p.parseVariable(inner)
			if err != nil {
				return nil, err
			}
			items = append(items, &item{tok: t, expr: expr, spread: true})

		case t.kind == wordToken && !strings.ContainsRune("$([{", rune(t.text[0])):
			p.next()
			if isNegativeNumber(t.text) {
				items = append(items, &item{tok: t, expr: ast.Lit(guessLiteral(t.text, t.span))})
				continue
			}
			items = append(items, &item{tok: t, word: true})

		default:
			expr, err := p.parsePrimary(keyword)
			if err != nil {
				return nil, err
			}
			items = append(items, &item{tok: t, expr: expr})
		}
	}
}

func (p *Parser) parseGeneric(sig *protocol.Signature, keyword bool, span protocol.Span) ([]ast.Argument, error) {
	items, err := p.parseItems(keyword)
	if err != nil {
		return nil, err
	}
	if sig.Name == "try" {
		items = dropWord(items, "catch")
	}
	return bindArgs(sig, items, span)
}

func dropWord(items []*item, word string) []*item {
	out := items[:0]
	for _, it := range items {
		if it.word && it.tok.text == word {
			continue
		}
		out = append(out, it)
	}
	return out
}

func placeholder(i int) string {
	return "\x00" + strconv.Itoa(i)
}

type flagValue struct {
	long  string
	value string
}

// bindArgs matches items against sig with getopt, so flags can be combined
// (-rt), given values with = and mixed freely with positionals. -- ends
// flag parsing.
func bindArgs(sig *protocol.Signature, items []*item, span protocol.Span) ([]ast.Argument, error) {
	var args []ast.Argument

	// Commands forwarding their arguments only get the switches written
	// before the first argument.
	if sig.AllowUnknownArgs {
		leading := true
		for _, it := range items {
			if leading && it.word && strings.HasPrefix(it.tok.text, "--") {
				if flag, ok := sig.FindFlag(it.tok.text[2:]); ok && flag.IsSwitch() {
					args = append(args, ast.Argument{Kind: ast.NamedArg, Name: flag.Long, Loc: it.tok.span})
					continue
				}
			}
			leading = false
			args = append(args, positionalArg(it, protocol.AnyType))
		}
		return args, nil
	}

	argv := make([]string, len(items))
	for i, it := range items {
		if it.word {
			argv[i] = it.tok.text
		} else {
			argv[i] = placeholder(i)
		}
	}

	set, _, _ := engine.FlagSet(sig)
	var seen []flagValue
	record := func(opt getopt.Option) bool {
		seen = append(seen, flagValue{long: opt.LongName(), value: opt.String()})
		return true
	}

	var positional []string
	rest := argv
	for {
		if err := set.Getopt(append([]string{sig.Name}, rest...), record); err != nil {
			return nil, (&protocol.ShellError{
				Kind:  protocol.ArgumentBindingKind,
				Msg:   err.Error(),
				Label: "invalid flags",
				Span:  span,
			}).WithHelp(fmt.Sprintf("run `%s --help` for usage", sig.Name))
		}
		rest = set.Args()
		if set.State() == getopt.DashDash {
			positional = append(positional, rest...)
			break
		}
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	for _, f := range seen {
		flag, _ := sig.FindFlag(f.long)
		loc := flagSpan(items, flag, span)
		if flag.IsSwitch() {
			args = append(args, ast.Argument{Kind: ast.NamedArg, Name: flag.Long, Loc: loc})
			continue
		}
		value, _ := resolve(items, f.value, *flag.Type, loc)
		args = append(args, ast.Argument{Kind: ast.NamedArg, Name: flag.Long, Value: value, Loc: loc.Merge(value.Span())})
	}

	for i, s := range positional {
		typ := protocol.AnyType
		if param, ok := sig.Positional(i); ok {
			typ = param.Type
		}
		value, spread := resolve(items, s, typ, span)
		kind := ast.PositionalArg
		if spread {
			kind = ast.SpreadArg
		}
		args = append(args, ast.Argument{Kind: kind, Value: value, Loc: value.Span()})
	}
	return args, nil
}

func positionalArg(it *item, typ protocol.Type) ast.Argument {
	if it.spread {
		return ast.Argument{Kind: ast.SpreadArg, Value: it.expr, Loc: it.span()}
	}
	if it.word {
		return ast.Pos(ast.Lit(typedLiteral(it.tok.text, typ, it.tok.span)))
	}
	return ast.Pos(it.expr)
}

// resolve maps a string getopt handed back to the expression it stands
// for.
func resolve(items []*item, s string, typ protocol.Type, fallback protocol.Span) (ast.Expr, bool) {
	if strings.HasPrefix(s, "\x00") {
		if i, err := strconv.Atoi(s[1:]); err == nil && i < len(items) {
			it := items[i]
			it.used = true
			return it.expr, it.spread
		}
	}
	loc := fallback
	for _, it := range items {
		if it.word && !it.used && it.tok.text == s {
			it.used = true
			loc = it.tok.span
			break
		}
	}
	return ast.Lit(typedLiteral(s, typ, loc)), false
}

func flagSpan(items []*item, flag protocol.Flag, fallback protocol.Span) protocol.Span {
	long := "--" + flag.Long
	for _, it := range items {
		if !it.word || it.used {
			continue
		}
		text := it.tok.text
		matched := text == long || strings.HasPrefix(text, long+"=")
		if !matched && flag.Short != 0 && len(text) > 1 && text[0] == '-' && text[1] != '-' {
			matched = strings.ContainsRune(text[1:], flag.Short)
		}
		if matched {
			if text == long {
				it.used = true
			}
			return it.tok.span
		}
	}
	return fallback
}

func (p *Parser) parseExternal(head token, name string) (ast.Expr, error) {
	items, err := p.parseItems(false)
	if err != nil {
		return nil, err
	}

	call := &ast.ExternalCall{
		Head: ast.Lit(protocol.NewString(name, head.span)),
		Loc:  head.span,
	}
	for _, it := range items {
		var arg ast.Expr
		if it.word {
			arg = ast.Lit(protocol.NewString(it.tok.text, it.tok.span))
		} else {
			arg = it.expr
		}
		call.Args = append(call.Args, arg)
		call.Loc = call.Loc.Merge(arg.Span())
	}
	return call, nil
}

// parseLet reads let name = value, where value may be a pipeline.
func (p *Parser) parseLet() ([]ast.Argument, error) {
	t, ok := p.peek()
	if !ok || t.kind != wordToken || isTerminator(t) {
		return nil, parseErr(p.spanOrEOF(ok, t), "expected a variable name", "let needs a name")
	}
	p.next()
	name := strings.TrimPrefix(t.text, "$")

	if !p.peekIs("=") {
		eq, ok := p.peek()
		return nil, parseErr(p.spanOrEOF(ok, eq), "expected = after the variable name", "missing =")
	}
	p.next()

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.declare(name)

	return []ast.Argument{
		ast.Pos(ast.Lit(protocol.NewString(name, t.span))),
		ast.Pos(value),
	}, nil
}

func (p *Parser) spanOrEOF(ok bool, t token) protocol.Span {
	if ok {
		return t.span
	}
	return p.eofSpan()
}

// parseValue reads a pipeline used as a value. Pipelines of more than one
// stage become subexpressions.
func (p *Parser) parseValue() (ast.Expr, error) {
	pipeline, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	if len(pipeline.Elements) == 1 && pipeline.Elements[0].Redirect == nil {
		return pipeline.Elements[0].Expr, nil
	}
	block := &ast.Block{Pipelines: []*ast.Pipeline{pipeline}, Loc: pipeline.Span()}
	return &ast.Subexpression{BlockID: p.es.AddBlock(block), Loc: block.Loc}, nil
}

func (p *Parser) parseKeywordBlock() (ast.Expr, error) {
	t, ok := p.peek()
	if !ok || !t.is("{") {
		return nil, parseErr(p.spanOrEOF(ok, t), "expected a block", "block goes here")
	}
	p.next()
	return p.parseBrace(t, true)
}

// parseFor reads for name in iterable { body }.
func (p *Parser) parseFor() ([]ast.Argument, error) {
	t, ok := p.peek()
	if !ok || t.kind != wordToken || isTerminator(t) {
		return nil, parseErr(p.spanOrEOF(ok, t), "expected a loop variable", "for needs a name")
	}
	p.next()
	name := strings.TrimPrefix(t.text, "$")

	if !p.peekIs("in") {
		in, ok := p.peek()
		return nil, parseErr(p.spanOrEOF(ok, in), "expected in after the loop variable", "missing in")
	}
	p.next()

	iterable, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	p.declare(name)
	body, err := p.parseKeywordBlock()
	if err != nil {
		return nil, err
	}
	return []ast.Argument{
		ast.Pos(ast.Lit(protocol.NewString(name, t.span))),
		ast.Pos(iterable),
		ast.Pos(body),
	}, nil
}

// parseIf reads if cond { then } else { otherwise }, where otherwise may be
// another if.
func (p *Parser) parseIf() ([]ast.Argument, error) {
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseKeywordBlock()
	if err != nil {
		return nil, err
	}
	args := []ast.Argument{ast.Pos(cond), ast.Pos(then)}

	save := p.pos
	p.skipNewlines()
	if !p.peekIs("else") {
		p.pos = save
		return args, nil
	}
	p.next()

	if p.peekIs("if") {
		head := p.next()
		nested, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		call := &ast.CallExpr{Call: &ast.Call{Head: "if", HeadSpan: head.span, Args: nested}}
		return append(args, ast.Pos(call)), nil
	}

	otherwise, err := p.parseKeywordBlock()
	if err != nil {
		return nil, err
	}
	return append(args, ast.Pos(otherwise)), nil
}

func (p *Parser) parseWhile() ([]ast.Argument, error) {
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseKeywordBlock()
	if err != nil {
		return nil, err
	}
	return []ast.Argument{ast.Pos(cond), ast.Pos(body)}, nil
}

func (p *Parser) parseReturn() ([]ast.Argument, error) {
	if t, ok := p.peek(); !ok || isTerminator(t) {
		return nil, nil
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return []ast.Argument{ast.Pos(value)}, nil
}
