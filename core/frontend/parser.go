// Package frontend turns command lines into the call graph the engine
// runs. It's a small, whitespace-driven reader for the CLI: words are split
// with shlex, command arguments are bound with getopt and a few keyword
// forms (let, def, if, for, try) are recognized.
package frontend

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

type scope struct {
	closure  bool
	locals   map[string]bool
	captures []string
}

func (s *scope) capture(name string) {
	for _, c := range s.captures {
		if c == name {
			return
		}
	}
	s.captures = append(s.captures, name)
}

// Parser reads source text against a command registry. Blocks it reads are
// stored in the engine, and custom commands declared with def are
// registered as they're read so later statements can call them.
type Parser struct {
	es     *engine.State
	src    string
	toks   []token
	pos    int
	scopes []*scope
}

// Parse reads src into a block.
func Parse(es *engine.State, src string) (*ast.Block, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{
		es:     es,
		src:    src,
		toks:   toks,
		scopes: []*scope{{locals: make(map[string]bool)}},
	}

	block, err := p.parseBlock("")
	if err != nil {
		return nil, err
	}
	block.Loc = protocol.NewSpan(0, len(src))
	return block, nil
}

func (p *Parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *Parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *Parser) peekIs(text string) bool {
	t, ok := p.peek()
	return ok && t.is(text)
}

func (p *Parser) eofSpan() protocol.Span {
	return protocol.NewSpan(len(p.src), len(p.src))
}

func (p *Parser) skipNewlines() {
	for p.pos < len(p.toks) && p.toks[p.pos].kind == newlineToken {
		p.pos++
	}
}

func (p *Parser) skip(texts ...string) {
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.kind != newlineToken && !containsText(texts, t) {
			return
		}
		p.pos++
	}
}

func containsText(texts []string, t token) bool {
	for _, s := range texts {
		if t.is(s) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(text string, open protocol.Span) (token, error) {
	t, ok := p.peek()
	if !ok || !t.is(text) {
		span := p.eofSpan()
		if ok {
			span = t.span
		}
		return token{}, &protocol.ShellError{
			Kind:    protocol.ParseErrorKind,
			Msg:     fmt.Sprintf("expected %q", text),
			Label:   fmt.Sprintf("expected %q here", text),
			Span:    span,
			Related: []protocol.Labeled{{Label: "opened here", Span: open}},
		}
	}
	return p.next(), nil
}

func parseErr(span protocol.Span, msg, label string) error {
	return &protocol.ShellError{Kind: protocol.ParseErrorKind, Msg: msg, Label: label, Span: span}
}

func isCloser(t token) bool {
	return t.is(")") || t.is("]") || t.is("}")
}

// isTerminator reports whether t ends the current pipeline element.
func isTerminator(t token) bool {
	if t.kind == newlineToken || t.is(";") || t.is("|") || isCloser(t) {
		return true
	}
	_, _, ok := redirectTarget(t)
	return ok
}

func redirectTarget(t token) (ast.RedirectTarget, bool, bool) {
	if t.kind != wordToken {
		return 0, false, false
	}
	name, appendMode := strings.CutSuffix(t.text, ">>")
	if !appendMode {
		var ok bool
		name, ok = strings.CutSuffix(t.text, ">")
		if !ok {
			return 0, false, false
		}
	}
	switch name {
	case "out", "o":
		return ast.RedirectStdout, appendMode, true
	case "err", "e":
		return ast.RedirectStderr, appendMode, true
	case "out+err", "o+e", "err+out", "e+o":
		return ast.RedirectBoth, appendMode, true
	}
	return 0, false, false
}

// reference records a use of a variable so enclosing closures capture it.
func (p *Parser) reference(name string) {
	if name == engine.InVariable || name == engine.EnvVariable {
		return
	}
	for i := len(p.scopes) - 1; i >= 0; i-- {
		s := p.scopes[i]
		if s.locals[name] || !s.closure {
			return
		}
		s.capture(name)
	}
}

func (p *Parser) declare(name string) {
	p.scopes[len(p.scopes)-1].locals[name] = true
}

func (p *Parser) pushScope(locals ...string) *scope {
	s := &scope{closure: true, locals: make(map[string]bool)}
	for _, l := range locals {
		s.locals[l] = true
	}
	p.scopes = append(p.scopes, s)
	return s
}

func (p *Parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

// parseBlock reads statements until the closing token end, which is left
// for the caller. An empty end reads to the end of input.
func (p *Parser) parseBlock(end string) (*ast.Block, error) {
	block := &ast.Block{}
	for {
		p.skip(";")
		t, ok := p.peek()
		if !ok {
			if end != "" {
				return nil, parseErr(p.eofSpan(), fmt.Sprintf("missing %q", end), "input ends here")
			}
			return block, nil
		}
		if end != "" && t.is(end) {
			return block, nil
		}
		if isCloser(t) {
			return nil, parseErr(t.span, fmt.Sprintf("unexpected %q", t.text), "not opened")
		}

		if t.is("def") {
			if err := p.parseDef(); err != nil {
				return nil, err
			}
			continue
		}

		pipeline, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		block.Pipelines = append(block.Pipelines, pipeline)

		if t, ok := p.peek(); ok && t.kind != newlineToken && !t.is(";") && !isCloser(t) {
			return nil, parseErr(t.span, fmt.Sprintf("unexpected %q", t.text), "expected ; or a new line before this")
		}
	}
}

func (p *Parser) parsePipeline() (*ast.Pipeline, error) {
	pipeline := &ast.Pipeline{}
	for {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		pipeline.Elements = append(pipeline.Elements, el)

		// A pipeline may continue with | at the start of the next line.
		save := p.pos
		p.skipNewlines()
		if !p.peekIs("|") {
			p.pos = save
			return pipeline, nil
		}
		p.next()
		p.skipNewlines()
	}
}

func (p *Parser) parseElement() (ast.Element, error) {
	t, ok := p.peek()
	if !ok || isTerminator(t) {
		span := p.eofSpan()
		if ok {
			span = t.span
		}
		return ast.Element{}, parseErr(span, "expected a command or a value", "missing pipeline stage")
	}

	var expr ast.Expr
	var err error
	if isCommandStart(t) {
		expr, err = p.parseCommand()
	} else {
		expr, err = p.parseExpr(0)
	}
	if err != nil {
		return ast.Element{}, err
	}
	el := ast.Element{Expr: expr}

	if t, ok := p.peek(); ok {
		if target, appendMode, ok := redirectTarget(t); ok {
			p.next()
			path, err := p.parsePrimary(false)
			if err != nil {
				return ast.Element{}, err
			}
			el.Redirect = &ast.Redirection{
				Target: target,
				Path:   path,
				Append: appendMode,
				Loc:    t.span.Merge(path.Span()),
			}
		}
	}
	return el, nil
}

// isCommandStart reports whether a stage starting with t is a command
// rather than an expression.
func isCommandStart(t token) bool {
	if t.kind != wordToken {
		return false
	}
	switch t.text {
	case "true", "false", "null":
		return false
	}
	if looksNumeric(t.text) {
		return false
	}
	return !strings.ContainsRune("$([{-", rune(t.text[0]))
}

var precedence = map[string]int{
	"or":  1,
	"and": 2,
	"==":  3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3, "in": 3,
	"++": 4,
	"+":  5, "-": 5,
	"*": 6, "/": 6, "mod": 6,
}

// parseExpr reads a binary expression by precedence climbing.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	lhs, err := p.parsePrimary(false)
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != wordToken {
			return lhs, nil
		}
		prec, isOp := precedence[t.text]
		if !isOp || prec < minPrec {
			return lhs, nil
		}
		p.next()
		p.skipNewlines()

		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinaryOp{
			Op:  ast.Operator(t.text),
			LHS: lhs,
			RHS: rhs,
			Loc: lhs.Span().Merge(rhs.Span()),
		}
	}
}

// parsePrimary reads a single value. Keyword bodies are read as blocks run
// in place instead of closures.
func (p *Parser) parsePrimary(keyword bool) (ast.Expr, error) {
	t, ok := p.peek()
	if !ok {
		return nil, parseErr(p.eofSpan(), "expected a value", "input ends here")
	}
	if isTerminator(t) {
		return nil, parseErr(t.span, "expected a value", fmt.Sprintf("found %q", t.text))
	}
	p.next()

	if t.kind == quotedToken {
		return ast.Lit(protocol.NewString(unquote(t.text), t.span)), nil
	}

	switch {
	case t.is("("):
		block, err := p.parseBlock(")")
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(")", t.span)
		if err != nil {
			return nil, err
		}
		span := t.span.Merge(closing.span)
		block.Loc = span
		expr := ast.Expr(&ast.Subexpression{BlockID: p.es.AddBlock(block), Loc: span})
		return p.parsePathTail(expr), nil

	case t.is("["):
		return p.parseList(t)

	case t.is("{"):
		return p.parseBrace(t, keyword)

	case strings.HasPrefix(t.text, "$"):
		return p.parseVariable(t)
	}

	return ast.Lit(guessLiteral(t.text, t.span)), nil
}

// parsePathTail reads a cell path glued to the end of an expression, e.g.
// the .name of (ls).name.
func (p *Parser) parsePathTail(head ast.Expr) ast.Expr {
	t, ok := p.peek()
	if !ok || t.kind != wordToken || !strings.HasPrefix(t.text, ".") || t.span.Start != head.Span().End {
		return head
	}
	p.next()
	return &ast.CellPathExpr{
		Head: head,
		Path: protocol.ParseCellPath(t.text[1:], t.span),
		Loc:  head.Span().Merge(t.span),
	}
}

func (p *Parser) parseVariable(t token) (ast.Expr, error) {
	name, path, hasPath := strings.Cut(t.text[1:], ".")
	if name == "" {
		return nil, parseErr(t.span, "missing variable name", "expected a name after $")
	}
	p.reference(name)

	nameSpan := protocol.NewSpan(t.span.Start, t.span.Start+1+len(name))
	expr := ast.Expr(&ast.Var{Name: name, Loc: nameSpan})
	if hasPath {
		expr = &ast.CellPathExpr{Head: expr, Path: protocol.ParseCellPath(path, t.span), Loc: t.span}
	}
	return p.parsePathTail(expr), nil
}

func (p *Parser) parseList(open token) (ast.Expr, error) {
	list := &ast.ListExpr{}
	for {
		p.skip(",")
		if p.peekIs("]") {
			closing := p.next()
			list.Loc = open.span.Merge(closing.span)
			return list, nil
		}
		item, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
}

// parseBrace reads what follows {: a closure with or without |params|, a
// record, or for keywords a block.
func (p *Parser) parseBrace(open token, keyword bool) (ast.Expr, error) {
	p.skipNewlines()

	if p.peekIs("|") {
		return p.parseClosure(open)
	}
	if !keyword && p.looksLikeRecord() {
		return p.parseRecord(open)
	}
	if keyword {
		block, err := p.parseBlock("}")
		if err != nil {
			return nil, err
		}
		closing, err := p.expect("}", open.span)
		if err != nil {
			return nil, err
		}
		block.Loc = open.span.Merge(closing.span)
		return &ast.BlockExpr{BlockID: p.es.AddBlock(block), Loc: block.Loc}, nil
	}
	return p.parseClosureBody(open, nil)
}

func (p *Parser) looksLikeRecord() bool {
	t, ok := p.peek()
	if !ok {
		return false
	}
	if t.is("}") {
		return true
	}
	if t.kind == wordToken {
		key, _, found := strings.Cut(t.text, ":")
		if found && key != "" && !strings.HasPrefix(key, "$") {
			return true
		}
	}
	if p.pos+1 < len(p.toks) {
		nextTok := p.toks[p.pos+1]
		return nextTok.kind == wordToken && strings.HasPrefix(nextTok.text, ":")
	}
	return false
}

func (p *Parser) parseRecord(open token) (ast.Expr, error) {
	rec := &ast.RecordExpr{}
	for {
		p.skip(",")
		t, ok := p.peek()
		if !ok {
			return nil, parseErr(p.eofSpan(), `missing "}"`, "record isn't closed")
		}
		if t.is("}") {
			p.next()
			rec.Loc = open.span.Merge(t.span)
			return rec, nil
		}
		p.next()

		var key, rest string
		if t.kind == quotedToken {
			key = unquote(t.text)
			colon, ok := p.peek()
			if !ok || colon.kind != wordToken || !strings.HasPrefix(colon.text, ":") {
				return nil, parseErr(t.span, "expected : after record key", "record key")
			}
			p.next()
			rest = colon.text[1:]
		} else {
			var found bool
			key, rest, found = strings.Cut(t.text, ":")
			if !found {
				if colon, ok := p.peek(); ok && colon.kind == wordToken && strings.HasPrefix(colon.text, ":") {
					p.next()
					rest = colon.text[1:]
				} else {
					return nil, parseErr(t.span, "expected : after record key", "record key")
				}
			}
		}
		keySpan := protocol.NewSpan(t.span.Start, t.span.Start+len(key))

		var value ast.Expr
		if rest != "" {
			valueSpan := protocol.NewSpan(t.span.End-len(rest), t.span.End)
			value = ast.Lit(guessLiteral(rest, valueSpan))
		} else {
			p.skipNewlines()
			var err error
			value, err = p.parseExpr(0)
			if err != nil {
				return nil, err
			}
		}
		rec.Fields = append(rec.Fields, ast.RecordField{Key: key, KeySpan: keySpan, Value: value})
	}
}

// parseClosure reads {|a, b| body}.
func (p *Parser) parseClosure(open token) (ast.Expr, error) {
	bar := p.next()
	sig := protocol.NewSignature("closure")
	var names []string
	for {
		p.skip(",")
		t, ok := p.peek()
		if !ok {
			return nil, parseErr(bar.span, "closure parameters aren't closed", "missing |")
		}
		p.next()
		if t.is("|") {
			break
		}
		name, typeName, hasType := strings.Cut(t.text, ":")
		name = strings.TrimPrefix(name, "$")
		typ := protocol.AnyType
		if hasType {
			if typeName == "" {
				if tt, ok := p.peek(); ok && tt.kind == wordToken && !tt.is("|") {
					typeName = p.next().text
				}
			}
			parsed, err := protocol.ParseType(typeName)
			if err != nil {
				return nil, parseErr(t.span, err.Error(), "parameter type")
			}
			typ = parsed
		}
		sig.Opt(name, typ, "")
		names = append(names, name)
	}
	if len(names) == 0 {
		sig = nil
	}
	return p.parseClosureBody(open, sig, names...)
}

func (p *Parser) parseClosureBody(open token, sig *protocol.Signature, params ...string) (ast.Expr, error) {
	s := p.pushScope(params...)
	block, err := p.parseBlock("}")
	p.popScope()
	if err != nil {
		return nil, err
	}
	closing, err := p.expect("}", open.span)
	if err != nil {
		return nil, err
	}

	block.Signature = sig
	block.Captures = s.captures
	block.Loc = open.span.Merge(closing.span)
	return &ast.ClosureExpr{BlockID: p.es.AddBlock(block), Loc: block.Loc}, nil
}
