package frontend

import (
	"testing"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	sig *protocol.Signature
}

func (c *stubCommand) Signature() *protocol.Signature { return c.sig }

func (c *stubCommand) Run(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
	return protocol.Empty{}, nil
}

type stubKeyword struct {
	stubCommand
}

func (c *stubKeyword) RunKeyword(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.Outcome, error) {
	return protocol.DataOutcome(protocol.Empty{}), nil
}

func newState(t *testing.T) *engine.State {
	t.Helper()

	es, err := engine.NewState(engine.WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)

	any := protocol.AnyType
	require.NoError(t, es.Register(
		&stubCommand{protocol.NewSignature("upper").
			Switch("trim", 't', "trim first").
			Named("times", protocol.IntType, 'n', "repeat count").
			IO(protocol.StringType, protocol.StringType)},
		&stubCommand{protocol.NewSignature("greet").
			Req("name", protocol.StringType, "who").
			Opt("count", protocol.IntType, "how often").
			Switch("loud", 'l', "shout")},
		&stubCommand{protocol.NewSignature("from json").IO(protocol.StringType, any)},
		&stubCommand{protocol.NewSignature("each").Req("closure", protocol.ClosureType, "body")},
		&stubCommand{protocol.NewSignature("run-external").PassThroughArgs()},
		&stubKeyword{stubCommand{protocol.NewSignature("let").Req("name", protocol.StringType, "").Req("value", any, "")}},
		&stubKeyword{stubCommand{protocol.NewSignature("if").Req("cond", protocol.BoolType, "").Req("then", protocol.BlockType, "").Opt("else", any, "")}},
		&stubKeyword{stubCommand{protocol.NewSignature("for").Req("var", protocol.StringType, "").Req("in", any, "").Req("body", protocol.BlockType, "")}},
		&stubKeyword{stubCommand{protocol.NewSignature("loop").Req("body", protocol.BlockType, "")}},
		&stubKeyword{stubCommand{protocol.NewSignature("try").Req("body", protocol.BlockType, "").Opt("catch", protocol.ClosureType, "")}},
		&stubKeyword{stubCommand{protocol.NewSignature("return").Opt("value", any, "")}},
	))
	return es
}

func parseCall(t *testing.T, es *engine.State, src string) *ast.Call {
	t.Helper()

	block, err := Parse(es, src)
	require.NoError(t, err)
	require.Len(t, block.Pipelines, 1)
	require.Len(t, block.Pipelines[0].Elements, 1)
	call, ok := block.Pipelines[0].Elements[0].Expr.(*ast.CallExpr)
	require.True(t, ok, "expected a call, got %T", block.Pipelines[0].Elements[0].Expr)
	return call.Call
}

func literal(t *testing.T, e ast.Expr) protocol.Value {
	t.Helper()

	lit, ok := e.(*ast.Literal)
	require.True(t, ok, "expected a literal, got %T", e)
	return lit.Val
}

func TestTokenize(t *testing.T) {
	toks, err := tokenize("ls -la | where {|x| $x.size > 1kb}; echo 'a b'")
	require.NoError(t, err)

	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.text)
	}
	assert.Equal(t, []string{
		"ls", "-la", "|", "where", "{", "|", "x", "|", "$x.size", ">", "1kb", "}", ";", "echo", "'a b'",
	}, texts)
	assert.Equal(t, quotedToken, toks[len(toks)-1].kind)
	assert.Equal(t, protocol.NewSpan(41, 46), toks[len(toks)-1].span)
}

func TestTokenize_QuotedAfterPunctuation(t *testing.T) {
	toks, err := tokenize(`('hi' | upper) ['x' "y z"];'a'`)
	require.NoError(t, err)

	type tok struct {
		kind tokenKind
		text string
	}
	var got []tok
	for _, tk := range toks {
		got = append(got, tok{tk.kind, tk.text})
	}
	assert.Equal(t, []tok{
		{wordToken, "("},
		{quotedToken, "'hi'"},
		{wordToken, "|"},
		{wordToken, "upper"},
		{wordToken, ")"},
		{wordToken, "["},
		{quotedToken, "'x'"},
		{quotedToken, `"y z"`},
		{wordToken, "]"},
		{wordToken, ";"},
		{quotedToken, "'a'"},
	}, got)
	assert.Equal(t, protocol.NewSpan(1, 5), toks[1].span)
}

func TestTokenize_NewlinesAndComments(t *testing.T) {
	toks, err := tokenize("a\n# comment b\nc")
	require.NoError(t, err)

	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].text)
	assert.Equal(t, newlineToken, toks[1].kind)
	assert.Equal(t, "c", toks[2].text)
	assert.Equal(t, protocol.NewSpan(14, 15), toks[2].span)
}

func TestTokenize_UnclosedQuote(t *testing.T) {
	_, err := tokenize(`echo "abc`)
	assert.ErrorIs(t, err, protocol.ErrParse)
}

func TestGuessLiteral(t *testing.T) {
	span := protocol.UnknownSpan
	cases := map[string]protocol.Value{
		"42":     protocol.NewInt(42, span),
		"-3":     protocol.NewInt(-3, span),
		"0x1f":   protocol.NewInt(31, span),
		"1_000":  protocol.NewInt(1000, span),
		"2.5":    protocol.NewFloat(2.5, span),
		"true":   protocol.NewBool(true, span),
		"null":   protocol.NewNothing(span),
		"hello":  protocol.NewString("hello", span),
		"-la":    protocol.NewString("-la", span),
		"1kb":    protocol.NewFileSize(1000, span),
		"2KiB":   protocol.NewFileSize(2048, span),
		"10sec":  protocol.NewDuration(10e9, span),
		"1.5min": protocol.NewDuration(90e9, span),
		"3abc":   protocol.NewString("3abc", span),
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, want, guessLiteral(text, span))
		})
	}
}

func TestGuessLiteral_Ranges(t *testing.T) {
	span := protocol.UnknownSpan

	r := guessLiteral("1..5", span).(protocol.Range)
	assert.Equal(t, int64(1), r.Start)
	assert.Equal(t, int64(5), r.End)
	assert.True(t, r.Inclusive)

	r = guessLiteral("1..<5", span).(protocol.Range)
	assert.False(t, r.Inclusive)

	r = guessLiteral("3..", span).(protocol.Range)
	assert.True(t, r.Open)
}

func TestTypedLiteral(t *testing.T) {
	span := protocol.UnknownSpan
	assert.Equal(t, protocol.NewString("42", span), typedLiteral("42", protocol.StringType, span))
	assert.Equal(t, protocol.NewInt(42, span), typedLiteral("42", protocol.IntType, span))
	assert.Equal(t, protocol.NewInt(0, span), typedLiteral("0", protocol.CellPathType, span))
	assert.Equal(t, protocol.NewString("name", span), typedLiteral("name", protocol.CellPathType, span))
}

func TestParse_Flags(t *testing.T) {
	es := newState(t)

	cases := map[string]struct {
		src       string
		wantTrim  bool
		wantTimes int64
	}{
		"long":           {"upper --trim --times 3", true, 3},
		"equals":         {"upper --times=3", false, 3},
		"short":          {"upper -t -n 3", true, 3},
		"combined short": {"upper -tn 3", true, 3},
		"glued value":    {"upper -n3", false, 3},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			call := parseCall(t, es, tc.src)
			assert.Equal(t, "upper", call.Head)

			_, trim := call.Named("trim")
			assert.Equal(t, tc.wantTrim, trim)

			times, ok := call.Named("times")
			require.True(t, ok)
			assert.Equal(t, tc.wantTimes, literal(t, times.Value).(protocol.Int).Val)
		})
	}
}

func TestParse_Positionals(t *testing.T) {
	es := newState(t)

	call := parseCall(t, es, "greet -l bob 2")
	pos := call.Positionals()
	require.Len(t, pos, 2)
	assert.Equal(t, "bob", literal(t, pos[0]).(protocol.String).Val)
	assert.Equal(t, int64(2), literal(t, pos[1]).(protocol.Int).Val)
	_, loud := call.Named("loud")
	assert.True(t, loud)

	// Flags may follow positionals.
	call = parseCall(t, es, "greet bob --loud")
	_, loud = call.Named("loud")
	assert.True(t, loud)
	assert.Len(t, call.Positionals(), 1)

	// A string parameter keeps numeric text as text.
	call = parseCall(t, es, "greet 42")
	assert.Equal(t, protocol.NewString("42", protocol.NewSpan(6, 8)), literal(t, call.Positionals()[0]))
}

func TestParse_DashDash(t *testing.T) {
	es := newState(t)

	call := parseCall(t, es, "greet -- --loud")
	_, loud := call.Named("loud")
	assert.False(t, loud)
	require.Len(t, call.Positionals(), 1)
	assert.Equal(t, "--loud", literal(t, call.Positionals()[0]).(protocol.String).Val)
}

func TestParse_ExpressionArguments(t *testing.T) {
	es := newState(t)

	call := parseCall(t, es, "greet $name (1 + 1)")
	pos := call.Positionals()
	require.Len(t, pos, 2)
	assert.IsType(t, &ast.Var{}, pos[0])
	assert.IsType(t, &ast.Subexpression{}, pos[1])

	call = parseCall(t, es, "each {|x| $x * 2}")
	closure, ok := call.Positionals()[0].(*ast.ClosureExpr)
	require.True(t, ok)
	block, err := es.Block(closure.BlockID)
	require.NoError(t, err)
	require.NotNil(t, block.Signature)
	assert.Equal(t, 1, block.Signature.NumPositionals())
}

func TestParse_UnknownFlag(t *testing.T) {
	es := newState(t)

	_, err := Parse(es, "upper --nope")
	assert.ErrorIs(t, err, protocol.ErrArgumentBinding)

	_, err = Parse(es, "upper --times")
	assert.ErrorIs(t, err, protocol.ErrArgumentBinding)
}

func TestParse_MultiwordCommand(t *testing.T) {
	es := newState(t)

	call := parseCall(t, es, "from json")
	assert.Equal(t, "from json", call.Head)
	assert.Equal(t, protocol.NewSpan(0, 9), call.HeadSpan)
}

func TestParse_External(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, `git commit -m "a b" $msg`)
	require.NoError(t, err)
	ext, ok := block.Pipelines[0].Elements[0].Expr.(*ast.ExternalCall)
	require.True(t, ok)
	assert.Equal(t, "git", literal(t, ext.Head).(protocol.String).Val)
	require.Len(t, ext.Args, 4)
	assert.Equal(t, "-m", literal(t, ext.Args[1]).(protocol.String).Val)
	assert.Equal(t, "a b", literal(t, ext.Args[2]).(protocol.String).Val)
	assert.IsType(t, &ast.Var{}, ext.Args[3])

	// ^ forces an external even when a builtin has the name.
	block, err = Parse(es, "^upper x")
	require.NoError(t, err)
	ext, ok = block.Pipelines[0].Elements[0].Expr.(*ast.ExternalCall)
	require.True(t, ok)
	assert.Equal(t, "upper", literal(t, ext.Head).(protocol.String).Val)
}

func TestParse_PassThroughArgs(t *testing.T) {
	es := newState(t)

	call := parseCall(t, es, "run-external ls -la --color")
	pos := call.Positionals()
	require.Len(t, pos, 3)
	assert.Equal(t, "-la", literal(t, pos[1]).(protocol.String).Val)
}

func TestParse_Pipeline(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, "greet bob | upper -t\n| from json; 1 + 2")
	require.NoError(t, err)
	require.Len(t, block.Pipelines, 2)
	assert.Len(t, block.Pipelines[0].Elements, 3)

	bin, ok := block.Pipelines[1].Elements[0].Expr.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
}

func TestParse_Precedence(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, "1 + 2 * 3 == 7 and true")
	require.NoError(t, err)
	and, ok := block.Pipelines[0].Elements[0].Expr.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpAnd, and.Op)

	eq := and.LHS.(*ast.BinaryOp)
	assert.Equal(t, ast.OpEqual, eq.Op)
	add := eq.LHS.(*ast.BinaryOp)
	assert.Equal(t, ast.OpAdd, add.Op)
	assert.Equal(t, ast.OpMultiply, add.RHS.(*ast.BinaryOp).Op)
}

func TestParse_Collections(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, `{name: "bob", "age": 3, tags: [a b]}`)
	require.NoError(t, err)
	rec, ok := block.Pipelines[0].Elements[0].Expr.(*ast.RecordExpr)
	require.True(t, ok)
	require.Len(t, rec.Fields, 3)
	assert.Equal(t, "age", rec.Fields[1].Key)
	assert.IsType(t, &ast.ListExpr{}, rec.Fields[2].Value)
}

func TestParse_QuotedInBrackets(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, `['x' "y z"]`)
	require.NoError(t, err)
	list, ok := block.Pipelines[0].Elements[0].Expr.(*ast.ListExpr)
	require.True(t, ok)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "x", literal(t, list.Items[0]).(protocol.String).Val)
	assert.Equal(t, "y z", literal(t, list.Items[1]).(protocol.String).Val)

	block, err = Parse(es, `('hi' | upper)`)
	require.NoError(t, err)
	sub, ok := block.Pipelines[0].Elements[0].Expr.(*ast.Subexpression)
	require.True(t, ok)
	inner, err := es.Block(sub.BlockID)
	require.NoError(t, err)
	require.Len(t, inner.Pipelines[0].Elements, 2)
	assert.Equal(t, "hi", literal(t, inner.Pipelines[0].Elements[0].Expr).(protocol.String).Val)
}

func TestParse_Let(t *testing.T) {
	es := newState(t)

	call := parseCall(t, es, "let total = greet bob | upper")
	pos := call.Positionals()
	require.Len(t, pos, 2)
	assert.Equal(t, "total", literal(t, pos[0]).(protocol.String).Val)
	assert.IsType(t, &ast.Subexpression{}, pos[1])

	call = parseCall(t, es, "let x = 1 + 2")
	assert.IsType(t, &ast.BinaryOp{}, call.Positionals()[1])

	_, err := Parse(es, "let x 3")
	assert.ErrorIs(t, err, protocol.ErrParse)
}

func TestParse_Captures(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, "let y = 1; each {|x| $x + $y + $in}")
	require.NoError(t, err)

	call := block.Pipelines[1].Elements[0].Expr.(*ast.CallExpr)
	closure := call.Call.Positionals()[0].(*ast.ClosureExpr)
	body, err := es.Block(closure.BlockID)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, body.Captures)
}

func TestParse_KeywordForms(t *testing.T) {
	es := newState(t)

	call := parseCall(t, es, "if $x > 1 { greet a } else if false { greet b } else { greet c }")
	pos := call.Positionals()
	require.Len(t, pos, 3)
	assert.IsType(t, &ast.BinaryOp{}, pos[0])
	assert.IsType(t, &ast.BlockExpr{}, pos[1])
	nested, ok := pos[2].(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "if", nested.Call.Head)
	assert.Len(t, nested.Call.Positionals(), 3)

	call = parseCall(t, es, "for x in [1 2 3] { greet $x }")
	pos = call.Positionals()
	require.Len(t, pos, 3)
	assert.Equal(t, "x", literal(t, pos[0]).(protocol.String).Val)
	assert.IsType(t, &ast.ListExpr{}, pos[1])
	assert.IsType(t, &ast.BlockExpr{}, pos[2])

	call = parseCall(t, es, "try { greet a } catch {|e| greet $e.msg }")
	pos = call.Positionals()
	require.Len(t, pos, 2)
	assert.IsType(t, &ast.BlockExpr{}, pos[0])
	assert.IsType(t, &ast.ClosureExpr{}, pos[1])

	call = parseCall(t, es, "loop { return 1 + 2 }")
	assert.IsType(t, &ast.BlockExpr{}, call.Positionals()[0])
}

func TestParse_Def(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, "def shout [name: string, times?: int, ...rest, --loud(-l), --sep: string] { greet $name }\nshout bob -l")
	require.NoError(t, err)
	require.Len(t, block.Pipelines, 1)

	cmd, ok := es.FindCommand("shout")
	require.True(t, ok)
	sig := cmd.Signature()
	assert.Equal(t, protocol.CategoryCustom, sig.Category)
	require.Len(t, sig.Required, 1)
	assert.Equal(t, protocol.StringType, sig.Required[0].Type)
	require.Len(t, sig.Optional, 1)
	assert.Equal(t, protocol.IntType, sig.Optional[0].Type)
	require.NotNil(t, sig.Rest)

	loud, ok := sig.FindFlag("loud")
	require.True(t, ok)
	assert.Equal(t, 'l', loud.Short)
	assert.True(t, loud.IsSwitch())
	sep, ok := sig.FindFlag("sep")
	require.True(t, ok)
	assert.False(t, sep.IsSwitch())

	call := block.Pipelines[0].Elements[0].Expr.(*ast.CallExpr)
	assert.Equal(t, "shout", call.Call.Head)
}

func TestParse_DefErrors(t *testing.T) {
	es := newState(t)

	_, err := Parse(es, "def bad [a? b] { }")
	assert.ErrorIs(t, err, protocol.ErrParse)

	_, err = Parse(es, "def bad [a: nosuchtype] { }")
	assert.ErrorIs(t, err, protocol.ErrParse)

	_, err = Parse(es, "def bad { }")
	assert.ErrorIs(t, err, protocol.ErrParse)
}

func TestParse_Redirection(t *testing.T) {
	es := newState(t)

	block, err := Parse(es, "greet bob out>> log.txt")
	require.NoError(t, err)
	el := block.Pipelines[0].Elements[0]
	require.NotNil(t, el.Redirect)
	assert.Equal(t, ast.RedirectStdout, el.Redirect.Target)
	assert.True(t, el.Redirect.Append)
	assert.Equal(t, "log.txt", literal(t, el.Redirect.Path).(protocol.String).Val)
}

func TestParse_Errors(t *testing.T) {
	es := newState(t)

	cases := map[string]string{
		"unclosed paren":   "(1 + 2",
		"unclosed list":    "[1 2",
		"unclosed closure": "each {|x| $x",
		"stray closer":     "greet bob )",
		"empty stage":      "greet bob |",
		"missing name":     "$ + 1",
		"missing stmt sep": "$x -1",
	}
	for tn, src := range cases {
		t.Run(tn, func(t *testing.T) {
			_, err := Parse(es, src)
			require.Error(t, err)
			assert.ErrorIs(t, err, protocol.ErrParse)
		})
	}
}
