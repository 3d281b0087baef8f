package frontend

import (
	"errors"
	"strings"
	"unicode"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/pipesh/core/protocol"
)

type tokenKind int

const (
	wordToken tokenKind = iota
	quotedToken
	// newlineToken separates statements at block level and is skipped
	// everywhere else.
	newlineToken
)

type token struct {
	kind tokenKind
	text string
	span protocol.Span
}

func (t token) is(text string) bool {
	return t.kind == wordToken && t.text == text
}

// punctuation always forms a token of its own.
const punctuation = "{}()[];,|"

// wordTokenizer makes shlex end words at punctuation, so a quoted string
// glued to a bracket still lexes as one quoted token.
type wordTokenizer struct{}

func (wordTokenizer) IsWord(r rune) bool {
	return !unicode.IsSpace(r) && r != '\'' && r != '"' && !strings.ContainsRune(punctuation, r)
}

func (wordTokenizer) IsWhitespace(r rune) bool   { return unicode.IsSpace(r) }
func (wordTokenizer) IsQuote(r rune) bool        { return r == '\'' || r == '"' }
func (wordTokenizer) IsEscape(r rune) bool       { return false }
func (wordTokenizer) IsEscapedQuote(r rune) bool { return false }

// tokenize splits src into words, quoted strings and punctuation. Comment
// lines are dropped and newlines between words are kept as tokens.
func tokenize(src string) ([]token, error) {
	clean := blankComments(src)

	lexer := shlex.NewLexerString(clean, false, false)
	lexer.SetTokenizer(wordTokenizer{})
	words, err := lexer.Split()
	if err != nil {
		msg := err.Error()
		if errors.Is(err, shlex.ErrNoClosing) {
			msg = "unclosed quote"
		}
		return nil, &protocol.ShellError{
			Kind:  protocol.ParseErrorKind,
			Msg:   msg,
			Label: "quote opened here",
			Span:  protocol.NewSpan(strings.LastIndexAny(clean, `"'`), len(clean)),
		}
	}

	var out []token
	cursor := 0
	for _, w := range words {
		idx := strings.Index(clean[cursor:], w)
		if idx < 0 {
			// Words are always copied verbatim in non-POSIX mode.
			idx = 0
		}
		start := cursor + idx
		if strings.ContainsRune(clean[cursor:start], '\n') && len(out) > 0 {
			out = append(out, token{kind: newlineToken, text: "\n", span: protocol.NewSpan(start, start)})
		}
		cursor = start + len(w)

		kind := wordToken
		if w[0] == '"' || w[0] == '\'' {
			kind = quotedToken
		}
		out = append(out, token{kind: kind, text: w, span: protocol.NewSpan(start, cursor)})
	}
	return out, nil
}

// blankComments replaces lines starting with # by spaces so offsets into
// the source stay valid.
func blankComments(src string) string {
	lines := strings.SplitAfter(src, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			blank := strings.Repeat(" ", len(strings.TrimRight(line, "\n")))
			lines[i] = blank + line[len(blank):]
		}
	}
	return strings.Join(lines, "")
}
