package diag

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))

	cases := map[string]struct {
		r   Renderer
		src string
		err error
	}{
		"single_line": {
			r:   Renderer{Name: "repl"},
			src: `let x = "a" + 1`,
			err: &protocol.ShellError{
				Kind:  protocol.TypeMismatchKind,
				Msg:   "can't add string and int",
				Label: "here",
				Span:  protocol.NewSpan(8, 15),
			},
		},
		"related": {
			r:   Renderer{Name: "script.psh"},
			src: "{a: 1,\n a: 2}",
			err: (&protocol.ShellError{
				Kind:    protocol.GenericErrorKind,
				Msg:     "column defined twice",
				Label:   "second definition",
				Span:    protocol.NewSpan(8, 9),
				Related: []protocol.Labeled{{Label: "first defined here", Span: protocol.NewSpan(1, 2)}},
			}).WithHelp("remove one of the definitions"),
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			var buf bytes.Buffer
			tc.r.Render(&buf, tc.src, tc.err)
			g.Assert(t, tn, buf.Bytes())
		})
	}
}

func TestRender_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	Renderer{}.Render(&buf, "ls", errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	err := fmt.Errorf("running: %w", &protocol.ShellError{Kind: protocol.InterruptedKind})
	Renderer{}.Render(&buf, "ls", err)
	assert.Equal(t, "Error: interrupted\n", buf.String())
}

func TestRender_SpanPastLineEnd(t *testing.T) {
	var buf bytes.Buffer
	err := &protocol.ShellError{Kind: protocol.ParseErrorKind, Msg: "missing \")\"", Span: protocol.NewSpan(3, 20)}
	Renderer{}.Render(&buf, "(1 +\n2", err)
	assert.Contains(t, buf.String(), "1 | (1 +\n  |    ^\n")
}

func TestRender_Color(t *testing.T) {
	var buf bytes.Buffer
	Renderer{Color: true}.Render(&buf, "ls", errors.New("boom"))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestLocate(t *testing.T) {
	src := "ab\ncd\n\nef"
	assert.Equal(t, position{line: 1, col: 1}, locate(src, 0))
	assert.Equal(t, position{line: 2, col: 2, lineStart: 3}, locate(src, 4))
	assert.Equal(t, position{line: 4, col: 1, lineStart: 7}, locate(src, 7))
	assert.Equal(t, position{line: 4, col: 3, lineStart: 7}, locate(src, 100))
}
