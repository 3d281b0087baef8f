// Package diag renders shell errors against the source text that caused
// them.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Renderer draws errors. The zero value renders without color.
type Renderer struct {
	// Color enables ANSI colors.
	Color bool
	// Name labels the source, e.g. a script path or "repl".
	Name string
}

type palette struct {
	err, help, label, gutter, related *color.Color
}

func (r Renderer) palette() palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		help:    color.New(color.FgCyan),
		label:   color.New(color.FgRed),
		gutter:  color.New(color.FgBlue, color.Bold),
		related: color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.err, p.help, p.label, p.gutter, p.related} {
		if r.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Render writes err to w, highlighting its span in src. Errors that aren't
// ShellErrors or carry no span are printed on one line.
func (r Renderer) Render(w io.Writer, src string, err error) {
	if err == nil {
		return
	}
	p := r.palette()

	var se *protocol.ShellError
	if !errors.As(err, &se) {
		p.err.Fprint(w, "Error")
		fmt.Fprintf(w, ": %v\n", err)
		return
	}

	p.err.Fprint(w, "Error")
	fmt.Fprintf(w, ": %s\n", strings.TrimPrefix(se.Error(), protocol.GenericErrorKind.String()+": "))

	if !se.Span.IsUnknown() && se.Span.Start <= len(src) {
		snippets := []snippet{{span: se.Span, label: se.Label, marker: '^', c: p.label}}
		for _, rel := range se.Related {
			if rel.Span.IsUnknown() || rel.Span.Start > len(src) {
				continue
			}
			snippets = append(snippets, snippet{span: rel.Span, label: rel.Label, marker: '-', c: p.related})
		}
		r.renderSnippets(w, p, src, snippets)
	}

	if se.Help != "" {
		p.help.Fprint(w, "  = help")
		fmt.Fprintf(w, ": %s\n", se.Help)
	}
}

type snippet struct {
	span   protocol.Span
	label  string
	marker byte
	c      *color.Color
}

func (r Renderer) renderSnippets(w io.Writer, p palette, src string, snippets []snippet) {
	primary := locate(src, snippets[0].span.Start)
	width := 0
	for _, s := range snippets {
		if n := len(strconv.Itoa(locate(src, s.span.Start).line)); n > width {
			width = n
		}
	}
	pad := strings.Repeat(" ", width)

	name := r.Name
	if name == "" {
		name = "source"
	}
	p.gutter.Fprintf(w, "%s--> ", pad)
	fmt.Fprintf(w, "%s:%d:%d\n", name, primary.line, primary.col)
	p.gutter.Fprintf(w, "%s |\n", pad)

	for _, s := range snippets {
		pos := locate(src, s.span.Start)
		text := lineAt(src, pos.lineStart)

		p.gutter.Fprintf(w, "%*d | ", width, pos.line)
		fmt.Fprintln(w, text)

		// Spans running past the end of the line are cut at the line end.
		n := s.span.End - s.span.Start
		if rest := len(text) - (pos.col - 1); n > rest {
			n = rest
		}
		if n < 1 {
			n = 1
		}
		p.gutter.Fprintf(w, "%s | ", pad)
		fmt.Fprint(w, strings.Repeat(" ", pos.col-1))
		s.c.Fprint(w, strings.Repeat(string(s.marker), n))
		if s.label != "" {
			fmt.Fprint(w, " ")
			s.c.Fprint(w, s.label)
		}
		fmt.Fprintln(w)
	}
	p.gutter.Fprintf(w, "%s |\n", pad)
}

type position struct {
	line, col int
	lineStart int
}

// locate returns the 1-based line and column of offset.
func locate(src string, offset int) position {
	if offset > len(src) {
		offset = len(src)
	}
	pos := position{line: 1}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			pos.line++
			pos.lineStart = i + 1
		}
	}
	pos.col = offset - pos.lineStart + 1
	return pos
}

func lineAt(src string, start int) string {
	line := src[start:]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return line
}
