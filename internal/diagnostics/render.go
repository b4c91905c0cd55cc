package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/nickel/internal/term"
)

// Files gives access to the sources diagnostics point into.
type Files interface {
	Name(id term.FileID) string
	Source(id term.FileID) (string, bool)
}

var (
	colorRed  = []color.Attribute{color.FgRed, color.Bold}
	colorBlue = []color.Attribute{color.FgBlue, color.Bold}
	colorBold = []color.Attribute{color.Bold}
)

// ColorEnabled decides whether output to f should use ANSI colors.
// mode is one of "always", "never" or "auto".
func ColorEnabled(f *os.File, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Location converts a byte offset into 1-based line and column numbers.
func Location(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	line = 1 + strings.Count(src[:offset], "\n")
	lineStart := strings.LastIndexByte(src[:offset], '\n') + 1
	return line, offset - lineStart + 1
}

// Renderer writes diagnostics with source excerpts.
type Renderer struct {
	Out   io.Writer
	Files Files
	Color bool
}

func (r *Renderer) paint(attrs []color.Attribute, s string) string {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// Render writes every diagnostic of err.
func (r *Renderer) Render(err error) {
	for _, d := range FromError(err) {
		r.RenderDiagnostic(d)
	}
}

func (r *Renderer) RenderDiagnostic(d *DiagnosticError) {
	fmt.Fprintf(r.Out, "%s: %s\n", r.paint(colorRed, "error["+string(d.Code)+"]"), r.paint(colorBold, d.Message))
	r.excerpt(d.Pos, "")
	for _, rel := range d.Related {
		r.excerpt(rel.Pos, rel.Message)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(r.Out, "  %s %s\n", r.paint(colorBlue, "="), note)
	}
}

func (r *Renderer) excerpt(pos term.TermPos, message string) {
	if pos.IsNone() || r.Files == nil {
		if message != "" {
			fmt.Fprintf(r.Out, "  %s %s\n", r.paint(colorBlue, "-"), message)
		}
		return
	}
	span := pos.Span
	src, ok := r.Files.Source(span.File)
	if !ok {
		return
	}
	line, col := Location(src, span.Start)
	fmt.Fprintf(r.Out, "  %s %s:%d:%d\n", r.paint(colorBlue, "-->"), r.Files.Name(span.File), line, col)

	lines := strings.Split(src, "\n")
	if line-1 >= len(lines) {
		return
	}
	text := lines[line-1]
	width := span.End - span.Start
	if width < 1 {
		width = 1
	}
	if col-1+width > len(text) {
		width = len(text) - (col - 1)
		if width < 1 {
			width = 1
		}
	}
	gutter := fmt.Sprintf("%d", line)
	pad := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(r.Out, "%s %s\n", pad, r.paint(colorBlue, "|"))
	fmt.Fprintf(r.Out, "%s %s %s\n", r.paint(colorBlue, gutter), r.paint(colorBlue, "|"), text)
	// Columns are byte offsets; the marker is padded in characters.
	lead := utf8.RuneCountInString(text[:col-1])
	carets := utf8.RuneCountInString(text[col-1 : min(col-1+width, len(text))])
	if carets < 1 {
		carets = 1
	}
	marker := strings.Repeat(" ", lead) + strings.Repeat("^", carets)
	if message != "" {
		marker += " " + message
	}
	fmt.Fprintf(r.Out, "%s %s %s\n", pad, r.paint(colorBlue, "|"), r.paint(colorRed, marker))
}
