package diagnostics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/funvibe/nickel/internal/term"
)

type testFiles map[term.FileID]string

func (f testFiles) Name(id term.FileID) string { return "test.ncl" }
func (f testFiles) Source(id term.FileID) (string, bool) {
	src, ok := f[id]
	return src, ok
}

func TestLocation(t *testing.T) {
	src := "ab\ncde\nf"
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
	}
	for _, tt := range tests {
		line, col := Location(src, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("Location(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func TestRenderUnderlinesSpan(t *testing.T) {
	src := "let x = 1 in\ny + x"
	d := NewErrorAt(ErrE001, term.Original(term.Span{File: 0, Start: 13, End: 14}), "unbound identifier `y`")
	d.Notes = append(d.Notes, "bind `y` before using it")

	var buf bytes.Buffer
	r := &Renderer{Out: &buf, Files: testFiles{0: src}}
	r.RenderDiagnostic(d)
	out := buf.String()

	for _, want := range []string{"error[E001]: unbound identifier `y`", "test.ncl:2:1", "y + x", "^", "= bind `y`"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors emitted although disabled")
	}
}

func TestRenderAlignsCaretAfterMultibyteText(t *testing.T) {
	src := `"é" + x`
	d := NewErrorAt(ErrE001, term.Original(term.Span{File: 0, Start: 7, End: 8}), "unbound identifier `x`")

	var buf bytes.Buffer
	r := &Renderer{Out: &buf, Files: testFiles{0: src}}
	r.RenderDiagnostic(d)

	lines := strings.Split(buf.String(), "\n")
	var excerpt, marker string
	for i, l := range lines {
		if strings.HasSuffix(l, src) && i+1 < len(lines) {
			excerpt, marker = l, lines[i+1]
			break
		}
	}
	if excerpt == "" {
		t.Fatalf("no source excerpt in:\n%s", buf.String())
	}
	textStart := utf8.RuneCountInString(excerpt) - utf8.RuneCountInString(src)
	caret := utf8.RuneCountInString(marker[:strings.Index(marker, "^")])
	if got := caret - textStart; got != 6 {
		t.Errorf("caret under character %d, want 6 (x):\n%s", got, buf.String())
	}
	if strings.Count(marker, "^") != 1 {
		t.Errorf("marker = %q, want a single caret", marker)
	}
}

func TestFromErrorFallback(t *testing.T) {
	diags := FromError(errors.New("plain failure"))
	if len(diags) != 1 || diags[0].Message != "plain failure" {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}
	list := ErrorList{NewErrorAt(ErrP001, term.NoPos, "a"), NewErrorAt(ErrP001, term.NoPos, "b")}
	if got := FromError(list); len(got) != 2 {
		t.Errorf("expected the two listed diagnostics, got %d", len(got))
	}
	if !strings.Contains(list.Error(), "1 more") {
		t.Errorf("unexpected list message %q", list.Error())
	}
}

func TestRenderColors(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{Out: &buf, Color: true}
	r.RenderDiagnostic(NewErrorAt(ErrE001, term.NoPos, "boom"))
	if !strings.Contains(buf.String(), "\033[") {
		t.Errorf("expected ANSI colors, got %q", buf.String())
	}
}
