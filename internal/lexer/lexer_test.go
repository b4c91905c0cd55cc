package lexer

import (
	"testing"

	"github.com/funvibe/nickel/internal/token"
)

func TestNextToken(t *testing.T) {
	input := "let rec f = fun x => x ++ \"a%{b}c\" in `tag %isNum% # comment\n {a.b = [1.5, 2e3]} & r | default == != <= >= && || @ _"

	expected := []struct {
		typ token.TokenType
		lit string
	}{
		{token.LET, "let"},
		{token.REC, "rec"},
		{token.IDENT, "f"},
		{token.ASSIGN, "="},
		{token.FUN, "fun"},
		{token.IDENT, "x"},
		{token.DOUBLE_ARROW, "=>"},
		{token.IDENT, "x"},
		{token.CONCAT, "++"},
		{token.STRING, "a%{b}c"},
		{token.IN, "in"},
		{token.ENUM_TAG, "tag"},
		{token.PRIMOP, "isNum"},
		{token.LBRACE, "{"},
		{token.IDENT, "a"},
		{token.DOT, "."},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.LBRACKET, "["},
		{token.NUMBER, "1.5"},
		{token.COMMA, ","},
		{token.NUMBER, "2e3"},
		{token.RBRACKET, "]"},
		{token.RBRACE, "}"},
		{token.AMP, "&"},
		{token.IDENT, "r"},
		{token.PIPE, "|"},
		{token.IDENT, "default"},
		{token.EQ, "=="},
		{token.NOT_EQ, "!="},
		{token.LTE, "<="},
		{token.GTE, ">="},
		{token.AND, "&&"},
		{token.OR, "||"},
		{token.AT, "@"},
		{token.UNDERSCORE, "_"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range expected {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - type wrong. expected=%q, got=%q (%s)", i, tt.typ, tok.Type, tok)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.lit, tok.Literal)
		}
	}
}

func TestNestedInterpolation(t *testing.T) {
	l := New(`"Hello %{"in%{"ner"}"} !" x`)
	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected STRING, got %s", tok)
	}
	if tok.Literal != `Hello %{"in%{"ner"}"} !` {
		t.Errorf("unexpected content %q", tok.Literal)
	}
	if next := l.NextToken(); next.Type != token.IDENT || next.Literal != "x" {
		t.Errorf("lexer did not resume after string: %s", next)
	}
}

func TestOffsets(t *testing.T) {
	l := NewWithOffset("ab  cd", 10)
	first := l.NextToken()
	second := l.NextToken()
	if first.Start != 10 || first.End != 12 {
		t.Errorf("first token span = [%d,%d)", first.Start, first.End)
	}
	if second.Start != 14 || second.End != 16 {
		t.Errorf("second token span = [%d,%d)", second.Start, second.End)
	}
}

func TestIllegal(t *testing.T) {
	for _, input := range []string{"^", `"unterminated`, "%bad", "°"} {
		tok := New(input).NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("%q: expected ILLEGAL, got %s", input, tok)
		}
	}
}
