package parser_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/term"
)

// parse is a test helper: parses input and fails on errors.
func parse(t *testing.T, input string) term.RichTerm {
	t.Helper()
	rt, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return term.WithoutPos(rt)
}

func assertParses(t *testing.T, input string, want term.RichTerm) {
	t.Helper()
	got := parse(t, input)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("parse %q mismatch (-want +got):\n%s", input, diff)
	}
}

func num(f float64) term.RichTerm { return term.NewNum(f) }
func v(name string) term.RichTerm  { return term.NewVar(term.Ident(name)) }
func str(s string) term.RichTerm {
	return term.NewStrChunks(term.LiteralChunk(s))
}

func TestParseLiterals(t *testing.T) {
	assertParses(t, "42", num(42))
	assertParses(t, "1.5e2", num(150))
	assertParses(t, "true", term.NewBool(true))
	assertParses(t, "`foo", term.NewEnum("foo"))
	assertParses(t, `"hello"`, str("hello"))
	assertParses(t, `""`, term.NewStrChunks())
	assertParses(t, `"a\nb\"c\%{d}"`, str("a\nb\"c%{d}"))
}

func TestParseOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  term.RichTerm
	}{
		{"1 + 2 * 3", term.NewOp2(term.OpPlus, num(1), term.NewOp2(term.OpMult, num(2), num(3)))},
		{"1 - 2 - 3", term.NewOp2(term.OpSub, term.NewOp2(term.OpSub, num(1), num(2)), num(3))},
		{"a || b && c", term.NewOp2(term.OpBoolOr, v("a"), term.NewOp2(term.OpBoolAnd, v("b"), v("c")))},
		{"1 + 1 == 2", term.NewOp2(term.OpEq, term.NewOp2(term.OpPlus, num(1), num(1)), num(2))},
		{"-x", term.NewOp2(term.OpSub, num(0), v("x"))},
		{"!a && b", term.NewOp2(term.OpBoolAnd, term.NewOp1(term.OpBoolNot, v("a")), v("b"))},
		{"a & b & c", term.NewOp2(term.OpMerge, term.NewOp2(term.OpMerge, v("a"), v("b")), v("c"))},
		{"f x + 1", term.NewOp2(term.OpPlus, term.NewApp(v("f"), v("x")), num(1))},
		{"f x y", term.NewApp(v("f"), v("x"), v("y"))},
		{"f r.a", term.NewApp(v("f"), term.NewStaticAccess(v("r"), "a"))},
		{"r.a.b", term.NewStaticAccess(term.NewStaticAccess(v("r"), "a"), "b")},
		{`r."x y"`, term.NewStaticAccess(v("r"), "x y")},
		{"xs @ [1] ++ s", term.NewOp2(term.OpStrConcat, term.NewOp2(term.OpArrayConcat, v("xs"), term.NewArray(num(1))), v("s"))},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assertParses(t, tt.input, tt.want)
		})
	}
}

func TestParseBinders(t *testing.T) {
	assertParses(t, "fun x y => x", term.NewFun(v("x"), "x", "y"))
	assertParses(t, "let x = 1 in x", term.NewLet("x", num(1), v("x")))
	assertParses(t, "let rec f = fun x => f x in f",
		term.NewLetRec("f", term.NewFun(term.NewApp(v("f"), v("x")), "x"), v("f")))
	assertParses(t, "let id x = x in id 1",
		term.NewLet("id", term.NewFun(v("x"), "x"), term.NewApp(v("id"), num(1))))
	assertParses(t, "if a then 1 else 2", term.NewIf(v("a"), num(1), num(2)))
	assertParses(t, "(fun x => x) 3", term.NewApp(term.NewFun(v("x"), "x"), num(3)))
}

func TestParseRecords(t *testing.T) {
	assertParses(t, "{}", term.NewRecRecord(map[term.Ident]term.RichTerm{}))
	assertParses(t, "{a = 1, b = a,}", term.NewRecRecord(map[term.Ident]term.RichTerm{
		"a": num(1),
		"b": v("a"),
	}))

	nested := term.NewRecRecord(map[term.Ident]term.RichTerm{
		"a": term.NewRecRecord(map[term.Ident]term.RichTerm{
			"b": term.NewRecRecord(map[term.Ident]term.RichTerm{"c": num(1)}),
		}),
	})
	assertParses(t, "{a.b.c = 1}", nested)

	merged := term.NewRecRecord(map[term.Ident]term.RichTerm{
		"a": term.NewOp2(term.OpMerge,
			term.NewRecRecord(map[term.Ident]term.RichTerm{"b": num(1)}),
			term.NewRecRecord(map[term.Ident]term.RichTerm{"c": num(2)}),
		),
	})
	assertParses(t, "{a.b = 1, a.c = 2}", merged)
}

func TestParseFieldAnnotations(t *testing.T) {
	got := parse(t, `{a | Num | default = 2, b | doc "the b field", c : Str}`)
	rec, ok := got.Term.(*term.RecRecord)
	if !ok {
		t.Fatalf("expected a recursive record, got %T", got.Term)
	}

	a := rec.Fields["a"].Term.(*term.MetaValue)
	if a.Priority != term.PriorityDefault {
		t.Errorf("a: expected default priority, got %s", a.Priority)
	}
	if len(a.Contracts) != 1 || a.Contracts[0].Types != "Num" {
		t.Errorf("a: unexpected contracts %+v", a.Contracts)
	}
	if diff := cmp.Diff(num(2), *a.Value); diff != "" {
		t.Errorf("a: value mismatch:\n%s", diff)
	}

	b := rec.Fields["b"].Term.(*term.MetaValue)
	if b.Doc == nil || *b.Doc != "the b field" {
		t.Errorf("b: unexpected doc %v", b.Doc)
	}
	if b.HasValue() {
		t.Error("b: metadata-only field should have no value")
	}

	c := rec.Fields["c"].Term.(*term.MetaValue)
	if c.Types == nil || c.Types.Types != "Str" || !c.Types.Label.Polarity {
		t.Errorf("c: unexpected type annotation %+v", c.Types)
	}
	if a.Priority == c.Priority {
		t.Error("annotations must not leak between fields")
	}
}

func TestParseTermAnnotation(t *testing.T) {
	got := parse(t, "1 + 1 | Num | force")
	meta, ok := got.Term.(*term.MetaValue)
	if !ok {
		t.Fatalf("expected a metavalue, got %T", got.Term)
	}
	if meta.Priority != term.PriorityForce {
		t.Errorf("expected force priority, got %s", meta.Priority)
	}
	want := term.NewOp2(term.OpPlus, num(1), num(1))
	if diff := cmp.Diff(want, *meta.Value); diff != "" {
		t.Errorf("value mismatch:\n%s", diff)
	}
}

func TestParseInterpolation(t *testing.T) {
	want := term.NewStrChunks(
		term.LiteralChunk("a "),
		term.ExprChunk(term.NewOp2(term.OpStrConcat, v("x"), str("}"))),
		term.LiteralChunk(" b"),
	)
	assertParses(t, `"a %{x ++ "}"} b"`, want)

	nested := term.NewStrChunks(
		term.ExprChunk(term.NewStrChunks(
			term.LiteralChunk("in "),
			term.ExprChunk(term.NewRecRecord(map[term.Ident]term.RichTerm{"a": num(1)})),
		)),
	)
	assertParses(t, `"%{"in %{ {a = 1} }"}"`, nested)
}

func TestInterpolationPositions(t *testing.T) {
	src := `"ab%{foo}"`
	rt, err := parser.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	chunks := rt.Term.(*term.StrChunks).Chunks
	expr := chunks[0].Expr
	if expr == nil {
		t.Fatalf("expected the expression chunk first in reversed storage, got %+v", chunks)
	}
	if got := src[expr.Pos.Span.Start:expr.Pos.Span.End]; got != "foo" {
		t.Errorf("interpolated expression spans %q, want %q", got, "foo")
	}
}

func TestParseSwitchImportPrimop(t *testing.T) {
	def := num(0)
	assertParses(t, "switch { `a => 1, _ => 0 } x", term.New(&term.Switch{
		Exp:     v("x"),
		Cases:   map[term.Ident]term.RichTerm{"a": num(1)},
		Default: &def,
	}))
	assertParses(t, `import "lib.ncl"`, term.NewImport("lib.ncl"))
	assertParses(t, "%isNum% x", term.NewOp1(term.OpIsNum, v("x")))
	assertParses(t, "%blame% l", term.NewOp1(term.OpBlame, v("l")))
	assertParses(t, "%hasField% \"a\" r", term.NewOp2(term.OpHasField, str("a"), v("r")))
}

func TestParseComments(t *testing.T) {
	assertParses(t, "# leading\n1 # trailing\n", num(1))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
	}{
		{"^$*/.23ab 0°@", diagnostics.ErrP002},
		{"let x = 1", diagnostics.ErrP001},
		{"1 +", diagnostics.ErrP001},
		{"fun => 1", diagnostics.ErrP001},
		{"{a = 1 b = 2}", diagnostics.ErrP001},
		{`"abc`, diagnostics.ErrP002},
		{`"\q"`, diagnostics.ErrP004},
		{`"%{1 + }"`, diagnostics.ErrP001},
		{`import "%{x}"`, diagnostics.ErrP004},
		{"switch { `a => 1, `a => 2 } x", diagnostics.ErrP005},
		{"%nope% x", diagnostics.ErrP001},
		{"{a}", diagnostics.ErrP001},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parser.ParseString(tt.input)
			if err == nil {
				t.Fatalf("expected an error")
			}
			var list diagnostics.ErrorList
			if !errors.As(err, &list) {
				t.Fatalf("expected an ErrorList, got %T", err)
			}
			if list[0].Code != tt.code {
				t.Errorf("expected %s, got %s: %s", tt.code, list[0].Code, list[0].Message)
			}
		})
	}
}

func TestRecursionLimit(t *testing.T) {
	src := ""
	for i := 0; i < parser.MaxRecursionDepth+10; i++ {
		src += "("
	}
	_, err := parser.ParseString(src + "1")
	var list diagnostics.ErrorList
	if !errors.As(err, &list) || list[0].Code != diagnostics.ErrP006 {
		t.Fatalf("expected a depth error, got %v", err)
	}
}

func TestParseFieldPath(t *testing.T) {
	got, err := parser.ParseFieldPath(`a.b."c d"`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]term.Ident{"a", "b", "c d"}, got); diff != "" {
		t.Errorf("path mismatch:\n%s", diff)
	}
	if _, err := parser.ParseFieldPath("a..b"); err == nil {
		t.Error("expected an error for an empty path element")
	}
}
