package prettyprinter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/prettyprinter"
	"github.com/funvibe/nickel/internal/term"
)

func parse(t *testing.T, input string) term.RichTerm {
	t.Helper()
	rt, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return rt
}

func TestPrint(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{b = 2, a = 1}", "{ a = 1, b = 2 }"},
		{"fun x y => x + y", "fun x y => x + y"},
		{"(fun x => x) 1", "(fun x => x) 1"},
		{"f (g x) y", "f (g x) y"},
		{"1 - (2 - 3)", "1 - (2 - 3)"},
		{"(1 - 2) - 3", "1 - 2 - 3"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{`"a%{x}b"`, `"a%{x}b"`},
		{`"say \"hi\"\n"`, `"say \"hi\"\n"`},
		{"{a | Num | default = 1}", "{ a | Num | default = 1 }"},
		{"{a : Num}", "{ a : Num }"},
		{`{a | doc "the answer" = 42}`, `{ a | doc "the answer" = 42 }`},
		{"let x = 1 in x + 1", "let x = 1 in\nx + 1"},
		{"let rec f = fun n => f n in f", "let rec f = fun n => f n in\nf"},
		{"switch { `a => 1, _ => 2 } x", "switch { `a => 1, _ => 2 } x"},
		{`r.a."b c"`, `r.a."b c"`},
		{"%elemAt% xs 0", "%elemAt% xs 0"},
		{"%isNum% (f x)", "%isNum% (f x)"},
		{"!(a && b)", "!(a && b)"},
		{"if a then 1 else 2", "if a then 1 else 2"},
		{"[1, [2], {}]", "[1, [2], {}]"},
		{`import "lib.ncl"`, `import "lib.ncl"`},
		{"a & b & c", "a & b & c"},
		{"a & (b & c)", "a & (b & c)"},
		{"{a = 1, b = 2, c = 3, d = 4}", "{\n  a = 1,\n  b = 2,\n  c = 3,\n  d = 4,\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := prettyprinter.Print(parse(t, tt.input))
			if got != tt.want {
				t.Errorf("Print(%q) =\n%s\nwant\n%s", tt.input, got, tt.want)
			}
		})
	}
}

func TestPrintRoundTrips(t *testing.T) {
	inputs := []string{
		"{ server = { host = \"localhost\", port | Num | default = 8080 }, names = [\"a\", \"b\"] }",
		"let f = fun x => { val = x } in (f 1).val",
		"fun r => r.a & { b = r.c ++ \"%{r.d}\" }",
		"{ \"with space\" = 1, \"let\" = 2, x' = 3 }",
		"switch { `on => true, `off => false } (%typeOf% x)",
		"-x * (y - 1) < 3 || z == [1, 2] @ [3]",
	}
	for _, input := range inputs {
		first := parse(t, input)
		printed := prettyprinter.Print(first)
		second := parse(t, printed)
		if diff := cmp.Diff(term.WithoutPos(first), term.WithoutPos(second), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%q printed as %q, which parses differently (-first +second):\n%s", input, printed, diff)
		}
	}
}

func TestPrintSynthesizedTerms(t *testing.T) {
	tests := []struct {
		name string
		rt   term.RichTerm
		want string
	}{
		{"negative argument", term.NewApp(term.NewVar("f"), term.NewNum(-1)), "f (-1)"},
		{"fractional", term.NewNum(0.25), "0.25"},
		{"large", term.NewNum(1e21), "1e+21"},
		{"evaluated record", term.NewRecord(map[term.Ident]term.RichTerm{"x": term.NewBool(true)}), "{ x = true }"},
		{"enum", term.NewEnum("Num"), "`Num"},
		{"field without value", term.NewRecord(map[term.Ident]term.RichTerm{
			"a": {Term: &term.MetaValue{Priority: term.PriorityNormal, Contracts: []term.Contract{{Types: "Str"}}}},
		}), "{ a | Str }"},
		{"interpolation escape", term.NewStr("100%{"), `"100\%{"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := prettyprinter.Print(tt.rt); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintWrapsLongArrays(t *testing.T) {
	elems := make([]term.RichTerm, 30)
	for i := range elems {
		elems[i] = term.NewNum(float64(1000 + i))
	}
	p := prettyprinter.NewCodePrinterWithWidth(40)
	p.Print(term.NewArray(elems...))
	out := p.String()
	if out[:2] != "[\n" || out[len(out)-1] != ']' {
		t.Errorf("expected a multi-line array, got:\n%s", out)
	}
}
