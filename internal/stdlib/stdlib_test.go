package stdlib

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/nickel/internal/evaluator"
	"github.com/funvibe/nickel/internal/modules"
	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/transform"
)

func newEvaluator(t *testing.T) *evaluator.Evaluator {
	t.Helper()
	cache := modules.NewCache()
	cache.Transform = transform.Transform
	ev := evaluator.New(evaluator.Environment{}, cache, evaluator.Options{})
	if err := Load(ev, cache, nil); err != nil {
		t.Fatalf("loading stdlib: %v", err)
	}
	return ev
}

func evalFull(t *testing.T, ev *evaluator.Evaluator, src string) (term.RichTerm, error) {
	t.Helper()
	rt, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return ev.EvalFull(transform.Transform(rt))
}

func TestModulesAreNamedUnderStdlib(t *testing.T) {
	mods := Modules()
	if len(mods) == 0 {
		t.Fatal("no stdlib module embedded")
	}
	for _, m := range mods {
		if !strings.HasPrefix(m.Name, "<stdlib/") || !strings.HasSuffix(m.Name, ".ncl>") {
			t.Errorf("unexpected module name %q", m.Name)
		}
		if _, err := parser.ParseString(m.Source); err != nil {
			t.Errorf("%s does not parse: %v", m.Name, err)
		}
	}
}

func TestContracts(t *testing.T) {
	ev := newEvaluator(t)
	tests := []struct {
		src   string
		blame bool
	}{
		{"1 | Num", false},
		{`"a" | Num`, true},
		{"true | Bool", false},
		{"1 | Bool", true},
		{`"s" : Str`, false},
		{"`a | Enum", false},
		{"[1, 2] | ArrayOf Num", false},
		{`[1, "2"] | ArrayOf Num`, true},
		{"{a = 1} | Record", false},
		{"[] | Record", true},
		{"(fun x => x + 1) | Function Num Num", false},
		{"((fun x => x + 1) | Function Num Num) 1", false},
		{`((fun x => x) | Function Num Str) 1`, true},
		{`((fun x => x) | Function Num Num) "a"`, true},
		{"{port | Num = 80}.port", false},
		{`{port | Num = "80"}.port`, true},
		{"3 | fromPredicate (fun x => x > 2)", false},
		{"1 | fromPredicate (fun x => x > 2)", true},
		{`"anything" | Dyn`, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := evalFull(t, ev, tt.src)
			var ee *evaluator.EvalError
			blamed := errors.As(err, &ee) && ee.Kind == evaluator.BlameError
			if blamed != tt.blame {
				t.Errorf("blame = %v, want %v (err: %v)", blamed, tt.blame, err)
			}
			if !tt.blame && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFunctionContractBlamesContext(t *testing.T) {
	ev := newEvaluator(t)
	_, err := evalFull(t, ev, `((fun x => x) | Function Num Num) "a"`)
	var ee *evaluator.EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("expected an EvalError, got %v", err)
	}
	if ee.Label.Polarity {
		t.Error("a bad argument should blame the context")
	}
	if got := ee.Label.PathString(); got != "domain" {
		t.Errorf("path = %q, want domain", got)
	}
	if ee.Label.Tag != "expected a number" {
		t.Errorf("tag = %q", ee.Label.Tag)
	}
}

func TestBuiltins(t *testing.T) {
	ev := newEvaluator(t)
	tests := []struct {
		src  string
		want term.RichTerm
	}{
		{"array.map (fun x => x * 2) [1, 2, 3]", term.NewArray(term.NewNum(2), term.NewNum(4), term.NewNum(6))},
		{"array.foldl (fun acc x => acc + x) 0 [1, 2, 3]", term.NewNum(6)},
		{"array.filter (fun x => x > 1) [1, 2, 3]", term.NewArray(term.NewNum(2), term.NewNum(3))},
		{"array.all (fun x => x > 0) [1, 2]", term.NewBool(true)},
		{"array.any (fun x => x > 5) [1, 2]", term.NewBool(false)},
		{"array.length [1, 2]", term.NewNum(2)},
		{"array.elemAt 1 [1, 2]", term.NewNum(2)},
		{`record.fields {b = 1, a = 2}`, term.NewArray(term.NewStr("a"), term.NewStr("b"))},
		{`record.hasField "a" {a = 1}`, term.NewBool(true)},
		{`record.get "a" {a = 1}`, term.NewNum(1)},
		{"typeOf 1", term.NewEnum("Num")},
		{"seq 1 2", term.NewNum(2)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := evalFull(t, ev, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(term.WithoutPos(tt.want), term.WithoutPos(got)); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
