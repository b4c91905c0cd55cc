package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/pipeline"
	"github.com/funvibe/nickel/internal/term"
)

func parse(t *testing.T, src string) term.RichTerm {
	t.Helper()
	rt, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return rt
}

func meta(t *testing.T, rt term.RichTerm) *term.MetaValue {
	t.Helper()
	m, ok := rt.Term.(*term.MetaValue)
	if !ok {
		t.Fatalf("expected a metavalue, got %T", rt.Term)
	}
	return m
}

func TestApplyContractsWrapsValue(t *testing.T) {
	got := meta(t, ApplyContracts(parse(t, "1 : Num | Pos")))

	app, ok := got.Value.Term.(*term.App)
	if !ok {
		t.Fatalf("expected an application, got %T", got.Value.Term)
	}
	// the type annotation is applied first, so the last contract is outermost
	outer := app.Fun.Term.(*term.App)
	if diff := cmp.Diff(term.NewVar("Pos"), term.WithoutPos(outer.Fun)); diff != "" {
		t.Errorf("outer contract (-want +got):\n%s", diff)
	}
	if lbl := outer.Arg.Term.(*term.Lbl); lbl.Label.Types != "Pos" || !lbl.Label.Polarity {
		t.Errorf("unexpected label %+v", lbl.Label)
	}

	inner := app.Arg.Term.(*term.App)
	if diff := cmp.Diff(term.NewVar("Num"), term.WithoutPos(inner.Fun.Term.(*term.App).Fun)); diff != "" {
		t.Errorf("inner contract (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(term.NewNum(1), term.WithoutPos(inner.Arg)); diff != "" {
		t.Errorf("value (-want +got):\n%s", diff)
	}

	// metadata survives
	if got.Types == nil || got.Types.Types != "Num" || len(got.Contracts) != 1 {
		t.Errorf("metadata lost: %+v", got)
	}
}

func TestApplyContractsLeavesOtherTermsAlone(t *testing.T) {
	tests := []string{
		"1 + 1",
		`{a | doc "no contract" = 1}`,
		"{a | Num}",
		"{a | default = 2}",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			rt := parse(t, src)
			got := ApplyContracts(rt)
			if diff := cmp.Diff(term.WithoutPos(rt), term.WithoutPos(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("term changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyContractsNested(t *testing.T) {
	rt := ApplyContracts(parse(t, "{a = {b | Num = 1}}"))
	a := rt.Term.(*term.RecRecord).Fields["a"]
	b := meta(t, a.Term.(*term.RecRecord).Fields["b"])
	if _, ok := b.Value.Term.(*term.App); !ok {
		t.Errorf("nested field not wrapped: %T", b.Value.Term)
	}
}

func TestTransformProcessor(t *testing.T) {
	ctx := pipeline.NewPipelineContext(term.NoFile, "", "")
	ctx.Term = parse(t, "1 | Num")
	ctx.HasTerm = true
	ctx = (&TransformProcessor{}).Process(ctx)
	if _, ok := meta(t, ctx.Term).Value.Term.(*term.App); !ok {
		t.Error("processor did not apply contracts")
	}

	skipped := (&TransformProcessor{}).Process(pipeline.NewPipelineContext(term.NoFile, "", ""))
	if skipped.HasTerm {
		t.Error("processor invented a term")
	}
}
