package term

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewStrChunksStoresReversed(t *testing.T) {
	rt := NewStrChunks(LiteralChunk("a"), ExprChunk(NewVar("x")), LiteralChunk("b"))
	chunks := rt.Term.(*StrChunks).Chunks
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Literal != "b" || chunks[2].Literal != "a" {
		t.Errorf("chunks not reversed: %+v", chunks)
	}
	if !chunks[1].IsExpr() {
		t.Error("middle chunk should be an expression")
	}
}

func TestFreshIdentIsUniqueAndGenerated(t *testing.T) {
	seen := make(map[Ident]bool)
	for i := 0; i < 100; i++ {
		id := FreshIdent()
		if !id.IsGenerated() {
			t.Fatalf("%s is not marked as generated", id)
		}
		if seen[id] {
			t.Fatalf("duplicate fresh identifier %s", id)
		}
		seen[id] = true
	}
	if Ident("x").IsGenerated() {
		t.Error("source identifier reported as generated")
	}
}

func TestMetaValueInert(t *testing.T) {
	m := NewMeta(NewNum(1))
	if !m.IsInert() {
		t.Error("lifted term should be inert")
	}
	doc := "documented"
	m.Doc = &doc
	if m.IsInert() {
		t.Error("documented metavalue is not inert")
	}
	d := NewDefault(NewNum(1)).Term.(*MetaValue)
	if d.IsInert() {
		t.Error("default priority is observable")
	}
}

func TestPriorityOrder(t *testing.T) {
	if !(PriorityDefault < PriorityNormal && PriorityNormal < PriorityForce) {
		t.Fatal("priorities are not ordered default < normal < force")
	}
}

func TestWithoutPos(t *testing.T) {
	pos := Original(Span{File: 0, Start: 1, End: 4})
	rt := NewApp(NewVar("f").WithPos(pos), NewNum(2).WithPos(pos)).WithPos(pos)
	got := WithoutPos(rt)
	want := NewApp(NewVar("f"), NewNum(2))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WithoutPos mismatch (-want +got):\n%s", diff)
	}
}

func TestTraverseStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	rt := NewArray(NewNum(1), NewImport("x"), NewNum(3))
	_, err := Traverse(rt, func(t RichTerm) (RichTerm, error) {
		if _, ok := t.Term.(*Import); ok {
			return t, boom
		}
		return t, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestLabelWithPathDoesNotAlias(t *testing.T) {
	l := DummyLabel()
	a := l.WithPath(PathElem{Kind: PathField, Field: "a"})
	b := a.WithPath(PathElem{Kind: PathDomain})
	c := a.WithPath(PathElem{Kind: PathCodomain})
	if b.PathString() != "a.domain" || c.PathString() != "a.codomain" {
		t.Errorf("unexpected paths %q %q", b.PathString(), c.PathString())
	}
	if len(l.Path) != 0 {
		t.Error("original label was modified")
	}
}

func TestFuse(t *testing.T) {
	a := Original(Span{File: 1, Start: 3, End: 5})
	b := Original(Span{File: 1, Start: 10, End: 12})
	got := a.Fuse(b)
	if got.Span.Start != 3 || got.Span.End != 12 {
		t.Errorf("fuse = %v", got)
	}
	if NoPos.Fuse(a) != a {
		t.Error("fusing with no position should keep the other one")
	}
}
