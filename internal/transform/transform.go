// Package transform rewrites parsed terms before evaluation.
package transform

import (
	"github.com/funvibe/nickel/internal/pipeline"
	"github.com/funvibe/nickel/internal/term"
)

// Transform applies every program transformation to rt.
func Transform(rt term.RichTerm) term.RichTerm {
	return ApplyContracts(rt)
}

// ApplyContracts wraps the value of each metavalue in the application of its
// type annotation and contracts, so that they are checked when the value is
// forced. The metadata itself is kept for merging and queries.
func ApplyContracts(rt term.RichTerm) term.RichTerm {
	out, _ := term.Traverse(rt, func(t term.RichTerm) (term.RichTerm, error) {
		m, ok := t.Term.(*term.MetaValue)
		if !ok || m.Value == nil {
			return t, nil
		}
		contracts := m.AllContracts()
		if len(contracts) == 0 {
			return t, nil
		}
		v := term.ApplyContracts(contracts, *m.Value)
		return term.RichTerm{Term: m.WithValue(&v), Pos: t.Pos}, nil
	})
	return out
}

// TransformProcessor is the pipeline stage running Transform.
type TransformProcessor struct{}

func (tp *TransformProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if !ctx.HasTerm || ctx.Failed() {
		return ctx
	}
	ctx.Term = Transform(ctx.Term)
	return ctx
}
