package modules

import (
	"github.com/funvibe/nickel/internal/pipeline"
)

// ImportProcessor resolves the imports of ctx.Term against Resolver.
type ImportProcessor struct {
	Resolver ImportResolver
}

func (ip *ImportProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if !ctx.HasTerm || ctx.Failed() {
		return ctx
	}
	resolver := ip.Resolver
	if resolver == nil {
		resolver = DummyResolver{}
	}
	rt, err := ResolveFileImports(ctx.Term, ctx.FileID, resolver)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Term = rt
	return ctx
}
