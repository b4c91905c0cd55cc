package parser

import (
	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/pipeline"
	"github.com/funvibe/nickel/internal/serialize"
	"github.com/funvibe/nickel/internal/term"
)

// ParserProcessor parses ctx.Source into ctx.Term. JSON and YAML files are
// decoded as data.
type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	var rt term.RichTerm
	var err error
	if serialize.IsDataFile(ctx.FilePath, config.DataFileExtensions) {
		rt, err = serialize.FromYAML(ctx.FileID, ctx.Source)
	} else {
		rt, err = Parse(ctx.FileID, ctx.Source)
	}
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Term = rt
	ctx.HasTerm = true
	return ctx
}
