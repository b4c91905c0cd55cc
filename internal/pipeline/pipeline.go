// Package pipeline chains the stages that turn a source file into a term
// ready for evaluation: parsing, import resolution and program transformations.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"
)

// Processor is one stage of a pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Every stage runs; stages that need the output
// of a failed stage check ctx.Failed and pass the context through.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	log := ctx.logger()
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		log.Debug("pipeline stage done",
			zap.String("stage", fmt.Sprintf("%T", processor)),
			zap.String("file", ctx.FilePath),
			zap.Int("errors", len(ctx.Errors)))
	}
	return ctx
}
