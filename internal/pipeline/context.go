package pipeline

import (
	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/term"
)

// PipelineContext carries a file through the stages of a pipeline.
type PipelineContext struct {
	FileID   term.FileID
	FilePath string
	Source   string

	// Term is the current state of the program, set by the parsing stage.
	Term    term.RichTerm
	HasTerm bool

	Errors []*diagnostics.DiagnosticError
	Logger *zap.Logger

	// causes are the errors as reported by the stages.
	causes []error
}

func NewPipelineContext(file term.FileID, path, source string) *PipelineContext {
	return &PipelineContext{FileID: file, FilePath: path, Source: source}
}

// Failed reports whether a stage recorded an error.
func (c *PipelineContext) Failed() bool { return len(c.Errors) > 0 }

// AddError records the diagnostics of err.
func (c *PipelineContext) AddError(err error) {
	c.causes = append(c.causes, err)
	c.Errors = append(c.Errors, diagnostics.FromError(err)...)
}

// Err returns nil if no error was recorded. A single error is returned as
// reported, so that callers can inspect it with errors.As; several errors are
// returned as their diagnostics.
func (c *PipelineContext) Err() error {
	switch {
	case !c.Failed():
		return nil
	case len(c.causes) == 1:
		return c.causes[0]
	}
	return diagnostics.ErrorList(c.Errors)
}

func (c *PipelineContext) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
