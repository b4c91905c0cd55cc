// Package program loads a source with its imports and the standard library,
// then evaluates, queries or exports it.
package program

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/evaluator"
	"github.com/funvibe/nickel/internal/modules"
	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/pipeline"
	"github.com/funvibe/nickel/internal/prettyprinter"
	"github.com/funvibe/nickel/internal/serialize"
	"github.com/funvibe/nickel/internal/stdlib"
	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/transform"
)

// Options configure a program. The zero value uses the default project
// settings and no logging.
type Options struct {
	Project *config.Project
	Logger  *zap.Logger
	// Context cancels evaluation.
	Context context.Context
}

// Program is a source together with the cache holding it, its imports and
// the standard library. It is not safe for concurrent use.
type Program struct {
	mainID  term.FileID
	cache   *modules.Cache
	project *config.Project
	log     *zap.Logger
	ctx     context.Context

	prepared bool
	main     term.RichTerm
	ev       *evaluator.Evaluator
}

// NewFromFile creates a program from a file on disk.
func NewFromFile(path string, opts Options) (*Program, error) {
	p := newProgram(opts)
	id, err := p.cache.AddFile(path)
	if err != nil {
		return nil, err
	}
	p.mainID = id
	return p, nil
}

// NewFromSource creates a program reading its source from r.
func NewFromSource(r io.Reader, name string, opts Options) (*Program, error) {
	p := newProgram(opts)
	id, err := p.cache.AddSource(name, r)
	if err != nil {
		return nil, err
	}
	p.mainID = id
	return p, nil
}

// NewFromString creates a program from an in-memory source.
func NewFromString(src, name string, opts Options) *Program {
	p := newProgram(opts)
	p.mainID = p.cache.AddString(name, src)
	return p
}

func newProgram(opts Options) *Program {
	if opts.Project == nil {
		opts.Project = config.DefaultProject()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	cache := modules.NewCache()
	cache.Logger = opts.Logger
	cache.ImportPaths = opts.Project.ResolvedImportPaths()
	cache.Transform = transform.Transform
	return &Program{
		cache:   cache,
		project: opts.Project,
		log:     opts.Logger,
		ctx:     opts.Context,
	}
}

// Cache exposes the sources of the program, e.g. to render diagnostics.
func (p *Program) Cache() *modules.Cache { return p.cache }

// MainID is the file id of the program source.
func (p *Program) MainID() term.FileID { return p.mainID }

// prepare loads the standard library and runs the main source through the
// parse, import and transform stages. It is done once per program.
func (p *Program) prepare() error {
	if p.prepared {
		return nil
	}
	ev := evaluator.New(evaluator.NewEnvironment(), p.cache, evaluator.Options{
		MaxDepth: p.project.MaxDepth,
		MaxSteps: p.project.MaxSteps,
		Context:  p.ctx,
		Logger:   p.log,
	})
	if p.project.UseStdlib() {
		if err := stdlib.Load(ev, p.cache, p.log); err != nil {
			return fmt.Errorf("loading the standard library: %w", err)
		}
	}

	src, _ := p.cache.Source(p.mainID)
	pctx := pipeline.NewPipelineContext(p.mainID, p.cache.Name(p.mainID), src)
	pctx.Logger = p.log
	pctx = pipeline.New(
		&parser.ParserProcessor{},
		&modules.ImportProcessor{Resolver: p.cache},
		&transform.TransformProcessor{},
	).Run(pctx)
	if err := pctx.Err(); err != nil {
		return err
	}

	p.main = pctx.Term
	p.ev = ev
	p.prepared = true
	return nil
}

// Eval evaluates the program to weak head normal form.
func (p *Program) Eval() (term.RichTerm, error) {
	if err := p.prepare(); err != nil {
		return term.RichTerm{}, err
	}
	return p.ev.Eval(p.main)
}

// EvalFull evaluates the program completely, substituting the variables of
// function bodies.
func (p *Program) EvalFull() (term.RichTerm, error) {
	if err := p.prepare(); err != nil {
		return term.RichTerm{}, err
	}
	return p.ev.EvalFull(p.main)
}

// EvalDeep is EvalFull without substitution in function bodies.
func (p *Program) EvalDeep() (term.RichTerm, error) {
	if err := p.prepare(); err != nil {
		return term.RichTerm{}, err
	}
	return p.ev.EvalDeep(p.main)
}

// Query evaluates the value at path, a dot-separated field path, stopping
// at its metadata. An empty path queries the whole program.
func (p *Program) Query(path string) (term.RichTerm, error) {
	if err := p.prepare(); err != nil {
		return term.RichTerm{}, err
	}
	rt, err := QueryTerm(p.main, path)
	if err != nil {
		return term.RichTerm{}, err
	}
	p.log.Debug("query", zap.String("path", path))
	return p.ev.EvalMeta(rt)
}

// QueryTerm builds the access to path inside rt: `let x = rt in x.path`.
func QueryTerm(rt term.RichTerm, path string) (term.RichTerm, error) {
	if path == "" {
		return rt, nil
	}
	fields, err := parser.ParseFieldPath(path)
	if err != nil {
		return term.RichTerm{}, err
	}
	x := term.FreshIdent()
	access := term.NewVar(x)
	for _, f := range fields {
		access = term.NewStaticAccess(access, f)
	}
	return term.NewLet(x, rt, access), nil
}

// Export fully evaluates the program and writes it in format.
func (p *Program) Export(w io.Writer, format string) error {
	if err := serialize.CheckFormat(format); err != nil {
		return err
	}
	rt, err := p.EvalFull()
	if err != nil {
		return err
	}
	return serialize.Export(w, rt, format)
}

// PrettyPrint writes the parsed program, before import resolution. With
// applyTransforms set, contract annotations are shown applied.
func (p *Program) PrettyPrint(w io.Writer, applyTransforms bool) error {
	src, _ := p.cache.Source(p.mainID)
	pctx := pipeline.NewPipelineContext(p.mainID, p.cache.Name(p.mainID), src)
	pctx.Logger = p.log
	stages := []pipeline.Processor{&parser.ParserProcessor{}}
	if applyTransforms {
		stages = append(stages, &transform.TransformProcessor{})
	}
	pctx = pipeline.New(stages...).Run(pctx)
	if err := pctx.Err(); err != nil {
		return err
	}
	printer := prettyprinter.NewCodePrinterWithWidth(80)
	printer.Print(pctx.Term)
	_, err := fmt.Fprintln(w, printer.String())
	return err
}

// Report renders err with source excerpts. Colors follow the project
// setting when w is a terminal.
func (p *Program) Report(w io.Writer, err error) {
	r := &diagnostics.Renderer{Out: w, Files: p.cache}
	if f, ok := w.(*os.File); ok && diagnostics.ColorEnabled(f, p.project.Color) {
		r.Out = colorable.NewColorable(f)
		r.Color = true
	}
	r.Render(err)
}
