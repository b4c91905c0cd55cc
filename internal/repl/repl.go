// Package repl evaluates inputs one at a time against a growing set of
// top-level definitions.
package repl

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/evaluator"
	"github.com/funvibe/nickel/internal/modules"
	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/program"
	"github.com/funvibe/nickel/internal/stdlib"
	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/transform"
)

// Result is the outcome of one input.
type Result struct {
	// Value is the fully evaluated input. It is unset for definitions.
	Value    term.RichTerm
	HasValue bool
	// Defined lists the names bound by the input.
	Defined []term.Ident
}

// REPL holds the state of an interactive session. It is not safe for
// concurrent use.
type REPL struct {
	cache *modules.Cache
	ev    *evaluator.Evaluator
	env   evaluator.Environment
	log   *zap.Logger
	// inputs counts the inputs, to name their sources.
	inputs int
}

// New creates a session. The standard library is loaded unless the project
// disables it.
func New(project *config.Project, log *zap.Logger) (*REPL, error) {
	if project == nil {
		project = config.DefaultProject()
	}
	if log == nil {
		log = zap.NewNop()
	}
	cache := modules.NewCache()
	cache.Logger = log
	cache.ImportPaths = project.ResolvedImportPaths()
	cache.Transform = transform.Transform
	ev := evaluator.New(evaluator.NewEnvironment(), cache, evaluator.Options{
		MaxDepth: project.MaxDepth,
		MaxSteps: project.MaxSteps,
		Logger:   log,
	})
	if project.UseStdlib() {
		if err := stdlib.Load(ev, cache, log); err != nil {
			return nil, fmt.Errorf("loading the standard library: %w", err)
		}
	}
	return &REPL{cache: cache, ev: ev, env: evaluator.NewEnvironment(), log: log}, nil
}

// Cache exposes the sources entered so far, to render diagnostics.
func (r *REPL) Cache() *modules.Cache { return r.cache }

// prepare parses src as a new source and resolves its imports.
func (r *REPL) prepare(src string) (term.RichTerm, error) {
	r.inputs++
	id := r.cache.AddString(fmt.Sprintf("<repl-input-%d>", r.inputs), src)
	rt, err := parser.Parse(id, src)
	if err != nil {
		return term.RichTerm{}, err
	}
	rt, err = modules.ResolveFileImports(rt, id, r.cache)
	if err != nil {
		return term.RichTerm{}, err
	}
	return transform.Transform(rt), nil
}

// Eval runs one input. `let [rec] x = e` without `in` defines x for the
// following inputs; any other input is evaluated completely.
func (r *REPL) Eval(src string) (Result, error) {
	let, ok, err := r.definition(src)
	if err != nil {
		return Result{}, err
	}
	if ok {
		r.define(let.Name, let.Rec, let.Value)
		return Result{Defined: []term.Ident{let.Name}}, nil
	}
	rt, err := r.prepare(src)
	if err != nil {
		return Result{}, err
	}
	v, err := r.ev.EvalFullIn(rt, r.env)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v, HasValue: true}, nil
}

// definition recognizes a top-level `let` without body by parsing it with
// a dummy one.
func (r *REPL) definition(src string) (*term.Let, bool, error) {
	trimmed := strings.TrimSpace(src)
	if !strings.HasPrefix(trimmed, "let ") {
		return nil, false, nil
	}
	if _, err := parser.ParseString(trimmed); err == nil {
		return nil, false, nil
	}
	withBody := trimmed + "\nin 0"
	if _, err := parser.ParseString(withBody); err != nil {
		return nil, false, nil
	}
	rt, err := r.prepare(withBody)
	if err != nil {
		return nil, false, err
	}
	let, ok := rt.Term.(*term.Let)
	return let, ok, nil
}

// Incomplete reports whether src is the beginning of an input that
// continues on the next line. Commands and definitions without body are
// complete.
func Incomplete(src string) bool {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" || strings.HasPrefix(trimmed, ":") {
		return false
	}
	_, err := parser.ParseString(trimmed)
	if err == nil {
		return false
	}
	if strings.HasPrefix(trimmed, "let ") {
		if _, e := parser.ParseString(trimmed + "\nin 0"); e == nil {
			return false
		}
	}
	return parser.IsIncomplete(err, trimmed)
}

func (r *REPL) define(name term.Ident, rec bool, value term.RichTerm) {
	if rec {
		value = term.NewLetRec(name, value, term.NewVar(name))
	}
	th := evaluator.NewThunk(evaluator.Closure{Body: value, Env: r.env}, evaluator.KindLet)
	r.env = r.env.Insert(name, th)
	r.log.Debug("repl definition", zap.String("name", string(name)))
}

// Load evaluates a file, which must be a record, and defines each of its fields.
func (r *REPL) Load(path string) (Result, error) {
	id, err := r.cache.AddFile(path)
	if err != nil {
		return Result{}, err
	}
	rt, err := r.cache.Prepare(id)
	if err != nil {
		return Result{}, err
	}
	c, err := r.ev.WHNF(evaluator.AtomicClosure(rt))
	if err != nil {
		return Result{}, err
	}
	rec, ok := c.Body.Term.(*term.Record)
	if !ok {
		return Result{}, fmt.Errorf("%s: expected a record, got a %s", path, term.Shape(c.Body.Term))
	}
	var res Result
	for _, name := range sortedFields(rec.Fields) {
		r.env = r.env.Insert(name, evaluator.NewThunk(evaluator.Closure{Body: rec.Fields[name], Env: c.Env}, evaluator.KindRecord))
		res.Defined = append(res.Defined, name)
	}
	return res, nil
}

// Query evaluates src and returns the metadata at path, as the query command does.
func (r *REPL) Query(src, path string) ([]program.MetaEntry, error) {
	rt, err := r.prepare(src)
	if err != nil {
		return nil, err
	}
	rt, err = program.QueryTerm(rt, path)
	if err != nil {
		return nil, err
	}
	v, err := r.ev.EvalMetaIn(rt, r.env)
	if err != nil {
		return nil, err
	}
	return program.Describe(v), nil
}

// Defined returns the names defined so far, sorted.
func (r *REPL) Defined() []term.Ident {
	names := r.env.Idents()
	sortIdents(names)
	return names
}

func sortedFields(fields map[term.Ident]term.RichTerm) []term.Ident {
	names := make([]term.Ident, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sortIdents(names)
	return names
}

func sortIdents(names []term.Ident) {
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
}
