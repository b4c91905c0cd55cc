// Package evaluator implements lazy evaluation of terms to weak head normal
// form, together with full evaluation, substitution and merging.
package evaluator

import (
	"context"

	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/modules"
	"github.com/funvibe/nickel/internal/term"
)

// Options bound and instrument an evaluation.
type Options struct {
	// MaxDepth bounds the nesting of strict sub-evaluations (operands,
	// forced variables). Zero means config.DefaultMaxDepth.
	MaxDepth int
	// MaxSteps bounds the number of reduction steps. Zero means unlimited.
	MaxSteps int
	// Context for cancellation
	Context context.Context
	Logger  *zap.Logger
}

// Evaluator reduces terms. It memoizes imported files, so one evaluator
// should be used per program. It is not safe for concurrent use.
type Evaluator struct {
	global   Environment
	resolver modules.ImportResolver
	imports  map[term.FileID]*Thunk
	opts     Options
	log      *zap.Logger

	// evalDepth tracks the current nesting depth of eval calls to prevent stack overflow
	evalDepth int
	steps     int
}

func New(global Environment, resolver modules.ImportResolver, opts Options) *Evaluator {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = config.DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = modules.DummyResolver{}
	}
	return &Evaluator{
		global:   global,
		resolver: resolver,
		imports:  make(map[term.FileID]*Thunk),
		opts:     opts,
		log:      opts.Logger,
	}
}

// Global returns the global environment.
func (e *Evaluator) Global() Environment { return e.global }

// Eval evaluates rt to weak head normal form in the global environment and
// substitutes the variables of the result.
func Eval(rt term.RichTerm, global Environment, resolver modules.ImportResolver) (term.RichTerm, error) {
	return New(global, resolver, Options{}).Eval(rt)
}

func (e *Evaluator) Eval(rt term.RichTerm) (term.RichTerm, error) {
	c, err := e.WHNF(AtomicClosure(rt))
	if err != nil {
		return term.RichTerm{}, err
	}
	return Subst(c.Body, e.global, c.Env), nil
}

// WHNF evaluates a closure to weak head normal form. Metavalues are unwrapped.
func (e *Evaluator) WHNF(c Closure) (Closure, error) {
	return e.eval(c, true)
}

// LoadGlobals evaluates rt, which must be a record, and adds each of its
// fields to the global environment.
func (e *Evaluator) LoadGlobals(rt term.RichTerm) error {
	c, err := e.eval(AtomicClosure(rt), true)
	if err != nil {
		return err
	}
	rec, ok := c.Body.Term.(*term.Record)
	if !ok {
		return typeMismatch("global environment", "Record", c.Body)
	}
	for _, name := range sortedFields(rec.Fields) {
		e.global = e.global.Insert(name, e.thunkFor(rec.Fields[name], c.Env, KindRecord))
	}
	e.log.Debug("globals loaded", zap.Int("count", len(rec.Fields)))
	return nil
}

func (e *Evaluator) lookup(name term.Ident, env Environment) (*Thunk, bool) {
	if th, ok := env.Get(name); ok {
		return th, true
	}
	return e.global.Get(name)
}

// step counts one reduction step and enforces the step limit and cancellation.
func (e *Evaluator) step(pos term.TermPos) error {
	e.steps++
	if e.opts.MaxSteps > 0 && e.steps > e.opts.MaxSteps {
		return newError(StepLimit, pos, "evaluation exceeded %d steps", e.opts.MaxSteps)
	}
	if e.opts.Context != nil && e.steps%256 == 0 {
		if err := e.opts.Context.Err(); err != nil {
			return newError(Cancelled, pos, "evaluation cancelled: %v", err)
		}
	}
	return nil
}

// force returns the value of a thunk, evaluating it on first use.
// The stored value is a weak head normal form in which metavalues are kept.
func (e *Evaluator) force(th *Thunk, pos term.TermPos) (Closure, error) {
	switch th.state {
	case thunkEvaluated:
		return th.closure, nil
	case thunkBlackholed:
		return Closure{}, newError(InfiniteRecursion, pos, "infinite recursion: the value of this expression depends on itself")
	}
	th.state = thunkBlackholed
	v, err := e.eval(th.closure, false)
	if err != nil {
		th.state = thunkUnevaluated
		return Closure{}, err
	}
	th.closure = v
	th.state = thunkEvaluated
	return v, nil
}

// forcedValue reports whether the content of a forced thunk is already a
// result. Such records and arrays are closurized and must be shared, not
// rebuilt.
func forcedValue(v Closure, strict bool) bool {
	if _, ok := v.Body.Term.(*term.MetaValue); ok {
		return !strict
	}
	return term.IsValue(v.Body.Term)
}

// thunkFor suspends rt in env. Variables share the thunk they are bound to.
func (e *Evaluator) thunkFor(rt term.RichTerm, env Environment, kind IdentKind) *Thunk {
	switch t := rt.Term.(type) {
	case *term.Var:
		if th, ok := env.Get(t.Name); ok {
			return th
		}
	case *term.Num, *term.Bool, *term.Str, *term.Enum, *term.Lbl:
		return newEvaluatedThunk(AtomicClosure(rt), kind)
	}
	return NewThunk(Closure{Body: rt, Env: env}, kind)
}

// eval is the reduction loop. Tail positions continue the loop; strict
// operands are evaluated recursively. When strict is false, a metavalue is
// a result on its own; otherwise it is unwrapped to its inner value.
func (e *Evaluator) eval(c Closure, strict bool) (Closure, error) {
	e.evalDepth++
	defer func() { e.evalDepth-- }()
	if e.evalDepth > e.opts.MaxDepth {
		return Closure{}, newError(StackOverflow, c.Body.Pos, "maximum evaluation depth of %d exceeded", e.opts.MaxDepth)
	}

	for {
		rt, env := c.Body, c.Env
		if err := e.step(rt.Pos); err != nil {
			return Closure{}, err
		}

		switch t := rt.Term.(type) {
		case *term.Num, *term.Bool, *term.Str, *term.Enum, *term.Lbl, *term.Fun:
			return c, nil

		case *term.Var:
			th, ok := e.lookup(t.Name, env)
			if !ok {
				return Closure{}, newError(UnboundIdentifier, rt.Pos, "unbound identifier `%s`", t.Name)
			}
			v, err := e.force(th, rt.Pos)
			if err != nil {
				return Closure{}, err
			}
			if forcedValue(v, strict) {
				return v, nil
			}
			c = v

		case *term.App:
			fn, err := e.eval(Closure{Body: t.Fun, Env: env}, true)
			if err != nil {
				return Closure{}, err
			}
			f, ok := fn.Body.Term.(*term.Fun)
			if !ok {
				err := newError(NotAFunction, t.Fun.Pos, "not a function: this expression is applied to an argument but evaluates to a %s", term.Shape(fn.Body.Term))
				err.Other = t.Arg.Pos
				return Closure{}, err
			}
			arg := e.thunkFor(t.Arg, env, KindLambda)
			c = Closure{Body: f.Body, Env: fn.Env.Insert(f.Param, arg)}

		case *term.Let:
			kind := KindLet
			if t.Rec {
				kind = KindLetRec
			}
			th := NewThunk(Closure{Body: t.Value, Env: env}, kind)
			bodyEnv := env.Insert(t.Name, th)
			if t.Rec {
				th.setEnv(bodyEnv)
			}
			c = Closure{Body: t.Body, Env: bodyEnv}

		case *term.If:
			cond, err := e.eval(Closure{Body: t.Cond, Env: env}, true)
			if err != nil {
				return Closure{}, err
			}
			b, ok := cond.Body.Term.(*term.Bool)
			if !ok {
				return Closure{}, typeMismatch("if", "Bool", cond.Body)
			}
			if b.Value {
				c = Closure{Body: t.Then, Env: env}
			} else {
				c = Closure{Body: t.Else, Env: env}
			}

		case *term.Op1:
			next, err := e.evalUnary(t, rt.Pos, env)
			if err != nil {
				return Closure{}, err
			}
			c = next

		case *term.Op2:
			next, err := e.evalBinary(t, rt.Pos, env)
			if err != nil {
				return Closure{}, err
			}
			c = next

		case *term.StrChunks:
			return e.evalChunks(t, rt.Pos, env)

		case *term.Switch:
			scrut, err := e.eval(Closure{Body: t.Exp, Env: env}, true)
			if err != nil {
				return Closure{}, err
			}
			tag, ok := scrut.Body.Term.(*term.Enum)
			if !ok {
				return Closure{}, typeMismatch("switch", "Enum", scrut.Body)
			}
			if arm, ok := t.Cases[tag.Tag]; ok {
				c = Closure{Body: arm, Env: env}
			} else if t.Default != nil {
				c = Closure{Body: *t.Default, Env: env}
			} else {
				return Closure{}, newError(NonExhaustiveSwitch, rt.Pos, "no case for `%s in switch", tag.Tag)
			}

		case *term.RecRecord:
			return e.recRecord(t, rt.Pos, env), nil

		case *term.Record:
			return e.closurizeRecord(t, rt.Pos, env), nil

		case *term.Array:
			return e.closurizeArray(t, rt.Pos, env), nil

		case *term.MetaValue:
			if !strict {
				return e.closurizeMeta(t, rt.Pos, env), nil
			}
			if t.Value == nil {
				return Closure{}, newError(EmptyMetaValue, rt.Pos, "this field has metadata but no value")
			}
			c = Closure{Body: *t.Value, Env: env}

		case *term.ResolvedImport:
			th, err := e.importThunk(t.File, rt.Pos)
			if err != nil {
				return Closure{}, err
			}
			v, err := e.force(th, rt.Pos)
			if err != nil {
				return Closure{}, err
			}
			if forcedValue(v, strict) {
				return v, nil
			}
			c = v

		case *term.Import:
			return Closure{}, newError(Other, rt.Pos, "import of %q was not resolved before evaluation", t.Path)

		default:
			return Closure{}, newError(Other, rt.Pos, "cannot evaluate term of type %T", rt.Term)
		}
	}
}

// importThunk returns the memoized thunk of an imported file. Imported terms
// are closed, so they are evaluated in an empty environment.
func (e *Evaluator) importThunk(file term.FileID, pos term.TermPos) (*Thunk, error) {
	if th, ok := e.imports[file]; ok {
		return th, nil
	}
	rt, ok := e.resolver.Get(file)
	if !ok {
		return nil, newError(Other, pos, "imported file %d is not loaded", file)
	}
	e.log.Debug("import forced", zap.Int("file", int(file)))
	th := NewThunk(AtomicClosure(rt), KindLet)
	e.imports[file] = th
	return th, nil
}

func (e *Evaluator) evalChunks(s *term.StrChunks, pos term.TermPos, env Environment) (Closure, error) {
	var b []byte
	// chunks are stored in reverse order
	for i := len(s.Chunks) - 1; i >= 0; i-- {
		chunk := s.Chunks[i]
		if !chunk.IsExpr() {
			b = append(b, chunk.Literal...)
			continue
		}
		v, err := e.eval(Closure{Body: *chunk.Expr, Env: env}, true)
		if err != nil {
			return Closure{}, err
		}
		str, ok := v.Body.Term.(*term.Str)
		if !ok {
			return Closure{}, typeMismatch("string interpolation", "Str", v.Body)
		}
		b = append(b, str.Value...)
	}
	return AtomicClosure(term.NewStr(string(b)).WithPos(pos)), nil
}
