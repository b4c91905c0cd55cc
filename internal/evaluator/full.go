package evaluator

import (
	"github.com/funvibe/nickel/internal/modules"
	"github.com/funvibe/nickel/internal/term"
)

// EvalFull evaluates rt completely: records and arrays are evaluated
// recursively and the variables left in function bodies are substituted.
func EvalFull(rt term.RichTerm, global Environment, resolver modules.ImportResolver) (term.RichTerm, error) {
	return New(global, resolver, Options{}).EvalFull(rt)
}

// EvalDeep is EvalFull without substitution in function bodies.
func EvalDeep(rt term.RichTerm, global Environment, resolver modules.ImportResolver) (term.RichTerm, error) {
	return New(global, resolver, Options{}).EvalDeep(rt)
}

// EvalMeta evaluates rt up to its first metavalue, whose value is then
// forced. The metadata is kept, which is what queries show.
func EvalMeta(rt term.RichTerm, global Environment, resolver modules.ImportResolver) (term.RichTerm, error) {
	return New(global, resolver, Options{}).EvalMeta(rt)
}

func (e *Evaluator) EvalFull(rt term.RichTerm) (term.RichTerm, error) {
	return e.full(AtomicClosure(rt), true)
}

func (e *Evaluator) EvalDeep(rt term.RichTerm) (term.RichTerm, error) {
	return e.full(AtomicClosure(rt), false)
}

// EvalFullIn is EvalFull for a term whose free variables are bound in env.
func (e *Evaluator) EvalFullIn(rt term.RichTerm, env Environment) (term.RichTerm, error) {
	return e.full(Closure{Body: rt, Env: env}, true)
}

func (e *Evaluator) full(c Closure, substFuns bool) (term.RichTerm, error) {
	v, err := e.eval(c, true)
	if err != nil {
		return term.RichTerm{}, err
	}
	switch t := v.Body.Term.(type) {
	case *term.Record:
		fields := make(map[term.Ident]term.RichTerm, len(t.Fields))
		for _, name := range sortedFields(t.Fields) {
			f, err := e.full(Closure{Body: t.Fields[name], Env: v.Env}, substFuns)
			if err != nil {
				return term.RichTerm{}, err
			}
			fields[name] = f
		}
		return term.RichTerm{Term: &term.Record{Fields: fields}, Pos: v.Body.Pos}, nil
	case *term.Array:
		elems := make([]term.RichTerm, len(t.Elems))
		for i, el := range t.Elems {
			f, err := e.full(Closure{Body: el, Env: v.Env}, substFuns)
			if err != nil {
				return term.RichTerm{}, err
			}
			elems[i] = f
		}
		return term.RichTerm{Term: &term.Array{Elems: elems}, Pos: v.Body.Pos}, nil
	case *term.Fun:
		if substFuns {
			return Subst(v.Body, e.global, v.Env), nil
		}
	}
	return v.Body, nil
}

func (e *Evaluator) EvalMeta(rt term.RichTerm) (term.RichTerm, error) {
	return e.evalMeta(AtomicClosure(rt))
}

// EvalMetaIn is EvalMeta for a term whose free variables are bound in env.
func (e *Evaluator) EvalMetaIn(rt term.RichTerm, env Environment) (term.RichTerm, error) {
	return e.evalMeta(Closure{Body: rt, Env: env})
}

func (e *Evaluator) evalMeta(c Closure) (term.RichTerm, error) {
	v, err := e.eval(c, false)
	if err != nil {
		return term.RichTerm{}, err
	}
	m, ok := v.Body.Term.(*term.MetaValue)
	if !ok {
		return Subst(v.Body, e.global, v.Env), nil
	}
	res := *m
	if m.Value != nil {
		inner, err := e.eval(Closure{Body: *m.Value, Env: v.Env}, true)
		if err != nil {
			return term.RichTerm{}, err
		}
		val := Subst(inner.Body, e.global, inner.Env)
		res.Value = &val
	}
	if m.Types != nil {
		ty := *m.Types
		ty.Contract = Subst(ty.Contract, e.global, v.Env)
		res.Types = &ty
	}
	if len(m.Contracts) > 0 {
		res.Contracts = make([]term.Contract, len(m.Contracts))
		for i, ctr := range m.Contracts {
			ctr.Contract = Subst(ctr.Contract, e.global, v.Env)
			res.Contracts[i] = ctr
		}
	}
	return term.RichTerm{Term: &res, Pos: v.Body.Pos}, nil
}
