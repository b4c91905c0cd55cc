package evaluator

import (
	"sort"

	"github.com/funvibe/nickel/internal/term"
)

// Values holding sub-terms (records, arrays, metavalues) are returned in
// closurized form: each sub-term that is not a constant is replaced by a
// fresh variable bound to a thunk, and the closure environment holds only
// these fresh variables. Sub-terms are then evaluated at most once, and the
// environments of two closurized values can be joined without capture.

// closurize returns a term equivalent to rt in env, valid in out.
func closurize(rt term.RichTerm, env Environment, out *Environment) term.RichTerm {
	switch t := rt.Term.(type) {
	case *term.Num, *term.Bool, *term.Str, *term.Enum, *term.Lbl:
		return rt
	case *term.Var:
		th, ok := env.Get(t.Name)
		if !ok {
			// global, or unbound: left to fail when forced
			return rt
		}
		if t.Name.IsGenerated() {
			*out = out.Insert(t.Name, th)
			return rt
		}
		fresh := term.FreshIdent()
		*out = out.Insert(fresh, th)
		return term.NewVar(fresh).WithPos(rt.Pos)
	}
	fresh := term.FreshIdent()
	*out = out.Insert(fresh, NewThunk(Closure{Body: rt, Env: env}, KindRecord))
	return term.NewVar(fresh).WithPos(rt.Pos)
}

// capture binds a whole closure to a fresh variable of out.
func capture(c Closure, out *Environment) term.RichTerm {
	if term.IsAtom(c.Body.Term) {
		return c.Body
	}
	fresh := term.FreshIdent()
	state := thunkUnevaluated
	if term.IsValue(c.Body.Term) {
		state = thunkEvaluated
	}
	*out = out.Insert(fresh, &Thunk{closure: c, state: state, Kind: KindRecord})
	return term.NewVar(fresh).WithPos(c.Body.Pos)
}

func (e *Evaluator) closurizeRecord(r *term.Record, pos term.TermPos, env Environment) Closure {
	out := Environment{}
	fields := make(map[term.Ident]term.RichTerm, len(r.Fields))
	for name, f := range r.Fields {
		fields[name] = closurize(f, env, &out)
	}
	return Closure{Body: term.RichTerm{Term: &term.Record{Fields: fields}, Pos: pos}, Env: out}
}

func (e *Evaluator) closurizeArray(a *term.Array, pos term.TermPos, env Environment) Closure {
	out := Environment{}
	elems := make([]term.RichTerm, len(a.Elems))
	for i, el := range a.Elems {
		elems[i] = closurize(el, env, &out)
	}
	return Closure{Body: term.RichTerm{Term: &term.Array{Elems: elems}, Pos: pos}, Env: out}
}

func (e *Evaluator) closurizeMeta(m *term.MetaValue, pos term.TermPos, env Environment) Closure {
	out := Environment{}
	res := *m
	if m.Value != nil {
		v := closurize(*m.Value, env, &out)
		res.Value = &v
	}
	if m.Types != nil {
		ty := *m.Types
		ty.Contract = closurize(ty.Contract, env, &out)
		res.Types = &ty
	}
	if len(m.Contracts) > 0 {
		res.Contracts = make([]term.Contract, len(m.Contracts))
		for i, c := range m.Contracts {
			c.Contract = closurize(c.Contract, env, &out)
			res.Contracts[i] = c
		}
	}
	return Closure{Body: term.RichTerm{Term: &res, Pos: pos}, Env: out}
}

// recRecord allocates one thunk per field, all sharing an environment in
// which every field name is bound to its thunk.
func (e *Evaluator) recRecord(r *term.RecRecord, pos term.TermPos, env Environment) Closure {
	names := sortedFields(r.Fields)
	thunks := make([]*Thunk, len(names))
	recEnv := env
	for i, name := range names {
		thunks[i] = NewThunk(Closure{Body: r.Fields[name]}, KindRecord)
		recEnv = recEnv.Insert(name, thunks[i])
	}

	out := Environment{}
	fields := make(map[term.Ident]term.RichTerm, len(names))
	for i, name := range names {
		th := thunks[i]
		th.setEnv(recEnv)
		fresh := term.FreshIdent()
		out = out.Insert(fresh, th)
		fields[name] = term.NewVar(fresh).WithPos(r.Fields[name].Pos)
	}
	return Closure{Body: term.RichTerm{Term: &term.Record{Fields: fields}, Pos: pos}, Env: out}
}

func sortedFields(fields map[term.Ident]term.RichTerm) []term.Ident {
	names := make([]term.Ident, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
