package evaluator

import (
	"github.com/funvibe/nickel/internal/term"
)

// Subst replaces the free variables of rt by the content of the thunks they
// are bound to in env, then in global. Variables bound inside rt are never
// replaced. A variable whose thunk is already being substituted (a cyclic
// binding, as in recursive records) is left as is.
func Subst(rt term.RichTerm, global, env Environment) term.RichTerm {
	s := &substituter{global: global, visiting: make(map[*Thunk]bool)}
	return s.subst(rt, env, nil)
}

type substituter struct {
	global   Environment
	visiting map[*Thunk]bool
}

type boundSet map[term.Ident]struct{}

func (b boundSet) with(names ...term.Ident) boundSet {
	out := make(boundSet, len(b)+len(names))
	for k := range b {
		out[k] = struct{}{}
	}
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func (s *substituter) subst(rt term.RichTerm, env Environment, bound boundSet) term.RichTerm {
	sub := func(t term.RichTerm) term.RichTerm { return s.subst(t, env, bound) }

	var node term.Term
	switch t := rt.Term.(type) {
	case *term.Var:
		if _, ok := bound[t.Name]; ok {
			return rt
		}
		th, ok := env.Get(t.Name)
		if !ok {
			th, ok = s.global.Get(t.Name)
		}
		if !ok || s.visiting[th] {
			return rt
		}
		s.visiting[th] = true
		c := th.Closure()
		out := s.subst(c.Body, c.Env, nil)
		delete(s.visiting, th)
		return out

	case *term.Fun:
		node = &term.Fun{Param: t.Param, Body: s.subst(t.Body, env, bound.with(t.Param))}

	case *term.Let:
		inner := bound.with(t.Name)
		value := t.Value
		if t.Rec {
			value = s.subst(value, env, inner)
		} else {
			value = sub(value)
		}
		node = &term.Let{Name: t.Name, Value: value, Body: s.subst(t.Body, env, inner), Rec: t.Rec}

	case *term.RecRecord:
		names := make([]term.Ident, 0, len(t.Fields))
		for name := range t.Fields {
			names = append(names, name)
		}
		inner := bound.with(names...)
		fields := make(map[term.Ident]term.RichTerm, len(t.Fields))
		for name, f := range t.Fields {
			fields[name] = s.subst(f, env, inner)
		}
		node = &term.RecRecord{Fields: fields}

	case *term.Record:
		fields := make(map[term.Ident]term.RichTerm, len(t.Fields))
		for name, f := range t.Fields {
			fields[name] = sub(f)
		}
		node = &term.Record{Fields: fields}

	case *term.Array:
		elems := make([]term.RichTerm, len(t.Elems))
		for i, el := range t.Elems {
			elems[i] = sub(el)
		}
		node = &term.Array{Elems: elems}

	case *term.App:
		node = &term.App{Fun: sub(t.Fun), Arg: sub(t.Arg)}
	case *term.Op1:
		node = &term.Op1{Op: t.Op, Arg: sub(t.Arg), Field: t.Field}
	case *term.Op2:
		node = &term.Op2{Op: t.Op, Left: sub(t.Left), Right: sub(t.Right)}
	case *term.If:
		node = &term.If{Cond: sub(t.Cond), Then: sub(t.Then), Else: sub(t.Else)}

	case *term.Switch:
		cases := make(map[term.Ident]term.RichTerm, len(t.Cases))
		for tag, c := range t.Cases {
			cases[tag] = sub(c)
		}
		sw := &term.Switch{Exp: sub(t.Exp), Cases: cases}
		if t.Default != nil {
			d := sub(*t.Default)
			sw.Default = &d
		}
		node = sw

	case *term.StrChunks:
		chunks := make([]term.StrChunk, len(t.Chunks))
		for i, c := range t.Chunks {
			if c.IsExpr() {
				chunks[i] = term.ExprChunk(sub(*c.Expr))
			} else {
				chunks[i] = c
			}
		}
		node = &term.StrChunks{Chunks: chunks}

	case *term.MetaValue:
		m := *t
		if t.Types != nil {
			ty := *t.Types
			ty.Contract = sub(ty.Contract)
			m.Types = &ty
		}
		if len(t.Contracts) > 0 {
			m.Contracts = make([]term.Contract, len(t.Contracts))
			for i, c := range t.Contracts {
				c.Contract = sub(c.Contract)
				m.Contracts[i] = c
			}
		}
		if t.Value != nil {
			v := sub(*t.Value)
			m.Value = &v
		}
		node = &m

	default:
		return rt
	}
	return term.RichTerm{Term: node, Pos: rt.Pos}
}
