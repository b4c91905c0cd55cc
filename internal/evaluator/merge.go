package evaluator

import (
	"github.com/funvibe/nickel/internal/term"
)

// merge evaluates both operands without unwrapping metavalues and combines them.
func (e *Evaluator) merge(left, right Closure, pos term.TermPos) (Closure, error) {
	l, err := e.eval(left, false)
	if err != nil {
		return Closure{}, err
	}
	r, err := e.eval(right, false)
	if err != nil {
		return Closure{}, err
	}
	return e.mergeValues(l, r, pos, false)
}

// mergeValues combines two weak head normal forms. defaults is set while
// merging two values that both have the default priority.
func (e *Evaluator) mergeValues(l, r Closure, pos term.TermPos, defaults bool) (Closure, error) {
	_, lMeta := l.Body.Term.(*term.MetaValue)
	_, rMeta := r.Body.Term.(*term.MetaValue)
	if lMeta || rMeta {
		return e.mergeMeta(l, r, pos)
	}

	switch lt := l.Body.Term.(type) {
	case *term.Record:
		rt, ok := r.Body.Term.(*term.Record)
		if !ok {
			return Closure{}, incompatible(MergeRecordVsScalar, l.Body, r.Body, pos)
		}
		return mergeRecords(lt, rt, l.Env, r.Env, pos), nil
	case *term.Num, *term.Bool, *term.Str, *term.Enum:
		if sameAtom(l.Body.Term, r.Body.Term) {
			return l, nil
		}
	}
	if _, ok := r.Body.Term.(*term.Record); ok {
		return Closure{}, incompatible(MergeRecordVsScalar, l.Body, r.Body, pos)
	}
	if defaults {
		return Closure{}, incompatible(MergeIncompatibleDefaults, l.Body, r.Body, pos)
	}
	return Closure{}, incompatible(MergeIncompatibleValues, l.Body, r.Body, pos)
}

func incompatible(kind ErrorKind, l, r term.RichTerm, pos term.TermPos) *EvalError {
	var err *EvalError
	switch kind {
	case MergeRecordVsScalar:
		err = newError(kind, l.Pos, "cannot merge a %s with a %s", term.Shape(l.Term), term.Shape(r.Term))
	case MergeIncompatibleDefaults:
		err = newError(kind, l.Pos, "cannot merge two different default values")
	default:
		err = newError(kind, l.Pos, "cannot merge incompatible values (%s and %s)", term.Shape(l.Term), term.Shape(r.Term))
	}
	if err.Pos.IsNone() {
		err.Pos = pos
	}
	err.Other = r.Pos
	return err
}

func sameAtom(a, b term.Term) bool {
	switch x := a.(type) {
	case *term.Num:
		y, ok := b.(*term.Num)
		return ok && x.Value == y.Value
	case *term.Bool:
		y, ok := b.(*term.Bool)
		return ok && x.Value == y.Value
	case *term.Str:
		y, ok := b.(*term.Str)
		return ok && x.Value == y.Value
	case *term.Enum:
		y, ok := b.(*term.Enum)
		return ok && x.Tag == y.Tag
	}
	return false
}

// mergeRecords takes the union of the fields; fields defined on both sides
// are merged lazily. Both environments only hold generated names.
func mergeRecords(l, r *term.Record, lEnv, rEnv Environment, pos term.TermPos) Closure {
	fields := make(map[term.Ident]term.RichTerm, len(l.Fields)+len(r.Fields))
	for name, f := range l.Fields {
		fields[name] = f
	}
	for name, f := range r.Fields {
		if prev, ok := fields[name]; ok {
			fields[name] = term.RichTerm{
				Term: &term.Op2{Op: term.OpMerge, Left: prev, Right: f},
				Pos:  prev.Pos.Fuse(f.Pos).Inherit(),
			}
			continue
		}
		fields[name] = f
	}
	return Closure{
		Body: term.RichTerm{Term: &term.Record{Fields: fields}, Pos: pos},
		Env:  lEnv.Union(rEnv),
	}
}

// asMeta sees any value as a metavalue. Plain values get the normal priority.
func asMeta(c Closure) (*term.MetaValue, Environment) {
	if m, ok := c.Body.Term.(*term.MetaValue); ok {
		return m, c.Env
	}
	out := Environment{}
	v := capture(c, &out)
	return term.NewMeta(v), out
}

func (e *Evaluator) mergeMeta(l, r Closure, pos term.TermPos) (Closure, error) {
	lm, lEnv := asMeta(l)
	rm, rEnv := asMeta(r)
	env := lEnv.Union(rEnv)

	res := &term.MetaValue{Priority: lm.Priority}
	if rm.Priority > res.Priority {
		res.Priority = rm.Priority
	}

	switch {
	case lm.Doc != nil && rm.Doc != nil:
		doc := *lm.Doc + "\n\n" + *rm.Doc
		res.Doc = &doc
	case lm.Doc != nil:
		res.Doc = lm.Doc
	default:
		res.Doc = rm.Doc
	}

	// the first type annotation is kept, a second one is checked as a contract
	res.Types = lm.Types
	var extra []term.Contract
	if res.Types == nil {
		res.Types = rm.Types
	} else if rm.Types != nil {
		extra = append(extra, *rm.Types)
	}
	res.Contracts = append(append(append([]term.Contract(nil), lm.Contracts...), rm.Contracts...), extra...)

	// each value is checked against the contracts of the other side
	lContracts, rContracts := lm.AllContracts(), rm.AllContracts()
	var lv, rv *term.RichTerm
	if lm.Value != nil {
		v := term.ApplyContracts(rContracts, *lm.Value)
		lv = &v
	}
	if rm.Value != nil {
		v := term.ApplyContracts(lContracts, *rm.Value)
		rv = &v
	}

	switch {
	case lm.Priority > rm.Priority:
		res.Value = pick(lv, rv)
	case lm.Priority < rm.Priority:
		res.Value = pick(rv, lv)
	case lv == nil || rv == nil:
		res.Value = pick(lv, rv)
	case lm.Priority == term.PriorityDefault:
		v, err := e.mergeDefaults(*lv, *rv, &env, pos)
		if err != nil {
			return Closure{}, err
		}
		res.Value = &v
	default:
		v := term.RichTerm{
			Term: &term.Op2{Op: term.OpMerge, Left: *lv, Right: *rv},
			Pos:  lv.Pos.Fuse(rv.Pos).Inherit(),
		}
		res.Value = &v
	}
	return Closure{Body: term.RichTerm{Term: res, Pos: pos}, Env: env}, nil
}

func pick(preferred, fallback *term.RichTerm) *term.RichTerm {
	if preferred != nil {
		return preferred
	}
	return fallback
}

// mergeDefaults merges two default values right away, so that a conflict
// between them is reported as such. The result is bound in env.
func (e *Evaluator) mergeDefaults(lv, rv term.RichTerm, env *Environment, pos term.TermPos) (term.RichTerm, error) {
	l, err := e.eval(Closure{Body: lv, Env: *env}, false)
	if err != nil {
		return term.RichTerm{}, err
	}
	r, err := e.eval(Closure{Body: rv, Env: *env}, false)
	if err != nil {
		return term.RichTerm{}, err
	}
	merged, err := e.mergeValues(l, r, pos, true)
	if err != nil {
		return term.RichTerm{}, err
	}
	return capture(merged, env), nil
}
