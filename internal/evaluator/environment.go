package evaluator

import "github.com/funvibe/nickel/internal/term"

// Environment maps identifiers to thunks. It is persistent: Insert returns a
// new environment and leaves the receiver unchanged, so closures can share
// environments freely. The zero value is the empty environment.
type Environment struct {
	m *PersistentMap
}

func NewEnvironment() Environment {
	return Environment{}
}

func (e Environment) Get(name term.Ident) (*Thunk, bool) {
	if e.m == nil {
		return nil, false
	}
	t := e.m.Get(name)
	return t, t != nil
}

func (e Environment) Insert(name term.Ident, t *Thunk) Environment {
	m := e.m
	if m == nil {
		m = EmptyMap()
	}
	return Environment{m: m.Put(name, t)}
}

// Union returns an environment holding the bindings of both; other wins on
// conflict.
func (e Environment) Union(other Environment) Environment {
	switch {
	case other.m == nil:
		return e
	case e.m == nil:
		return other
	}
	return Environment{m: e.m.Merge(other.m)}
}

func (e Environment) Len() int {
	if e.m == nil {
		return 0
	}
	return e.m.Len()
}

// Idents returns the bound identifiers, in no particular order.
func (e Environment) Idents() []term.Ident {
	if e.m == nil {
		return nil
	}
	items := e.m.Items()
	out := make([]term.Ident, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}
