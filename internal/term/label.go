package term

import "strings"

// PathKind is the kind of a step in a contract path.
type PathKind int

const (
	PathDomain PathKind = iota
	PathCodomain
	PathField
)

// PathElem is one step from the root of a contract to the part that failed.
type PathElem struct {
	Kind  PathKind
	Field Ident
}

func (e PathElem) String() string {
	switch e.Kind {
	case PathDomain:
		return "domain"
	case PathCodomain:
		return "codomain"
	default:
		return string(e.Field)
	}
}

// Label records the provenance of a contract obligation. It is built when a
// contract is applied and travels unchanged until a blame consumes it.
type Label struct {
	// Types is the printed contract, as written by the user.
	Types string
	// Tag is an optional message set by the contract itself.
	Tag  string
	Span TermPos
	// Polarity is true when the checked term is to blame, false for its context.
	Polarity bool
	Path     []PathElem
}

// DummyLabel returns a label without provenance, for tests and synthesized contracts.
func DummyLabel() Label {
	return Label{Types: "<dummy>", Polarity: true}
}

// WithPath returns a copy of the label with one more path element.
// The original path slice is never shared with the result.
func (l Label) WithPath(e PathElem) Label {
	path := make([]PathElem, len(l.Path), len(l.Path)+1)
	copy(path, l.Path)
	l.Path = append(path, e)
	return l
}

func (l Label) PathString() string {
	parts := make([]string, len(l.Path))
	for i, e := range l.Path {
		parts[i] = e.String()
	}
	return strings.Join(parts, ".")
}
