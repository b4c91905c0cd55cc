package term

import "fmt"

// FileID identifies a source registered in a file database.
type FileID int

// NoFile is the FileID of terms that were not read from any source.
const NoFile FileID = -1

// Span is a byte range in a source file.
type Span struct {
	File  FileID
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:[%d,%d)", s.File, s.Start, s.End)
}

// PosKind tells where a position comes from.
type PosKind int

const (
	// PosNone: the term was built by the interpreter.
	PosNone PosKind = iota
	// PosOriginal: the span of the term in the source.
	PosOriginal
	// PosInherited: the term was produced from another term with that span.
	PosInherited
)

// TermPos is the position attached to a RichTerm.
type TermPos struct {
	Kind PosKind
	Span Span
}

// NoPos is the position of synthesized terms.
var NoPos = TermPos{}

func Original(s Span) TermPos  { return TermPos{Kind: PosOriginal, Span: s} }
func Inherited(s Span) TermPos { return TermPos{Kind: PosInherited, Span: s} }

func (p TermPos) IsNone() bool { return p.Kind == PosNone }

// Inherit turns an original position into an inherited one.
func (p TermPos) Inherit() TermPos {
	if p.Kind == PosOriginal {
		p.Kind = PosInherited
	}
	return p
}

// Fuse returns the smallest span covering both positions, if they live in the same file.
func (p TermPos) Fuse(q TermPos) TermPos {
	switch {
	case p.IsNone():
		return q
	case q.IsNone():
		return p
	case p.Span.File != q.Span.File:
		return p
	}
	start, end := p.Span.Start, p.Span.End
	if q.Span.Start < start {
		start = q.Span.Start
	}
	if q.Span.End > end {
		end = q.Span.End
	}
	return TermPos{Kind: PosOriginal, Span: Span{File: p.Span.File, Start: start, End: end}}
}

func (p TermPos) String() string {
	switch p.Kind {
	case PosOriginal:
		return "Original(" + p.Span.String() + ")"
	case PosInherited:
		return "Inherited(" + p.Span.String() + ")"
	default:
		return "None"
	}
}
