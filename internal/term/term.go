// Package term defines the expression tree the interpreter reduces.
//
// Terms are immutable once built. A RichTerm pairs a Term with its source
// position; copying a RichTerm copies a pointer, so any number of closures
// can share the same sub-term.
package term

// Term is one node of the expression tree.
type Term interface {
	term()
}

// RichTerm is a term together with its position.
type RichTerm struct {
	Term Term
	Pos  TermPos
}

// New wraps a term without position.
func New(t Term) RichTerm { return RichTerm{Term: t} }

// WithPos returns the same term at another position.
func (rt RichTerm) WithPos(p TermPos) RichTerm {
	rt.Pos = p
	return rt
}

// Ptr returns a pointer to a copy of rt, for optional term fields.
func (rt RichTerm) Ptr() *RichTerm { return &rt }

type (
	Num struct{ Value float64 }
	Bool struct{ Value bool }
	Str struct{ Value string }

	// StrChunks is an interpolated string. Chunks are stored in reverse order.
	StrChunks struct{ Chunks []StrChunk }

	Fun struct {
		Param Ident
		Body  RichTerm
	}

	App struct{ Fun, Arg RichTerm }

	// Let binds Name in Body. When Rec is set, Name is also bound in Value.
	Let struct {
		Name        Ident
		Value, Body RichTerm
		Rec         bool
	}

	Var struct{ Name Ident }

	Op1 struct {
		Op  UnaryOp
		Arg RichTerm
		// Field is the operand of OpStaticAccess and OpGoField.
		Field Ident
	}

	Op2 struct {
		Op          BinaryOp
		Left, Right RichTerm
	}

	If struct{ Cond, Then, Else RichTerm }

	Record struct{ Fields map[Ident]RichTerm }

	// RecRecord is a record whose fields may refer to each other.
	RecRecord struct{ Fields map[Ident]RichTerm }

	Array struct{ Elems []RichTerm }

	// Switch selects a case by the enum tag Exp evaluates to.
	Switch struct {
		Exp     RichTerm
		Cases   map[Ident]RichTerm
		Default *RichTerm
	}

	Enum struct{ Tag Ident }

	Lbl struct{ Label Label }

	// MetaValue enriches a value with documentation, contracts and a merge priority.
	MetaValue struct {
		Doc       *string
		Types     *Contract
		Contracts []Contract
		Priority  MergePriority
		Value     *RichTerm
	}

	Import struct{ Path string }

	// ResolvedImport replaces Import once the imported file has been loaded.
	ResolvedImport struct{ File FileID }
)

// StrChunk is either a literal piece of an interpolated string or an expression.
type StrChunk struct {
	Literal string
	Expr    *RichTerm
}

func LiteralChunk(s string) StrChunk     { return StrChunk{Literal: s} }
func ExprChunk(rt RichTerm) StrChunk     { return StrChunk{Expr: &rt} }
func (c StrChunk) IsExpr() bool          { return c.Expr != nil }

func (*Num) term()            {}
func (*Bool) term()           {}
func (*Str) term()            {}
func (*StrChunks) term()      {}
func (*Fun) term()            {}
func (*App) term()            {}
func (*Let) term()            {}
func (*Var) term()            {}
func (*Op1) term()            {}
func (*Op2) term()            {}
func (*If) term()             {}
func (*Record) term()         {}
func (*RecRecord) term()      {}
func (*Array) term()          {}
func (*Switch) term()         {}
func (*Enum) term()           {}
func (*Lbl) term()            {}
func (*MetaValue) term()      {}
func (*Import) term()         {}
func (*ResolvedImport) term() {}

// Shape names the outermost constructor of a term, as shown in error messages.
func Shape(t Term) string {
	switch t.(type) {
	case *Num:
		return "Num"
	case *Bool:
		return "Bool"
	case *Str, *StrChunks:
		return "Str"
	case *Fun:
		return "Fun"
	case *Record, *RecRecord:
		return "Record"
	case *Array:
		return "Array"
	case *Enum:
		return "Enum"
	case *Lbl:
		return "Label"
	case *MetaValue:
		return "MetaValue"
	default:
		return "Other"
	}
}

// IsValue reports whether the term is in weak head normal form.
func IsValue(t Term) bool {
	switch t.(type) {
	case *Num, *Bool, *Str, *Fun, *Record, *Array, *Enum, *Lbl:
		return true
	}
	return false
}

// IsAtom reports whether the term is a constant that holds no sub-term.
func IsAtom(t Term) bool {
	switch t.(type) {
	case *Num, *Bool, *Str, *Enum, *Lbl:
		return true
	}
	return false
}
