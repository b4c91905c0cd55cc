package term

// Constructors for building terms in Go code. They all return position-less terms.

func NewNum(f float64) RichTerm  { return New(&Num{Value: f}) }
func NewBool(b bool) RichTerm    { return New(&Bool{Value: b}) }
func NewStr(s string) RichTerm   { return New(&Str{Value: s}) }
func NewVar(name Ident) RichTerm { return New(&Var{Name: name}) }
func NewEnum(tag Ident) RichTerm { return New(&Enum{Tag: tag}) }
func NewLbl(l Label) RichTerm    { return New(&Lbl{Label: l}) }

func NewImport(path string) RichTerm { return New(&Import{Path: path}) }

// NewFun builds a curried function of the given parameters.
func NewFun(body RichTerm, params ...Ident) RichTerm {
	for i := len(params) - 1; i >= 0; i-- {
		body = New(&Fun{Param: params[i], Body: body})
	}
	return body
}

// NewApp applies f to each argument in turn.
func NewApp(f RichTerm, args ...RichTerm) RichTerm {
	for _, a := range args {
		f = New(&App{Fun: f, Arg: a})
	}
	return f
}

// Identity is `fun x => x`.
func Identity() RichTerm {
	return NewFun(NewVar("x"), "x")
}

func NewLet(name Ident, value, body RichTerm) RichTerm {
	return New(&Let{Name: name, Value: value, Body: body})
}

func NewLetRec(name Ident, value, body RichTerm) RichTerm {
	return New(&Let{Name: name, Value: value, Body: body, Rec: true})
}

func NewIf(cond, then, els RichTerm) RichTerm {
	return New(&If{Cond: cond, Then: then, Else: els})
}

func NewOp1(op UnaryOp, arg RichTerm) RichTerm {
	return New(&Op1{Op: op, Arg: arg})
}

func NewOp2(op BinaryOp, left, right RichTerm) RichTerm {
	return New(&Op2{Op: op, Left: left, Right: right})
}

func NewStaticAccess(rec RichTerm, field Ident) RichTerm {
	return New(&Op1{Op: OpStaticAccess, Arg: rec, Field: field})
}

// NewRecord builds a non-recursive record. The map is not copied.
func NewRecord(fields map[Ident]RichTerm) RichTerm {
	return New(&Record{Fields: fields})
}

// NewRecRecord builds a recursive record. The map is not copied.
func NewRecRecord(fields map[Ident]RichTerm) RichTerm {
	return New(&RecRecord{Fields: fields})
}

func NewArray(elems ...RichTerm) RichTerm {
	return New(&Array{Elems: elems})
}

// NewStrChunks builds an interpolated string from chunks given in source order.
func NewStrChunks(chunks ...StrChunk) RichTerm {
	rev := make([]StrChunk, len(chunks))
	for i, c := range chunks {
		rev[len(chunks)-1-i] = c
	}
	return New(&StrChunks{Chunks: rev})
}

// NewDefault wraps a term in a metavalue of default priority.
func NewDefault(rt RichTerm) RichTerm {
	m := NewMeta(rt)
	m.Priority = PriorityDefault
	return New(m)
}

// NewDoc wraps a term in a metavalue carrying documentation.
func NewDoc(rt RichTerm, doc string) RichTerm {
	m := NewMeta(rt)
	m.Doc = &doc
	return New(m)
}
