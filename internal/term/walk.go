package term

// Traverse rebuilds rt bottom-up: every sub-term is traversed first, then f
// is applied to the rebuilt node. The first error aborts the walk.
func Traverse(rt RichTerm, f func(RichTerm) (RichTerm, error)) (RichTerm, error) {
	var err error
	rec := func(t RichTerm) RichTerm {
		if err != nil {
			return t
		}
		var out RichTerm
		out, err = Traverse(t, f)
		return out
	}
	recPtr := func(t *RichTerm) *RichTerm {
		if t == nil {
			return nil
		}
		out := rec(*t)
		return &out
	}
	recMap := func(m map[Ident]RichTerm) map[Ident]RichTerm {
		out := make(map[Ident]RichTerm, len(m))
		for k, v := range m {
			out[k] = rec(v)
		}
		return out
	}
	recContract := func(c Contract) Contract {
		c.Contract = rec(c.Contract)
		return c
	}

	var node Term
	switch t := rt.Term.(type) {
	case *StrChunks:
		chunks := make([]StrChunk, len(t.Chunks))
		for i, c := range t.Chunks {
			chunks[i] = StrChunk{Literal: c.Literal, Expr: recPtr(c.Expr)}
		}
		node = &StrChunks{Chunks: chunks}
	case *Fun:
		node = &Fun{Param: t.Param, Body: rec(t.Body)}
	case *App:
		node = &App{Fun: rec(t.Fun), Arg: rec(t.Arg)}
	case *Let:
		node = &Let{Name: t.Name, Value: rec(t.Value), Body: rec(t.Body), Rec: t.Rec}
	case *Op1:
		node = &Op1{Op: t.Op, Arg: rec(t.Arg), Field: t.Field}
	case *Op2:
		node = &Op2{Op: t.Op, Left: rec(t.Left), Right: rec(t.Right)}
	case *If:
		node = &If{Cond: rec(t.Cond), Then: rec(t.Then), Else: rec(t.Else)}
	case *Record:
		node = &Record{Fields: recMap(t.Fields)}
	case *RecRecord:
		node = &RecRecord{Fields: recMap(t.Fields)}
	case *Array:
		elems := make([]RichTerm, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = rec(e)
		}
		node = &Array{Elems: elems}
	case *Switch:
		node = &Switch{Exp: rec(t.Exp), Cases: recMap(t.Cases), Default: recPtr(t.Default)}
	case *MetaValue:
		m := *t
		if t.Types != nil {
			c := recContract(*t.Types)
			m.Types = &c
		}
		if len(t.Contracts) > 0 {
			m.Contracts = make([]Contract, len(t.Contracts))
			for i, c := range t.Contracts {
				m.Contracts[i] = recContract(c)
			}
		}
		m.Value = recPtr(t.Value)
		node = &m
	default:
		node = rt.Term
	}
	if err != nil {
		return rt, err
	}
	return f(RichTerm{Term: node, Pos: rt.Pos})
}

// WithoutPos returns a copy of rt with every position erased.
func WithoutPos(rt RichTerm) RichTerm {
	out, _ := Traverse(rt, func(t RichTerm) (RichTerm, error) {
		if l, ok := t.Term.(*Lbl); ok {
			lbl := l.Label
			lbl.Span = NoPos
			t.Term = &Lbl{Label: lbl}
		}
		if m, ok := t.Term.(*MetaValue); ok {
			c := *m
			if m.Types != nil {
				ty := *m.Types
				ty.Label.Span = NoPos
				c.Types = &ty
			}
			if len(m.Contracts) > 0 {
				c.Contracts = make([]Contract, len(m.Contracts))
				for i, ctr := range m.Contracts {
					ctr.Label.Span = NoPos
					c.Contracts[i] = ctr
				}
			}
			t.Term = &c
		}
		return t.WithPos(NoPos), nil
	})
	return out
}
