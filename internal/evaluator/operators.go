package evaluator

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/term"
)

func boolean(b bool, pos term.TermPos) Closure {
	return AtomicClosure(term.NewBool(b).WithPos(pos))
}

func number(f float64, pos term.TermPos) Closure {
	return AtomicClosure(term.NewNum(f).WithPos(pos))
}

func (e *Evaluator) strict(rt term.RichTerm, env Environment) (Closure, error) {
	return e.eval(Closure{Body: rt, Env: env}, true)
}

func (e *Evaluator) evalUnary(op *term.Op1, pos term.TermPos, env Environment) (Closure, error) {
	arg, err := e.strict(op.Arg, env)
	if err != nil {
		return Closure{}, err
	}
	v := arg.Body

	switch op.Op {
	case term.OpIsNum:
		_, ok := v.Term.(*term.Num)
		return boolean(ok, pos), nil
	case term.OpIsBool:
		_, ok := v.Term.(*term.Bool)
		return boolean(ok, pos), nil
	case term.OpIsStr:
		_, ok := v.Term.(*term.Str)
		return boolean(ok, pos), nil
	case term.OpIsFun:
		_, ok := v.Term.(*term.Fun)
		return boolean(ok, pos), nil
	case term.OpIsArray:
		_, ok := v.Term.(*term.Array)
		return boolean(ok, pos), nil
	case term.OpIsRecord:
		_, ok := v.Term.(*term.Record)
		return boolean(ok, pos), nil
	case term.OpIsEnum:
		_, ok := v.Term.(*term.Enum)
		return boolean(ok, pos), nil

	case term.OpBoolNot:
		b, ok := v.Term.(*term.Bool)
		if !ok {
			return Closure{}, typeMismatch("!", "Bool", v)
		}
		return boolean(!b.Value, pos), nil

	case term.OpBlame:
		l, ok := v.Term.(*term.Lbl)
		if !ok {
			return Closure{}, typeMismatch("blame", "Label", v)
		}
		label := l.Label
		e.log.Debug("blame raised", zap.String("contract", label.Types), zap.Bool("polarity", label.Polarity))
		return Closure{}, &EvalError{Kind: BlameError, Pos: pos, Label: &label}

	case term.OpStaticAccess:
		rec, ok := v.Term.(*term.Record)
		if !ok {
			return Closure{}, typeMismatch("field access `."+string(op.Field)+"`", "Record", v)
		}
		field, ok := rec.Fields[op.Field]
		if !ok {
			err := newError(MissingField, pos, "missing field `%s`", op.Field)
			err.Other = v.Pos
			return Closure{}, err
		}
		return Closure{Body: field, Env: arg.Env}, nil

	case term.OpArrayLength:
		arr, ok := v.Term.(*term.Array)
		if !ok {
			return Closure{}, typeMismatch("length", "Array", v)
		}
		return number(float64(len(arr.Elems)), pos), nil

	case term.OpFieldsOf:
		rec, ok := v.Term.(*term.Record)
		if !ok {
			return Closure{}, typeMismatch("fieldsOf", "Record", v)
		}
		names := sortedFields(rec.Fields)
		elems := make([]term.RichTerm, len(names))
		for i, name := range names {
			elems[i] = term.NewStr(string(name))
		}
		return AtomicClosure(term.NewArray(elems...).WithPos(pos)), nil

	case term.OpTypeof:
		tag := term.Shape(v.Term)
		if tag == "Label" {
			tag = "Lbl"
		}
		return AtomicClosure(term.NewEnum(term.Ident(tag)).WithPos(pos)), nil

	case term.OpChangePolarity, term.OpPolarity, term.OpGoField, term.OpGoDomain, term.OpGoCodomain:
		l, ok := v.Term.(*term.Lbl)
		if !ok {
			return Closure{}, typeMismatch(op.Op.String(), "Label", v)
		}
		label := l.Label
		switch op.Op {
		case term.OpPolarity:
			return boolean(label.Polarity, pos), nil
		case term.OpChangePolarity:
			label.Polarity = !label.Polarity
		case term.OpGoField:
			label = label.WithPath(term.PathElem{Kind: term.PathField, Field: op.Field})
		case term.OpGoDomain:
			label = label.WithPath(term.PathElem{Kind: term.PathDomain})
		case term.OpGoCodomain:
			label = label.WithPath(term.PathElem{Kind: term.PathCodomain})
		}
		return AtomicClosure(term.NewLbl(label).WithPos(pos)), nil
	}
	return Closure{}, newError(Other, pos, "unknown unary operator %s", op.Op)
}

func (e *Evaluator) evalBinary(op *term.Op2, pos term.TermPos, env Environment) (Closure, error) {
	// operators that are not strict in both operands
	switch op.Op {
	case term.OpBoolAnd, term.OpBoolOr:
		return e.evalBoolOp(op, pos, env)
	case term.OpSeq:
		if _, err := e.strict(op.Left, env); err != nil {
			return Closure{}, err
		}
		return Closure{Body: op.Right, Env: env}, nil
	case term.OpDeepSeq:
		if err := e.deepForce(Closure{Body: op.Left, Env: env}); err != nil {
			return Closure{}, err
		}
		return Closure{Body: op.Right, Env: env}, nil
	case term.OpMerge:
		return e.merge(Closure{Body: op.Left, Env: env}, Closure{Body: op.Right, Env: env}, pos)
	}

	left, err := e.strict(op.Left, env)
	if err != nil {
		return Closure{}, err
	}
	right, err := e.strict(op.Right, env)
	if err != nil {
		return Closure{}, err
	}
	l, r := left.Body, right.Body
	name := op.Op.String()

	switch op.Op {
	case term.OpPlus, term.OpSub, term.OpMult, term.OpDiv, term.OpModulo,
		term.OpLessThan, term.OpLessOrEq, term.OpGreaterThan, term.OpGreaterOrEq:
		a, ok := l.Term.(*term.Num)
		if !ok {
			return Closure{}, typeMismatch(name, "Num", l)
		}
		b, ok := r.Term.(*term.Num)
		if !ok {
			return Closure{}, typeMismatch(name, "Num", r)
		}
		return arith(op.Op, a.Value, b.Value, pos, r.Pos)

	case term.OpStrConcat:
		a, ok := l.Term.(*term.Str)
		if !ok {
			return Closure{}, typeMismatch(name, "Str", l)
		}
		b, ok := r.Term.(*term.Str)
		if !ok {
			return Closure{}, typeMismatch(name, "Str", r)
		}
		return AtomicClosure(term.NewStr(a.Value + b.Value).WithPos(pos)), nil

	case term.OpArrayConcat:
		a, ok := l.Term.(*term.Array)
		if !ok {
			return Closure{}, typeMismatch(name, "Array", l)
		}
		b, ok := r.Term.(*term.Array)
		if !ok {
			return Closure{}, typeMismatch(name, "Array", r)
		}
		elems := make([]term.RichTerm, 0, len(a.Elems)+len(b.Elems))
		elems = append(append(elems, a.Elems...), b.Elems...)
		arr := term.RichTerm{Term: &term.Array{Elems: elems}, Pos: pos}
		return Closure{Body: arr, Env: left.Env.Union(right.Env)}, nil

	case term.OpEq, term.OpNotEq:
		eq, err := e.equal(left, right)
		if err != nil {
			return Closure{}, err
		}
		if op.Op == term.OpNotEq {
			eq = !eq
		}
		return boolean(eq, pos), nil

	case term.OpDynAccess, term.OpHasField:
		field, ok := l.Term.(*term.Str)
		if !ok {
			return Closure{}, typeMismatch(name, "Str", l)
		}
		rec, ok := r.Term.(*term.Record)
		if !ok {
			return Closure{}, typeMismatch(name, "Record", r)
		}
		value, found := rec.Fields[term.Ident(field.Value)]
		if op.Op == term.OpHasField {
			return boolean(found, pos), nil
		}
		if !found {
			err := newError(MissingField, pos, "missing field `%s`", field.Value)
			err.Other = r.Pos
			return Closure{}, err
		}
		return Closure{Body: value, Env: right.Env}, nil

	case term.OpArrayElemAt:
		arr, ok := l.Term.(*term.Array)
		if !ok {
			return Closure{}, typeMismatch(name, "Array", l)
		}
		idx, ok := r.Term.(*term.Num)
		if !ok {
			return Closure{}, typeMismatch(name, "Num", r)
		}
		i := int(idx.Value)
		if float64(i) != idx.Value || i < 0 || i >= len(arr.Elems) {
			return Closure{}, newError(IndexOutOfBounds, r.Pos, "index %s out of bounds for an array of length %d",
				strconv.FormatFloat(idx.Value, 'g', -1, 64), len(arr.Elems))
		}
		return Closure{Body: arr.Elems[i], Env: left.Env}, nil

	case term.OpTag:
		msg, ok := l.Term.(*term.Str)
		if !ok {
			return Closure{}, typeMismatch(name, "Str", l)
		}
		lbl, ok := r.Term.(*term.Lbl)
		if !ok {
			return Closure{}, typeMismatch(name, "Label", r)
		}
		label := lbl.Label
		label.Tag = msg.Value
		return AtomicClosure(term.NewLbl(label).WithPos(pos)), nil
	}
	return Closure{}, newError(Other, pos, "unknown binary operator %s", op.Op)
}

func arith(op term.BinaryOp, a, b float64, pos, divisorPos term.TermPos) (Closure, error) {
	switch op {
	case term.OpPlus:
		return number(a+b, pos), nil
	case term.OpSub:
		return number(a-b, pos), nil
	case term.OpMult:
		return number(a*b, pos), nil
	case term.OpDiv:
		if b == 0 {
			return Closure{}, newError(DivisionByZero, divisorPos, "division by zero")
		}
		return number(a/b, pos), nil
	case term.OpModulo:
		if b == 0 {
			return Closure{}, newError(DivisionByZero, divisorPos, "modulo by zero")
		}
		return number(math.Mod(a, b), pos), nil
	case term.OpLessThan:
		return boolean(a < b, pos), nil
	case term.OpLessOrEq:
		return boolean(a <= b, pos), nil
	case term.OpGreaterThan:
		return boolean(a > b, pos), nil
	default:
		return boolean(a >= b, pos), nil
	}
}

// evalBoolOp short-circuits: the right operand is only evaluated when the
// left one does not decide the result.
func (e *Evaluator) evalBoolOp(op *term.Op2, pos term.TermPos, env Environment) (Closure, error) {
	name := op.Op.String()
	left, err := e.strict(op.Left, env)
	if err != nil {
		return Closure{}, err
	}
	a, ok := left.Body.Term.(*term.Bool)
	if !ok {
		return Closure{}, typeMismatch(name, "Bool", left.Body)
	}
	if (op.Op == term.OpBoolAnd && !a.Value) || (op.Op == term.OpBoolOr && a.Value) {
		return boolean(a.Value, pos), nil
	}
	right, err := e.strict(op.Right, env)
	if err != nil {
		return Closure{}, err
	}
	b, ok := right.Body.Term.(*term.Bool)
	if !ok {
		return Closure{}, typeMismatch(name, "Bool", right.Body)
	}
	return boolean(b.Value, pos), nil
}

// equal compares two values structurally, forcing sub-terms as needed.
func (e *Evaluator) equal(a, b Closure) (bool, error) {
	switch x := a.Body.Term.(type) {
	case *term.Num:
		y, ok := b.Body.Term.(*term.Num)
		return ok && x.Value == y.Value, nil
	case *term.Bool:
		y, ok := b.Body.Term.(*term.Bool)
		return ok && x.Value == y.Value, nil
	case *term.Str:
		y, ok := b.Body.Term.(*term.Str)
		return ok && x.Value == y.Value, nil
	case *term.Enum:
		y, ok := b.Body.Term.(*term.Enum)
		return ok && x.Tag == y.Tag, nil
	case *term.Fun:
		if _, ok := b.Body.Term.(*term.Fun); ok {
			return false, typeMismatch("==", "a comparable value", a.Body)
		}
		return false, nil
	case *term.Array:
		y, ok := b.Body.Term.(*term.Array)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false, nil
		}
		for i := range x.Elems {
			eq, err := e.equalTerms(x.Elems[i], a.Env, y.Elems[i], b.Env)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case *term.Record:
		y, ok := b.Body.Term.(*term.Record)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false, nil
		}
		for _, name := range sortedFields(x.Fields) {
			other, ok := y.Fields[name]
			if !ok {
				return false, nil
			}
			eq, err := e.equalTerms(x.Fields[name], a.Env, other, b.Env)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	return false, nil
}

func (e *Evaluator) equalTerms(a term.RichTerm, aEnv Environment, b term.RichTerm, bEnv Environment) (bool, error) {
	x, err := e.strict(a, aEnv)
	if err != nil {
		return false, err
	}
	y, err := e.strict(b, bEnv)
	if err != nil {
		return false, err
	}
	return e.equal(x, y)
}

// deepForce evaluates a value and, recursively, all of its fields and elements.
func (e *Evaluator) deepForce(c Closure) error {
	v, err := e.eval(c, true)
	if err != nil {
		return err
	}
	switch t := v.Body.Term.(type) {
	case *term.Record:
		for _, name := range sortedFields(t.Fields) {
			if err := e.deepForce(Closure{Body: t.Fields[name], Env: v.Env}); err != nil {
				return err
			}
		}
	case *term.Array:
		for _, el := range t.Elems {
			if err := e.deepForce(Closure{Body: el, Env: v.Env}); err != nil {
				return err
			}
		}
	}
	return nil
}
