package evaluator

import "github.com/funvibe/nickel/internal/term"

// Closure is a term together with the environment of its free variables.
type Closure struct {
	Body term.RichTerm
	Env  Environment
}

// AtomicClosure closes a term that has no free local variables.
func AtomicClosure(rt term.RichTerm) Closure {
	return Closure{Body: rt}
}

// IdentKind records which construct introduced a binding.
type IdentKind int

const (
	KindLet IdentKind = iota
	KindLetRec
	KindLambda
	KindRecord
)

type thunkState int

const (
	thunkUnevaluated thunkState = iota
	// thunkBlackholed: being evaluated. Forcing it again means the value
	// depends on itself.
	thunkBlackholed
	thunkEvaluated
)

// Thunk is a suspended computation, updated in place with its weak head
// normal form the first time it is forced.
type Thunk struct {
	closure Closure
	state   thunkState
	Kind    IdentKind
}

func NewThunk(c Closure, kind IdentKind) *Thunk {
	return &Thunk{closure: c, Kind: kind}
}

// newEvaluatedThunk wraps a closure that is already in weak head normal form.
func newEvaluatedThunk(c Closure, kind IdentKind) *Thunk {
	return &Thunk{closure: c, state: thunkEvaluated, Kind: kind}
}

// Closure returns the current content of the thunk: the original closure or,
// once forced, its value.
func (t *Thunk) Closure() Closure {
	return t.closure
}

func (t *Thunk) IsEvaluated() bool {
	return t.state == thunkEvaluated
}

func (t *Thunk) setEnv(env Environment) {
	t.closure.Env = env
}
