package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/nickel/internal/evaluator"
	"github.com/funvibe/nickel/internal/program"
	"github.com/funvibe/nickel/internal/term"
)

func newREPL(t *testing.T) *REPL {
	t.Helper()
	r, err := New(nil, nil)
	require.NoError(t, err)
	return r
}

func requireValue(t *testing.T, r *REPL, src string, want term.RichTerm) {
	t.Helper()
	res, err := r.Eval(src)
	require.NoError(t, err, "input %q", src)
	require.True(t, res.HasValue, "input %q produced no value", src)
	diff := cmp.Diff(term.WithoutPos(want), term.WithoutPos(res.Value))
	require.Empty(t, diff, "input %q (-want +got)", src)
}

func TestDefinitions(t *testing.T) {
	r := newREPL(t)

	res, err := r.Eval("let x = 20")
	require.NoError(t, err)
	assert.False(t, res.HasValue)
	assert.Equal(t, []term.Ident{"x"}, res.Defined)

	_, err = r.Eval("let y = x + 1")
	require.NoError(t, err)
	requireValue(t, r, "x + y", term.NewNum(41))

	// A later definition shadows an earlier one without affecting it.
	_, err = r.Eval("let x = 0")
	require.NoError(t, err)
	requireValue(t, r, "[x, y]", term.NewArray(term.NewNum(0), term.NewNum(21)))

	assert.Equal(t, []term.Ident{"x", "y"}, r.Defined())
}

func TestRecursiveDefinition(t *testing.T) {
	r := newREPL(t)
	_, err := r.Eval("let rec fact = fun n => if n == 0 then 1 else n * fact (n - 1)")
	require.NoError(t, err)
	requireValue(t, r, "fact 5", term.NewNum(120))
}

func TestLetWithBodyIsAnExpression(t *testing.T) {
	r := newREPL(t)
	requireValue(t, r, "let a = 2 in a * a", term.NewNum(4))
	assert.Empty(t, r.Defined())
}

func TestFunctionsAreSubstituted(t *testing.T) {
	r := newREPL(t)
	_, err := r.Eval("let k = 3")
	require.NoError(t, err)
	requireValue(t, r, "fun x => x + k",
		term.NewFun(term.NewOp2(term.OpPlus, term.NewVar("x"), term.NewNum(3)), "x"))
}

func TestErrorsKeepTheSession(t *testing.T) {
	r := newREPL(t)
	_, err := r.Eval("let x = 1")
	require.NoError(t, err)

	_, err = r.Eval("x + z")
	var ee *evaluator.EvalError
	require.True(t, errors.As(err, &ee), "expected an EvalError, got %v", err)
	assert.Equal(t, evaluator.UnboundIdentifier, ee.Kind)

	_, err = r.Eval("let broken = ")
	require.Error(t, err)

	requireValue(t, r, "x", term.NewNum(1))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defs.ncl")
	require.NoError(t, os.WriteFile(path, []byte("{ base = 10, scaled = base * 2 }"), 0o644))

	r := newREPL(t)
	res, err := r.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []term.Ident{"base", "scaled"}, res.Defined)
	requireValue(t, r, "scaled + 1", term.NewNum(21))

	notRecord := filepath.Join(dir, "num.ncl")
	require.NoError(t, os.WriteFile(notRecord, []byte("1"), 0o644))
	_, err = r.Load(notRecord)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a record")
}

func TestQuery(t *testing.T) {
	r := newREPL(t)
	_, err := r.Eval(`let cfg = { port | Num | doc "port" | default = 80 }`)
	require.NoError(t, err)

	entries, err := r.Query("cfg", "port")
	require.NoError(t, err)
	assert.Equal(t, []program.MetaEntry{
		{Key: "documentation", Value: "port"},
		{Key: "contract", Value: "Num"},
		{Key: "priority", Value: "default"},
		{Key: "value", Value: "80"},
	}, entries)
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"1 + 2", false},
		{"let x = 1", false},
		{"let x = 1 in", true},
		{"{ a = 1,", true},
		{"[1, 2", true},
		{"fun x =>", true},
		{":load defs.ncl", false},
		{"", false},
		{"1 +) 2", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, Incomplete(tt.src))
		})
	}
}
