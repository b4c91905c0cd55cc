package evaluator

import (
	"fmt"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/term"
)

type ErrorKind int

const (
	UnboundIdentifier ErrorKind = iota
	NotAFunction
	TypeMismatch
	MissingField
	NonExhaustiveSwitch
	BlameError
	MergeIncompatibleValues
	MergeIncompatibleDefaults
	MergeRecordVsScalar
	InfiniteRecursion
	EmptyMetaValue
	DivisionByZero
	IndexOutOfBounds
	StackOverflow
	StepLimit
	Cancelled
	Other
)

var errorKindNames = map[ErrorKind]string{
	UnboundIdentifier:         "UnboundIdentifier",
	NotAFunction:              "NotAFunction",
	TypeMismatch:              "TypeMismatch",
	MissingField:              "MissingField",
	NonExhaustiveSwitch:       "NonExhaustiveSwitch",
	BlameError:                "BlameError",
	MergeIncompatibleValues:   "MergeIncompatibleValues",
	MergeIncompatibleDefaults: "MergeIncompatibleDefaults",
	MergeRecordVsScalar:       "MergeRecordVsScalar",
	InfiniteRecursion:         "InfiniteRecursion",
	EmptyMetaValue:            "EmptyMetaValue",
	DivisionByZero:            "DivisionByZero",
	IndexOutOfBounds:          "IndexOutOfBounds",
	StackOverflow:             "StackOverflow",
	StepLimit:                 "StepLimit",
	Cancelled:                 "Cancelled",
	Other:                     "Other",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// EvalError aborts an evaluation.
type EvalError struct {
	Kind    ErrorKind
	Message string
	Pos     term.TermPos
	// Label is the blamed contract of a BlameError.
	Label *term.Label
	// Other is a secondary position: the other operand of a failed merge,
	// or the definition of a missing field's record.
	Other term.TermPos
}

func (e *EvalError) Error() string {
	if e.Kind == BlameError && e.Label != nil {
		return fmt.Sprintf("%s: %s", e.Kind, blameMessage(e.Label))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, pos term.TermPos, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func typeMismatch(op string, expected string, found term.RichTerm) *EvalError {
	return newError(TypeMismatch, found.Pos, "%s: expected %s, got %s", op, expected, term.Shape(found.Term))
}

func blameMessage(l *term.Label) string {
	culprit := "the value"
	if !l.Polarity {
		culprit = "the context"
	}
	msg := fmt.Sprintf("contract `%s` broken by %s", l.Types, culprit)
	if l.Tag != "" {
		msg += ": " + l.Tag
	}
	return msg
}

var errorCodes = map[ErrorKind]diagnostics.ErrorCode{
	UnboundIdentifier:         diagnostics.ErrE001,
	NotAFunction:              diagnostics.ErrE002,
	TypeMismatch:              diagnostics.ErrE003,
	MissingField:              diagnostics.ErrE004,
	NonExhaustiveSwitch:       diagnostics.ErrE005,
	BlameError:                diagnostics.ErrE006,
	MergeIncompatibleValues:   diagnostics.ErrE007,
	MergeIncompatibleDefaults: diagnostics.ErrE007,
	MergeRecordVsScalar:       diagnostics.ErrE007,
	InfiniteRecursion:         diagnostics.ErrE008,
	StackOverflow:             diagnostics.ErrE010,
	StepLimit:                 diagnostics.ErrE010,
	Cancelled:                 diagnostics.ErrE010,
}

func (e *EvalError) ToDiagnostics() []*diagnostics.DiagnosticError {
	code, ok := errorCodes[e.Kind]
	if !ok {
		code = diagnostics.ErrE009
	}

	if e.Kind == BlameError && e.Label != nil {
		d := diagnostics.NewErrorAt(code, e.Label.Span, "%s", blameMessage(e.Label))
		if !e.Pos.IsNone() {
			d.Related = append(d.Related, diagnostics.Related{Pos: e.Pos, Message: "blame raised here"})
		}
		if len(e.Label.Path) > 0 {
			d.Notes = append(d.Notes, "in "+e.Label.PathString())
		}
		return []*diagnostics.DiagnosticError{d}
	}

	d := diagnostics.NewErrorAt(code, e.Pos, "%s", e.Message)
	if !e.Other.IsNone() {
		d.Related = append(d.Related, diagnostics.Related{Pos: e.Other, Message: "other operand"})
	}
	switch e.Kind {
	case MergeIncompatibleDefaults:
		d.Notes = append(d.Notes, "both values have default priority; give one of them a higher priority")
	case InfiniteRecursion:
		d.Notes = append(d.Notes, "the value depends on itself")
	}
	return []*diagnostics.DiagnosticError{d}
}
