// Package diagnostics turns parse, import and evaluation errors into
// position-annotated reports.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/token"
)

type ErrorCode string

const (
	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // illegal character
	ErrP003 ErrorCode = "P003" // invalid number literal
	ErrP004 ErrorCode = "P004" // invalid string literal
	ErrP005 ErrorCode = "P005" // duplicate field
	ErrP006 ErrorCode = "P006" // expression too complex
	ErrP007 ErrorCode = "P007" // invalid JSON or YAML data file

	// Imports
	ErrI001 ErrorCode = "I001" // file not found or unreadable
	ErrI002 ErrorCode = "I002" // imported file does not parse
	ErrI003 ErrorCode = "I003" // import cycle

	// Evaluation
	ErrE001 ErrorCode = "E001" // unbound identifier
	ErrE002 ErrorCode = "E002" // not a function
	ErrE003 ErrorCode = "E003" // type mismatch
	ErrE004 ErrorCode = "E004" // missing field
	ErrE005 ErrorCode = "E005" // non exhaustive switch
	ErrE006 ErrorCode = "E006" // contract blame
	ErrE007 ErrorCode = "E007" // merge conflict
	ErrE008 ErrorCode = "E008" // infinite recursion
	ErrE009 ErrorCode = "E009" // other evaluation error
	ErrE010 ErrorCode = "E010" // resource limit

	// Serialization
	ErrS001 ErrorCode = "S001" // value not serializable
	ErrS002 ErrorCode = "S002" // unknown export format
)

// DiagnosticError is a single report: a message attached to a source span,
// with optional notes rendered below the excerpt.
type DiagnosticError struct {
	Code    ErrorCode
	Message string
	Pos     term.TermPos
	// Secondary spans, e.g. the contract a blame refers to.
	Related []Related
	Notes   []string
}

// Related is a secondary span shown with its own message.
type Related struct {
	Pos     term.TermPos
	Message string
}

func (e *DiagnosticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError reports an error at a token of file.
func NewError(code ErrorCode, file term.FileID, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	span := term.Span{File: file, Start: tok.Start, End: tok.End}
	return &DiagnosticError{Code: code, Message: fmt.Sprintf(format, args...), Pos: term.Original(span)}
}

// NewErrorAt reports an error at a term position.
func NewErrorAt(code ErrorCode, pos term.TermPos, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Diagnosable is implemented by errors that know how to describe themselves.
type Diagnosable interface {
	ToDiagnostics() []*DiagnosticError
}

// FromError extracts the diagnostics of err. Errors that are not Diagnosable
// become a single diagnostic without position.
func FromError(err error) []*DiagnosticError {
	if err == nil {
		return nil
	}
	var d Diagnosable
	if errors.As(err, &d) {
		return d.ToDiagnostics()
	}
	var de *DiagnosticError
	if errors.As(err, &de) {
		return []*DiagnosticError{de}
	}
	return []*DiagnosticError{{Code: ErrE009, Message: err.Error()}}
}

// ErrorList is a non-empty list of diagnostics, returned by the parser.
type ErrorList []*DiagnosticError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
	}
}

func (l ErrorList) ToDiagnostics() []*DiagnosticError { return l }
