// Package modules loads imported files and replaces import expressions by
// references to the loaded terms.
package modules

import (
	"fmt"
	"strings"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/term"
)

// ResolvedTerm is what a resolver returns for an import.
type ResolvedTerm struct {
	// Term is the freshly parsed content of the file. It is only set when
	// Cached is false.
	Term term.RichTerm
	// Cached is true when the file was already known to the resolver. Its
	// term is then available through Get once its own imports are resolved.
	Cached bool
}

// ImportResolver loads imported files and stores their processed terms.
type ImportResolver interface {
	// Resolve finds the file designated by path, as imported from parent at pos.
	Resolve(path string, parent term.FileID, pos term.TermPos) (ResolvedTerm, term.FileID, error)
	// Get returns the processed term of a file.
	Get(id term.FileID) (term.RichTerm, bool)
	// Insert stores the processed term of a file.
	Insert(id term.FileID, rt term.RichTerm)
}

type ImportErrorKind int

const (
	// IOError: the file could not be found or read.
	IOError ImportErrorKind = iota
	// ParseErrors: the file was read but does not parse.
	ParseErrors
	// Cycle: the file imports itself, directly or not.
	Cycle
)

func (k ImportErrorKind) String() string {
	switch k {
	case IOError:
		return "IOError"
	case ParseErrors:
		return "ParseErrors"
	case Cycle:
		return "Cycle"
	}
	return "unknown"
}

// ImportError reports a failed import.
type ImportError struct {
	Kind ImportErrorKind
	Path string
	Pos  term.TermPos
	// Err is the underlying IO error, or the parse errors (a diagnostics.ErrorList).
	Err error
	// Chain lists the files of an import cycle, from the first file to the
	// one closing the cycle.
	Chain []string
}

func (e *ImportError) Error() string {
	switch e.Kind {
	case IOError:
		return fmt.Sprintf("import of %q failed: %v", e.Path, e.Err)
	case ParseErrors:
		return fmt.Sprintf("import of %q failed: %v", e.Path, e.Err)
	case Cycle:
		return fmt.Sprintf("import cycle: %s", strings.Join(e.Chain, " -> "))
	}
	return "import error"
}

func (e *ImportError) Unwrap() error { return e.Err }

func (e *ImportError) ToDiagnostics() []*diagnostics.DiagnosticError {
	switch e.Kind {
	case ParseErrors:
		d := diagnostics.NewErrorAt(diagnostics.ErrI002, e.Pos, "could not parse imported file %q", e.Path)
		return append([]*diagnostics.DiagnosticError{d}, diagnostics.FromError(e.Err)...)
	case Cycle:
		d := diagnostics.NewErrorAt(diagnostics.ErrI003, e.Pos, "import cycle detected while importing %q", e.Path)
		d.Notes = append(d.Notes, "cycle: "+strings.Join(e.Chain, " -> "))
		return []*diagnostics.DiagnosticError{d}
	default:
		d := diagnostics.NewErrorAt(diagnostics.ErrI001, e.Pos, "could not import %q", e.Path)
		if e.Err != nil {
			d.Notes = append(d.Notes, e.Err.Error())
		}
		return []*diagnostics.DiagnosticError{d}
	}
}

// DummyResolver rejects every import.
type DummyResolver struct{}

func (DummyResolver) Resolve(path string, _ term.FileID, pos term.TermPos) (ResolvedTerm, term.FileID, error) {
	return ResolvedTerm{}, term.NoFile, &ImportError{
		Kind: IOError,
		Path: path,
		Pos:  pos,
		Err:  fmt.Errorf("imports are not supported here"),
	}
}

func (DummyResolver) Get(term.FileID) (term.RichTerm, bool) { return term.RichTerm{}, false }
func (DummyResolver) Insert(term.FileID, term.RichTerm)     {}
