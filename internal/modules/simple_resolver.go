package modules

import (
	"fmt"

	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/term"
)

// SimpleResolver resolves imports against an in-memory set of named sources.
// Import paths are the names the sources were added with.
type SimpleResolver struct {
	sources map[string]string
	ids     map[string]term.FileID
	names   []string
	terms   map[term.FileID]term.RichTerm
}

func NewSimpleResolver() *SimpleResolver {
	return &SimpleResolver{
		sources: make(map[string]string),
		ids:     make(map[string]term.FileID),
		terms:   make(map[term.FileID]term.RichTerm),
	}
}

// AddSource makes src importable under name.
func (r *SimpleResolver) AddSource(name, src string) {
	r.sources[name] = src
}

func (r *SimpleResolver) Resolve(path string, _ term.FileID, pos term.TermPos) (ResolvedTerm, term.FileID, error) {
	id, known := r.ids[path]
	if known {
		// Only a file whose imports were resolved is cached. One that failed,
		// or is still being resolved, is parsed again under the same id.
		if _, ok := r.terms[id]; ok {
			return ResolvedTerm{Cached: true}, id, nil
		}
	}
	src, ok := r.sources[path]
	if !ok {
		return ResolvedTerm{}, term.NoFile, &ImportError{Kind: IOError, Path: path, Pos: pos, Err: fmt.Errorf("no source named %q", path)}
	}

	if !known {
		id = term.FileID(len(r.names))
	}
	rt, err := parser.Parse(id, src)
	if err != nil {
		return ResolvedTerm{}, term.NoFile, &ImportError{Kind: ParseErrors, Path: path, Pos: pos, Err: err}
	}
	if !known {
		r.names = append(r.names, path)
		r.ids[path] = id
	}
	return ResolvedTerm{Term: rt}, id, nil
}

func (r *SimpleResolver) Get(id term.FileID) (term.RichTerm, bool) {
	rt, ok := r.terms[id]
	return rt, ok
}

func (r *SimpleResolver) Insert(id term.FileID, rt term.RichTerm) {
	r.terms[id] = rt
}

// Name and Source let diagnostics quote the in-memory sources.
func (r *SimpleResolver) Name(id term.FileID) string {
	if int(id) >= 0 && int(id) < len(r.names) {
		return r.names[id]
	}
	return "<unknown>"
}

func (r *SimpleResolver) Source(id term.FileID) (string, bool) {
	if int(id) < 0 || int(id) >= len(r.names) {
		return "", false
	}
	src, ok := r.sources[r.names[id]]
	return src, ok
}
