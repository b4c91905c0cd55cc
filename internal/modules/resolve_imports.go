package modules

import (
	"github.com/funvibe/nickel/internal/term"
)

// ResolveImports replaces every import of rt, and of the files it imports,
// by a reference to the loaded file. Newly loaded files are stored in the
// resolver with their own imports resolved. Import cycles are rejected.
func ResolveImports(rt term.RichTerm, resolver ImportResolver) (term.RichTerm, error) {
	return ResolveFileImports(rt, term.NoFile, resolver)
}

// ResolveFileImports is ResolveImports for a term that comes from file,
// against which relative import paths are resolved.
func ResolveFileImports(rt term.RichTerm, file term.FileID, resolver ImportResolver) (term.RichTerm, error) {
	r := &importResolution{resolver: resolver, processing: make(map[term.FileID]bool)}
	if file != term.NoFile {
		r.push(file, "")
	}
	return r.resolve(rt, file)
}

type importResolution struct {
	resolver ImportResolver
	// stack of files whose imports are being resolved, for cycle reporting
	stack      []term.FileID
	paths      []string
	processing map[term.FileID]bool
}

func (r *importResolution) push(id term.FileID, path string) {
	r.stack = append(r.stack, id)
	r.paths = append(r.paths, path)
	r.processing[id] = true
}

func (r *importResolution) pop() {
	id := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.paths = r.paths[:len(r.paths)-1]
	delete(r.processing, id)
}

func (r *importResolution) resolve(rt term.RichTerm, parent term.FileID) (term.RichTerm, error) {
	return term.Traverse(rt, func(node term.RichTerm) (term.RichTerm, error) {
		imp, ok := node.Term.(*term.Import)
		if !ok {
			return node, nil
		}

		resolved, id, err := r.resolver.Resolve(imp.Path, parent, node.Pos)
		if err != nil {
			return node, err
		}
		if r.processing[id] {
			return node, &ImportError{Kind: Cycle, Path: imp.Path, Pos: node.Pos, Chain: r.cycleFrom(id, imp.Path)}
		}

		if !resolved.Cached {
			r.push(id, imp.Path)
			sub, err := r.resolve(resolved.Term, id)
			r.pop()
			if err != nil {
				return node, err
			}
			r.resolver.Insert(id, sub)
		}
		return term.RichTerm{Term: &term.ResolvedImport{File: id}, Pos: node.Pos}, nil
	})
}

// cycleFrom lists the import paths from the first occurrence of id on the
// stack to the import closing the cycle.
func (r *importResolution) cycleFrom(id term.FileID, closing string) []string {
	var chain []string
	for i, f := range r.stack {
		if f == id || len(chain) > 0 {
			if r.paths[i] != "" {
				chain = append(chain, r.paths[i])
			}
		}
	}
	return append(chain, closing)
}
