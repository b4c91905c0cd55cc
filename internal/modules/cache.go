package modules

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/parser"
	"github.com/funvibe/nickel/internal/serialize"
	"github.com/funvibe/nickel/internal/term"
)

// sourceFile is one entry of the cache.
type sourceFile struct {
	name string
	// path is the absolute filesystem path, empty for in-memory sources.
	path   string
	source string
	parsed *term.RichTerm
	// resolved holds the term once its imports are resolved.
	resolved *term.RichTerm
}

// Cache stores the sources of a program, its imports and the standard
// library, together with their parsed and processed terms. It resolves
// imports from the filesystem.
type Cache struct {
	files  []*sourceFile
	byName map[string]term.FileID

	// ImportPaths are searched after the directory of the importing file.
	ImportPaths []string
	Logger      *zap.Logger
	// Transform, when set, is applied to every term stored with Insert.
	Transform func(term.RichTerm) term.RichTerm
}

func NewCache() *Cache {
	return &Cache{
		byName: make(map[string]term.FileID),
		Logger: zap.NewNop(),
	}
}

// AddFile reads a file from disk. A file already in the cache is not read again.
func (c *Cache) AddFile(path string) (term.FileID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return term.NoFile, fmt.Errorf("resolving %s: %w", path, err)
	}
	if id, ok := c.byName[abs]; ok {
		return id, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return term.NoFile, err
	}
	id := c.add(&sourceFile{name: path, path: abs, source: string(data)})
	c.byName[abs] = id
	return id, nil
}

// AddSource reads an in-memory source, e.g. standard input, under name.
func (c *Cache) AddSource(name string, r io.Reader) (term.FileID, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return term.NoFile, fmt.Errorf("reading %s: %w", name, err)
	}
	return c.AddString(name, string(data)), nil
}

// AddString adds a source under name, replacing any previous source of that name.
func (c *Cache) AddString(name, src string) term.FileID {
	if id, ok := c.byName[name]; ok {
		c.files[id] = &sourceFile{name: name, source: src}
		return id
	}
	id := c.add(&sourceFile{name: name, source: src})
	c.byName[name] = id
	return id
}

func (c *Cache) add(f *sourceFile) term.FileID {
	c.files = append(c.files, f)
	return term.FileID(len(c.files) - 1)
}

// IDOf returns the id of a source added under name, or of an absolute file path.
func (c *Cache) IDOf(name string) (term.FileID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

func (c *Cache) file(id term.FileID) *sourceFile {
	if int(id) < 0 || int(id) >= len(c.files) {
		return nil
	}
	return c.files[id]
}

// Parse parses a source once and returns its term, without resolving imports.
// JSON and YAML files are decoded as data.
func (c *Cache) Parse(id term.FileID) (term.RichTerm, error) {
	f := c.file(id)
	if f == nil {
		return term.RichTerm{}, fmt.Errorf("unknown file id %d", id)
	}
	if f.parsed != nil {
		return *f.parsed, nil
	}
	var rt term.RichTerm
	var err error
	if serialize.IsDataFile(f.name, config.DataFileExtensions) {
		rt, err = serialize.FromYAML(id, f.source)
	} else {
		rt, err = parser.Parse(id, f.source)
	}
	if err != nil {
		return term.RichTerm{}, err
	}
	f.parsed = &rt
	c.Logger.Debug("parsed source", zap.String("file", f.name))
	return rt, nil
}

// Prepare parses a source and resolves its imports, storing the result.
// The stored term, after Transform, is returned.
func (c *Cache) Prepare(id term.FileID) (term.RichTerm, error) {
	if rt, ok := c.Get(id); ok {
		return rt, nil
	}
	rt, err := c.Parse(id)
	if err != nil {
		return term.RichTerm{}, err
	}
	rt, err = ResolveFileImports(rt, id, c)
	if err != nil {
		return term.RichTerm{}, err
	}
	c.Insert(id, rt)
	rt, _ = c.Get(id)
	return rt, nil
}

func (c *Cache) Resolve(path string, parent term.FileID, pos term.TermPos) (ResolvedTerm, term.FileID, error) {
	if strings.HasPrefix(path, config.StdlibPrefix) {
		id, ok := c.byName[path]
		if !ok {
			return ResolvedTerm{}, term.NoFile, &ImportError{Kind: IOError, Path: path, Pos: pos, Err: fmt.Errorf("no such standard library file")}
		}
		return c.resolveID(path, id, pos)
	}

	candidates := c.candidates(path, parent)
	for _, cand := range candidates {
		if id, ok := c.byName[cand]; ok {
			return c.resolveID(path, id, pos)
		}
	}
	for _, cand := range candidates {
		if _, err := os.Stat(cand); err != nil {
			continue
		}
		id, err := c.AddFile(cand)
		if err != nil {
			return ResolvedTerm{}, term.NoFile, &ImportError{Kind: IOError, Path: path, Pos: pos, Err: err}
		}
		c.Logger.Debug("import loaded", zap.String("path", path), zap.String("file", cand))
		return c.resolveID(path, id, pos)
	}
	return ResolvedTerm{}, term.NoFile, &ImportError{
		Kind: IOError,
		Path: path,
		Pos:  pos,
		Err:  fmt.Errorf("file not found (searched %s)", strings.Join(candidates, ", ")),
	}
}

// resolveID returns a file already in the cache, parsing it on first import.
func (c *Cache) resolveID(path string, id term.FileID, pos term.TermPos) (ResolvedTerm, term.FileID, error) {
	if c.files[id].resolved != nil {
		return ResolvedTerm{Cached: true}, id, nil
	}
	rt, err := c.Parse(id)
	if err != nil {
		return ResolvedTerm{}, term.NoFile, &ImportError{Kind: ParseErrors, Path: path, Pos: pos, Err: err}
	}
	return ResolvedTerm{Term: rt}, id, nil
}

// candidates lists the absolute paths an import may designate: relative to
// the importing file, then to each import path, then to the working directory.
func (c *Cache) candidates(path string, parent term.FileID) []string {
	if filepath.IsAbs(path) {
		return []string{filepath.Clean(path)}
	}
	var dirs []string
	if f := c.file(parent); f != nil && f.path != "" {
		dirs = append(dirs, filepath.Dir(f.path))
	}
	dirs = append(dirs, c.ImportPaths...)
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	seen := make(map[string]bool)
	var out []string
	for _, d := range dirs {
		cand := filepath.Join(d, path)
		if abs, err := filepath.Abs(cand); err == nil {
			cand = abs
		}
		if !seen[cand] {
			seen[cand] = true
			out = append(out, cand)
		}
	}
	return out
}

func (c *Cache) Get(id term.FileID) (term.RichTerm, bool) {
	f := c.file(id)
	if f == nil || f.resolved == nil {
		return term.RichTerm{}, false
	}
	return *f.resolved, true
}

func (c *Cache) Insert(id term.FileID, rt term.RichTerm) {
	f := c.file(id)
	if f == nil {
		return
	}
	if c.Transform != nil {
		rt = c.Transform(rt)
	}
	f.resolved = &rt
}

// Name and Source expose the sources to diagnostics rendering.
func (c *Cache) Name(id term.FileID) string {
	if f := c.file(id); f != nil {
		return f.name
	}
	return "<unknown>"
}

func (c *Cache) Source(id term.FileID) (string, bool) {
	if f := c.file(id); f != nil {
		return f.source, true
	}
	return "", false
}
