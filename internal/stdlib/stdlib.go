// Package stdlib embeds the standard library and loads it into the global
// environment of an evaluator.
package stdlib

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/evaluator"
	"github.com/funvibe/nickel/internal/modules"
	"github.com/funvibe/nickel/internal/term"
)

//go:embed *.ncl
var sources embed.FS

// Module is one file of the standard library.
type Module struct {
	// Name is the pseudo-path the module is registered under, e.g. <stdlib/contracts.ncl>.
	Name   string
	Source string
}

// Modules returns the standard library files, sorted by name.
func Modules() []Module {
	entries, err := fs.ReadDir(sources, ".")
	if err != nil {
		panic(fmt.Sprintf("stdlib: reading embedded sources: %v", err))
	}
	var out []Module
	for _, e := range entries {
		data, err := sources.ReadFile(e.Name())
		if err != nil {
			panic(fmt.Sprintf("stdlib: reading %s: %v", e.Name(), err))
		}
		out = append(out, Module{Name: config.StdlibPrefix + e.Name() + ">", Source: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Register adds the standard library to the cache and prepares each module.
func Register(cache *modules.Cache) ([]term.FileID, error) {
	var ids []term.FileID
	for _, m := range Modules() {
		id := cache.AddString(m.Name, m.Source)
		if _, err := cache.Prepare(id); err != nil {
			return nil, fmt.Errorf("loading %s: %w", m.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Load registers the standard library in the cache and adds the fields of
// every module to the global environment of ev.
func Load(ev *evaluator.Evaluator, cache *modules.Cache, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	ids, err := Register(cache)
	if err != nil {
		return err
	}
	for _, id := range ids {
		rt, _ := cache.Get(id)
		if err := ev.LoadGlobals(rt); err != nil {
			return fmt.Errorf("loading %s: %w", cache.Name(id), err)
		}
		log.Debug("stdlib module loaded", zap.String("module", cache.Name(id)))
	}
	return nil
}
