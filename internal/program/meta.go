package program

import (
	"sort"
	"strings"

	"github.com/funvibe/nickel/internal/prettyprinter"
	"github.com/funvibe/nickel/internal/term"
)

// MetaEntry is one line of metadata shown for a queried value.
type MetaEntry struct {
	Key   string
	Value string
}

// Describe lists the metadata of a query result: documentation, type,
// contracts, priority, value and, for records, the available fields.
func Describe(rt term.RichTerm) []MetaEntry {
	var out []MetaEntry
	value := &rt
	if m, ok := rt.Term.(*term.MetaValue); ok {
		if m.Doc != nil {
			out = append(out, MetaEntry{"documentation", *m.Doc})
		}
		if m.Types != nil {
			out = append(out, MetaEntry{"type", prettyprinter.ContractText(*m.Types)})
		}
		if len(m.Contracts) > 0 {
			texts := make([]string, len(m.Contracts))
			for i, c := range m.Contracts {
				texts[i] = prettyprinter.ContractText(c)
			}
			out = append(out, MetaEntry{"contract", strings.Join(texts, ", ")})
		}
		if m.Priority != term.PriorityNormal {
			out = append(out, MetaEntry{"priority", m.Priority.String()})
		}
		value = m.Value
	}
	if value == nil {
		return out
	}

	switch t := value.Term.(type) {
	case *term.Record:
		out = append(out, MetaEntry{"fields", fieldList(t.Fields)})
	case *term.RecRecord:
		out = append(out, MetaEntry{"fields", fieldList(t.Fields)})
	default:
		out = append(out, MetaEntry{"value", prettyprinter.Print(*value)})
	}
	return out
}

func fieldList(fields map[term.Ident]term.RichTerm) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, prettyprinter.FieldName(name))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// FormatMeta renders Describe as `key: value` lines, the form shown when
// hovering a field.
func FormatMeta(rt term.RichTerm) []string {
	entries := Describe(rt)
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Key + ": " + e.Value
	}
	return lines
}
