package serialize

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/term"
)

// FromYAML decodes a JSON or YAML data file into a term. Mappings become
// records, sequences arrays and scalars numbers, booleans or strings.
// Positions point into src. Null values have no counterpart and are rejected.
func FromYAML(file term.FileID, src string) (term.RichTerm, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return term.RichTerm{}, diagnostics.NewErrorAt(diagnostics.ErrP007,
			term.Original(term.Span{File: file, Start: 0, End: len(src)}), "%s", err)
	}
	d := &decoder{file: file, src: src, lines: lineOffsets(src)}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return term.RichTerm{}, d.errorf(&doc, "empty data file")
	}
	return d.decode(doc.Content[0])
}

type decoder struct {
	file  term.FileID
	src   string
	lines []int
}

func lineOffsets(src string) []int {
	offs := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			offs = append(offs, i+1)
		}
	}
	return offs
}

// pos converts the 1-based line and column of n into a byte span.
func (d *decoder) pos(n *yaml.Node) term.TermPos {
	if n.Line <= 0 || n.Line > len(d.lines) {
		return term.NoPos
	}
	start := d.lines[n.Line-1] + n.Column - 1
	if start > len(d.src) {
		start = len(d.src)
	}
	end := start
	if n.Kind == yaml.ScalarNode {
		end = start + len(n.Value)
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			end += 2
		}
		if end > len(d.src) {
			end = len(d.src)
		}
	}
	return term.Original(term.Span{File: d.file, Start: start, End: end})
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return diagnostics.NewErrorAt(diagnostics.ErrP007, d.pos(n), format, args...)
}

func (d *decoder) decode(n *yaml.Node) (term.RichTerm, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return term.RichTerm{}, d.errorf(n, "empty document")
		}
		return d.decode(n.Content[0])

	case yaml.AliasNode:
		return d.decode(n.Alias)

	case yaml.MappingNode:
		fields := make(map[term.Ident]term.RichTerm, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return term.RichTerm{}, d.errorf(k, "mapping keys must be scalars")
			}
			name := term.Ident(k.Value)
			if _, dup := fields[name]; dup {
				return term.RichTerm{}, d.errorf(k, "duplicate key %q", k.Value)
			}
			val, err := d.decode(v)
			if err != nil {
				return term.RichTerm{}, err
			}
			fields[name] = val
		}
		return term.NewRecord(fields).WithPos(d.pos(n)), nil

	case yaml.SequenceNode:
		elems := make([]term.RichTerm, len(n.Content))
		for i, c := range n.Content {
			el, err := d.decode(c)
			if err != nil {
				return term.RichTerm{}, err
			}
			elems[i] = el
		}
		return term.NewArray(elems...).WithPos(d.pos(n)), nil

	case yaml.ScalarNode:
		return d.scalar(n)
	}
	return term.RichTerm{}, d.errorf(n, "unsupported YAML node")
}

func (d *decoder) scalar(n *yaml.Node) (term.RichTerm, error) {
	pos := d.pos(n)
	switch n.ShortTag() {
	case "!!null":
		return term.RichTerm{}, d.errorf(n, "null values are not supported")
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return term.RichTerm{}, d.errorf(n, "%s", err)
		}
		return term.NewBool(b).WithPos(pos), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return term.RichTerm{}, d.errorf(n, "%s", err)
		}
		return term.NewNum(f).WithPos(pos), nil
	case "!!str", "!!timestamp", "!!binary":
		return term.NewStr(n.Value).WithPos(pos), nil
	}
	return term.RichTerm{}, d.errorf(n, "unsupported tag %s", n.ShortTag())
}

// IsDataFile reports whether name has one of the given data file extensions.
func IsDataFile(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
