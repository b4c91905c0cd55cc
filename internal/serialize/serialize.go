// Package serialize exports fully evaluated terms to data formats and
// imports data files as terms.
package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/naoina/toml"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/term"
)

// Formats lists the supported export formats.
func Formats() []string {
	return []string{config.FormatJSON, config.FormatYAML, config.FormatTOML, config.FormatProtobuf}
}

// SerializationError reports a value that has no representation in the
// target format.
type SerializationError struct {
	Format string
	// Path from the root of the exported value to the offending one.
	Path    []string
	Pos     term.TermPos
	Message string
	// UnknownFormat is set when the format itself is not supported.
	UnknownFormat bool
}

func (e *SerializationError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("cannot export to %s: %s", e.Format, e.Message)
	}
	return fmt.Sprintf("cannot export to %s: %s (at %s)", e.Format, e.Message, strings.Join(e.Path, "."))
}

func (e *SerializationError) ToDiagnostics() []*diagnostics.DiagnosticError {
	code := diagnostics.ErrS001
	if e.UnknownFormat {
		code = diagnostics.ErrS002
	}
	return []*diagnostics.DiagnosticError{diagnostics.NewErrorAt(code, e.Pos, "%s", e.Error())}
}

// ToGo converts a fully evaluated term to plain Go values: map[string]interface{},
// []interface{}, string, bool, int64 and float64. Integral numbers become int64.
func ToGo(rt term.RichTerm) (interface{}, error) {
	return toGo(rt, nil)
}

func toGo(rt term.RichTerm, path []string) (interface{}, error) {
	fail := func(format string, args ...interface{}) error {
		return &SerializationError{Path: path, Pos: rt.Pos, Message: fmt.Sprintf(format, args...)}
	}
	switch t := rt.Term.(type) {
	case *term.Num:
		if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) {
			return nil, fail("%v is not a finite number", t.Value)
		}
		if t.Value == math.Trunc(t.Value) && math.Abs(t.Value) < 1<<53 {
			return int64(t.Value), nil
		}
		return t.Value, nil
	case *term.Bool:
		return t.Value, nil
	case *term.Str:
		return t.Value, nil
	case *term.Enum:
		return string(t.Tag), nil
	case *term.Array:
		out := make([]interface{}, len(t.Elems))
		for i, el := range t.Elems {
			v, err := toGo(el, append(path, fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *term.Record:
		out := make(map[string]interface{}, len(t.Fields))
		names := make([]string, 0, len(t.Fields))
		for name := range t.Fields {
			names = append(names, string(name))
		}
		sort.Strings(names)
		for _, name := range names {
			v, err := toGo(t.Fields[term.Ident(name)], append(path, name))
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil
	case *term.MetaValue:
		if t.Value == nil {
			return nil, fail("field has no value")
		}
		return toGo(*t.Value, path)
	}
	return nil, fail("a %s is not serializable", term.Shape(rt.Term))
}

// Export writes rt, which must be fully evaluated, in the given format.
func Export(w io.Writer, rt term.RichTerm, format string) error {
	if err := CheckFormat(format); err != nil {
		return err
	}
	v, err := ToGo(rt)
	if err != nil {
		if se, ok := err.(*SerializationError); ok {
			se.Format = format
		}
		return err
	}

	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)

	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()

	case config.FormatTOML:
		if _, ok := v.(map[string]interface{}); !ok {
			return &SerializationError{Format: format, Pos: rt.Pos, Message: "the top-level value must be a record"}
		}
		out, err := toml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		_, err = w.Write(out)
		return err

	case config.FormatProtobuf:
		msg, err := structpb.NewValue(v)
		if err != nil {
			return fmt.Errorf("encoding protobuf: %w", err)
		}
		out, err := proto.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encoding protobuf: %w", err)
		}
		_, err = w.Write(out)
		return err
	}
	return CheckFormat(format)
}

// CheckFormat returns an error if format is not a supported export format.
func CheckFormat(format string) error {
	for _, f := range Formats() {
		if f == format {
			return nil
		}
	}
	return &SerializationError{
		Format:        format,
		Message:       fmt.Sprintf("unknown format (expected one of %s)", strings.Join(Formats(), ", ")),
		UnknownFormat: true,
	}
}
