// Package prettyprinter renders terms back to source syntax.
package prettyprinter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/token"
)

// --- Code Printer (Output looks like source code) ---

// Precedence levels, lowest first. They mirror the parser's.
const (
	precLowest = iota + 1
	precMerge
	precOr
	precAnd
	precEquals
	precCompare
	precSum
	precProduct
	precPrefix
	precApply
	precAccess
	precAtom
)

var operatorPrecedence = map[term.BinaryOp]int{
	term.OpMerge:       precMerge,
	term.OpBoolOr:      precOr,
	term.OpBoolAnd:     precAnd,
	term.OpEq:          precEquals,
	term.OpNotEq:       precEquals,
	term.OpLessThan:    precCompare,
	term.OpLessOrEq:    precCompare,
	term.OpGreaterThan: precCompare,
	term.OpGreaterOrEq: precCompare,
	term.OpPlus:        precSum,
	term.OpSub:         precSum,
	term.OpStrConcat:   precSum,
	term.OpArrayConcat: precSum,
	term.OpMult:        precProduct,
	term.OpDiv:         precProduct,
	term.OpModulo:      precProduct,
}

func getPrecedence(op term.BinaryOp) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return precApply // %op% a b
}

// maxInlineFields is the number of fields above which records are printed
// one field per line.
const maxInlineFields = 3

type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: 100, column: 0}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: width, column: 0}
}

// Print renders rt with the default line width.
func Print(rt term.RichTerm) string {
	p := NewCodePrinter()
	p.Print(rt)
	return p.String()
}

// Print appends rt to the output.
func (p *CodePrinter) Print(rt term.RichTerm) {
	p.printTerm(rt, precLowest)
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	// Track column position
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
	p.column = p.indent * 2
}

// sub renders rt with a fresh printer sharing the current layout, so the
// caller can decide between an inline and a multi-line form.
func (p *CodePrinter) sub(rt term.RichTerm, prec int) string {
	s := &CodePrinter{indent: p.indent, lineWidth: p.lineWidth, column: p.column}
	s.printTerm(rt, prec)
	return s.String()
}

func (p *CodePrinter) fits(s string) bool {
	if strings.Contains(s, "\n") {
		return false
	}
	return p.lineWidth == 0 || p.column+len(s) <= p.lineWidth
}

// precedenceOf returns how tightly the printed form of t binds.
func precedenceOf(t term.Term) int {
	switch t := t.(type) {
	case *term.Fun, *term.Let, *term.If, *term.Switch, *term.MetaValue:
		return precLowest
	case *term.Op2:
		if t.Op.IsInfix() {
			return getPrecedence(t.Op)
		}
		return precApply
	case *term.Op1:
		switch t.Op {
		case term.OpStaticAccess:
			return precAccess
		case term.OpBoolNot:
			return precPrefix
		}
		return precApply
	case *term.App:
		return precApply
	case *term.Num:
		if t.Value < 0 {
			return precPrefix
		}
	}
	return precAtom
}

// printTerm prints a term, adding parentheses only if needed.
func (p *CodePrinter) printTerm(rt term.RichTerm, parentPrec int) {
	if rt.Term == nil {
		p.write("<???>")
		return
	}
	needParens := precedenceOf(rt.Term) < parentPrec
	if needParens {
		p.write("(")
	}
	p.printBare(rt)
	if needParens {
		p.write(")")
	}
}

func (p *CodePrinter) printBare(rt term.RichTerm) {
	switch t := rt.Term.(type) {
	case *term.Num:
		p.write(FormatNumber(t.Value))
	case *term.Bool:
		p.write(strconv.FormatBool(t.Value))
	case *term.Str:
		p.write(`"` + escapeString(t.Value) + `"`)
	case *term.StrChunks:
		p.printChunks(t)
	case *term.Var:
		p.write(string(t.Name))
	case *term.Enum:
		p.write("`" + string(t.Tag))
	case *term.Lbl:
		p.write(fmt.Sprintf("<label %s>", t.Label.Types))
	case *term.Import:
		p.write(`import "` + escapeString(t.Path) + `"`)
	case *term.ResolvedImport:
		p.write(fmt.Sprintf("<import #%d>", t.File))
	case *term.Fun:
		p.printFun(t)
	case *term.App:
		p.printTerm(t.Fun, precApply)
		p.write(" ")
		p.printTerm(t.Arg, precApply+1)
	case *term.Let:
		p.printLet(t)
	case *term.If:
		p.write("if ")
		p.printTerm(t.Cond, precLowest)
		p.write(" then ")
		p.printTerm(t.Then, precLowest)
		p.write(" else ")
		p.printTerm(t.Else, precLowest)
	case *term.Op1:
		p.printOp1(t)
	case *term.Op2:
		p.printOp2(t)
	case *term.Record:
		p.printRecord(t.Fields)
	case *term.RecRecord:
		p.printRecord(t.Fields)
	case *term.Array:
		p.printArray(t)
	case *term.Switch:
		p.printSwitch(t)
	case *term.MetaValue:
		if t.Value != nil {
			p.printTerm(*t.Value, precMerge)
		} else {
			p.write("_")
		}
		p.printAnnotations(t)
	default:
		p.write(fmt.Sprintf("<%T>", t))
	}
}

// FormatNumber prints a number the way the lexer reads it back.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '%':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// chunks are stored last first
func (p *CodePrinter) printChunks(t *term.StrChunks) {
	p.write(`"`)
	for i := len(t.Chunks) - 1; i >= 0; i-- {
		c := t.Chunks[i]
		if c.IsExpr() {
			p.write("%{")
			p.printTerm(*c.Expr, precLowest)
			p.write("}")
		} else {
			p.write(escapeString(c.Literal))
		}
	}
	p.write(`"`)
}

func (p *CodePrinter) printFun(t *term.Fun) {
	p.write("fun " + string(t.Param))
	body := t.Body
	for {
		inner, ok := body.Term.(*term.Fun)
		if !ok {
			break
		}
		p.write(" " + string(inner.Param))
		body = inner.Body
	}
	p.write(" => ")
	p.printTerm(body, precLowest)
}

func (p *CodePrinter) printLet(t *term.Let) {
	p.write("let ")
	if t.Rec {
		p.write("rec ")
	}
	p.write(string(t.Name) + " = ")
	p.printTerm(t.Value, precLowest)
	p.write(" in")
	p.writeln()
	p.writeIndent()
	p.printTerm(t.Body, precLowest)
}

func (p *CodePrinter) printOp1(t *term.Op1) {
	switch t.Op {
	case term.OpStaticAccess:
		p.printTerm(t.Arg, precAccess)
		p.write("." + FieldName(t.Field))
	case term.OpBoolNot:
		p.write("!")
		p.printTerm(t.Arg, precPrefix)
	case term.OpGoField:
		p.write("%goField% " + strconv.Quote(string(t.Field)) + " ")
		p.printTerm(t.Arg, precApply+1)
	default:
		p.write("%" + t.Op.String() + "% ")
		p.printTerm(t.Arg, precApply+1)
	}
}

func (p *CodePrinter) printOp2(t *term.Op2) {
	if !t.Op.IsInfix() {
		p.write("%" + t.Op.String() + "% ")
		p.printTerm(t.Left, precApply+1)
		p.write(" ")
		p.printTerm(t.Right, precApply+1)
		return
	}
	// Binary operators are left-associative.
	prec := getPrecedence(t.Op)
	p.printTerm(t.Left, prec)
	p.write(" " + t.Op.String() + " ")
	p.printTerm(t.Right, prec+1)
}

func (p *CodePrinter) printArray(t *term.Array) {
	if len(t.Elems) == 0 {
		p.write("[]")
		return
	}
	parts := make([]string, len(t.Elems))
	for i, el := range t.Elems {
		parts[i] = p.sub(el, precLowest)
	}
	if inline := "[" + strings.Join(parts, ", ") + "]"; p.fits(inline) {
		p.write(inline)
		return
	}
	p.write("[")
	p.indent++
	for _, el := range t.Elems {
		p.writeln()
		p.writeIndent()
		p.printTerm(el, precLowest)
		p.write(",")
	}
	p.indent--
	p.writeln()
	p.writeIndent()
	p.write("]")
}

// isIdentifier reports whether name can be written as a bare field name.
func isIdentifier(name string) bool {
	if name == "" || token.LookupIdent(name) != token.IDENT || name == "_" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '\'' && i > 0:
		case '0' <= r && r <= '9':
			if i == 0 {
				return false
			}
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// FieldName returns name as written in a record or a field path, quoted if needed.
func FieldName(name term.Ident) string {
	if isIdentifier(string(name)) {
		return string(name)
	}
	return `"` + escapeString(string(name)) + `"`
}

func sortedFields(fields map[term.Ident]term.RichTerm) []term.Ident {
	names := make([]term.Ident, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (p *CodePrinter) field(name term.Ident, value term.RichTerm) string {
	s := &CodePrinter{indent: p.indent, lineWidth: p.lineWidth, column: p.column}
	s.printField(name, value)
	return s.String()
}

// printField prints `name [annotations] [= value]`.
func (p *CodePrinter) printField(name term.Ident, value term.RichTerm) {
	p.write(FieldName(name))
	if m, ok := value.Term.(*term.MetaValue); ok {
		p.printAnnotations(m)
		if m.Value == nil {
			return
		}
		value = *m.Value
	}
	p.write(" = ")
	p.printTerm(value, precLowest)
}

func (p *CodePrinter) printRecord(fields map[term.Ident]term.RichTerm) {
	if len(fields) == 0 {
		p.write("{}")
		return
	}
	names := sortedFields(fields)
	if len(fields) <= maxInlineFields {
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = p.field(name, fields[name])
		}
		if inline := "{ " + strings.Join(parts, ", ") + " }"; p.fits(inline) {
			p.write(inline)
			return
		}
	}

	p.write("{")
	p.indent++
	for _, name := range names {
		p.writeln()
		p.writeIndent()
		p.printField(name, fields[name])
		p.write(",")
	}
	p.indent--
	p.writeln()
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) printSwitch(t *term.Switch) {
	p.write("switch { ")
	tags := sortedFields(t.Cases)
	for i, tag := range tags {
		if i > 0 {
			p.write(", ")
		}
		p.write("`" + string(tag) + " => ")
		p.printTerm(t.Cases[tag], precLowest)
	}
	if t.Default != nil {
		if len(tags) > 0 {
			p.write(", ")
		}
		p.write("_ => ")
		p.printTerm(*t.Default, precLowest)
	}
	p.write(" } ")
	p.printTerm(t.Exp, precApply+1)
}

// printAnnotations prints the metadata of m in source order: type, contracts,
// priority, documentation.
func (p *CodePrinter) printAnnotations(m *term.MetaValue) {
	if m.Types != nil {
		p.write(" : " + p.contract(*m.Types))
	}
	for _, c := range m.Contracts {
		p.write(" | " + p.contract(c))
	}
	if m.Priority != term.PriorityNormal {
		p.write(" | " + m.Priority.String())
	}
	if m.Doc != nil {
		p.write(" | doc " + `"` + escapeString(*m.Doc) + `"`)
	}
}

func (p *CodePrinter) contract(c term.Contract) string {
	if c.Types != "" {
		return c.Types
	}
	return p.sub(c.Contract, precApply)
}

// ContractText returns the contract as written in the source, or its printed
// form for synthesized contracts.
func ContractText(c term.Contract) string {
	return NewCodePrinter().contract(c)
}
