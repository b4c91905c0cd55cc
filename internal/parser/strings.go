package parser

import (
	"strings"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/lexer"
	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/token"
)

// parseString parses a string literal into chunks. Interpolated expressions
// `%{e}` are parsed in place, with positions relative to the whole source.
func (p *Parser) parseString() term.RichTerm {
	tok := p.curToken
	chunks := p.stringChunks(tok, true)
	return term.NewStrChunks(chunks...).WithPos(p.posOf(tok))
}

// plainString returns the content of a string literal that may not contain
// interpolation, e.g. an import path or a field name.
func (p *Parser) plainString(tok token.Token) string {
	chunks := p.stringChunks(tok, false)
	if len(chunks) == 0 {
		return ""
	}
	return chunks[0].Literal
}

func (p *Parser) stringChunks(tok token.Token, interpolate bool) []term.StrChunk {
	content := tok.Literal
	base := tok.Start + 1 // skip the opening quote

	var chunks []term.StrChunk
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			chunks = append(chunks, term.LiteralChunk(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '\\':
			if i+1 >= len(content) {
				p.failAtOffset(diagnostics.ErrP004, base+i, base+i+1, "unterminated escape sequence")
			}
			i++
			switch content[i] {
			case 'n':
				lit.WriteByte('\n')
			case 't':
				lit.WriteByte('\t')
			case 'r':
				lit.WriteByte('\r')
			case '"', '\\', '%':
				lit.WriteByte(content[i])
			default:
				p.failAtOffset(diagnostics.ErrP004, base+i-1, base+i+1, "unknown escape sequence \\%c", content[i])
			}
		case c == '%' && i+1 < len(content) && content[i+1] == '{':
			if !interpolate {
				p.failAtOffset(diagnostics.ErrP004, base+i, base+i+2, "interpolation is not allowed here")
			}
			flush()
			expr, end := p.interpolation(content[i+2:], base+i+2)
			chunks = append(chunks, term.ExprChunk(expr))
			i = i + 2 + end // index of the closing brace
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return chunks
}

// interpolation parses the expression at the start of src, which must be
// closed by a matching `}`. It returns the expression and the offset of the
// closing brace inside src.
func (p *Parser) interpolation(src string, offset int) (term.RichTerm, int) {
	tokens := lexer.NewWithOffset(src, offset).Tokenize()
	depth := 0
	closing := -1
	for i, tok := range tokens {
		if tok.Type == token.LBRACE {
			depth++
		}
		if tok.Type == token.RBRACE {
			if depth == 0 {
				closing = i
				break
			}
			depth--
		}
		if tok.Type == token.EOF {
			break
		}
	}
	if closing < 0 {
		p.failAtOffset(diagnostics.ErrP004, offset-2, offset+len(src), "unterminated interpolation")
	}

	end := tokens[closing]
	inner := make([]token.Token, closing, closing+1)
	copy(inner, tokens[:closing])
	inner = append(inner, token.Token{Type: token.EOF, Start: end.Start, End: end.Start})

	sub := newParser(p.file, p.src, inner, p.errors)
	sub.depth = p.depth
	if sub.curTokenIs(token.EOF) {
		sub.unexpected(sub.curToken, "expected an expression")
	}
	expr := sub.parseTerm()
	sub.expectPeek(token.EOF)
	return expr, end.Start - offset
}

func (p *Parser) failAtOffset(code diagnostics.ErrorCode, start, end int, format string, args ...interface{}) {
	pos := term.Original(term.Span{File: p.file, Start: start, End: end})
	p.fail(diagnostics.NewErrorAt(code, pos, format, args...))
}
