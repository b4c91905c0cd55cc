package parser

import (
	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/token"
)

// parseRecord parses `{ path [annotations] [= value], ... }`. Record literals
// are always recursive. A field defined twice is the merge of its definitions.
func (p *Parser) parseRecord() term.RichTerm {
	start := p.curToken
	fields := make(map[term.Ident]term.RichTerm)
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		pathStart := p.curToken
		path := p.parseFieldPath()
		value := p.parseFieldValue(pathStart)
		name, value := nestPath(path, value)
		if prev, dup := fields[name]; dup {
			value = term.RichTerm{
				Term: &term.Op2{Op: term.OpMerge, Left: prev, Right: value},
				Pos:  fuse(prev, value),
			}
		}
		fields[name] = value

		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		p.expectCur(token.RBRACE)
	}
	return term.RichTerm{Term: &term.RecRecord{Fields: fields}, Pos: p.posFrom(start)}
}

// parseFieldPath parses `a.b."c"` starting at the current token. On return the
// current token is the last element of the path.
func (p *Parser) parseFieldPath() []term.Ident {
	path := []term.Ident{p.fieldName()}
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		p.nextToken()
		path = append(path, p.fieldName())
	}
	return path
}

func (p *Parser) fieldName() term.Ident {
	switch p.curToken.Type {
	case token.IDENT:
		return term.Ident(p.curToken.Literal)
	case token.STRING:
		return term.Ident(p.plainString(p.curToken))
	}
	p.unexpected(p.curToken, "expected a field name")
	return ""
}

// parseFieldValue parses the annotations and the definition following a field
// path. A field may have annotations only, in which case its metavalue has no
// value.
func (p *Parser) parseFieldValue(pathStart token.Token) term.RichTerm {
	var meta *term.MetaValue
	for p.peekTokenIs(token.PIPE) || p.peekTokenIs(token.COLON) {
		p.nextToken()
		meta = p.parseAnnotation(meta)
	}

	if !p.peekTokenIs(token.ASSIGN) {
		if meta == nil {
			p.unexpected(p.peekToken, "expected `=` or an annotation")
		}
		return term.RichTerm{Term: meta, Pos: p.posFrom(pathStart)}
	}
	p.nextToken()
	p.nextToken()
	value := p.parseTerm()
	if meta == nil {
		return value
	}
	meta.Value = &value
	return term.RichTerm{Term: meta, Pos: p.posFrom(pathStart)}
}

// nestPath turns `a.b.c = v` into `a = { b = { c = v } }`.
func nestPath(path []term.Ident, value term.RichTerm) (term.Ident, term.RichTerm) {
	for i := len(path) - 1; i > 0; i-- {
		value = term.RichTerm{
			Term: &term.RecRecord{Fields: map[term.Ident]term.RichTerm{path[i]: value}},
			Pos:  value.Pos.Inherit(),
		}
	}
	return path[0], value
}
