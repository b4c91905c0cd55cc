package parser

import (
	"strconv"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/token"
)

// parseTerm parses an expression followed by its annotations.
func (p *Parser) parseTerm() term.RichTerm {
	rt := p.parseExpression(LOWEST)
	var meta *term.MetaValue
	for p.peekTokenIs(token.PIPE) || p.peekTokenIs(token.COLON) {
		p.nextToken()
		meta = p.parseAnnotation(meta)
	}
	if meta == nil {
		return rt
	}
	meta.Value = &rt
	return term.RichTerm{Term: meta, Pos: rt.Pos.Fuse(p.posOf(p.curToken))}
}

func (p *Parser) parseExpression(precedence int) term.RichTerm {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		p.failAt(diagnostics.ErrP006, p.curToken, "expression too complex: recursion depth limit exceeded")
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.unexpected(p.curToken, "expected an expression")
	}
	left := prefix()

	for {
		if precedence < APPLY && startsArgument(p.peekToken.Type) {
			p.nextToken()
			arg := p.parseExpression(APPLY)
			left = term.RichTerm{Term: &term.App{Fun: left, Arg: arg}, Pos: fuse(left, arg)}
			continue
		}
		if precedence >= p.peekPrecedence() {
			return left
		}
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
}

// startsArgument reports whether a token can begin a function argument.
func startsArgument(t token.TokenType) bool {
	switch t {
	case token.IDENT, token.NUMBER, token.STRING, token.ENUM_TAG, token.TRUE, token.FALSE,
		token.LPAREN, token.LBRACE, token.LBRACKET, token.IMPORT:
		return true
	}
	return false
}

func (p *Parser) parseIdentifier() term.RichTerm {
	return term.NewVar(term.Ident(p.curToken.Literal)).WithPos(p.posOf(p.curToken))
}

func (p *Parser) parseNumber() term.RichTerm {
	f, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.failAt(diagnostics.ErrP003, p.curToken, "invalid number literal %q", p.curToken.Literal)
	}
	return term.NewNum(f).WithPos(p.posOf(p.curToken))
}

func (p *Parser) parseBoolean() term.RichTerm {
	return term.NewBool(p.curTokenIs(token.TRUE)).WithPos(p.posOf(p.curToken))
}

func (p *Parser) parseEnumTag() term.RichTerm {
	return term.NewEnum(term.Ident(p.curToken.Literal)).WithPos(p.posOf(p.curToken))
}

func (p *Parser) parseGrouped() term.RichTerm {
	start := p.curToken
	p.nextToken()
	inner := p.parseTerm()
	p.expectPeek(token.RPAREN)
	return inner.WithPos(p.posFrom(start))
}

func (p *Parser) parseArray() term.RichTerm {
	start := p.curToken
	var elems []term.RichTerm
	p.nextToken()
	for !p.curTokenIs(token.RBRACKET) {
		elems = append(elems, p.parseTerm())
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		p.expectCur(token.RBRACKET)
	}
	return term.RichTerm{Term: &term.Array{Elems: elems}, Pos: p.posFrom(start)}
}

// fun x y => body
func (p *Parser) parseFun() term.RichTerm {
	start := p.curToken
	var params []term.Ident
	for p.peekTokenIs(token.IDENT) {
		p.nextToken()
		params = append(params, term.Ident(p.curToken.Literal))
	}
	if len(params) == 0 {
		p.unexpected(p.peekToken, "expected a parameter")
	}
	p.expectPeek(token.DOUBLE_ARROW)
	p.nextToken()
	body := p.parseTerm()
	return p.curry(params, body, start)
}

func (p *Parser) curry(params []term.Ident, body term.RichTerm, start token.Token) term.RichTerm {
	for i := len(params) - 1; i >= 0; i-- {
		body = term.RichTerm{Term: &term.Fun{Param: params[i], Body: body}, Pos: p.posFrom(start)}
	}
	return body
}

// let [rec] x [params] = value in body
func (p *Parser) parseLet() term.RichTerm {
	start := p.curToken
	rec := false
	if p.peekTokenIs(token.REC) {
		p.nextToken()
		rec = true
	}
	p.expectPeek(token.IDENT)
	name := term.Ident(p.curToken.Literal)
	var params []term.Ident
	for p.peekTokenIs(token.IDENT) {
		p.nextToken()
		params = append(params, term.Ident(p.curToken.Literal))
	}
	p.expectPeek(token.ASSIGN)
	valueStart := p.peekToken
	p.nextToken()
	value := p.parseTerm()
	if len(params) > 0 {
		value = p.curry(params, value, valueStart)
	}
	p.expectPeek(token.IN)
	p.nextToken()
	body := p.parseTerm()
	return term.RichTerm{Term: &term.Let{Name: name, Value: value, Body: body, Rec: rec}, Pos: p.posFrom(start)}
}

func (p *Parser) parseIf() term.RichTerm {
	start := p.curToken
	p.nextToken()
	cond := p.parseTerm()
	p.expectPeek(token.THEN)
	p.nextToken()
	then := p.parseTerm()
	p.expectPeek(token.ELSE)
	p.nextToken()
	els := p.parseTerm()
	return term.RichTerm{Term: &term.If{Cond: cond, Then: then, Else: els}, Pos: p.posFrom(start)}
}

// switch { `a => e1, _ => e2 } exp
func (p *Parser) parseSwitch() term.RichTerm {
	start := p.curToken
	p.expectPeek(token.LBRACE)
	cases := make(map[term.Ident]term.RichTerm)
	var def *term.RichTerm
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		caseTok := p.curToken
		switch caseTok.Type {
		case token.ENUM_TAG, token.UNDERSCORE:
		default:
			p.unexpected(caseTok, "expected an enum tag or `_`")
		}
		p.expectPeek(token.DOUBLE_ARROW)
		p.nextToken()
		body := p.parseTerm()
		if caseTok.Type == token.UNDERSCORE {
			if def != nil {
				p.failAt(diagnostics.ErrP005, caseTok, "duplicate default case")
			}
			def = &body
		} else {
			tag := term.Ident(caseTok.Literal)
			if _, dup := cases[tag]; dup {
				p.failAt(diagnostics.ErrP005, caseTok, "duplicate case `%s", tag)
			}
			cases[tag] = body
		}
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		p.expectCur(token.RBRACE)
	}
	p.nextToken()
	exp := p.parseExpression(APPLY)
	return term.RichTerm{Term: &term.Switch{Exp: exp, Cases: cases, Default: def}, Pos: p.posFrom(start)}
}

func (p *Parser) parseImport() term.RichTerm {
	start := p.curToken
	p.expectPeek(token.STRING)
	path := p.plainString(p.curToken)
	return term.NewImport(path).WithPos(p.posFrom(start))
}

// %op% arg1 [arg2]
func (p *Parser) parsePrimop() term.RichTerm {
	start := p.curToken
	name := p.curToken.Literal
	if op, ok := term.UnaryOpByName(name); ok {
		p.nextToken()
		arg := p.parseExpression(APPLY)
		return term.RichTerm{Term: &term.Op1{Op: op, Arg: arg}, Pos: p.posFrom(start)}
	}
	if op, ok := term.BinaryOpByName(name); ok {
		p.nextToken()
		left := p.parseExpression(APPLY)
		p.nextToken()
		right := p.parseExpression(APPLY)
		return term.RichTerm{Term: &term.Op2{Op: op, Left: left, Right: right}, Pos: p.posFrom(start)}
	}
	p.failAt(diagnostics.ErrP001, start, "unknown primitive operator %%%s%%", name)
	return term.RichTerm{}
}

func (p *Parser) parsePrefixExpression() term.RichTerm {
	start := p.curToken
	p.nextToken()
	right := p.parseExpression(PREFIX)
	pos := p.posFrom(start)
	if start.Type == token.BANG {
		return term.RichTerm{Term: &term.Op1{Op: term.OpBoolNot, Arg: right}, Pos: pos}
	}
	zero := term.NewNum(0).WithPos(p.posOf(start))
	return term.RichTerm{Term: &term.Op2{Op: term.OpSub, Left: zero, Right: right}, Pos: pos}
}

func (p *Parser) parseInfixExpression(left term.RichTerm) term.RichTerm {
	op := infixOps[p.curToken.Type]
	precedence := precedences[p.curToken.Type]
	p.nextToken()
	right := p.parseExpression(precedence)
	return term.RichTerm{Term: &term.Op2{Op: op, Left: left, Right: right}, Pos: fuse(left, right)}
}

func (p *Parser) parseFieldAccess(left term.RichTerm) term.RichTerm {
	p.nextToken()
	var field term.Ident
	switch p.curToken.Type {
	case token.IDENT:
		field = term.Ident(p.curToken.Literal)
	case token.STRING:
		field = term.Ident(p.plainString(p.curToken))
	default:
		p.unexpected(p.curToken, "expected a field name")
	}
	pos := left.Pos.Fuse(p.posOf(p.curToken))
	return term.RichTerm{Term: &term.Op1{Op: term.OpStaticAccess, Arg: left, Field: field}, Pos: pos}
}

// parseAnnotation parses one `| ...` or `: ...` annotation. The current token
// is the pipe or the colon.
func (p *Parser) parseAnnotation(meta *term.MetaValue) *term.MetaValue {
	if meta == nil {
		meta = &term.MetaValue{Priority: term.PriorityNormal}
	}
	isType := p.curTokenIs(token.COLON)
	p.nextToken()

	if !isType && p.curTokenIs(token.IDENT) {
		switch p.curToken.Literal {
		case "default":
			meta.Priority = term.PriorityDefault
			return meta
		case "force":
			meta.Priority = term.PriorityForce
			return meta
		case "doc":
			p.expectPeek(token.STRING)
			doc := p.plainString(p.curToken)
			meta.Doc = &doc
			return meta
		}
	}

	start := p.curToken
	contract := p.parseExpression(LOWEST)
	pos := p.posFrom(start)
	text := p.src[start.Start:p.curToken.End]
	c := term.Contract{
		Types:    text,
		Contract: contract,
		Label:    term.Label{Types: text, Span: pos, Polarity: true},
	}
	if isType && meta.Types == nil {
		meta.Types = &c
	} else {
		meta.Contracts = append(meta.Contracts, c)
	}
	return meta
}
