// Package parser builds term trees from source text.
package parser

import (
	"errors"
	"strings"
	"unicode"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/lexer"
	"github.com/funvibe/nickel/internal/term"
	"github.com/funvibe/nickel/internal/token"
)

// MaxRecursionDepth bounds the nesting of expressions.
const MaxRecursionDepth = 1000

const (
	_ int = iota
	LOWEST
	MERGE   // &
	OR      // ||
	AND     // &&
	EQUALS  // == !=
	COMPARE // < <= > >=
	SUM     // + - ++ @
	PRODUCT // * / %
	PREFIX  // !x -x
	APPLY   // f x
	ACCESS  // r.field
)

var precedences = map[token.TokenType]int{
	token.AMP:      MERGE,
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       COMPARE,
	token.LTE:      COMPARE,
	token.GT:       COMPARE,
	token.GTE:      COMPARE,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.CONCAT:   SUM,
	token.AT:       SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.DOT:      ACCESS,
}

var infixOps = map[token.TokenType]term.BinaryOp{
	token.AMP:      term.OpMerge,
	token.OR:       term.OpBoolOr,
	token.AND:      term.OpBoolAnd,
	token.EQ:       term.OpEq,
	token.NOT_EQ:   term.OpNotEq,
	token.LT:       term.OpLessThan,
	token.LTE:      term.OpLessOrEq,
	token.GT:       term.OpGreaterThan,
	token.GTE:      term.OpGreaterOrEq,
	token.PLUS:     term.OpPlus,
	token.MINUS:    term.OpSub,
	token.CONCAT:   term.OpStrConcat,
	token.AT:       term.OpArrayConcat,
	token.ASTERISK: term.OpMult,
	token.SLASH:    term.OpDiv,
	token.PERCENT:  term.OpModulo,
}

type (
	prefixParseFn func() term.RichTerm
	infixParseFn  func(term.RichTerm) term.RichTerm
)

// bailout unwinds the parser on the first error.
type bailout struct{}

type Parser struct {
	file   term.FileID
	src    string
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	depth  int
	errors *diagnostics.ErrorList

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func newParser(file term.FileID, src string, tokens []token.Token, errs *diagnostics.ErrorList) *Parser {
	p := &Parser{file: file, src: src, tokens: tokens, pos: -1, errors: errs}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.NUMBER:   p.parseNumber,
		token.STRING:   p.parseString,
		token.TRUE:     p.parseBoolean,
		token.FALSE:    p.parseBoolean,
		token.ENUM_TAG: p.parseEnumTag,
		token.LPAREN:   p.parseGrouped,
		token.LBRACE:   p.parseRecord,
		token.LBRACKET: p.parseArray,
		token.FUN:      p.parseFun,
		token.LET:      p.parseLet,
		token.IF:       p.parseIf,
		token.SWITCH:   p.parseSwitch,
		token.IMPORT:   p.parseImport,
		token.PRIMOP:   p.parsePrimop,
		token.BANG:     p.parsePrefixExpression,
		token.MINUS:    p.parsePrefixExpression,
	}
	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tt := range infixOps {
		p.infixParseFns[tt] = p.parseInfixExpression
	}
	p.infixParseFns[token.DOT] = p.parseFieldAccess

	p.nextToken()
	return p
}

// Parse parses a whole source file. The returned error is a diagnostics.ErrorList.
func Parse(file term.FileID, src string) (term.RichTerm, error) {
	errs := diagnostics.ErrorList{}
	tokens := lexer.New(src).Tokenize()
	p := newParser(file, src, tokens, &errs)
	rt, ok := p.parseAll()
	if !ok {
		return term.RichTerm{}, errs
	}
	return rt, nil
}

// ParseString parses a source that does not belong to any file.
func ParseString(src string) (term.RichTerm, error) {
	return Parse(term.NoFile, src)
}

// ParseFieldPath parses a dot-separated path such as `a.b."c d"`.
func ParseFieldPath(path string) ([]term.Ident, error) {
	errs := diagnostics.ErrorList{}
	p := newParser(term.NoFile, path, lexer.New(path).Tokenize(), &errs)
	var out []term.Ident
	ok := p.guard(func() {
		out = p.parseFieldPath()
		p.expectPeek(token.EOF)
	})
	if !ok {
		return nil, errs
	}
	return out, nil
}

// IsIncomplete reports whether err only says that src ends too early, as
// when an interactive input continues on the next line.
func IsIncomplete(err error, src string) bool {
	var errs diagnostics.ErrorList
	if !errors.As(err, &errs) || len(errs) == 0 {
		return false
	}
	d := errs[0]
	switch d.Code {
	case diagnostics.ErrP001, diagnostics.ErrP002, diagnostics.ErrP004:
	default:
		return false
	}
	end := len(strings.TrimRightFunc(src, unicode.IsSpace))
	return d.Pos.Span.End >= end && !d.Pos.IsNone()
}

func (p *Parser) parseAll() (rt term.RichTerm, ok bool) {
	ok = p.guard(func() {
		rt = p.parseTerm()
		p.expectPeek(token.EOF)
	})
	return rt, ok
}

// guard runs f and reports whether it completed without a parse error.
func (p *Parser) guard(f func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			ok = false
		}
	}()
	f()
	return len(*p.errors) == 0
}

func (p *Parser) nextToken() {
	p.pos++
	p.curToken = p.tokenAt(p.pos)
	p.peekToken = p.tokenAt(p.pos + 1)
}

func (p *Parser) tokenAt(i int) token.Token {
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	last := token.Token{Type: token.EOF}
	if n := len(p.tokens); n > 0 {
		last.Start, last.End = p.tokens[n-1].End, p.tokens[n-1].End
	}
	return last
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) {
	if !p.peekTokenIs(t) {
		p.unexpected(p.peekToken, "expected %s", t)
	}
	p.nextToken()
}

func (p *Parser) expectCur(t token.TokenType) {
	if !p.curTokenIs(t) {
		p.unexpected(p.curToken, "expected %s", t)
	}
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) fail(err *diagnostics.DiagnosticError) {
	*p.errors = append(*p.errors, err)
	panic(bailout{})
}

func (p *Parser) failAt(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	p.fail(diagnostics.NewError(code, p.file, tok, format, args...))
}

func (p *Parser) unexpected(tok token.Token, format string, args ...interface{}) {
	if tok.Type == token.ILLEGAL {
		p.failAt(diagnostics.ErrP002, tok, "illegal character sequence %q", tok.Literal)
	}
	args = append(args, describe(tok))
	p.failAt(diagnostics.ErrP001, tok, format+", found %s", args...)
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return "`" + tok.Literal + "`"
}

// posFrom spans from the start token to the current token.
func (p *Parser) posFrom(start token.Token) term.TermPos {
	return term.Original(term.Span{File: p.file, Start: start.Start, End: p.curToken.End})
}

func (p *Parser) posOf(tok token.Token) term.TermPos {
	return term.Original(term.Span{File: p.file, Start: tok.Start, End: tok.End})
}

func fuse(a, b term.RichTerm) term.TermPos {
	return a.Pos.Fuse(b.Pos)
}
