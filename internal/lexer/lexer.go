package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/nickel/internal/token"
)

type Lexer struct {
	input        string
	offset       int  // byte offset of input inside the enclosing source
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	return NewWithOffset(input, 0)
}

// NewWithOffset lexes a fragment that starts at byte offset in its source,
// so that token offsets stay relative to the whole source.
func NewWithOffset(input string, offset int) *Lexer {
	l := &Lexer{input: input, offset: offset, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// Tokenize returns all tokens up to and including EOF.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	start, line, col := l.position, l.line, l.column
	mk := func(t token.TokenType, lit string) token.Token {
		return token.Token{Type: t, Literal: lit, Start: l.offset + start, End: l.offset + l.position, Line: line, Column: col}
	}
	// two consumes the current and next char as one token
	two := func(t token.TokenType) token.Token {
		l.readChar()
		l.readChar()
		return mk(t, l.input[start:l.position])
	}
	one := func(t token.TokenType) token.Token {
		l.readChar()
		return mk(t, l.input[start:l.position])
	}

	if l.atEOF() {
		return mk(token.EOF, "")
	}

	switch l.ch {
	case '=':
		switch l.peekChar() {
		case '=':
			return two(token.EQ)
		case '>':
			return two(token.DOUBLE_ARROW)
		}
		return one(token.ASSIGN)
	case '+':
		if l.peekChar() == '+' {
			return two(token.CONCAT)
		}
		return one(token.PLUS)
	case '-':
		return one(token.MINUS)
	case '*':
		return one(token.ASTERISK)
	case '/':
		return one(token.SLASH)
	case '%':
		if isLetter(l.peekChar()) {
			return l.readPrimop(mk)
		}
		return one(token.PERCENT)
	case '@':
		return one(token.AT)
	case '!':
		if l.peekChar() == '=' {
			return two(token.NOT_EQ)
		}
		return one(token.BANG)
	case '<':
		if l.peekChar() == '=' {
			return two(token.LTE)
		}
		return one(token.LT)
	case '>':
		if l.peekChar() == '=' {
			return two(token.GTE)
		}
		return one(token.GT)
	case '&':
		if l.peekChar() == '&' {
			return two(token.AND)
		}
		return one(token.AMP)
	case '|':
		if l.peekChar() == '|' {
			return two(token.OR)
		}
		return one(token.PIPE)
	case '(':
		return one(token.LPAREN)
	case ')':
		return one(token.RPAREN)
	case '{':
		return one(token.LBRACE)
	case '}':
		return one(token.RBRACE)
	case '[':
		return one(token.LBRACKET)
	case ']':
		return one(token.RBRACKET)
	case ',':
		return one(token.COMMA)
	case '.':
		return one(token.DOT)
	case ':':
		return one(token.COLON)
	case '`':
		l.readChar()
		if !isLetter(l.ch) {
			return mk(token.ILLEGAL, "`")
		}
		ident := l.readIdentifier()
		return mk(token.ENUM_TAG, ident)
	case '"':
		content, ok := l.readString()
		if !ok {
			return mk(token.ILLEGAL, l.input[start:l.position])
		}
		return mk(token.STRING, content)
	}

	if l.ch == '_' && !isIdentChar(l.peekChar()) {
		return one(token.UNDERSCORE)
	}
	if isLetter(l.ch) || l.ch == '_' {
		ident := l.readIdentifier()
		return mk(token.LookupIdent(ident), ident)
	}
	if isDigit(l.ch) {
		return mk(token.NUMBER, l.readNumber())
	}
	return one(token.ILLEGAL)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		switch {
		case unicode.IsSpace(l.ch):
			l.readChar()
		case l.ch == '#':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readPrimop(mk func(token.TokenType, string) token.Token) token.Token {
	l.readChar() // %
	name := l.readIdentifier()
	if l.ch != '%' {
		return mk(token.ILLEGAL, "%"+name)
	}
	l.readChar()
	return mk(token.PRIMOP, name)
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for !l.atEOF() && isIdentChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '-' || next == '+' {
			l.readChar()
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.position]
}

// readString consumes a string literal, including nested interpolations,
// and returns its raw content. The boolean is false for unterminated strings.
func (l *Lexer) readString() (string, bool) {
	l.readChar() // opening quote
	start := l.position
	depth := 0
	for !l.atEOF() {
		switch {
		case l.ch == '\\':
			l.readChar()
		case depth == 0 && l.ch == '"':
			content := l.input[start:l.position]
			l.readChar()
			return content, true
		case l.ch == '%' && l.peekChar() == '{':
			depth++
			l.readChar()
		case depth > 0 && l.ch == '{':
			depth++
		case depth > 0 && l.ch == '}':
			depth--
		case depth > 0 && l.ch == '"':
			if _, ok := l.readString(); !ok {
				return "", false
			}
			continue
		}
		l.readChar()
	}
	return "", false
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentChar(ch rune) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '\''
}
