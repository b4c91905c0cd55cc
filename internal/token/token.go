package token

import "fmt"

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	IDENT    TokenType = "IDENT"
	NUMBER   TokenType = "NUMBER"
	STRING   TokenType = "STRING"   // raw content between quotes, interpolations included
	ENUM_TAG TokenType = "ENUM_TAG" // `tag
	PRIMOP   TokenType = "PRIMOP"   // %name%

	// Keywords
	LET    TokenType = "LET"
	REC    TokenType = "REC"
	IN     TokenType = "IN"
	FUN    TokenType = "FUN"
	IF     TokenType = "IF"
	THEN   TokenType = "THEN"
	ELSE   TokenType = "ELSE"
	SWITCH TokenType = "SWITCH"
	IMPORT TokenType = "IMPORT"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"

	// Delimiters
	LPAREN       TokenType = "("
	RPAREN       TokenType = ")"
	LBRACE       TokenType = "{"
	RBRACE       TokenType = "}"
	LBRACKET     TokenType = "["
	RBRACKET     TokenType = "]"
	COMMA        TokenType = ","
	DOT          TokenType = "."
	ASSIGN       TokenType = "="
	DOUBLE_ARROW TokenType = "=>"
	COLON        TokenType = ":"
	PIPE         TokenType = "|"
	UNDERSCORE   TokenType = "_"

	// Operators
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	CONCAT   TokenType = "++"
	AT       TokenType = "@"
	EQ       TokenType = "=="
	NOT_EQ   TokenType = "!="
	LT       TokenType = "<"
	LTE      TokenType = "<="
	GT       TokenType = ">"
	GTE      TokenType = ">="
	AND      TokenType = "&&"
	OR       TokenType = "||"
	BANG     TokenType = "!"
	AMP      TokenType = "&"
)

var keywords = map[string]TokenType{
	"let":    LET,
	"rec":    REC,
	"in":     IN,
	"fun":    FUN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"switch": SWITCH,
	"import": IMPORT,
	"true":   TRUE,
	"false":  FALSE,
}

// LookupIdent returns the keyword type of ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Token is a lexeme with its location. Start and End are byte offsets.
type Token struct {
	Type    TokenType
	Literal string
	Start   int
	End     int
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Literal, t.Line, t.Column)
}
