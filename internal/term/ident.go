package term

import (
	"strings"

	"github.com/google/uuid"
)

// Ident is a variable or field name.
type Ident string

// generatedPrefix cannot start an identifier in source code, so fresh
// identifiers never clash with user bindings.
const generatedPrefix = "%"

// FreshIdent returns an identifier that is unique for the whole process.
func FreshIdent() Ident {
	return Ident(generatedPrefix + uuid.NewString())
}

// IsGenerated reports whether the identifier was produced by FreshIdent.
func (i Ident) IsGenerated() bool {
	return strings.HasPrefix(string(i), generatedPrefix)
}

func (i Ident) String() string { return string(i) }
