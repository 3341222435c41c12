package filterexpr

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// FilterLexer defines the token types of filter expressions.
var FilterLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Keywords, matched case-insensitively
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|IS|NULL|IN|LIKE|TRUE|FALSE)\b`},

	// Literals
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},

	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},

	{Name: "Operator", Pattern: `<=|>=|!=|<>|=|<|>`},
	{Name: "Punct", Pattern: `[(),]`},

	{Name: "Whitespace", Pattern: `\s+`},
})
