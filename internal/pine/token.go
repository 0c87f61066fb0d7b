// Package pine provides the lexer, AST, and parser for the pine pipeline
// language.
//
// A pine is a chain of stages separated by "|": the first stage names the
// base table, later stages project, filter, join, group, order, or limit.
// The parser is purpose-built for the dialect: keyword-with-colon stage
// introducers ("select:"/"s:"), compound stages that name a table with no
// keyword, postfix null predicates ("?", "!?"), and numeric literals with
// underscore separators.
//
// The package is syntactic only: identifiers stay strings and nothing is
// resolved against a schema. Resolution happens in the compile package.
package pine

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_IDENT  // identifier
	TOKEN_NUMBER // 123, 4.5, 1_000_000
	TOKEN_STRING // "hello" or 'hello' (literal includes the quotes)

	TOKEN_PIPE     // |
	TOKEN_DOT      // .
	TOKEN_COMMA    // ,
	TOKEN_COLON    // : (standalone; stage keywords consume their own colon)
	TOKEN_LPAREN   // (
	TOKEN_RPAREN   // )
	TOKEN_EQ       // =
	TOKEN_NE       // !=
	TOKEN_LT       // <
	TOKEN_GT       // >
	TOKEN_LE       // <=
	TOKEN_GE       // >=
	TOKEN_QMARK    // ? (postfix is-null)
	TOKEN_NOTNULL  // !? (postfix is-not-null)
	TOKEN_PLUS     // + (order direction)
	TOKEN_MINUS    // - (order direction)

	// TOKEN_FROM and below are stage keywords. The lexer only produces them
	// when the keyword is immediately followed by a colon ("select:", "s:");
	// the colon is consumed as part of the keyword token.
	TOKEN_FROM     // from: / f:
	TOKEN_SELECT   // select: / s:
	TOKEN_UNSELECT // unselect: / u:
	TOKEN_WHERE    // where: / w:
	TOKEN_JOIN     // join: / j:
	TOKEN_GROUP    // group: / g:
	TOKEN_ORDER    // order: / o:
	TOKEN_LIMIT    // limit: / l:
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	TOKEN_EOF:     "EOF",
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_IDENT:   "IDENT",
	TOKEN_NUMBER:  "NUMBER",
	TOKEN_STRING:  "STRING",

	TOKEN_PIPE:    "|",
	TOKEN_DOT:     ".",
	TOKEN_COMMA:   ",",
	TOKEN_COLON:   ":",
	TOKEN_LPAREN:  "(",
	TOKEN_RPAREN:  ")",
	TOKEN_EQ:      "=",
	TOKEN_NE:      "!=",
	TOKEN_LT:      "<",
	TOKEN_GT:      ">",
	TOKEN_LE:      "<=",
	TOKEN_GE:      ">=",
	TOKEN_QMARK:   "?",
	TOKEN_NOTNULL: "!?",
	TOKEN_PLUS:    "+",
	TOKEN_MINUS:   "-",

	TOKEN_FROM:     "from:",
	TOKEN_SELECT:   "select:",
	TOKEN_UNSELECT: "unselect:",
	TOKEN_WHERE:    "where:",
	TOKEN_JOIN:     "join:",
	TOKEN_GROUP:    "group:",
	TOKEN_ORDER:    "order:",
	TOKEN_LIMIT:    "limit:",
}

// stageKeywords maps keyword spellings (long and short form, without the
// colon) to their token types.
var stageKeywords = map[string]TokenType{
	"from":     TOKEN_FROM,
	"f":        TOKEN_FROM,
	"select":   TOKEN_SELECT,
	"s":        TOKEN_SELECT,
	"unselect": TOKEN_UNSELECT,
	"u":        TOKEN_UNSELECT,
	"where":    TOKEN_WHERE,
	"w":        TOKEN_WHERE,
	"join":     TOKEN_JOIN,
	"j":        TOKEN_JOIN,
	"group":    TOKEN_GROUP,
	"g":        TOKEN_GROUP,
	"order":    TOKEN_ORDER,
	"o":        TOKEN_ORDER,
	"limit":    TOKEN_LIMIT,
	"l":        TOKEN_LIMIT,
}

// lookupStageKeyword returns the stage-keyword token type for the given
// identifier. Returns TOKEN_IDENT if it's not a stage keyword.
func lookupStageKeyword(ident string) TokenType {
	if tok, ok := stageKeywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// Token represents a lexical token with its literal value and the byte
// offset of its first character in the source. Offsets travel with the AST
// so the compiler can point diagnostics at the offending fragment.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}
