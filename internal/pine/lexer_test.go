package pine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains the lexer into a token slice, excluding EOF.
func collect(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer(input)
	var out []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			return out
		}
		out = append(out, tok)
		require.Less(t, len(out), 200, "runaway lexer")
	}
}

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "base_with_filter",
			input: "humans id=1",
			want:  []TokenType{TOKEN_IDENT, TOKEN_IDENT, TOKEN_EQ, TOKEN_NUMBER},
		},
		{
			name:  "pipeline",
			input: "people | s: id name",
			want:  []TokenType{TOKEN_IDENT, TOKEN_PIPE, TOKEN_SELECT, TOKEN_IDENT, TOKEN_IDENT},
		},
		{
			name:  "long_keywords",
			input: "from: people | select: id | where: id=1",
			want: []TokenType{
				TOKEN_FROM, TOKEN_IDENT, TOKEN_PIPE,
				TOKEN_SELECT, TOKEN_IDENT, TOKEN_PIPE,
				TOKEN_WHERE, TOKEN_IDENT, TOKEN_EQ, TOKEN_NUMBER,
			},
		},
		{
			name:  "comparison_operators",
			input: "a>=1 b<=2 c!=3 d>4 e<5 f=6",
			want: []TokenType{
				TOKEN_IDENT, TOKEN_GE, TOKEN_NUMBER,
				TOKEN_IDENT, TOKEN_LE, TOKEN_NUMBER,
				TOKEN_IDENT, TOKEN_NE, TOKEN_NUMBER,
				TOKEN_IDENT, TOKEN_GT, TOKEN_NUMBER,
				TOKEN_IDENT, TOKEN_LT, TOKEN_NUMBER,
				TOKEN_IDENT, TOKEN_EQ, TOKEN_NUMBER,
			},
		},
		{
			name:  "null_predicates",
			input: "id? id!?",
			want:  []TokenType{TOKEN_IDENT, TOKEN_QMARK, TOKEN_IDENT, TOKEN_NOTNULL},
		},
		{
			name:  "order_directions",
			input: "o: name+ age-",
			want: []TokenType{
				TOKEN_ORDER, TOKEN_IDENT, TOKEN_PLUS, TOKEN_IDENT, TOKEN_MINUS,
			},
		},
		{
			name:  "qualified_column",
			input: "db.people.id",
			want:  []TokenType{TOKEN_IDENT, TOKEN_DOT, TOKEN_IDENT, TOKEN_DOT, TOKEN_IDENT},
		},
		{
			name:  "function_call",
			input: "count(1)",
			want:  []TokenType{TOKEN_IDENT, TOKEN_LPAREN, TOKEN_NUMBER, TOKEN_RPAREN},
		},
		{
			name:  "keyword_needs_adjacent_colon",
			input: "s : id",
			want:  []TokenType{TOKEN_IDENT, TOKEN_COLON, TOKEN_IDENT},
		},
		{
			name:  "non_keyword_before_colon_stays_ident",
			input: "foo: id",
			want:  []TokenType{TOKEN_IDENT, TOKEN_COLON, TOKEN_IDENT},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collect(t, tt.input)
			got := make([]TokenType, 0, len(toks))
			for _, tok := range toks {
				got = append(got, tok.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexer_NumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000", "1000"},
		{"1_000_000", "1_000_000"},
		{"3.14", "3.14"},
		{"1_000.5", "1_000.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := collect(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, TOKEN_NUMBER, toks[0].Type)
			assert.Equal(t, tt.want, toks[0].Literal)
		})
	}
}

func TestLexer_StringLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"double_quoted", `"Karl"`, `"Karl"`},
		{"single_quoted", `'Karl'`, `'Karl'`},
		{"escaped_quote", `"a\"b"`, `"a\"b"`},
		{"unicode_escape", `"\u00e9"`, `"\u00e9"`},
		{"backslash_escapes", `"a\n\t\\b"`, `"a\n\t\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collect(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, TOKEN_STRING, toks[0].Type)
			// The literal keeps the raw source text, quotes included.
			assert.Equal(t, tt.want, toks[0].Literal)
		})
	}
}

func TestLexer_IllegalInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated_string", `"abc`},
		{"bad_escape", `"a\qb"`},
		{"short_unicode_escape", `"\u12"`},
		{"lone_bang", "!"},
		{"newline", "people\n| s: id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collect(t, tt.input)
			found := false
			for _, tok := range toks {
				if tok.Type == TOKEN_ILLEGAL {
					found = true
				}
			}
			assert.True(t, found, "expected an ILLEGAL token in %q", tt.input)
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	toks := collect(t, "people | s: id")
	require.Len(t, toks, 4)
	assert.Equal(t, 0, toks[0].Pos)  // people
	assert.Equal(t, 7, toks[1].Pos)  // |
	assert.Equal(t, 9, toks[2].Pos)  // s:
	assert.Equal(t, 12, toks[3].Pos) // id
}
