package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bminor/internal/diag"
	"bminor/internal/lexer"
	"bminor/internal/token"
)

// kinds extracts the Kind sequence from toks for a compact comparison
// against the expected shape of a token stream.
func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("integer x boolean auto do else", bag)
	require.False(t, bag.HasErrors())
	assert.Equal(t, []token.Kind{
		token.INT, token.IDENT, token.BOOLEAN, token.AUTO, token.DO, token.ELSE, token.EOF,
	}, kinds(toks))
}

func TestTokenizeOperatorsMaximalMunch(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("+ ++ - -- == = != ! <= < >= > && ||", bag)
	require.False(t, bag.HasErrors())
	assert.Equal(t, []token.Kind{
		token.PLUS, token.INC, token.MINUS, token.DEC,
		token.EQ, token.ASSIGN, token.NE, token.NOT,
		token.LE, token.LT, token.GE, token.GT,
		token.ANDAND, token.OROR, token.EOF,
	}, kinds(toks))
}

func TestTokenizeIntegerAndFloatLiterals(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("42 3.14 .5 1e10 1.5e-3", bag)
	require.False(t, bag.HasErrors(), "errors: %s", bag.String())
	require.Len(t, toks, 6)
	assert.Equal(t, int64(42), toks[0].Value)
	assert.Equal(t, token.INTEGER, toks[0].Kind)
	assert.Equal(t, 3.14, toks[1].Value)
	assert.Equal(t, token.FLOAT, toks[1].Kind)
	assert.Equal(t, 0.5, toks[2].Value)
	assert.Equal(t, 1e10, toks[3].Value)
	assert.Equal(t, 1.5e-3, toks[4].Value)
}

func TestTokenizeMalformedFloatReportsError(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("1.2.3", bag)
	assert.True(t, bag.HasErrors())
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestTokenizeIdentifierCannotStartWithDigit(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("1abc", bag)
	assert.True(t, bag.HasErrors())
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestTokenizeStringLiteralWithEscapes(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize(`"hello\nworld"`, bag)
	require.False(t, bag.HasErrors())
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hello\nworld", toks[0].Value)
}

func TestTokenizeUnterminatedStringReportsError(t *testing.T) {
	bag := diag.New()
	lexer.Tokenize(`"unterminated`, bag)
	assert.True(t, bag.HasErrors())
}

func TestTokenizeCharLiteral(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize(`'a' '\n' '\''`, bag)
	require.False(t, bag.HasErrors(), "errors: %s", bag.String())
	require.Len(t, toks, 4)
	assert.Equal(t, 'a', toks[0].Value)
	assert.Equal(t, '\n', toks[1].Value)
	assert.Equal(t, '\'', toks[2].Value)
}

func TestTokenizeSkipsLineAndBlockComments(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("1 // a comment\n2 /* block\nspans lines */ 3", bag)
	require.False(t, bag.HasErrors())
	assert.Equal(t, []token.Kind{token.INTEGER, token.INTEGER, token.INTEGER, token.EOF}, kinds(toks))
}

func TestTokenizeUnterminatedBlockCommentReportsError(t *testing.T) {
	bag := diag.New()
	lexer.Tokenize("/* never closed", bag)
	assert.True(t, bag.HasErrors())
}

func TestTokenizeTracksLineAndColumn(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("x\ny", bag)
	require.False(t, bag.HasErrors())
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
}

func TestTokenizeIllegalCharacterReportsErrorButContinues(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("1 @ 2", bag)
	assert.True(t, bag.HasErrors())
	// Scanning continues past the illegal byte so the parser still sees the
	// rest of the stream.
	assert.Equal(t, []token.Kind{token.INTEGER, token.ILLEGAL, token.INTEGER, token.EOF}, kinds(toks))
}

func TestTokenizeArrayDeclarationShape(t *testing.T) {
	bag := diag.New()
	toks := lexer.Tokenize("x: array[3] integer = {1, 2, 3};", bag)
	require.False(t, bag.HasErrors(), "errors: %s", bag.String())
	assert.Equal(t, []token.Kind{
		token.IDENT, token.COLON, token.ARRAY, token.LBRACKET, token.INTEGER, token.RBRACKET,
		token.INT, token.ASSIGN, token.LBRACE, token.INTEGER, token.COMMA, token.INTEGER,
		token.COMMA, token.INTEGER, token.RBRACE, token.SEMI, token.EOF,
	}, kinds(toks))
}
