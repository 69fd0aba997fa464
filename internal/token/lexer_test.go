package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	lex := New(src)
	var toks []Token
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func TestLexerLiterals(t *testing.T) {
	toks := scanAll(t, `42 -3.5 -1e-6 "hi there" `+"`sym 'also"+` @x &y`)
	require.Equal(t, Number, toks[0].Kind)
	require.Equal(t, float32(42), toks[0].Num)
	require.Equal(t, Number, toks[1].Kind)
	require.Equal(t, float32(-3.5), toks[1].Num)
	require.Equal(t, Number, toks[2].Kind)
	require.InDelta(t, -1e-6, toks[2].Num, 1e-9)
	require.Equal(t, String, toks[3].Kind)
	require.Equal(t, "hi there", toks[3].Text)
	require.Equal(t, Symbol, toks[4].Kind)
	require.Equal(t, "sym", toks[4].Text)
	require.Equal(t, Symbol, toks[5].Kind)
	require.Equal(t, "also", toks[5].Text)
	require.Equal(t, At, toks[6].Kind)
	require.Equal(t, "x", toks[6].Text)
	require.Equal(t, Amp, toks[7].Kind)
	require.Equal(t, "y", toks[7].Text)
	require.Equal(t, EOF, toks[8].Kind)
}

func TestLexerKeywordsAndOperators(t *testing.T) {
	toks := scanAll(t, `: sq var-> dup * ; if else case of default capsule does`)
	require.Equal(t, Ident, toks[0].Kind)
	require.Equal(t, ":", toks[0].Text)
	require.True(t, IsKeyword(toks[0].Text))
	require.Equal(t, "sq", toks[1].Text)
	require.False(t, IsKeyword(toks[1].Text))
}

func TestLexerStorePaths(t *testing.T) {
	toks := scanAll(t, `[ 0 ] -> +>`)
	require.Equal(t, LBracket, toks[0].Kind)
	require.Equal(t, Number, toks[1].Kind)
	require.Equal(t, RBracket, toks[2].Kind)
	require.Equal(t, Arrow, toks[3].Kind)
	require.Equal(t, PlusArrow, toks[4].Kind)
}

func TestLexerComments(t *testing.T) {
	toks := scanAll(t, "1 \\ this is a comment\n2")
	require.Equal(t, Number, toks[0].Kind)
	require.Equal(t, float32(1), toks[0].Num)
	require.Equal(t, Number, toks[1].Kind)
	require.Equal(t, float32(2), toks[1].Num)
}

func TestLexerIdentifierShapes(t *testing.T) {
	toks := scanAll(t, "dup? drop! my-word _under")
	require.Equal(t, "dup?", toks[0].Text)
	require.Equal(t, "drop!", toks[1].Text)
	require.Equal(t, "my-word", toks[2].Text)
	require.Equal(t, "_under", toks[3].Text)
}

func TestLexerDefinitionPunctuation(t *testing.T) {
	toks := scanAll(t, ": sq dup * ;")
	require.Equal(t, Ident, toks[0].Kind)
	require.Equal(t, ":", toks[0].Text)
	require.Equal(t, Ident, toks[4].Kind)
	require.Equal(t, ";", toks[4].Text)
}

func TestLexerComparisonOperators(t *testing.T) {
	toks := scanAll(t, "< <= > >= =")
	require.Equal(t, "<", toks[0].Text)
	require.Equal(t, "<=", toks[1].Text)
	require.Equal(t, ">", toks[2].Text)
	require.Equal(t, ">=", toks[3].Text)
	require.Equal(t, "=", toks[4].Text)
}

func TestLexerHyphenPrefixedWord(t *testing.T) {
	toks := scanAll(t, "-rot 3 -")
	require.Equal(t, Ident, toks[0].Kind)
	require.Equal(t, "-rot", toks[0].Text)
	require.Equal(t, Number, toks[1].Kind)
	require.Equal(t, Ident, toks[2].Kind)
	require.Equal(t, "-", toks[2].Text)
}

func TestLexerPrintWord(t *testing.T) {
	toks := scanAll(t, "3 4 + . raw")
	require.Equal(t, Ident, toks[3].Kind)
	require.Equal(t, ".", toks[3].Text)
	require.Equal(t, Ident, toks[4].Kind)
	require.Equal(t, "raw", toks[4].Text)
}

func TestLexerUnterminatedString(t *testing.T) {
	lex := New(`"oops`)
	_, err := lex.Next()
	require.Error(t, err)
}
