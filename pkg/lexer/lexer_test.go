package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartiknair/kalc/pkg/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()

	l := New("test.k", src)
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
		require.Less(t, len(tokens), 1000, "lexer failed to make progress")
	}
}

func TestKeywords(t *testing.T) {
	cases := []struct {
		src  string
		want token.TokenType
	}{
		{"def", token.DEF},
		{"extern", token.EXTERN},
		{"if", token.IF},
		{"then", token.THEN},
		{"else", token.ELSE},
		{"for", token.FOR},
		{"in", token.IN},
	}

	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			tokens := lexAll(t, c.src)
			require.Len(t, tokens, 2)
			assert.Equal(t, c.want, tokens[0].Type)
		})
	}
}

func TestIdentifierSideChannel(t *testing.T) {
	for _, src := range []string{"x", "foo", "definitely", "a1b2", "Thing9"} {
		t.Run(src, func(t *testing.T) {
			l := New("test.k", src)
			tok := l.Next()
			require.Equal(t, token.IDENTIFIER, tok.Type)
			assert.Equal(t, src, l.Identifier)
			assert.Equal(t, token.EOF, l.Next().Type)
		})
	}
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"0", 0},
		{"42", 42},
		{"4.5", 4.5},
		{"1.", 1},
		{".5", 0.5},
		// The `[0-9.]+` rule tolerates extra decimal points; conversion
		// reads the longest valid prefix like strtod.
		{"1.2.3", 1.2},
		{".", 0},
	}

	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			l := New("test.k", c.src)
			tok := l.Next()
			require.Equal(t, token.NUMBER, tok.Type)
			assert.Equal(t, c.want, l.Number)
		})
	}
}

func TestCommentsAreWhitespace(t *testing.T) {
	tokens := lexAll(t, "# a comment\nx # trailing\n# only a comment")
	require.Len(t, tokens, 2)
	assert.Equal(t, token.IDENTIFIER, tokens[0].Type)
	assert.Equal(t, token.EOF, tokens[1].Type)
}

func TestRawCharacterTokens(t *testing.T) {
	tokens := lexAll(t, "( + !")
	require.Len(t, tokens, 4)

	for i, want := range []byte{'(', '+', '!'} {
		assert.Equal(t, token.CHAR, tokens[i].Type)
		assert.Equal(t, want, tokens[i].Char)
		// Single-character tokens have start == end.
		assert.Equal(t, tokens[i].Span.StartCol, tokens[i].Span.EndCol)
		assert.Equal(t, tokens[i].Span.StartLine, tokens[i].Span.EndLine)
	}
}

func TestLineAndColumnAdvance(t *testing.T) {
	tokens := lexAll(t, "a\nb")
	require.Len(t, tokens, 3)

	// Zero-indexed convention: `b` starts at line 1, column 0.
	assert.Equal(t, 0, tokens[0].Span.StartLine)
	assert.Equal(t, 0, tokens[0].Span.StartCol)
	assert.Equal(t, 1, tokens[1].Span.StartLine)
	assert.Equal(t, 0, tokens[1].Span.StartCol)
}

func TestLineTerminators(t *testing.T) {
	for _, c := range []struct {
		name string
		src  string
	}{
		{"lf", "a\nb"},
		{"cr", "a\rb"},
		{"crlf", "a\r\nb"},
	} {
		t.Run(c.name, func(t *testing.T) {
			tokens := lexAll(t, c.src)
			require.Len(t, tokens, 3)
			assert.Equal(t, 1, tokens[1].Span.StartLine)
			assert.Equal(t, 0, tokens[1].Span.StartCol)
		})
	}
}

func TestMultiCharacterSpans(t *testing.T) {
	tokens := lexAll(t, "foo 42")
	require.Len(t, tokens, 3)

	// End points one past the last character.
	assert.Equal(t, 0, tokens[0].Span.StartCol)
	assert.Equal(t, 3, tokens[0].Span.EndCol)
	assert.Equal(t, 4, tokens[1].Span.StartCol)
	assert.Equal(t, 6, tokens[1].Span.EndCol)
}

func TestSpansAreMonotone(t *testing.T) {
	tokens := lexAll(t, "def f(x) x + 1 # comment\nextern g()")

	for i := 1; i < len(tokens); i++ {
		prev, cur := tokens[i-1].Span, tokens[i].Span
		after := cur.StartLine > prev.EndLine ||
			(cur.StartLine == prev.EndLine && cur.StartCol >= prev.EndCol)
		assert.True(t, after, "token %d starts before the previous one ends", i)
	}
}

func TestEOFIsReEmittable(t *testing.T) {
	l := New("test.k", "x")
	require.Equal(t, token.IDENTIFIER, l.Next().Type)
	assert.Equal(t, token.EOF, l.Next().Type)
	assert.Equal(t, token.EOF, l.Next().Type)
	assert.Equal(t, token.EOF, l.Next().Type)
}

func TestSharedFilename(t *testing.T) {
	l := New("test.k", "a b")
	first := l.Next()
	second := l.Next()
	require.NotNil(t, first.Span.Filename)
	assert.Equal(t, "test.k", *first.Span.Filename)
	assert.Same(t, first.Span.Filename, second.Span.Filename)
}
