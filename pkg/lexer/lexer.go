package lexer

import (
	"strconv"

	"github.com/kartiknair/kalc/pkg/span"
	"github.com/kartiknair/kalc/pkg/token"
)

// Lexer walks a source string one token per Next call. The text of the last
// identifier and the value of the last number are published on the struct;
// the parser reads them immediately after seeing the corresponding token.
type Lexer struct {
	filename *string
	source   string
	current  int
	line     int
	col      int

	Identifier string
	Number     float64
}

func New(filename string, source string) *Lexer {
	return &Lexer{filename: &filename, source: source}
}

// Filename returns the shared name attached to every span this lexer makes.
func (l *Lexer) Filename() *string {
	return l.filename
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) peek() byte {
	return l.source[l.current]
}

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++

	if c == '\n' || c == '\r' {
		if c == '\r' && !l.isAtEnd() && l.source[l.current] == '\n' {
			l.current++ // CRLF is a single terminator
		}
		l.line++
		l.col = 0
	} else {
		l.col++
	}

	return c
}

func (l *Lexer) spanFrom(startLine, startCol int) span.Span {
	return span.New(l.filename, startLine, startCol, l.line, l.col)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// The number rule is the classic `[0-9.]+`, so "1.2.3" lexes as a single
// token. strconv rejects it outright where strtod would read the longest
// valid prefix, so fall back to trimming until a prefix converts.
func parseDouble(text string) float64 {
	v, err := strconv.ParseFloat(text, 64)
	if err == nil {
		return v
	}

	for i := len(text) - 1; i > 0; i-- {
		if v, err := strconv.ParseFloat(text[:i], 64); err == nil {
			return v
		}
	}

	return 0
}

// Next advances the input by one token. Once the input is exhausted it keeps
// returning EOF.
func (l *Lexer) Next() token.Token {
	for !l.isAtEnd() && isSpace(l.peek()) {
		l.advance()
	}

	startLine, startCol := l.line, l.col

	if l.isAtEnd() {
		return token.Token{Type: token.EOF, Span: l.spanFrom(startLine, startCol)}
	}

	c := l.peek()

	if isAlpha(c) {
		start := l.current
		for !l.isAtEnd() && isAlphaNumeric(l.peek()) {
			l.advance()
		}

		text := l.source[start:l.current]
		l.Identifier = text
		sp := l.spanFrom(startLine, startCol)

		for i, kw := range token.Keywords {
			if kw == text {
				return token.Token{
					Type: token.TokenType(int(token.KEYWORD_BEGIN) + i + 1),
					Span: sp,
				}
			}
		}

		return token.Token{Type: token.IDENTIFIER, Span: sp}
	}

	if isDigit(c) || c == '.' {
		start := l.current
		for !l.isAtEnd() && (isDigit(l.peek()) || l.peek() == '.') {
			l.advance()
		}

		l.Number = parseDouble(l.source[start:l.current])
		return token.Token{Type: token.NUMBER, Span: l.spanFrom(startLine, startCol)}
	}

	if c == '#' {
		for !l.isAtEnd() && l.peek() != '\n' && l.peek() != '\r' {
			l.advance()
		}
		return l.Next()
	}

	l.advance()
	return token.Token{
		Type: token.CHAR,
		Char: c,
		Span: span.New(l.filename, startLine, startCol, startLine, startCol),
	}
}
