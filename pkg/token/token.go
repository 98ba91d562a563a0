package token

import (
	"fmt"

	"github.com/kartiknair/kalc/pkg/span"
)

type TokenType int

const (
	EOF TokenType = iota
	IDENTIFIER
	NUMBER

	// CHAR covers every character the lexer does not recognize, which is
	// how punctuation and operators reach the parser.
	CHAR

	KEYWORD_BEGIN
	DEF
	EXTERN
	IF
	THEN
	ELSE
	FOR
	IN
	KEYWORD_END
)

var Keywords = [...]string{
	"def",
	"extern",
	"if",
	"then",
	"else",
	"for",
	"in",
}

type Token struct {
	Type TokenType
	Char byte // only set for CHAR tokens
	Span span.Span
}

// Is reports whether the token is the given raw character.
func (t Token) Is(c byte) bool {
	return t.Type == CHAR && t.Char == c
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of file"
	case IDENTIFIER:
		return "identifier"
	case NUMBER:
		return "number"
	case CHAR:
		return fmt.Sprintf("'%c'", t.Char)
	}

	if t.Type > KEYWORD_BEGIN && t.Type < KEYWORD_END {
		return fmt.Sprintf("'%s'", Keywords[t.Type-KEYWORD_BEGIN-1])
	}

	return "invalid token"
}
