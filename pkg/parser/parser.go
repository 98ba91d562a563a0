package parser

import (
	"github.com/kartiknair/kalc/pkg/ast"
	"github.com/kartiknair/kalc/pkg/lexer"
	"github.com/kartiknair/kalc/pkg/span"
	"github.com/kartiknair/kalc/pkg/token"
)

// Parser pulls one top-level declaration out of the token stream per Parse
// call, with a single token of lookahead.
type Parser struct {
	lex *lexer.Lexer
	cur token.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{lex: l}
	p.shift()
	return p
}

func (p *Parser) shift() token.Token {
	p.cur = p.lex.Next()
	return p.cur
}

// AtEnd reports whether the input is exhausted.
func (p *Parser) AtEnd() bool {
	return p.cur.Type == token.EOF
}

func (p *Parser) errorf(format string, args ...interface{}) *span.Diagnostic {
	return span.Errorf("parse-error", p.cur.Span, format, args...)
}

var binopPrecedence = map[byte]int{
	'=': 2,
	'<': 10,
	'+': 20,
	'-': 20,
	'*': 40,
	'/': 40,
}

// tokenPrecedence gives the binding power of the current token, or -1 when
// it is not an infix operator (which terminates the precedence climb).
func (p *Parser) tokenPrecedence() int {
	if p.cur.Type != token.CHAR {
		return -1
	}
	if prec, ok := binopPrecedence[p.cur.Char]; ok {
		return prec
	}
	return -1
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(0, lhs)
}

// All operators are left-associative: only a strictly tighter operator on
// the right takes the right-hand side away from the current one.
func (p *Parser) parseBinOpRHS(minPrecedence int, lhs ast.Expression) (ast.Expression, error) {
	for {
		prec := p.tokenPrecedence()
		if prec < minPrecedence {
			return lhs, nil
		}

		op := p.cur.Char
		p.shift()

		rhs, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		if prec < p.tokenPrecedence() {
			rhs, err = p.parseBinOpRHS(prec+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = &ast.BinaryOp{
			Op:  op,
			LHS: lhs,
			RHS: rhs,
			Sp:  span.Merge(lhs.Span(), rhs.Span()),
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch {
	case p.cur.Type == token.NUMBER:
		n := &ast.NumberLiteral{Val: p.lex.Number, Sp: p.cur.Span}
		p.shift()
		return n, nil
	case p.cur.Type == token.IDENTIFIER:
		return p.parseIdentifier()
	case p.cur.Type == token.IF:
		return p.parseIfThenElse()
	case p.cur.Type == token.FOR:
		return p.parseForLoop()
	case p.cur.Is('('):
		p.shift()
		contents, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.cur.Is(')') {
			return nil, p.errorf("expected ')', found %s", p.cur)
		}
		p.shift()
		return contents, nil
	}

	return nil, p.errorf("expected expression, found %s", p.cur)
}

// A lone identifier is a variable reference; one followed by `(` is a call.
func (p *Parser) parseIdentifier() (ast.Expression, error) {
	// The name has to be saved before parsing arguments, which clobber the
	// lexer's identifier slot.
	name := p.lex.Identifier
	sp := p.cur.Span
	p.shift()

	if !p.cur.Is('(') {
		return &ast.VariableName{Name: name, Sp: sp}, nil
	}
	p.shift()

	var args []ast.Expression
	if !p.cur.Is(')') {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.cur.Is(')') {
				break
			}
			if !p.cur.Is(',') {
				return nil, p.errorf("expected ')' or ',' in argument list, found %s", p.cur)
			}
			p.shift()
		}
	}

	end := p.cur.Span
	p.shift() // the ')'

	return &ast.FunctionCall{
		Callee: name,
		Args:   args,
		Sp:     span.Merge(sp, end),
	}, nil
}

func (p *Parser) parseIfThenElse() (ast.Expression, error) {
	sp := p.cur.Span
	p.shift() // 'if'

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.cur.Type != token.THEN {
		return nil, p.errorf("expected 'then', found %s", p.cur)
	}
	p.shift()

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.cur.Type != token.ELSE {
		return nil, p.errorf("expected 'else', found %s", p.cur)
	}
	p.shift()

	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.IfThenElse{
		Cond: cond,
		Then: then,
		Else: els,
		Sp:   span.Merge(sp, els.Span()),
	}, nil
}

func (p *Parser) parseForLoop() (ast.Expression, error) {
	sp := p.cur.Span
	p.shift() // 'for'

	if p.cur.Type != token.IDENTIFIER {
		return nil, p.errorf("expected loop variable name after 'for', found %s", p.cur)
	}
	counter := p.lex.Identifier
	p.shift()

	if !p.cur.Is('=') {
		return nil, p.errorf("expected '=' after loop variable, found %s", p.cur)
	}
	p.shift()

	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.cur.Is(',') {
		return nil, p.errorf("expected ',' after loop start value, found %s", p.cur)
	}
	p.shift()

	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	// The step is optional and defaults to 1.0.
	var step ast.Expression
	if p.cur.Is(',') {
		p.shift()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	} else {
		step = &ast.NumberLiteral{Val: 1, Sp: end.Span()}
	}

	if p.cur.Type != token.IN {
		return nil, p.errorf("expected 'in' after loop header, found %s", p.cur)
	}
	p.shift()

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.ForLoop{
		Counter: counter,
		Start:   start,
		End:     end,
		Step:    step,
		Body:    body,
		Sp:      span.Merge(sp, body.Span()),
	}, nil
}

// prototype ::= IDENT '(' IDENT* ')' -- parameters have no separators.
func (p *Parser) parsePrototype() (*ast.FunctionPrototype, error) {
	if p.cur.Type != token.IDENTIFIER {
		return nil, p.errorf("expected function name in prototype, found %s", p.cur)
	}
	name := p.lex.Identifier
	sp := p.cur.Span
	p.shift()

	if !p.cur.Is('(') {
		return nil, p.errorf("expected '(' in prototype, found %s", p.cur)
	}

	var params []string
	for p.shift().Type == token.IDENTIFIER {
		params = append(params, p.lex.Identifier)
	}

	if !p.cur.Is(')') {
		return nil, p.errorf("expected ')' in prototype, found %s", p.cur)
	}
	end := p.cur.Span
	p.shift()

	return &ast.FunctionPrototype{
		Name:   name,
		Params: params,
		Sp:     span.Merge(sp, end),
	}, nil
}

func (p *Parser) parseDefinition() (ast.Declaration, error) {
	sp := p.cur.Span
	p.shift() // 'def'

	proto, err := p.parsePrototype()
	if err != nil {
		return nil, err
	}

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDefinition{
		Proto: proto,
		Body:  body,
		Sp:    span.Merge(sp, body.Span()),
	}, nil
}

// Parse returns the next top-level declaration. On a parse error it skips
// one token so the next call can make progress, and returns *ast.Bad along
// with the diagnostic. At the end of input it keeps returning *ast.Bad.
func (p *Parser) Parse() (ast.Declaration, error) {
	for p.cur.Is(';') { // top-level semicolons are ignored
		p.shift()
	}

	switch p.cur.Type {
	case token.EOF:
		return &ast.Bad{Sp: p.cur.Span}, nil
	case token.DEF:
		decl, err := p.parseDefinition()
		if err != nil {
			return p.recover(err)
		}
		return decl, nil
	case token.EXTERN:
		p.shift()
		proto, err := p.parsePrototype()
		if err != nil {
			return p.recover(err)
		}
		return proto, nil
	default:
		// A bare expression becomes the body of an anonymous nullary
		// function, which gives expression tests an entry point.
		expr, err := p.parseExpression()
		if err != nil {
			return p.recover(err)
		}
		proto := &ast.FunctionPrototype{Name: "", Sp: expr.Span()}
		return &ast.FunctionDefinition{Proto: proto, Body: expr, Sp: expr.Span()}, nil
	}
}

func (p *Parser) recover(err error) (ast.Declaration, error) {
	sp := p.cur.Span
	if d, ok := err.(*span.Diagnostic); ok {
		sp = d.Span
	}
	if p.cur.Type != token.EOF {
		p.shift()
	}
	return &ast.Bad{Sp: sp}, err
}
