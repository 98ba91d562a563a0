package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kartiknair/kalc/pkg/span"
)

// Expression is a closed set of variants; child expressions are owned
// exclusively by their parent. Every node carries a span covering its whole
// subtree so diagnostics can point back into the source.
type Expression interface {
	isExpression()
	Span() span.Span
	String() string
}

type NumberLiteral struct {
	Val float64

	Sp span.Span
}

type VariableName struct {
	Name string

	Sp span.Span
}

type BinaryOp struct {
	Op  byte
	LHS Expression
	RHS Expression

	Sp span.Span
}

type FunctionCall struct {
	Callee string
	Args   []Expression

	Sp span.Span
}

type IfThenElse struct {
	Cond Expression
	Then Expression
	Else Expression

	Sp span.Span
}

type ForLoop struct {
	Counter string
	Start   Expression
	End     Expression
	Step    Expression
	Body    Expression

	Sp span.Span
}

func (*NumberLiteral) isExpression() {}
func (*VariableName) isExpression()  {}
func (*BinaryOp) isExpression()      {}
func (*FunctionCall) isExpression()  {}
func (*IfThenElse) isExpression()    {}
func (*ForLoop) isExpression()       {}

func (n *NumberLiteral) Span() span.Span { return n.Sp }
func (v *VariableName) Span() span.Span  { return v.Sp }
func (b *BinaryOp) Span() span.Span      { return b.Sp }
func (c *FunctionCall) Span() span.Span  { return c.Sp }
func (i *IfThenElse) Span() span.Span    { return i.Sp }
func (f *ForLoop) Span() span.Span       { return f.Sp }

func (n *NumberLiteral) String() string {
	return strconv.FormatFloat(n.Val, 'g', -1, 64)
}

func (v *VariableName) String() string {
	return v.Name
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %c %s)", b.LHS, b.Op, b.RHS)
}

func (c *FunctionCall) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}

func (i *IfThenElse) String() string {
	return fmt.Sprintf("if %s then %s else %s", i.Cond, i.Then, i.Else)
}

func (f *ForLoop) String() string {
	return fmt.Sprintf(
		"for %s = %s, %s, %s in %s",
		f.Counter, f.Start, f.End, f.Step, f.Body,
	)
}

// Declaration is a top-level item. Bad stands in for a declaration that
// failed to parse, so the driver can report it and move on.
type Declaration interface {
	isDeclaration()
	Span() span.Span
	String() string
}

type FunctionPrototype struct {
	Name   string
	Params []string

	Sp span.Span
}

type FunctionDefinition struct {
	Proto *FunctionPrototype
	Body  Expression

	Sp span.Span
}

type Bad struct {
	Sp span.Span
}

func (*FunctionPrototype) isDeclaration()  {}
func (*FunctionDefinition) isDeclaration() {}
func (*Bad) isDeclaration()                {}

func (p *FunctionPrototype) Span() span.Span  { return p.Sp }
func (d *FunctionDefinition) Span() span.Span { return d.Sp }
func (b *Bad) Span() span.Span                { return b.Sp }

// IsAnonymous reports whether this is the wrapper prototype for a bare
// top-level expression.
func (p *FunctionPrototype) IsAnonymous() bool {
	return p.Name == ""
}

// A prototype on its own is an extern declaration, so it prints with the
// keyword that re-parses as one.
func (p *FunctionPrototype) String() string {
	return fmt.Sprintf("extern %s(%s)", p.Name, strings.Join(p.Params, " "))
}

func (d *FunctionDefinition) String() string {
	if d.Proto.IsAnonymous() {
		return d.Body.String()
	}
	return fmt.Sprintf("def %s(%s) %s", d.Proto.Name, strings.Join(d.Proto.Params, " "), d.Body)
}

func (b *Bad) String() string {
	return "<bad declaration>"
}
