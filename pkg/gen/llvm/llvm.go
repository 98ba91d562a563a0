package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/kartiknair/kalc/pkg/ast"
	"github.com/kartiknair/kalc/pkg/gen"
	"github.com/kartiknair/kalc/pkg/span"
)

var _ gen.Generator = (*Generator)(nil)

// Generator lowers declarations into a single in-memory LLVM module. Every
// value in the language is a double; mutable locals (parameters and loop
// counters) live in stack slots allocated in the entry block, and the
// mem2reg pass in the emit pipeline turns those back into SSA registers.
type Generator struct {
	machine *TargetMachine
	module  *ir.Module

	fn     *ir.Func
	entry  *ir.Block
	block  *ir.Block
	blocks map[string]int

	scopes []map[string]*ir.InstAlloca
}

func New(name string, machine *TargetMachine) *Generator {
	module := ir.NewModule()
	module.SourceFilename = name
	module.TargetTriple = machine.Triple

	return &Generator{
		machine: machine,
		module:  module,
	}
}

// Module exposes the module under construction.
func (g *Generator) Module() *ir.Module {
	return g.module
}

func codegenError(sp span.Span, format string, args ...interface{}) *span.Diagnostic {
	return span.Errorf("codegen-error", sp, format, args...)
}

func (g *Generator) lookupFunc(name string) *ir.Func {
	// Anonymous wrapper functions are not resolvable by name; every bare
	// top-level expression gets a fresh one.
	if name == "" {
		return nil
	}
	for _, f := range g.module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (g *Generator) eraseFunc(f *ir.Func) {
	for i, found := range g.module.Funcs {
		if found == f {
			g.module.Funcs = append(g.module.Funcs[:i], g.module.Funcs[i+1:]...)
			return
		}
	}
}

// newBlock appends a block to the current function, uniquing the label so
// nested control flow never reuses one.
func (g *Generator) newBlock(name string) *ir.Block {
	if n, ok := g.blocks[name]; ok {
		g.blocks[name] = n + 1
		name = fmt.Sprintf("%s%d", name, n)
	} else {
		g.blocks[name] = 1
	}
	return g.fn.NewBlock(name)
}

func (g *Generator) pushScope() {
	g.scopes = append(g.scopes, make(map[string]*ir.InstAlloca))
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

func (g *Generator) bind(name string, slot *ir.InstAlloca) {
	g.scopes[len(g.scopes)-1][name] = slot
}

func (g *Generator) lookup(name string) *ir.InstAlloca {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if slot, ok := g.scopes[i][name]; ok {
			return slot
		}
	}
	return nil
}

func zero() *constant.Float {
	return constant.NewFloat(types.Double, 0)
}

// Declaration appends one top-level item to the module. Bad declarations
// were already reported by the parser and are skipped.
func (g *Generator) Declaration(decl ast.Declaration) error {
	switch d := decl.(type) {
	case *ast.FunctionPrototype:
		_, err := g.genPrototype(d)
		return err
	case *ast.FunctionDefinition:
		return g.genDefinition(d)
	case *ast.Bad:
		return nil
	}

	panic("declaration node has invalid static type")
}

// genPrototype resolves a function by name, declaring it with external
// linkage and an all-double signature if the module has not seen it yet.
// Externs may repeat, but the arity has to keep matching.
func (g *Generator) genPrototype(proto *ast.FunctionPrototype) (*ir.Func, error) {
	if existing := g.lookupFunc(proto.Name); existing != nil {
		if len(existing.Params) != len(proto.Params) {
			return nil, codegenError(
				proto.Sp,
				"function '%s' redeclared with %d parameters, previously had %d",
				proto.Name, len(proto.Params), len(existing.Params),
			)
		}
		return existing, nil
	}

	params := make([]*ir.Param, len(proto.Params))
	for i, name := range proto.Params {
		params[i] = ir.NewParam(name, types.Double)
	}

	// No explicit linkage: LLVM's default linkage is external.
	f := g.module.NewFunc(proto.Name, types.Double, params...)
	return f, nil
}

func (g *Generator) genDefinition(def *ast.FunctionDefinition) error {
	f, err := g.genPrototype(def.Proto)
	if err != nil {
		return err
	}

	if len(f.Blocks) != 0 {
		return codegenError(def.Proto.Sp, "function '%s' cannot be redefined", def.Proto.Name)
	}

	g.fn = f
	g.blocks = map[string]int{"entry": 1}
	g.entry = f.NewBlock("entry")
	g.block = g.entry

	// Fresh symbol table per function body. Parameters are spilled to
	// entry-block slots; mem2reg lifts them back out.
	g.scopes = []map[string]*ir.InstAlloca{make(map[string]*ir.InstAlloca)}
	for i, param := range f.Params {
		slot := g.entry.NewAlloca(types.Double)
		g.entry.NewStore(param, slot)
		g.bind(def.Proto.Params[i], slot)
	}

	ret, err := g.genExpression(def.Body)
	if err != nil {
		g.eraseFunc(f)
		return err
	}
	g.block.NewRet(ret)

	if err := verifyFunc(f); err != nil {
		g.eraseFunc(f)
		return codegenError(def.Sp, "%s", err)
	}

	return nil
}

func (g *Generator) genExpression(expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return constant.NewFloat(types.Double, e.Val), nil
	case *ast.VariableName:
		slot := g.lookup(e.Name)
		if slot == nil {
			return nil, codegenError(e.Sp, "unknown variable name '%s'", e.Name)
		}
		return g.block.NewLoad(types.Double, slot), nil
	case *ast.BinaryOp:
		return g.genBinaryOp(e)
	case *ast.FunctionCall:
		return g.genCall(e)
	case *ast.IfThenElse:
		return g.genIfThenElse(e)
	case *ast.ForLoop:
		return g.genForLoop(e)
	}

	panic("expression node has invalid static type")
}

func (g *Generator) genBinaryOp(e *ast.BinaryOp) (value.Value, error) {
	// Assignment stores into the slot named on the left instead of reading
	// both sides.
	if e.Op == '=' {
		target, ok := e.LHS.(*ast.VariableName)
		if !ok {
			return nil, codegenError(e.LHS.Span(), "destination of '=' must be a variable")
		}

		slot := g.lookup(target.Name)
		if slot == nil {
			return nil, codegenError(target.Sp, "unknown variable name '%s'", target.Name)
		}

		val, err := g.genExpression(e.RHS)
		if err != nil {
			return nil, err
		}

		g.block.NewStore(val, slot)
		return val, nil
	}

	lhs, err := g.genExpression(e.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := g.genExpression(e.RHS)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case '+':
		return g.block.NewFAdd(lhs, rhs), nil
	case '-':
		return g.block.NewFSub(lhs, rhs), nil
	case '*':
		return g.block.NewFMul(lhs, rhs), nil
	case '/':
		return g.block.NewFDiv(lhs, rhs), nil
	case '<':
		// The comparison yields an i1; the language only has doubles, so
		// widen true/false back to 1.0/0.0.
		cmp := g.block.NewFCmp(enum.FPredOLT, lhs, rhs)
		return g.block.NewUIToFP(cmp, types.Double), nil
	}

	return nil, codegenError(e.Sp, "invalid binary operator '%c'", e.Op)
}

func (g *Generator) genCall(e *ast.FunctionCall) (value.Value, error) {
	callee := g.lookupFunc(e.Callee)
	if callee == nil {
		return nil, codegenError(e.Sp, "unknown function '%s' referenced", e.Callee)
	}

	if len(callee.Params) != len(e.Args) {
		return nil, codegenError(
			e.Sp,
			"function '%s' takes %d arguments, %d passed",
			e.Callee, len(callee.Params), len(e.Args),
		)
	}

	args := make([]value.Value, len(e.Args))
	for i, arg := range e.Args {
		val, err := g.genExpression(arg)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	return g.block.NewCall(callee, args...), nil
}

func (g *Generator) genIfThenElse(e *ast.IfThenElse) (value.Value, error) {
	cond, err := g.genExpression(e.Cond)
	if err != nil {
		return nil, err
	}

	// Any value other than 0.0 counts as true.
	condBit := g.block.NewFCmp(enum.FPredONE, cond, zero())

	thenBlock := g.newBlock("then")
	elseBlock := g.newBlock("else")
	mergeBlock := g.newBlock("merge")
	g.block.NewCondBr(condBit, thenBlock, elseBlock)

	g.block = thenBlock
	thenVal, err := g.genExpression(e.Then)
	if err != nil {
		return nil, err
	}
	g.block.NewBr(mergeBlock)
	// Nested control flow may have moved the cursor; the phi needs the
	// block that actually branches to merge.
	thenEnd := g.block

	g.block = elseBlock
	elseVal, err := g.genExpression(e.Else)
	if err != nil {
		return nil, err
	}
	g.block.NewBr(mergeBlock)
	elseEnd := g.block

	g.block = mergeBlock
	phi := g.block.NewPhi(
		ir.NewIncoming(thenVal, thenEnd),
		ir.NewIncoming(elseVal, elseEnd),
	)
	return phi, nil
}

func (g *Generator) genForLoop(e *ast.ForLoop) (value.Value, error) {
	// The counter gets a slot in the entry block no matter how deeply the
	// loop is nested, so mem2reg can promote it.
	slot := g.entry.NewAlloca(types.Double)

	start, err := g.genExpression(e.Start)
	if err != nil {
		return nil, err
	}
	g.block.NewStore(start, slot)

	loopBlock := g.newBlock("loop")
	exitBlock := g.newBlock("loop_exit")
	g.block.NewBr(loopBlock)

	g.pushScope()
	g.bind(e.Counter, slot)
	g.block = loopBlock

	// The body's value is computed and discarded.
	if _, err := g.genExpression(e.Body); err != nil {
		return nil, err
	}

	step, err := g.genExpression(e.Step)
	if err != nil {
		return nil, err
	}
	cur := g.block.NewLoad(types.Double, slot)
	g.block.NewStore(g.block.NewFAdd(cur, step), slot)

	end, err := g.genExpression(e.End)
	if err != nil {
		return nil, err
	}
	again := g.block.NewFCmp(enum.FPredONE, end, zero())
	g.block.NewCondBr(again, loopBlock, exitBlock)

	g.popScope()
	g.block = exitBlock

	// A for expression always evaluates to 0.0.
	return zero(), nil
}
