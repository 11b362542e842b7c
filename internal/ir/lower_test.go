package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mipscc/internal/ast"
	"mipscc/internal/diag"
)

func simpleFunctionNode(retTy *ast.Type, bodyStmts ...*ast.Node) *ast.Node {
	global := ast.NewScope(ast.ScopeGlobal, nil)
	fnScope := ast.NewScope(ast.ScopeFunction, global)
	fnScope.FnReturnType = retTy
	body := ast.NewNode(ast.NScope, diag.Position{}, nil, bodyStmts...)
	body.Table = fnScope

	fnType := ast.FunctionType(retTy, nil, false)
	n := ast.NewNode(ast.NFunctionDefinition, diag.Position{}, &ast.FunctionData{Name: "f"}, body)
	n.Table = global
	n.Type = fnType
	return n
}

func TestLowerFunctionProducesEntryBlock(t *testing.T) {
	ret := ast.NewNode(ast.NReturn, diag.Position{}, nil)
	ret.Table = ast.NewScope(ast.ScopeFunction, nil)
	fn := simpleFunctionNode(ast.Void(), ret)

	lw := NewLowerer()
	lw.lowerFunction(fn)

	assert.Len(t, lw.Module.Functions, 1)
	assert.Equal(t, "f", lw.Module.Functions[0].Name)
	assert.True(t, lw.Module.Functions[0].Blocks[0].IsTerminated())
}

func TestIsFloatChecksBaseFloatType(t *testing.T) {
	v := &ConstantFloat{Ty: ast.BaseType(ast.Float)}
	assert.True(t, IsFloat(v))

	v2 := &ConstantInt{Ty: ast.BaseType(ast.Int)}
	assert.False(t, IsFloat(v2))
}

func TestBasicBlockAppendDropsAfterTerminator(t *testing.T) {
	b := &BasicBlock{Name: "b"}
	b.Append(&Instruction{Op: OpReturn})
	assert.True(t, b.IsTerminated())

	b.Append(&Instruction{Op: OpAdd})
	assert.Len(t, b.Instructions, 1)
}

func TestModuleInternFloatDeduplicates(t *testing.T) {
	m := &Module{}
	seq := 0
	labelFn := func() string {
		seq++
		return "LF" + string(rune('0'+seq))
	}
	a := m.InternFloat(&ConstantFloat{Val: 1.5}, labelFn)
	b := m.InternFloat(&ConstantFloat{Val: 1.5}, labelFn)
	assert.Same(t, a, b)
	assert.Len(t, m.FloatConstants, 1)
}
