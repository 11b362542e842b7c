package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mipscc/internal/ast"
	"mipscc/internal/diag"
)

func TestParseSimpleFunctionDefinition(t *testing.T) {
	bag := &diag.Bag{}
	root := Parse("int add(int a, int b) { return a + b; }", bag)
	assert.False(t, bag.HasErrors())
	assert.Len(t, root.Children, 1)
	assert.Equal(t, ast.NFunctionDefinition, root.Children[0].Kind)
}

func TestParseVariableDeclarationWithInitializer(t *testing.T) {
	bag := &diag.Bag{}
	root := Parse("int x = 5;", bag)
	assert.False(t, bag.HasErrors())
	assert.Equal(t, ast.NVariableDecl, root.Children[0].Kind)
	data := root.Children[0].Data.(*ast.VariableDeclData)
	assert.NotNil(t, data.Init)
}

func TestParseCastExpressionBacktracksCleanly(t *testing.T) {
	bag := &diag.Bag{}
	root := Parse("int f() { int x; x = (int)(3.5); return x; }", bag)
	assert.False(t, bag.HasErrors())
	body := root.Children[0].Children[0]
	assert.Equal(t, ast.NScope, body.Kind)
}

func TestParseParenthesizedExpressionNotMistakenForCast(t *testing.T) {
	bag := &diag.Bag{}
	root := Parse("int f() { int x; int y; x = (y + 1); return x; }", bag)
	assert.False(t, bag.HasErrors())
}

func TestParsePointerAndArrayDeclarators(t *testing.T) {
	bag := &diag.Bag{}
	root := Parse("int *p; int arr[10];", bag)
	assert.False(t, bag.HasErrors())
	assert.Equal(t, ast.KindPointer, root.Children[0].Type.Kind)
	assert.Equal(t, ast.KindArray, root.Children[1].Type.Kind)
}

func TestParseIncludeStdio(t *testing.T) {
	bag := &diag.Bag{}
	root := Parse("#include <stdio.h>\nint main() { return 0; }", bag)
	assert.False(t, bag.HasErrors())
	assert.Equal(t, ast.NIncludeStdio, root.Children[0].Kind)
}

func TestParseLoopsAndControlStatements(t *testing.T) {
	bag := &diag.Bag{}
	root := Parse("int f() { int i; for (i = 0; i < 10; i = i + 1) { if (i == 5) break; else continue; } return 0; }", bag)
	assert.False(t, bag.HasErrors())
}
