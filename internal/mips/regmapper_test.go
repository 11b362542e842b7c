package mips

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"mipscc/internal/ast"
	"mipscc/internal/ir"
	"mipscc/internal/util"
)

func newTestWriter(t *testing.T) *util.Writer {
	w, err := util.NewWriter("")
	assert.NoError(t, err)
	return w
}

func TestLoadValueConstantUsesTempRegisterNotDescriptorTable(t *testing.T) {
	w := newTestWriter(t)
	m := NewRegisterMapper(w)
	c := &ir.ConstantInt{Ty: ast.BaseType(ast.Int), Val: 42}

	reg1 := m.LoadValue(c)
	reg2 := m.LoadValue(c)
	assert.NotEqual(t, reg1, reg2, "two consecutive constant loads must rotate temps")
	assert.Empty(t, m.classes[ClassInt].regOf, "constants must not enter the descriptor table")
}

func TestLoadValueBindingIsStable(t *testing.T) {
	w := newTestWriter(t)
	m := NewRegisterMapper(w)
	inst := &ir.Instruction{Op: ir.OpAdd, ResultTy: ast.BaseType(ast.Int)}

	reg := m.AllocDestReg(ClassOf(inst))
	m.Bind(ir.Value(inst), reg)

	again := m.LoadValue(inst)
	assert.Equal(t, reg, again)
}

func TestClassOfSelectsFloatForFloatType(t *testing.T) {
	v := &ir.ConstantFloat{Ty: ast.BaseType(ast.Double)}
	assert.Equal(t, ClassFloat, ClassOf(v))
}

func TestAllocSlotGrowsMonotonically(t *testing.T) {
	w := newTestWriter(t)
	m := NewRegisterMapper(w)
	a := m.AllocSlot()
	b := m.AllocSlot()
	assert.Equal(t, a+4, b)
}

func TestEmitModuleProducesDataAndTextSections(t *testing.T) {
	m := &ir.Module{}
	m.AddGlobal(&ir.GlobalVar{Name: "g", Ty: ast.BaseType(ast.Int)})
	fn := &ir.Function{Name: "main", ReturnTy: ast.BaseType(ast.Int)}
	fn.NewBlock("entry").Append(&ir.Instruction{Op: ir.OpReturn, Args: []ir.Value{&ir.ConstantInt{Ty: ast.BaseType(ast.Int), Val: 0}}})
	m.AddFunction(fn)

	out := filepath.Join(t.TempDir(), "out.s")
	w, err := util.NewWriter(out)
	assert.NoError(t, err)
	EmitModule(w, m)
	assert.NoError(t, w.Close())

	text, err := ioutil.ReadFile(out)
	assert.NoError(t, err)
	assert.Contains(t, string(text), ".data\n")
	assert.Contains(t, string(text), ".text\n")
}
