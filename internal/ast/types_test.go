package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mipscc/internal/diag"
)

func TestEqualIgnoresConst(t *testing.T) {
	a := BaseType(Int)
	b := &Type{Kind: KindBase, Base: Int, IsConst: true}
	assert.True(t, Equal(a, b))
}

func TestCombineArithmeticWidensToMaxRank(t *testing.T) {
	bag := &diag.Bag{}
	result := Combine(OpAdd, BaseType(Int), BaseType(Double), diag.Position{}, bag)
	assert.False(t, bag.HasErrors())
	assert.Equal(t, Double, result.Base)
}

func TestCombinePointerArithmeticKeepsPointerType(t *testing.T) {
	bag := &diag.Bag{}
	ptr := PointerTo(BaseType(Int))
	result := Combine(OpAdd, ptr, BaseType(Int), diag.Position{}, bag)
	assert.False(t, bag.HasErrors())
	assert.True(t, Equal(result, ptr))
}

func TestCombineTwoPointersOnlyAllowsComparison(t *testing.T) {
	bag := &diag.Bag{}
	ptr := PointerTo(BaseType(Int))
	Combine(OpAdd, ptr, ptr, diag.Position{}, bag)
	assert.True(t, bag.HasErrors())

	bag2 := &diag.Bag{}
	result := Combine(OpEq, ptr, ptr, diag.Position{}, bag2)
	assert.False(t, bag2.HasErrors())
	assert.Equal(t, Int, result.Base)
}

func TestConvertVoidMismatchIsError(t *testing.T) {
	bag := &diag.Bag{}
	ok := Convert(Void(), BaseType(Int), false, diag.Position{}, bag)
	assert.False(t, ok)
	assert.True(t, bag.HasErrors())
}

func TestConvertNarrowingEmitsWarningNotError(t *testing.T) {
	bag := &diag.Bag{}
	ok := Convert(BaseType(Long), BaseType(Char), false, diag.Position{}, bag)
	assert.True(t, ok)
	assert.False(t, bag.HasErrors())
	assert.Len(t, bag.Warnings(), 1)
	assert.Equal(t, diag.NarrowingWarning, bag.Warnings()[0].Kind)
}

func TestConvertPointerToFloatIsError(t *testing.T) {
	bag := &diag.Bag{}
	ok := Convert(PointerTo(BaseType(Int)), BaseType(Float), false, diag.Position{}, bag)
	assert.False(t, ok)
}

func TestUnaryDerefRequiresPointer(t *testing.T) {
	bag := &diag.Bag{}
	result := Unary(OpDeref, BaseType(Int), diag.Position{}, bag)
	assert.Nil(t, result)
	assert.True(t, bag.HasErrors())
}

func TestUnaryAddressOfWrapsInPointer(t *testing.T) {
	bag := &diag.Bag{}
	result := Unary(OpAddressOf, BaseType(Int), diag.Position{}, bag)
	assert.False(t, bag.HasErrors())
	assert.Equal(t, KindPointer, result.Kind)
}
