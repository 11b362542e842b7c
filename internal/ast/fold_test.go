package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mipscc/internal/diag"
)

func intLit(v int64, scope *Scope) *Node {
	n := NewNode(NLiteral, diag.Position{}, nil)
	n.Table = scope
	n.Type = BaseType(Int)
	n.Folded = &Literal{Type: BaseType(Int), Int: v}
	return n
}

func TestFoldBinaryPropagatesConstants(t *testing.T) {
	scope := NewScope(ScopeGlobal, nil)
	bag := &diag.Bag{}
	n := NewNode(NBinary, diag.Position{}, &BinaryData{Op: OpAdd, Lhs: intLit(2, scope), Rhs: intLit(3, scope)})
	n.Table = scope
	n.Type = BaseType(Int)

	folded := Fold(n, bag)
	assert.Equal(t, NLiteral, folded.Kind)
	assert.EqualValues(t, 5, folded.Folded.Int)
}

func TestFoldIsIdempotent(t *testing.T) {
	scope := NewScope(ScopeGlobal, nil)
	bag := &diag.Bag{}
	build := func() *Node {
		n := NewNode(NBinary, diag.Position{}, &BinaryData{Op: OpMul, Lhs: intLit(6, scope), Rhs: intLit(7, scope)})
		n.Table = scope
		n.Type = BaseType(Int)
		return n
	}

	once := Fold(build(), bag)
	twice := Fold(once, bag)
	assert.Equal(t, once.Folded.Int, twice.Folded.Int)
}

func TestFoldIfCollapsesToThenBranch(t *testing.T) {
	scope := NewScope(ScopeFunction, nil)
	bag := &diag.Bag{}
	thenBranch := NewNode(NScope, diag.Position{}, nil)
	thenBranch.Table = NewScope(ScopePlain, scope)
	elseBranch := NewNode(NScope, diag.Position{}, nil)
	elseBranch.Table = NewScope(ScopePlain, scope)

	n := NewNode(NIf, diag.Position{}, &IfData{Cond: intLit(1, scope), Then: thenBranch, Else: elseBranch})
	folded := Fold(n, bag)
	assert.Same(t, thenBranch, folded)
}

func TestFoldLoopWithFalseConditionIsRemoved(t *testing.T) {
	scope := NewScope(ScopeFunction, nil)
	bag := &diag.Bag{}
	body := NewNode(NScope, diag.Position{}, nil)
	body.Table = NewScope(ScopeLoop, scope)

	n := NewNode(NLoop, diag.Position{}, &LoopData{Cond: intLit(0, scope), Body: body})
	assert.Nil(t, Fold(n, bag))
}

func TestFoldScopeDropsStatementsAfterReturn(t *testing.T) {
	fnScope := NewScope(ScopeFunction, nil)
	bag := &diag.Bag{}
	ret := NewNode(NReturn, diag.Position{}, nil)
	after := NewNode(NVariableDecl, diag.Position{}, &VariableDeclData{Name: "dead"})
	after.Table = fnScope
	after.Type = BaseType(Int)
	fnScope.Insert("dead", &Symbol{Name: "dead", Type: BaseType(Int)}, diag.Position{}, bag)

	scope := NewNode(NScope, diag.Position{}, nil, ret, after)
	scope.Table = fnScope

	folded := Fold(scope, bag)
	assert.Len(t, folded.Children, 1)
	assert.Equal(t, NReturn, folded.Children[0].Kind)
}
