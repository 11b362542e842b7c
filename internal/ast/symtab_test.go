package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mipscc/internal/diag"
)

func TestInsertRejectsRedeclarationInPlainScope(t *testing.T) {
	scope := NewScope(ScopePlain, nil)
	bag := &diag.Bag{}
	assert.True(t, scope.Insert("x", &Symbol{Name: "x", Type: BaseType(Int)}, diag.Position{}, bag))
	assert.False(t, scope.Insert("x", &Symbol{Name: "x", Type: BaseType(Int)}, diag.Position{}, bag))
	assert.True(t, bag.HasErrors())
}

func TestGlobalScopeAllowsInitializerRedeclaration(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	bag := &diag.Bag{}
	assert.True(t, global.Insert("x", &Symbol{Name: "x", Type: BaseType(Int)}, diag.Position{}, bag))
	assert.True(t, global.Insert("x", &Symbol{Name: "x", Type: BaseType(Int), Initialized: true}, diag.Position{}, bag))
	assert.False(t, bag.HasErrors())

	sym, _ := global.Lookup("x")
	assert.True(t, sym.Initialized)
}

func TestGlobalScopeRejectsConflictingType(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	bag := &diag.Bag{}
	global.Insert("x", &Symbol{Name: "x", Type: BaseType(Int)}, diag.Position{}, bag)
	global.Insert("x", &Symbol{Name: "x", Type: BaseType(Double)}, diag.Position{}, bag)
	assert.True(t, bag.HasErrors())
}

func TestLookupWalksParents(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	fn := NewScope(ScopeFunction, global)
	bag := &diag.Bag{}
	global.Insert("g", &Symbol{Name: "g", Type: BaseType(Int)}, diag.Position{}, bag)

	sym, owner := fn.Lookup("g")
	assert.NotNil(t, sym)
	assert.Equal(t, global, owner)
}

func TestLookupScopeFindsLoopAncestor(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	fn := NewScope(ScopeFunction, global)
	loop := NewScope(ScopeLoop, fn)
	body := NewScope(ScopePlain, loop)

	assert.True(t, body.LookupScope(ScopeLoop))
	assert.False(t, global.LookupScope(ScopeLoop))
}
