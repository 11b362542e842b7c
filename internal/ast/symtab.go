package ast

import (
	"mipscc/internal/diag"
)

// ScopeKind classifies a Scope per spec.md §3.2.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeLoop
	ScopePlain
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeLoop:
		return "loop"
	case ScopePlain:
		return "plain"
	default:
		return "?scope"
	}
}

// Symbol is one entry in a Scope, grounded on the teacher's ir.Symbol but
// widened with the extra bookkeeping the fold pass and register mapper need.
type Symbol struct {
	Name     string
	Type     *Type
	Literal  *Literal // non-nil once a constant initializer has been folded
	Initialized bool
	Used        bool
	DerefTaken  bool // address-of observed; blocks dead-store elimination

	// Handle is a slot for a backend-specific storage descriptor. No stage
	// sets it: IR lowering keeps its own symbol-to-slot map, so Handle stays
	// nil. The semantic core never inspects its contents.
	Handle interface{}
}

// Literal is the TypeVariant-tagged constant value produced by the fold
// pass and stored directly on a Symbol or a folded Node.
type Literal struct {
	Type   *Type
	Int    int64
	Float  float64
	String string
}

// Scope is one node of the symbol table tree.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	entries map[string]*Symbol
	order   []string // insertion order, as returned by Names

	// FnReturnType is set on a Function-kind scope to the enclosing
	// function's declared return type, so Return statements deep inside
	// nested Plain/Loop scopes can validate against it without threading it
	// through every Check call.
	FnReturnType *Type
}

// NewScope allocates a child scope of the given kind.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, entries: make(map[string]*Symbol)}
}

// Insert adds sym under name, applying the redeclaration policy from
// spec.md §3.2: a redeclaration in the same scope fails, except in Global
// scope where an identical-type redeclaration is allowed to add an
// initializer to a previously uninitialized entry.
func (s *Scope) Insert(name string, sym *Symbol, pos diag.Position, bag *diag.Bag) bool {
	if existing, ok := s.entries[name]; ok {
		if s.Kind != ScopeGlobal {
			bag.Addf(diag.SemanticError, pos, "redeclaration of %q in this scope", name)
			return false
		}
		if !Equal(existing.Type, sym.Type) {
			bag.Addf(diag.SemanticError, pos, "conflicting redeclaration of %q: %s vs %s", name, existing.Type, sym.Type)
			return false
		}
		if existing.Initialized && sym.Initialized {
			bag.Addf(diag.SemanticError, pos, "redefinition of %q", name)
			return false
		}
		if sym.Initialized {
			existing.Initialized = true
			existing.Literal = sym.Literal
		}
		return true
	}
	s.entries[name] = sym
	s.order = append(s.order, name)
	return true
}

// Lookup walks s and its ancestors for name.
func (s *Scope) Lookup(name string) (*Symbol, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym, ok := sc.entries[name]; ok {
			return sym, sc
		}
	}
	return nil, nil
}

// LookupLocal looks up name only within s, without walking parents.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.entries[name]
	return sym, ok
}

// LookupScope reports whether s or any ancestor has the given kind,
// backing the break/continue/return validation of spec.md §3.2 and §4.2.
func (s *Scope) LookupScope(kind ScopeKind) bool {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.Kind == kind {
			return true
		}
	}
	return false
}

// EnclosingFunction returns the nearest ancestor Function-kind scope, used
// to resolve the return type a Return statement must convert to.
func (s *Scope) EnclosingFunction() *Scope {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.Kind == ScopeFunction {
			return sc
		}
	}
	return nil
}

// Names returns the entries of s in insertion order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Remove deletes name from s and from its insertion order. The fold pass
// drops unused declaration nodes but does not call Remove.
func (s *Scope) Remove(name string) {
	if _, ok := s.entries[name]; !ok {
		return
	}
	delete(s.entries, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
