// Package ast implements the semantic core of the compiler: the type
// algebra, the lexically scoped symbol table, the AST node shapes, and the
// three ordered passes (fill, check, fold) described in spec.md §3-§4.
package ast

import (
	"fmt"

	"mipscc/internal/diag"
)

// Kind tags the variant of a Type.
type Kind int

const (
	KindVoid Kind = iota
	KindBase
	KindPointer
	KindArray
	KindFunction
)

// BaseKind enumerates the scalar base types, ordered by widening rank:
// Char < Short < Int < Long < Float < Double.
type BaseKind int

const (
	Char BaseKind = iota
	Short
	Int
	Long
	Float
	Double
)

func (b BaseKind) String() string {
	switch b {
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return "?basekind"
	}
}

// IsFloat reports whether b is one of the floating point base kinds.
func (b BaseKind) IsFloat() bool {
	return b == Float || b == Double
}

// Type is the tagged sum described in spec.md §3.1.
type Type struct {
	Kind     Kind
	Base     BaseKind // valid when Kind == KindBase
	Elem     *Type    // inner type for KindPointer / KindArray
	Len      *int     // array length; nil means unknown/incomplete
	Params   []*Type  // parameter types for KindFunction
	Ret      *Type    // return type for KindFunction
	Variadic bool     // KindFunction only
	IsConst  bool
}

// Void, the absence of a value. Never a variable's declared type.
func Void() *Type { return &Type{Kind: KindVoid} }

// BaseType constructs a scalar type of the given kind.
func BaseType(b BaseKind) *Type { return &Type{Kind: KindBase, Base: b} }

// PointerTo constructs a non-const pointer to inner.
func PointerTo(inner *Type) *Type { return &Type{Kind: KindPointer, Elem: inner} }

// ArrayOf constructs an array of element type elem. length is nil for an
// incomplete array (e.g. a declaration written `int a[];`).
func ArrayOf(elem *Type, length *int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: length}
}

// FunctionType constructs the type of a function symbol. Per spec.md §3.1
// this variant only ever appears as the type of an identifier in the symbol
// table, never nested inside another type constructor.
func FunctionType(ret *Type, params []*Type, variadic bool) *Type {
	return &Type{Kind: KindFunction, Ret: ret, Params: params, Variadic: variadic}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	prefix := ""
	if t.IsConst {
		prefix = "const "
	}
	switch t.Kind {
	case KindVoid:
		return prefix + "void"
	case KindBase:
		return prefix + t.Base.String()
	case KindPointer:
		return prefix + t.Elem.String() + "*"
	case KindArray:
		if t.Len != nil {
			return fmt.Sprintf("%s%s[%d]", prefix, t.Elem.String(), *t.Len)
		}
		return fmt.Sprintf("%s%s[]", prefix, t.Elem.String())
	case KindFunction:
		return fmt.Sprintf("%s(...) -> %s", prefix, t.Ret.String())
	default:
		return "?type"
	}
}

// Equal reports structural equality, ignoring the const qualifier as
// required by spec.md §3.1.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindVoid:
		return true
	case KindBase:
		return a.Base == b.Base
	case KindPointer:
		return Equal(a.Elem, b.Elem)
	case KindArray:
		if (a.Len == nil) != (b.Len == nil) {
			return false
		}
		if a.Len != nil && *a.Len != *b.Len {
			return false
		}
		return Equal(a.Elem, b.Elem)
	case KindFunction:
		if len(a.Params) != len(b.Params) || a.Variadic != b.Variadic {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(a.Ret, b.Ret)
	}
	return false
}

// Deref returns the inner type of a Pointer or Array type. It is undefined
// (and panics) for any other Kind: callers must only invoke it where the
// type algebra already guarantees one of those two kinds.
func Deref(t *Type) *Type {
	switch t.Kind {
	case KindPointer, KindArray:
		return t.Elem
	default:
		panic(fmt.Sprintf("internal error: Deref called on non-pointer, non-array type %s", t))
	}
}

// rank returns the widening rank of a base type; higher ranks are wider.
func rank(b BaseKind) int { return int(b) }

// UnaryOp enumerates the unary operators of spec.md §4.1.
type UnaryOp int

const (
	OpDeref UnaryOp = iota
	OpAddressOf
	OpLogicalNot
	OpUnaryPlus
	OpUnaryNeg
)

// Unary implements the `unary(op, T)` rules of spec.md §4.1.
func Unary(op UnaryOp, t *Type, pos diag.Position, bag *diag.Bag) *Type {
	switch op {
	case OpDeref:
		if t.Kind != KindPointer {
			bag.Addf(diag.SemanticError, pos, "cannot dereference non-pointer type %s", t)
			return nil
		}
		return cloneConst(t.Elem, false)
	case OpAddressOf:
		return &Type{Kind: KindPointer, Elem: t}
	case OpLogicalNot:
		return BaseType(Int)
	case OpUnaryPlus, OpUnaryNeg:
		if t.Kind == KindPointer || t.Kind == KindArray {
			bag.Addf(diag.SemanticError, pos, "unary operator not defined for pointer type %s", t)
			return nil
		}
		return cloneConst(t, false)
	default:
		bag.Addf(diag.InternalError, pos, "unknown unary operator %d", op)
		return nil
	}
}

// BinaryOp enumerates the binary operators of spec.md §4.1. Logical
// operators (&&, ||) always yield Int regardless of operand types: Combine
// returns Int for them before inspecting the operands.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpLogicalAnd
	OpLogicalOr
)

func isComparison(op BinaryOp) bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe, OpEq, OpNe:
		return true
	default:
		return false
	}
}

func isLogical(op BinaryOp) bool {
	return op == OpLogicalAnd || op == OpLogicalOr
}

// Combine implements the `combine(op, L, R)` rules of spec.md §4.1.
func Combine(op BinaryOp, l, r *Type, pos diag.Position, bag *diag.Bag) *Type {
	if isLogical(op) {
		return BaseType(Int)
	}

	if l.Kind == KindBase && r.Kind == KindBase {
		if op == OpMod && (l.Base.IsFloat() || r.Base.IsFloat()) {
			bag.Addf(diag.SemanticError, pos, "modulo not defined for floating point operands")
			return nil
		}
		if isComparison(op) {
			return BaseType(Int)
		}
		if rank(l.Base) >= rank(r.Base) {
			return BaseType(l.Base)
		}
		return BaseType(r.Base)
	}

	if l.Kind == KindPointer && r.Kind == KindPointer {
		if !isComparison(op) {
			bag.Addf(diag.SemanticError, pos, "invalid operands: %s %s %s", l, opSym(op), r)
			return nil
		}
		return BaseType(Int)
	}

	if l.Kind == KindPointer && r.Kind == KindBase {
		if op == OpAdd || op == OpSub {
			return l
		}
	}
	if l.Kind == KindBase && r.Kind == KindPointer {
		if op == OpAdd {
			return r
		}
	}

	bag.Addf(diag.SemanticError, pos, "invalid operands: %s %s %s", l, opSym(op), r)
	return nil
}

func opSym(op BinaryOp) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	default:
		return "?op"
	}
}

// Convert implements the `convert(from, to, isCast)` rules of spec.md §4.1.
// It reports diagnostics into bag and returns false if the conversion is
// disallowed outright (an error was raised); allowed-but-flagged
// conversions report a warning and return true.
func Convert(from, to *Type, isCast bool, pos diag.Position, bag *diag.Bag) bool {
	fromVoid := from.Kind == KindVoid
	toVoid := to.Kind == KindVoid
	if fromVoid != toVoid {
		bag.Addf(diag.ConversionError, pos, "cannot convert between void and %s", pick(fromVoid, to, from))
		return false
	}
	if fromVoid && toVoid {
		return true
	}

	fromPtr := from.Kind == KindPointer || from.Kind == KindArray
	toPtr := to.Kind == KindPointer || to.Kind == KindArray
	fromFloat := from.Kind == KindBase && from.Base.IsFloat()
	toFloat := to.Kind == KindBase && to.Base.IsFloat()

	if (fromPtr && toFloat) || (fromFloat && toPtr) {
		bag.Addf(diag.ConversionError, pos, "cannot convert between pointer and floating point type (%s to %s)", from, to)
		return false
	}

	if fromPtr && to.Kind == KindBase && !isCast {
		if to.Base == Char {
			bag.Addf(diag.NarrowingWarning, pos, "narrowing conversion from pointer %s to char", from)
		} else {
			bag.Addf(diag.PointerConversionWarning, pos, "conversion from pointer %s to integral %s", from, to)
		}
		return true
	}
	if from.Kind == KindBase && toPtr && !isCast {
		bag.Addf(diag.PointerConversionWarning, pos, "conversion from integral %s to pointer %s", from, to)
		return true
	}

	if fromPtr && toPtr && !isCast {
		if !Equal(Deref(from), Deref(to)) {
			bag.Addf(diag.PointerConversionWarning, pos, "conversion between distinct pointer types %s and %s", from, to)
		}
		return true
	}

	if from.Kind == KindBase && to.Kind == KindBase && !isCast {
		if rank(to.Base) < rank(from.Base) {
			bag.Addf(diag.NarrowingWarning, pos, "narrowing conversion from %s to %s", from, to)
		}
		return true
	}

	return true
}

func pick(cond bool, a, b *Type) *Type {
	if cond {
		return a
	}
	return b
}

func cloneConst(t *Type, isConst bool) *Type {
	cp := *t
	cp.IsConst = isConst
	return &cp
}
