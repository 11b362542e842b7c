package ast

import "mipscc/internal/diag"

// Fold is the third AST pass: a tree rewrite that propagates constants,
// collapses statically-decidable control flow, discards dead code, and
// records literal initializers onto their symbols. It returns the
// (possibly nil) node that should replace n in its parent's child list.
//
// Folding is idempotent: re-running Fold on an already-folded tree returns
// the same shape, since every rewrite rule is a fixed point once no further
// constant propagation is possible. Grounded on the teacher's
// src/ir/optimise.go constantFolding/flattenList/deleteLonelyNode, widened
// from the teacher's int/float arithmetic to the full base-type lattice.
func Fold(n *Node, bag *diag.Bag) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case NLiteral, NStringLiteral:
		return n
	case NVariable:
		// A const variable whose declaration foldVariableDecl removes is
		// replaced by the literal recorded on its symbol.
		if sym := n.Entry; sym != nil && sym.Literal != nil && sym.Type != nil && sym.Type.IsConst && !sym.DerefTaken {
			return literalNode(sym.Literal, n.Pos, n.Table)
		}
		return n
	case NBinary:
		return foldBinary(n, bag)
	case NPrefix:
		return foldPrefix(n, bag)
	case NPostfix:
		d := n.Data.(*PostfixData)
		d.Var = Fold(d.Var, bag)
		return n
	case NCast:
		return foldCast(n, bag)
	case NSubscript:
		d := n.Data.(*SubscriptData)
		d.Base = Fold(d.Base, bag)
		d.Index = Fold(d.Index, bag)
		return n
	case NCall:
		d := n.Data.(*CallData)
		for i, a := range d.Args {
			d.Args[i] = Fold(a, bag)
		}
		return n
	case NAssignment:
		d := n.Data.(*AssignmentData)
		d.LValue = Fold(d.LValue, bag)
		d.RValue = Fold(d.RValue, bag)
		return n
	case NScope:
		return foldScope(n, bag)
	case NVariableDecl:
		return foldVariableDecl(n, bag)
	case NFunctionDefinition:
		body := n.Children[len(n.Children)-1]
		n.Children[len(n.Children)-1] = Fold(body, bag)
		return n
	case NFunctionDeclaration, NIncludeStdio:
		return n
	case NIf:
		return foldIf(n, bag)
	case NLoop:
		return foldLoop(n, bag)
	case NControl, NReturn:
		for i, c := range n.Children {
			n.Children[i] = Fold(c, bag)
		}
		return n
	default:
		return n
	}
}

func foldBinary(n *Node, bag *diag.Bag) *Node {
	d := n.Data.(*BinaryData)
	d.Lhs = Fold(d.Lhs, bag)
	d.Rhs = Fold(d.Rhs, bag)
	if d.Lhs == nil || d.Rhs == nil || !d.Lhs.IsConstant() || !d.Rhs.IsConstant() {
		return n
	}
	if d.Lhs.Type.Kind != KindBase || d.Rhs.Type.Kind != KindBase {
		return n
	}
	lit, ok := evalBinary(d.Op, d.Lhs.Folded, d.Rhs.Folded, n.Type)
	if !ok {
		return n
	}
	return literalNode(lit, n.Pos, n.Table)
}

func foldPrefix(n *Node, bag *diag.Bag) *Node {
	d := n.Data.(*PrefixData)
	d.Operand = Fold(d.Operand, bag)
	if d.Operand == nil || !d.Operand.IsConstant() || d.Operand.Type.Kind != KindBase {
		return n
	}
	if d.Op == OpAddressOf || d.Op == OpDeref {
		return n // has an address-of or load side, never folds
	}
	lit := *d.Operand.Folded
	switch d.Op {
	case OpLogicalNot:
		if isZero(lit) {
			lit = Literal{Type: BaseType(Int), Int: 1}
		} else {
			lit = Literal{Type: BaseType(Int), Int: 0}
		}
	case OpUnaryNeg:
		if lit.Type.Base.IsFloat() {
			lit.Float = -lit.Float
		} else {
			lit.Int = -lit.Int
		}
	case OpUnaryPlus:
		// identity
	}
	return literalNode(&lit, n.Pos, n.Table)
}

func foldCast(n *Node, bag *diag.Bag) *Node {
	d := n.Data.(*CastData)
	d.Operand = Fold(d.Operand, bag)
	if d.Operand == nil || !d.Operand.IsConstant() || d.Target.Kind != KindBase || d.Operand.Type.Kind != KindBase {
		return n
	}
	lit := convertLiteral(d.Operand.Folded, d.Target)
	return literalNode(lit, n.Pos, n.Table)
}

func foldScope(n *Node, bag *diag.Bag) *Node {
	cutAfterReturn := n.Table.Kind == ScopeFunction
	cutAfterControl := n.Table.Kind == ScopeLoop || n.Table.Kind == ScopePlain

	var out []*Node
	terminated := false
	for _, c := range n.Children {
		if terminated {
			break
		}
		folded := Fold(c, bag)
		if folded == nil {
			continue
		}
		out = append(out, folded)
		if cutAfterReturn && folded.Kind == NReturn {
			terminated = true
		}
		if cutAfterControl && folded.Kind == NControl {
			terminated = true
		}
	}
	n.Children = out
	return n
}

func foldVariableDecl(n *Node, bag *diag.Bag) *Node {
	d := n.Data.(*VariableDeclData)
	if d.Init != nil {
		d.Init = Fold(d.Init, bag)
	}

	sym, _ := n.Table.LookupLocal(d.Name)
	if sym == nil {
		return n
	}

	if d.Init != nil && d.Init.IsConstant() {
		lit := d.Init.Folded
		if n.Type != nil && n.Type.Kind == KindBase && !Equal(lit.Type, n.Type) {
			// precast: the constant's native type differs from the
			// declared type, so store it converted to the declared type.
			lit = convertLiteral(lit, n.Type)
		}
		sym.Literal = lit
		if n.Type != nil && n.Type.IsConst && !sym.DerefTaken {
			return nil
		}
	}

	if !sym.Used && !sym.DerefTaken {
		return nil
	}
	return n
}

func foldIf(n *Node, bag *diag.Bag) *Node {
	d := n.Data.(*IfData)
	d.Cond = Fold(d.Cond, bag)
	if d.Cond != nil && d.Cond.IsConstant() && d.Cond.Type.Kind == KindBase {
		if isZero(*d.Cond.Folded) {
			return Fold(d.Else, bag)
		}
		return Fold(d.Then, bag)
	}
	d.Then = Fold(d.Then, bag)
	if d.Else != nil {
		d.Else = Fold(d.Else, bag)
	}
	return n
}

func foldLoop(n *Node, bag *diag.Bag) *Node {
	d := n.Data.(*LoopData)
	if d.Init != nil {
		d.Init = Fold(d.Init, bag)
	}
	if d.Cond != nil {
		d.Cond = Fold(d.Cond, bag)
	}
	if d.Cond != nil && d.Cond.IsConstant() && d.Cond.Type.Kind == KindBase && !d.DoWhile {
		if isZero(*d.Cond.Folded) {
			return nil
		}
	}
	if d.Iter != nil {
		d.Iter = Fold(d.Iter, bag)
	}
	d.Body = Fold(d.Body, bag)
	return n
}

func isZero(lit Literal) bool {
	if lit.Type != nil && lit.Type.Kind == KindBase && lit.Type.Base.IsFloat() {
		return lit.Float == 0
	}
	return lit.Int == 0
}

func literalNode(lit *Literal, pos diag.Position, table *Scope) *Node {
	n := NewNode(NLiteral, pos, nil)
	n.Table = table
	n.Type = lit.Type
	n.Folded = lit
	return n
}

func convertLiteral(lit *Literal, to *Type) *Literal {
	out := &Literal{Type: to}
	fromFloat := lit.Type != nil && lit.Type.Base.IsFloat()
	toFloat := to.Base.IsFloat()
	switch {
	case fromFloat && toFloat:
		out.Float = lit.Float
	case fromFloat && !toFloat:
		out.Int = int64(lit.Float)
	case !fromFloat && toFloat:
		out.Float = float64(lit.Int)
	default:
		out.Int = narrowInt(lit.Int, to.Base)
	}
	return out
}

func narrowInt(v int64, b BaseKind) int64 {
	switch b {
	case Char:
		return int64(int8(v))
	case Short:
		return int64(int16(v))
	case Int:
		return int64(int32(v))
	default:
		return v
	}
}

// evalBinary computes the result of a constant binary operation on the host
// representation selected by resultType, following the teacher's
// constantFolding strength-reduction spirit but implementing the operator
// directly rather than rewriting to shifts (that rewrite belongs to IR
// emission, not the semantic core).
func evalBinary(op BinaryOp, l, r *Literal, resultType *Type) (*Literal, bool) {
	isFloatOp := resultType != nil && resultType.Kind == KindBase && resultType.Base.IsFloat()

	if isComparison(op) || isLogical(op) {
		var truth bool
		if isFloatOp || l.Type.Base.IsFloat() || r.Type.Base.IsFloat() {
			lf, rf := asFloat(l), asFloat(r)
			truth = compareFloat(op, lf, rf)
		} else {
			truth = compareInt(op, l.Int, r.Int)
		}
		v := int64(0)
		if truth {
			v = 1
		}
		return &Literal{Type: BaseType(Int), Int: v}, true
	}

	if isFloatOp {
		lf, rf := asFloat(l), asFloat(r)
		var v float64
		switch op {
		case OpAdd:
			v = lf + rf
		case OpSub:
			v = lf - rf
		case OpMul:
			v = lf * rf
		case OpDiv:
			if rf == 0 {
				return nil, false
			}
			v = lf / rf
		default:
			return nil, false
		}
		return &Literal{Type: resultType, Float: v}, true
	}

	li, ri := l.Int, r.Int
	var v int64
	switch op {
	case OpAdd:
		v = li + ri
	case OpSub:
		v = li - ri
	case OpMul:
		v = li * ri
	case OpDiv:
		if ri == 0 {
			return nil, false
		}
		v = li / ri
	case OpMod:
		if ri == 0 {
			return nil, false
		}
		v = li % ri
	case OpBitAnd:
		v = li & ri
	case OpBitOr:
		v = li | ri
	case OpBitXor:
		v = li ^ ri
	case OpShl:
		v = li << uint(ri)
	case OpShr:
		v = li >> uint(ri)
	default:
		return nil, false
	}
	return &Literal{Type: resultType, Int: v}, true
}

func asFloat(l *Literal) float64 {
	if l.Type != nil && l.Type.Base.IsFloat() {
		return l.Float
	}
	return float64(l.Int)
}

func compareFloat(op BinaryOp, l, r float64) bool {
	switch op {
	case OpLt:
		return l < r
	case OpLe:
		return l <= r
	case OpGt:
		return l > r
	case OpGe:
		return l >= r
	case OpEq:
		return l == r
	case OpNe:
		return l != r
	case OpLogicalAnd:
		return l != 0 && r != 0
	case OpLogicalOr:
		return l != 0 || r != 0
	default:
		return false
	}
}

func compareInt(op BinaryOp, l, r int64) bool {
	switch op {
	case OpLt:
		return l < r
	case OpLe:
		return l <= r
	case OpGt:
		return l > r
	case OpGe:
		return l >= r
	case OpEq:
		return l == r
	case OpNe:
		return l != r
	case OpLogicalAnd:
		return l != 0 && r != 0
	case OpLogicalOr:
		return l != 0 || r != 0
	default:
		return false
	}
}
