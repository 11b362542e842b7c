package ast

import "mipscc/internal/diag"

// Check is the second AST pass: it type-checks every expression under the
// §4.1 algebra, validates break/continue/return placement, and verifies
// global initializers are constant. Every visited expression node has its
// Type field populated on return. Grounded on the teacher's
// validateExpr/validateAssign/validateRel family in src/ir/validate.go,
// generalized from the teacher's int/float-only model to the full type
// algebra.
func Check(n *Node, bag *diag.Bag) {
	if n == nil {
		return
	}
	switch n.Kind {
	case NLiteral:
		// Type was set at construction time from the TypeVariant payload.
	case NStringLiteral:
		n.Type = PointerTo(BaseType(Char))
	case NVariable:
		checkVariable(n, bag)
	case NBinary:
		checkBinary(n, bag)
	case NPrefix:
		checkPrefix(n, bag)
	case NPostfix:
		checkPostfix(n, bag)
	case NCast:
		checkCast(n, bag)
	case NSubscript:
		checkSubscript(n, bag)
	case NCall:
		checkCall(n, bag)
	case NAssignment:
		checkAssignment(n, bag)
	case NScope:
		for _, c := range n.Children {
			Check(c, bag)
		}
	case NVariableDecl:
		checkVariableDecl(n, bag)
	case NFunctionDefinition:
		checkFunctionDefinition(n, bag)
	case NFunctionDeclaration:
		// Nothing further to type-check: signature already validated in Fill.
	case NIf:
		checkIf(n, bag)
	case NLoop:
		checkLoop(n, bag)
	case NControl:
		checkControl(n, bag)
	case NReturn:
		checkReturn(n, bag)
	case NIncludeStdio:
		// No expressions to check.
	default:
		for _, c := range n.Children {
			Check(c, bag)
		}
	}
}

func checkVariable(n *Node, bag *diag.Bag) {
	data := n.Data.(*VariableData)
	sym, _ := n.Table.Lookup(data.Name)
	if sym == nil {
		bag.Addf(diag.SemanticError, n.Pos, "use of undeclared identifier %q", data.Name)
		n.Type = BaseType(Int)
		return
	}
	sym.Used = true
	n.Entry = sym
	n.Type = sym.Type
}

func checkBinary(n *Node, bag *diag.Bag) {
	data := n.Data.(*BinaryData)
	Check(data.Lhs, bag)
	Check(data.Rhs, bag)
	n.Type = Combine(data.Op, data.Lhs.Type, data.Rhs.Type, n.Pos, bag)
	if n.Type == nil {
		n.Type = BaseType(Int)
	}
}

func checkPrefix(n *Node, bag *diag.Bag) {
	data := n.Data.(*PrefixData)
	Check(data.Operand, bag)
	if data.Op == OpAddressOf {
		if entry := addressableEntry(data.Operand); entry != nil {
			entry.DerefTaken = true
		}
	}
	n.Type = Unary(data.Op, data.Operand.Type, n.Pos, bag)
	if n.Type == nil {
		n.Type = BaseType(Int)
	}
}

func addressableEntry(n *Node) *Symbol {
	switch n.Kind {
	case NVariable:
		return n.Entry
	case NSubscript:
		return addressableEntry(n.Data.(*SubscriptData).Base)
	default:
		return nil
	}
}

func checkPostfix(n *Node, bag *diag.Bag) {
	data := n.Data.(*PostfixData)
	Check(data.Var, bag)
	if data.Var.Type != nil && (data.Var.Type.Kind == KindPointer || data.Var.Type.Kind == KindBase) {
		n.Type = data.Var.Type
		return
	}
	bag.Addf(diag.SemanticError, n.Pos, "increment/decrement requires a scalar or pointer operand")
	n.Type = BaseType(Int)
}

func checkCast(n *Node, bag *diag.Bag) {
	data := n.Data.(*CastData)
	Check(data.Operand, bag)
	Convert(data.Operand.Type, data.Target, true, n.Pos, bag)
	n.Type = data.Target
}

func checkSubscript(n *Node, bag *diag.Bag) {
	data := n.Data.(*SubscriptData)
	Check(data.Base, bag)
	Check(data.Index, bag)
	if data.Base.Type == nil || (data.Base.Type.Kind != KindPointer && data.Base.Type.Kind != KindArray) {
		bag.Addf(diag.SemanticError, n.Pos, "subscript requires a pointer or array operand, got %s", data.Base.Type)
		n.Type = BaseType(Int)
		return
	}
	if data.Index.Type == nil || data.Index.Type.Kind != KindBase {
		bag.Addf(diag.SemanticError, n.Pos, "subscript index must be an integral type")
	}
	n.Type = Deref(data.Base.Type)
}

func checkCall(n *Node, bag *diag.Bag) {
	data := n.Data.(*CallData)
	for _, a := range data.Args {
		Check(a, bag)
	}
	sym, _ := n.Table.Lookup(data.Name)
	if sym == nil {
		bag.Addf(diag.SemanticError, n.Pos, "call to undeclared function %q", data.Name)
		n.Type = BaseType(Int)
		return
	}
	sym.Used = true
	n.Entry = sym
	if sym.Type.Kind != KindFunction {
		bag.Addf(diag.SemanticError, n.Pos, "%q is not callable", data.Name)
		n.Type = BaseType(Int)
		return
	}
	fn := sym.Type
	if len(data.Args) < len(fn.Params) || (!fn.Variadic && len(data.Args) != len(fn.Params)) {
		bag.Addf(diag.SemanticError, n.Pos, "call to %q: expected %d arguments, got %d", data.Name, len(fn.Params), len(data.Args))
	} else {
		for i, param := range fn.Params {
			Convert(data.Args[i].Type, param, false, data.Args[i].Pos, bag)
		}
	}
	n.Type = fn.Ret
}

func checkAssignment(n *Node, bag *diag.Bag) {
	data := n.Data.(*AssignmentData)
	Check(data.LValue, bag)
	Check(data.RValue, bag)
	if !isLValue(data.LValue) {
		bag.Addf(diag.SemanticError, n.Pos, "left-hand side of assignment is not assignable")
	}
	if data.LValue.Type != nil && data.LValue.Type.IsConst {
		bag.Addf(diag.SemanticError, n.Pos, "cannot assign to const-qualified value")
	}
	Convert(data.RValue.Type, data.LValue.Type, false, n.Pos, bag)
	n.Type = data.LValue.Type
}

func isLValue(n *Node) bool {
	switch n.Kind {
	case NVariable, NSubscript:
		return true
	case NPrefix:
		return n.Data.(*PrefixData).Op == OpDeref
	default:
		return false
	}
}

func checkVariableDecl(n *Node, bag *diag.Bag) {
	data := n.Data.(*VariableDeclData)
	if n.Type.Kind == KindVoid {
		bag.Addf(diag.SemanticError, n.Pos, "variable %q may not have void type", data.Name)
	}
	if data.Init != nil {
		Check(data.Init, bag)
		if n.Table.Kind == ScopeGlobal && !data.Init.IsConstant() {
			bag.Addf(diag.SemanticError, data.Init.Pos, "global initializer for %q must be a constant expression", data.Name)
		}
		Convert(data.Init.Type, n.Type, false, n.Pos, bag)
	}
}

func checkFunctionDefinition(n *Node, bag *diag.Bag) {
	body := n.Children[len(n.Children)-1]
	Check(body, bag)
	if n.Type.Ret.Kind != KindVoid && !containsReturn(body) {
		bag.Addf(diag.SemanticError, n.Pos, "non-void function %q may fall off the end without a return", n.Data.(*FunctionData).Name)
	}
}

func containsReturn(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case NReturn:
		return true
	case NIf:
		d := n.Data.(*IfData)
		return containsReturn(d.Then) || containsReturn(d.Else)
	case NLoop:
		d := n.Data.(*LoopData)
		return containsReturn(d.Body)
	case NScope:
		for _, c := range n.Children {
			if containsReturn(c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func checkIf(n *Node, bag *diag.Bag) {
	data := n.Data.(*IfData)
	Check(data.Cond, bag)
	Check(data.Then, bag)
	if data.Else != nil {
		Check(data.Else, bag)
	}
}

func checkLoop(n *Node, bag *diag.Bag) {
	data := n.Data.(*LoopData)
	if data.Init != nil {
		Check(data.Init, bag)
	}
	if data.Cond != nil {
		Check(data.Cond, bag)
	}
	if data.Iter != nil {
		Check(data.Iter, bag)
	}
	Check(data.Body, bag)
}

func checkControl(n *Node, bag *diag.Bag) {
	data := n.Data.(*ControlData)
	if !n.Table.LookupScope(ScopeLoop) {
		kind := "break"
		if data.Kind == CtrlContinue {
			kind = "continue"
		}
		bag.Addf(diag.SemanticError, n.Pos, "%s statement not within a loop", kind)
	}
}

func checkReturn(n *Node, bag *diag.Bag) {
	fnScope := n.Table.EnclosingFunction()
	if fnScope == nil {
		bag.Addf(diag.SemanticError, n.Pos, "return statement not within a function")
		return
	}
	var expr *Node
	if len(n.Children) > 0 {
		expr = n.Children[0]
	}
	retType := fnScope.FnReturnType
	if expr != nil {
		Check(expr, bag)
		Convert(expr.Type, retType, false, n.Pos, bag)
		n.Type = retType
	} else if retType != nil && retType.Kind != KindVoid {
		bag.Addf(diag.SemanticError, n.Pos, "non-void function must return a value")
	}
}
