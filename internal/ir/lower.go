package ir

import (
	"mipscc/internal/ast"
	"mipscc/internal/util"
)

// Lowerer performs the single-pass AST-to-IR lowering of spec.md §4.3: a
// typed linear IR, each function's blocks emitted in the order its
// statements are visited, expressions lowered bottom-up, lvalue/rvalue
// context tracked per call site rather than per node.
type Lowerer struct {
	Module *Module

	fn    *Function
	block *BasicBlock
	slots map[*ast.Symbol]Value

	loops   []loopTarget
	strings map[string]*GlobalRef
	strSeq  int
}

type loopTarget struct {
	exit, latch *BasicBlock
}

// NewLowerer returns a Lowerer ready to process one translation unit.
func NewLowerer() *Lowerer {
	return &Lowerer{
		Module:  &Module{},
		slots:   make(map[*ast.Symbol]Value),
		strings: make(map[string]*GlobalRef),
	}
}

// LowerProgram lowers the top-level Scope node (Global scope) into a
// Module, emitting one ir.Function per FunctionDefinition and one
// ir.GlobalVar per top-level VariableDeclaration. FunctionDeclaration and
// IncludeStdio carry no codegen: their only effect was on the symbol
// table during Fill.
func LowerProgram(root *ast.Node) *Module {
	lw := NewLowerer()
	for _, child := range root.Children {
		switch child.Kind {
		case ast.NVariableDecl:
			lw.lowerGlobalVar(child)
		case ast.NFunctionDefinition:
			lw.lowerFunction(child)
		}
	}
	return lw.Module
}

func (lw *Lowerer) lowerGlobalVar(n *ast.Node) {
	data := n.Data.(*ast.VariableDeclData)
	sym, _ := n.Table.LookupLocal(data.Name)
	g := &GlobalVar{Name: data.Name, Ty: n.Type}
	if sym != nil {
		g.Init = sym.Literal
	}
	if data.Init != nil && data.Init.Kind == ast.NStringLiteral {
		g.InitStr = data.Init.Data.(string)
		g.HasInitStr = true
	}
	lw.Module.AddGlobal(g)
}

func (lw *Lowerer) lowerFunction(n *ast.Node) {
	data := n.Data.(*ast.FunctionData)
	fnType := n.Type
	fn := &Function{
		Name:       data.Name,
		ReturnTy:   fnType.Ret,
		ParamTys:   fnType.Params,
		ParamNames: data.Params,
		IsVariadic: fnType.Variadic,
	}
	lw.Module.AddFunction(fn)
	lw.fn = fn
	lw.block = fn.NewBlock("entry")

	body := n.Children[len(n.Children)-1]
	for i, pname := range data.Params {
		if i >= len(fnType.Params) {
			break
		}
		psym, _ := body.Table.LookupLocal(pname)
		ptype := fnType.Params[i]
		addr := lw.block.Append(&Instruction{Op: OpAlloca, ResultTy: ast.PointerTo(ptype)})
		addr.id = fn.nextTempID()
		lw.block.Append(&Instruction{Op: OpStore, Args: []Value{addr, &Param{Index: i, Ty: ptype, Name: pname}}})
		if psym != nil {
			lw.slots[psym] = addr
		}
	}

	lw.lowerStmt(body)

	if !lw.block.IsTerminated() && fn.ReturnTy.Kind == ast.KindVoid {
		lw.block.Append(&Instruction{Op: OpReturn})
	}
}

func (lw *Lowerer) lowerStmt(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NScope:
		for _, c := range n.Children {
			if lw.block.IsTerminated() {
				break
			}
			lw.lowerStmt(c)
		}
	case ast.NVariableDecl:
		lw.lowerLocalVar(n)
	case ast.NIf:
		lw.lowerIf(n)
	case ast.NLoop:
		lw.lowerLoop(n)
	case ast.NControl:
		lw.lowerControl(n)
	case ast.NReturn:
		lw.lowerReturn(n)
	case ast.NFunctionDeclaration, ast.NIncludeStdio:
		// No codegen.
	default:
		// An expression used as a statement: lower for effect, discard result.
		lw.lowerExprRValue(n)
	}
}

func (lw *Lowerer) lowerLocalVar(n *ast.Node) {
	data := n.Data.(*ast.VariableDeclData)
	sym, _ := n.Table.LookupLocal(data.Name)
	addr := lw.block.Append(&Instruction{Op: OpAlloca, ResultTy: ast.PointerTo(n.Type)})
	addr.id = lw.fn.nextTempID()
	if sym != nil {
		lw.slots[sym] = addr
	}
	if data.Init != nil {
		val := lw.lowerExprRValue(data.Init)
		val = lw.convertTo(val, n.Type)
		lw.block.Append(&Instruction{Op: OpStore, Args: []Value{addr, val}})
	}
}

func (lw *Lowerer) lowerIf(n *ast.Node) {
	data := n.Data.(*ast.IfData)
	cond := lw.lowerExprRValue(data.Cond)

	bThen := lw.fn.NewBlock(util.NewLabel(util.LabelIfThen))
	bMerge := lw.fn.NewBlock(util.NewLabel(util.LabelIfMerge))
	var bElse *BasicBlock
	if data.Else != nil {
		bElse = lw.fn.NewBlock(util.NewLabel(util.LabelIfElse))
		lw.block.Append(&Instruction{Op: OpCondBr, Args: []Value{cond}, Targets: []*BasicBlock{bThen, bElse}})
	} else {
		lw.block.Append(&Instruction{Op: OpCondBr, Args: []Value{cond}, Targets: []*BasicBlock{bThen, bMerge}})
	}

	lw.block = bThen
	lw.lowerStmt(data.Then)
	if !lw.block.IsTerminated() {
		lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{bMerge}})
	}

	if data.Else != nil {
		lw.block = bElse
		lw.lowerStmt(data.Else)
		if !lw.block.IsTerminated() {
			lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{bMerge}})
		}
	}

	lw.block = bMerge
}

func (lw *Lowerer) lowerLoop(n *ast.Node) {
	data := n.Data.(*ast.LoopData)
	if data.Init != nil {
		lw.lowerStmt(data.Init)
	}

	bHeader := lw.fn.NewBlock(util.NewLabel(util.LabelLoopHeader))
	bBody := lw.fn.NewBlock(util.NewLabel(util.LabelLoopBody))
	bLatch := lw.fn.NewBlock(util.NewLabel(util.LabelLoopLatch))
	bExit := lw.fn.NewBlock(util.NewLabel(util.LabelLoopExit))

	entry := bHeader
	if data.DoWhile {
		entry = bBody
	}
	lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{entry}})

	lw.block = bHeader
	if data.Cond != nil {
		cond := lw.lowerExprRValue(data.Cond)
		lw.block.Append(&Instruction{Op: OpCondBr, Args: []Value{cond}, Targets: []*BasicBlock{bBody, bExit}})
	} else {
		lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{bBody}})
	}

	lw.loops = append(lw.loops, loopTarget{exit: bExit, latch: bLatch})
	lw.block = bBody
	lw.lowerStmt(data.Body)
	if !lw.block.IsTerminated() {
		lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{bLatch}})
	}
	lw.loops = lw.loops[:len(lw.loops)-1]

	lw.block = bLatch
	if data.Iter != nil {
		lw.lowerExprRValue(data.Iter)
	}
	lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{bHeader}})

	lw.block = bExit
}

func (lw *Lowerer) lowerControl(n *ast.Node) {
	data := n.Data.(*ast.ControlData)
	if len(lw.loops) == 0 {
		return // unreachable: Check already rejected break/continue outside a loop
	}
	top := lw.loops[len(lw.loops)-1]
	if data.Kind == ast.CtrlBreak {
		lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{top.exit}})
	} else {
		lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{top.latch}})
	}
}

func (lw *Lowerer) lowerReturn(n *ast.Node) {
	if len(n.Children) > 0 {
		val := lw.lowerExprRValue(n.Children[0])
		val = lw.convertTo(val, lw.fn.ReturnTy)
		lw.block.Append(&Instruction{Op: OpReturn, Args: []Value{val}})
		return
	}
	lw.block.Append(&Instruction{Op: OpReturn})
}

// lowerExprRValue lowers n for its value.
func (lw *Lowerer) lowerExprRValue(n *ast.Node) Value {
	switch n.Kind {
	case ast.NLiteral:
		return lw.constantOf(n)
	case ast.NStringLiteral:
		return lw.internString(n)
	case ast.NVariable:
		addr := lw.addressOf(n)
		return lw.load(addr, n.Type)
	case ast.NBinary:
		return lw.lowerBinary(n)
	case ast.NPrefix:
		return lw.lowerPrefix(n)
	case ast.NPostfix:
		return lw.lowerPostfix(n)
	case ast.NCast:
		return lw.lowerCast(n)
	case ast.NSubscript:
		addr := lw.lowerSubscriptAddr(n)
		return lw.load(addr, n.Type)
	case ast.NCall:
		return lw.lowerCall(n)
	case ast.NAssignment:
		return lw.lowerAssignment(n)
	default:
		panic("ir: lowerExprRValue: unexpected node kind " + n.Kind.String())
	}
}

// lowerExprLValue lowers n for its address.
func (lw *Lowerer) lowerExprLValue(n *ast.Node) Value {
	switch n.Kind {
	case ast.NVariable:
		return lw.addressOf(n)
	case ast.NSubscript:
		return lw.lowerSubscriptAddr(n)
	case ast.NPrefix:
		d := n.Data.(*ast.PrefixData)
		return lw.lowerExprRValue(d.Operand) // *p as lvalue: address is the pointer's value
	default:
		panic("ir: lowerExprLValue: non-assignable node kind " + n.Kind.String())
	}
}

func (lw *Lowerer) addressOf(n *ast.Node) Value {
	data := n.Data.(*ast.VariableData)
	sym := n.Entry
	if addr, ok := lw.slots[sym]; ok {
		return addr
	}
	return &GlobalRef{Name: data.Name, Ty: ast.PointerTo(n.Type)}
}

func (lw *Lowerer) load(addr Value, ty *ast.Type) Value {
	inst := lw.block.Append(&Instruction{Op: OpLoad, ResultTy: ty, Args: []Value{addr}})
	inst.id = lw.fn.nextTempID()
	return inst
}

func (lw *Lowerer) constantOf(n *ast.Node) Value {
	lit := n.Folded
	if n.Type.Base.IsFloat() {
		c := &ConstantFloat{Ty: n.Type, Val: lit.Float}
		return lw.Module.InternFloat(c, func() string { return util.NewLabel(util.LabelBlock) })
	}
	return &ConstantInt{Ty: n.Type, Val: lit.Int}
}

func (lw *Lowerer) internString(n *ast.Node) Value {
	s := n.Data.(string)
	if ref, ok := lw.strings[s]; ok {
		return ref
	}
	lw.strSeq++
	name := util.NewLabel(util.LabelBlock) + "str"
	length := len(s) + 1
	lw.Module.AddGlobal(&GlobalVar{
		Name:       name,
		Ty:         ast.ArrayOf(ast.BaseType(ast.Char), &length),
		InitStr:    s,
		HasInitStr: true,
	})
	ref := &GlobalRef{Name: name, Ty: n.Type}
	lw.strings[s] = ref
	return ref
}

var binOpcode = map[ast.BinaryOp]Opcode{
	ast.OpAdd: OpAdd, ast.OpSub: OpSub, ast.OpMul: OpMul, ast.OpDiv: OpDiv, ast.OpMod: OpMod,
	ast.OpBitAnd: OpAnd, ast.OpBitOr: OpOr, ast.OpBitXor: OpXor, ast.OpShl: OpShl, ast.OpShr: OpShr,
	ast.OpLt: OpCmpLt, ast.OpLe: OpCmpLe, ast.OpGt: OpCmpGt, ast.OpGe: OpCmpGe, ast.OpEq: OpCmpEq, ast.OpNe: OpCmpNe,
}

func (lw *Lowerer) lowerBinary(n *ast.Node) Value {
	data := n.Data.(*ast.BinaryData)
	if data.Op == ast.OpLogicalAnd || data.Op == ast.OpLogicalOr {
		return lw.lowerLogical(n)
	}

	lhs := lw.lowerExprRValue(data.Lhs)
	rhs := lw.lowerExprRValue(data.Rhs)
	lhs = lw.convertTo(lhs, n.Type)
	if !isComparisonNode(data.Op) {
		rhs = lw.convertTo(rhs, n.Type)
	} else {
		rhs = lw.convertTo(rhs, lhs.Type())
	}

	op, ok := binOpcode[data.Op]
	if !ok {
		panic("ir: lowerBinary: unmapped operator")
	}
	resultTy := n.Type
	if isComparisonNode(data.Op) {
		resultTy = ast.BaseType(ast.Int)
	}
	inst := lw.block.Append(&Instruction{Op: op, ResultTy: resultTy, Args: []Value{lhs, rhs}})
	inst.id = lw.fn.nextTempID()
	return inst
}

func isComparisonNode(op ast.BinaryOp) bool {
	switch op {
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe:
		return true
	default:
		return false
	}
}

// lowerLogical lowers && / || with short-circuit control flow, spilling
// the intermediate boolean through a stack slot since this IR has no phi
// node: a merge block simply reloads whichever branch ran.
func (lw *Lowerer) lowerLogical(n *ast.Node) Value {
	data := n.Data.(*ast.BinaryData)
	isAnd := data.Op == ast.OpLogicalAnd

	resultSlot := lw.block.Append(&Instruction{Op: OpAlloca, ResultTy: ast.PointerTo(ast.BaseType(ast.Int))})
	resultSlot.id = lw.fn.nextTempID()

	bRhs := lw.fn.NewBlock(util.NewLabel(util.LabelBlock))
	bMerge := lw.fn.NewBlock(util.NewLabel(util.LabelBlock))

	lhs := lw.lowerExprRValue(data.Lhs)
	if isAnd {
		lw.block.Append(&Instruction{Op: OpStore, Args: []Value{resultSlot, &ConstantInt{Ty: ast.BaseType(ast.Int), Val: 0}}})
		lw.block.Append(&Instruction{Op: OpCondBr, Args: []Value{lhs}, Targets: []*BasicBlock{bRhs, bMerge}})
	} else {
		lw.block.Append(&Instruction{Op: OpStore, Args: []Value{resultSlot, &ConstantInt{Ty: ast.BaseType(ast.Int), Val: 1}}})
		lw.block.Append(&Instruction{Op: OpCondBr, Args: []Value{lhs}, Targets: []*BasicBlock{bMerge, bRhs}})
	}

	lw.block = bRhs
	rhs := lw.lowerExprRValue(data.Rhs)
	boolRhs := lw.block.Append(&Instruction{Op: OpCmpNe, ResultTy: ast.BaseType(ast.Int), Args: []Value{rhs, lw.zeroLike(rhs)}})
	boolRhs.id = lw.fn.nextTempID()
	lw.block.Append(&Instruction{Op: OpStore, Args: []Value{resultSlot, boolRhs}})
	lw.block.Append(&Instruction{Op: OpBr, Targets: []*BasicBlock{bMerge}})

	lw.block = bMerge
	return lw.load(resultSlot, ast.BaseType(ast.Int))
}

func (lw *Lowerer) zeroLike(v Value) Value {
	if IsFloat(v) {
		c := &ConstantFloat{Ty: v.Type(), Val: 0}
		return lw.Module.InternFloat(c, func() string { return util.NewLabel(util.LabelBlock) })
	}
	return &ConstantInt{Ty: v.Type(), Val: 0}
}

func (lw *Lowerer) lowerPrefix(n *ast.Node) Value {
	data := n.Data.(*ast.PrefixData)
	switch data.Op {
	case ast.OpAddressOf:
		return lw.lowerExprLValue(data.Operand)
	case ast.OpDeref:
		addr := lw.lowerExprRValue(data.Operand)
		return lw.load(addr, n.Type)
	case ast.OpLogicalNot:
		v := lw.lowerExprRValue(data.Operand)
		inst := lw.block.Append(&Instruction{Op: OpCmpEq, ResultTy: ast.BaseType(ast.Int), Args: []Value{v, lw.zeroLike(v)}})
		inst.id = lw.fn.nextTempID()
		return inst
	case ast.OpUnaryNeg:
		v := lw.lowerExprRValue(data.Operand)
		inst := lw.block.Append(&Instruction{Op: OpNeg, ResultTy: n.Type, Args: []Value{v}})
		inst.id = lw.fn.nextTempID()
		return inst
	default: // OpUnaryPlus
		return lw.lowerExprRValue(data.Operand)
	}
}

func (lw *Lowerer) lowerPostfix(n *ast.Node) Value {
	data := n.Data.(*ast.PostfixData)
	addr := lw.lowerExprLValue(data.Var)
	old := lw.load(addr, data.Var.Type)

	delta := Value(&ConstantInt{Ty: ast.BaseType(ast.Int), Val: 1})
	op := OpAdd
	if data.Op == ast.PostfixDec {
		op = OpSub
	}
	updated := lw.block.Append(&Instruction{Op: op, ResultTy: data.Var.Type, Args: []Value{old, delta}})
	updated.id = lw.fn.nextTempID()
	lw.block.Append(&Instruction{Op: OpStore, Args: []Value{addr, updated}})
	return old
}

func (lw *Lowerer) lowerCast(n *ast.Node) Value {
	data := n.Data.(*ast.CastData)
	v := lw.lowerExprRValue(data.Operand)
	return lw.convertTo(v, data.Target)
}

// convertTo emits an OpCast only when the representation actually differs;
// identical types pass through unchanged.
func (lw *Lowerer) convertTo(v Value, to *ast.Type) Value {
	if ast.Equal(v.Type(), to) {
		return v
	}
	inst := lw.block.Append(&Instruction{Op: OpCast, ResultTy: to, CastTo: to, Args: []Value{v}})
	inst.id = lw.fn.nextTempID()
	return inst
}

func (lw *Lowerer) lowerSubscriptAddr(n *ast.Node) Value {
	data := n.Data.(*ast.SubscriptData)
	var base Value
	if data.Base.Kind == ast.NVariable && data.Base.Type.Kind == ast.KindArray {
		base = lw.addressOf(data.Base)
	} else {
		base = lw.lowerExprRValue(data.Base)
	}
	index := lw.lowerExprRValue(data.Index)
	elemTy := ast.Deref(data.Base.Type)
	inst := lw.block.Append(&Instruction{Op: OpGEP, ResultTy: ast.PointerTo(elemTy), Args: []Value{base, index}})
	inst.id = lw.fn.nextTempID()
	return inst
}

func (lw *Lowerer) lowerCall(n *ast.Node) Value {
	data := n.Data.(*ast.CallData)
	args := make([]Value, len(data.Args))
	for i, a := range data.Args {
		args[i] = lw.lowerExprRValue(a)
	}
	inst := lw.block.Append(&Instruction{Op: OpCall, ResultTy: n.Type, Args: args, Callee: data.Name})
	if n.Type != nil && n.Type.Kind != ast.KindVoid {
		inst.id = lw.fn.nextTempID()
	}
	return inst
}

func (lw *Lowerer) lowerAssignment(n *ast.Node) Value {
	data := n.Data.(*ast.AssignmentData)
	addr := lw.lowerExprLValue(data.LValue)
	val := lw.lowerExprRValue(data.RValue)
	val = lw.convertTo(val, data.LValue.Type)
	lw.block.Append(&Instruction{Op: OpStore, Args: []Value{addr, val}})
	return val
}
