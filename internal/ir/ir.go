// Package ir implements the linear three-address intermediate
// representation of spec.md §3.4 and the AST-to-IR lowering of §4.3.
// Shape is grounded on the teacher's src/ir/lir package (Value interface,
// Block/Function/Module containers), simplified from the teacher's
// graph-based LLVM-style IR to the linear, alloca-based model this spec
// describes: variables live in stack slots accessed through Load/Store,
// not SSA registers, so no phi node variant is needed.
package ir

import (
	"fmt"

	"mipscc/internal/ast"
)

// Value is anything an Instruction can reference as an operand: a constant,
// a global, a function parameter, or the result of a previous instruction.
// The backend consults every value through the two predicates IsFloat and
// Type, type-asserting to a concrete kind only where it specifically needs
// one (ConstantInt, ConstantFloat, GlobalRef).
type Value interface {
	Type() *ast.Type
	String() string
}

// IsFloat implements spec.md §4.4's class-selection predicate: "value's
// type is a pointer to a floating-point type" would be circular for a
// *value* (pointers, not floats, are assigned float class only through
// the load they'll be read by) -- so here it is defined directly on the
// value's own static type, matching how the backend actually consults it:
// a value is float-class iff its type is a floating point base type.
func IsFloat(v Value) bool {
	t := v.Type()
	return t != nil && t.Kind == ast.KindBase && t.Base.IsFloat()
}

// ConstantInt is an integral literal operand.
type ConstantInt struct {
	Ty  *ast.Type
	Val int64
}

func (c *ConstantInt) Type() *ast.Type { return c.Ty }
func (c *ConstantInt) String() string  { return fmt.Sprintf("%d", c.Val) }

// ConstantFloat is a floating point literal operand. It is always printed
// as a named data-section float constant (spec.md §4.4 item 1 and §4.6).
type ConstantFloat struct {
	Ty    *ast.Type
	Val   float64
	Label string // assigned by the backend when it registers the constant
}

func (c *ConstantFloat) Type() *ast.Type { return c.Ty }
func (c *ConstantFloat) String() string  { return fmt.Sprintf("%g", c.Val) }

// GlobalRef references a Module-level variable by name.
type GlobalRef struct {
	Name string
	Ty   *ast.Type
}

func (g *GlobalRef) Type() *ast.Type { return g.Ty }
func (g *GlobalRef) String() string  { return "@" + g.Name }

// Param references a function parameter by position.
type Param struct {
	Index int
	Ty    *ast.Type
	Name  string
}

func (p *Param) Type() *ast.Type { return p.Ty }
func (p *Param) String() string  { return "%" + p.Name }

// Opcode enumerates the IR instruction opcodes, one row per spec.md §4.5
// table entry (arithmetic ops are split one-per-operator so the backend's
// opcode-to-mnemonic table in the mips package is a flat switch).
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpNeg

	OpCmpEq
	OpCmpNe
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe

	OpMove
	OpLoad
	OpStore
	OpAlloca
	OpGEP
	OpCast
	OpCall

	OpBr      // unconditional jump
	OpCondBr  // conditional branch
	OpReturn
)

func (op Opcode) String() string {
	names := [...]string{
		"add", "sub", "mul", "div", "mod", "and", "or", "xor", "shl", "shr", "neg",
		"cmp.eq", "cmp.ne", "cmp.lt", "cmp.le", "cmp.gt", "cmp.ge",
		"move", "load", "store", "alloca", "gep", "cast", "call",
		"br", "condbr", "ret",
	}
	if int(op) < 0 || int(op) >= len(names) {
		return "?op"
	}
	return names[op]
}

// Instruction is both an IR statement and, when it produces a result, a
// Value other instructions may reference -- mirroring the teacher's
// lir.Instruction-is-a-Value design.
type Instruction struct {
	Op       Opcode
	ResultTy *ast.Type // nil if this instruction has no result (Store, Br, Return)
	Args     []Value
	Targets  []*BasicBlock // branch/condbr successors
	Callee   string        // OpCall only
	CastTo   *ast.Type     // OpCast only
	id       int
	Block    *BasicBlock // weak back-reference
}

func (i *Instruction) Type() *ast.Type { return i.ResultTy }

func (i *Instruction) String() string {
	if i.ResultTy == nil {
		return fmt.Sprintf("%s", i.Op)
	}
	return fmt.Sprintf("%%t%d", i.id)
}

// HasResult reports whether this instruction can be referenced as a Value.
func (i *Instruction) HasResult() bool { return i.ResultTy != nil }

// BasicBlock is an ordered list of instructions terminated by OpBr,
// OpCondBr, or OpReturn.
type BasicBlock struct {
	Name         string
	Instructions []*Instruction
	Function     *Function // weak back-reference
}

// Terminator returns the block's last instruction, or nil if the block is
// still open (has not yet been terminated during lowering).
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	switch last.Op {
	case OpBr, OpCondBr, OpReturn:
		return last
	default:
		return nil
	}
}

// IsTerminated reports whether b already ends in a terminator.
func (b *BasicBlock) IsTerminated() bool { return b.Terminator() != nil }

// Append adds inst to b and returns it. If b is already terminated the
// instruction is silently dropped per spec.md §4.3's "unreachable
// instructions following a terminator within a block are removed" rule:
// lowering never emits past a terminator to begin with, so this is the
// single enforcement point.
func (b *BasicBlock) Append(inst *Instruction) *Instruction {
	if b.IsTerminated() {
		return inst
	}
	inst.Block = b
	b.Instructions = append(b.Instructions, inst)
	return inst
}

// Function owns an ordered list of BasicBlocks and the backend-assigned
// register mapper. Mapper is an opaque handle (spec.md §3.4: "a Function
// owns ... a RegisterMapper") typed interface{} here so this package never
// imports the mips backend package -- only the backend imports ir.
type Function struct {
	Name       string
	ReturnTy   *ast.Type
	ParamTys   []*ast.Type
	ParamNames []string
	Blocks     []*BasicBlock
	IsVariadic bool

	Mapper interface{}

	nextTemp int
}

// NewBlock allocates and appends a new, empty block named label.
func (f *Function) NewBlock(label string) *BasicBlock {
	b := &BasicBlock{Name: label, Function: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Function) nextTempID() int {
	id := f.nextTemp
	f.nextTemp++
	return id
}

// GlobalVar is a Module-level variable.
type GlobalVar struct {
	Name       string
	Ty         *ast.Type
	Init       *ast.Literal // nil if uninitialized (".space")
	InitStr    string       // char-array string initializer, valid when HasInitStr
	HasInitStr bool         // true if InitStr was set, even to ""
}

// Module owns the global variables, the float-constant pool, and the
// ordered list of functions, per spec.md §3.4.
type Module struct {
	Globals        []*GlobalVar
	FloatConstants []*ConstantFloat
	Functions      []*Function
}

// AddGlobal appends g to the module.
func (m *Module) AddGlobal(g *GlobalVar) { m.Globals = append(m.Globals, g) }

// InternFloat registers a float literal in the constant pool and assigns
// it a data-section label if it doesn't already have one.
func (m *Module) InternFloat(c *ConstantFloat, labelFn func() string) *ConstantFloat {
	for _, existing := range m.FloatConstants {
		if existing.Val == c.Val {
			return existing
		}
	}
	c.Label = labelFn()
	m.FloatConstants = append(m.FloatConstants, c)
	return c
}

// AddFunction appends fn to the module.
func (m *Module) AddFunction(fn *Function) { m.Functions = append(m.Functions, fn) }
