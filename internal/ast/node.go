package ast

import "mipscc/internal/diag"

// NodeKind tags the variant of a Node, per spec.md §3.3. Field names follow
// the teacher's ir.NodeType/ir.Node shape (Typ/Data/Entry/Children), widened
// to the full expression and statement set this language needs.
type NodeKind int

const (
	// Expressions.
	NLiteral NodeKind = iota
	NStringLiteral
	NVariable
	NBinary
	NPrefix
	NPostfix
	NCast
	NSubscript
	NCall
	NAssignment

	// Statements.
	NScope
	NVariableDecl
	NFunctionDefinition
	NFunctionDeclaration
	NIf
	NLoop
	NControl
	NReturn
	NIncludeStdio
)

func (k NodeKind) String() string {
	names := [...]string{
		"Literal", "StringLiteral", "Variable", "Binary", "Prefix", "Postfix",
		"Cast", "Subscript", "Call", "Assignment",
		"Scope", "VariableDecl", "FunctionDefinition", "FunctionDeclaration",
		"If", "Loop", "Control", "Return", "IncludeStdio",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "?node"
	}
	return names[k]
}

// ControlKind distinguishes the two Control statement variants.
type ControlKind int

const (
	CtrlBreak ControlKind = iota
	CtrlContinue
)

// Node is the AST tagged sum of spec.md §3.3. A node owns its Children
// exclusively; Table is shared (multiple nodes reference the same Scope).
//
// Data carries the variant-specific payload that doesn't fit a common
// field: the operator and operands for Binary/Prefix/Postfix, the declared
// name for Variable/Call/VariableDecl/FunctionDefinition/FunctionDeclaration,
// the condition and sub-statements for If/Loop, and the do-while flag for
// Loop. Only Scope, FunctionDefinition and Return use Children. This mirrors the teacher's Node.Data interface{}
// field, kept narrow here since each NodeKind has exactly one payload shape.
type Node struct {
	Kind NodeKind
	Pos  diag.Position

	Table *Scope // enclosing symbol table
	Type  *Type  // resolved type: set by the parser for literals and declarations, by Check for other expressions

	Data interface{}

	// Entry is populated for NVariable/NCall: the resolved Symbol, set by
	// Check after a successful Lookup.
	Entry *Symbol

	// Folded holds the constant value of a literal node, set by the parser
	// or by the Fold pass when it folds an expression into a literal; nil if
	// the node is not a compile-time constant.
	Folded *Literal

	Children []*Node
}

// BinaryData is the Data payload of an NBinary node.
type BinaryData struct {
	Op          BinaryOp
	Lhs, Rhs    *Node
}

// PrefixData is the Data payload of an NPrefix node.
type PrefixData struct {
	Op      UnaryOp
	Operand *Node
}

// PostfixOp enumerates postfix ++ / --.
type PostfixOp int

const (
	PostfixInc PostfixOp = iota
	PostfixDec
)

// PostfixData is the Data payload of an NPostfix node.
type PostfixData struct {
	Op  PostfixOp
	Var *Node
}

// CastData is the Data payload of an NCast node.
type CastData struct {
	Target  *Type
	Operand *Node
}

// SubscriptData is the Data payload of an NSubscript node.
type SubscriptData struct {
	Base, Index *Node
}

// CallData is the Data payload of an NCall node.
type CallData struct {
	Name string
	Args []*Node
}

// AssignmentData is the Data payload of an NAssignment node.
type AssignmentData struct {
	LValue, RValue *Node
}

// VariableData is the Data payload of an NVariable node.
type VariableData struct {
	Name string
}

// VariableDeclData is the Data payload of an NVariableDecl node.
type VariableDeclData struct {
	Name string
	Init *Node // nil if uninitialized
}

// FunctionData is the Data payload shared by NFunctionDefinition and
// NFunctionDeclaration.
type FunctionData struct {
	Name   string
	Params []string // parameter names; types live on the node's Type.Params
}

// IfData is the Data payload of an NIf node.
type IfData struct {
	Cond, Then, Else *Node // Else is nil if absent
}

// LoopData is the Data payload of an NLoop node.
type LoopData struct {
	Init, Cond, Iter, Body *Node
	DoWhile                bool
}

// ControlData is the Data payload of an NControl node.
type ControlData struct {
	Kind ControlKind
}

// NewNode allocates a Node of the given kind at pos, owning children.
func NewNode(kind NodeKind, pos diag.Position, data interface{}, children ...*Node) *Node {
	return &Node{Kind: kind, Pos: pos, Data: data, Children: children}
}

// IsConstant reports whether n has a folded literal attached.
func (n *Node) IsConstant() bool { return n.Folded != nil }
