package ast

import "mipscc/internal/diag"

// stdioSignature is the signature IncludeStdio inserts for both printf and
// scanf per spec.md §4.2: Int(Pointer(Char), ...variadic).
func stdioSignature() *Type {
	return FunctionType(BaseType(Int), []*Type{PointerTo(BaseType(Char))}, true)
}

// Fill is the first AST pass: it populates symbol tables and validates
// declarations. It walks depth-first, invoking itself on children in the
// order they appear, mirroring the teacher's single-pass validate.go walk
// generalized from validation-only to table population.
func Fill(n *Node, bag *diag.Bag) {
	if n == nil {
		return
	}
	switch n.Kind {
	case NVariableDecl:
		fillVariableDecl(n, bag)
	case NFunctionDefinition:
		fillFunctionDefinition(n, bag)
	case NFunctionDeclaration:
		fillFunctionDeclaration(n, bag)
	case NIncludeStdio:
		fillIncludeStdio(n, bag)
	case NIf:
		d := n.Data.(*IfData)
		Fill(d.Then, bag)
		Fill(d.Else, bag)
	case NLoop:
		d := n.Data.(*LoopData)
		Fill(d.Init, bag)
		Fill(d.Body, bag)
	default:
		for _, c := range n.Children {
			Fill(c, bag)
		}
	}
}

func fillVariableDecl(n *Node, bag *diag.Bag) {
	data := n.Data.(*VariableDeclData)
	sym := &Symbol{Name: data.Name, Type: n.Type, Initialized: data.Init != nil}
	n.Table.Insert(data.Name, sym, n.Pos, bag)
	if data.Init != nil {
		Fill(data.Init, bag)
	}
}

func fillFunctionDeclaration(n *Node, bag *diag.Bag) {
	data := n.Data.(*FunctionData)
	sym := &Symbol{Name: data.Name, Type: n.Type, Initialized: false}
	n.Table.Insert(data.Name, sym, n.Pos, bag)
}

func fillFunctionDefinition(n *Node, bag *diag.Bag) {
	data := n.Data.(*FunctionData)
	sym := &Symbol{Name: data.Name, Type: n.Type, Initialized: true}
	n.Table.Insert(data.Name, sym, n.Pos, bag)

	body := n.Children[len(n.Children)-1]
	fnType := n.Type
	body.Table.FnReturnType = fnType.Ret
	for i, pname := range data.Params {
		if i >= len(fnType.Params) {
			break
		}
		psym := &Symbol{Name: pname, Type: fnType.Params[i], Initialized: true}
		body.Table.Insert(pname, psym, n.Pos, bag)
	}
	Fill(body, bag)
}

func fillIncludeStdio(n *Node, bag *diag.Bag) {
	sig := stdioSignature()
	for _, name := range []string{"printf", "scanf"} {
		if existing, ok := n.Table.LookupLocal(name); ok {
			if !Equal(existing.Type, sig) {
				bag.Addf(diag.SemanticError, n.Pos, "declaration of %q conflicts with standard library signature", name)
			}
			continue
		}
		n.Table.Insert(name, &Symbol{Name: name, Type: sig, Initialized: true}, n.Pos, bag)
	}
}
