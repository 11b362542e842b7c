package mips

import (
	"mipscc/internal/ast"
	"mipscc/internal/ir"
	"mipscc/internal/util"
)

// EmitModule prints an entire MIPS32 assembly file per spec.md §4.6: a
// `.data` section (float constants, then globals), followed by a `.text`
// section beginning with `j main` and then every function in declaration
// order.
func EmitModule(w *util.Writer, m *ir.Module) {
	w.Write(".data\n")
	for _, c := range m.FloatConstants {
		w.Label(c.Label)
		w.Write("\t.float %g\n", c.Val)
	}
	for _, g := range m.Globals {
		emitGlobal(w, g)
	}

	w.Write("\n.text\n")
	w.Write("\tj main\n")
	for _, fn := range m.Functions {
		EmitFunction(w, fn)
	}
}

func emitGlobal(w *util.Writer, g *ir.GlobalVar) {
	w.Label(g.Name)
	switch {
	case g.HasInitStr:
		w.Write("\t.asciiz %q\n", g.InitStr)
	case g.Init != nil:
		if g.Ty.Kind == ast.KindBase && g.Ty.Base.IsFloat() {
			w.Write("\t.float %g\n", g.Init.Float)
		} else {
			w.Write("\t.word %d\n", g.Init.Int)
		}
	default:
		w.Write("\t.space %d\n", sizeOfGlobal(g.Ty))
	}
}

func sizeOfGlobal(t *ast.Type) int {
	switch t.Kind {
	case ast.KindArray:
		n := 1
		if t.Len != nil {
			n = *t.Len
		}
		return n * sizeOf(t.Elem)
	default:
		return sizeOf(t)
	}
}
