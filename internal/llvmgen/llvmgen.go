// Package llvmgen is the LLVM collaborator spec.md §1 names as explicitly
// out of scope ("LLVM-level optimization is delegated to a collaborator").
// It is kept only as a shallow, adapted port of the teacher's
// src/ir/llvm/transform.go: it declares the module's globals and function
// signatures in an llvm.Module and hands the result back as text, but does
// not lower instruction bodies -- the real system would hand this module
// to the installed LLVM toolchain for that, exactly as the teacher does
// via llvm.Context/llvm.Builder.
package llvmgen

import (
	"tinygo.org/x/go-llvm"

	"mipscc/internal/ast"
	"mipscc/internal/ir"
)

// reservedFunctionNames mirrors the teacher's list of names a translation
// unit may not redefine because the collaborator links against them.
var reservedFunctionNames = []string{"main", "printf", "scanf"}

// GenLLVM declares every global and function signature from m into a fresh
// LLVM module and returns its textual IR representation.
func GenLLVM(m *ir.Module) string {
	ctx := llvm.NewContext()
	defer ctx.Dispose()

	mod := ctx.NewModule("mipscc")
	defer mod.Dispose()

	for _, g := range m.Globals {
		llTy := llvmType(ctx, g.Ty)
		gv := llvm.AddGlobal(mod, llTy, g.Name)
		if g.Init == nil && !g.HasInitStr {
			gv.SetInitializer(llvm.ConstNull(llTy))
		}
	}

	for _, fn := range m.Functions {
		params := make([]llvm.Type, len(fn.ParamTys))
		for i, p := range fn.ParamTys {
			params[i] = llvmType(ctx, p)
		}
		fnType := llvm.FunctionType(llvmType(ctx, fn.ReturnTy), params, fn.IsVariadic)
		llvm.AddFunction(mod, fn.Name, fnType)
	}

	return mod.String()
}

func llvmType(ctx llvm.Context, t *ast.Type) llvm.Type {
	if t == nil {
		return ctx.VoidType()
	}
	switch t.Kind {
	case ast.KindVoid:
		return ctx.VoidType()
	case ast.KindBase:
		switch t.Base {
		case ast.Char:
			return ctx.Int8Type()
		case ast.Short:
			return ctx.Int16Type()
		case ast.Int, ast.Long:
			return ctx.Int32Type()
		case ast.Float:
			return ctx.FloatType()
		case ast.Double:
			return ctx.DoubleType()
		}
	case ast.KindPointer:
		return llvm.PointerType(llvmType(ctx, t.Elem), 0)
	case ast.KindArray:
		n := 0
		if t.Len != nil {
			n = *t.Len
		}
		return llvm.ArrayType(llvmType(ctx, t.Elem), n)
	}
	return ctx.Int32Type()
}

// IsReserved reports whether name collides with a collaborator-linked
// symbol.
func IsReserved(name string) bool {
	for _, r := range reservedFunctionNames {
		if r == name {
			return true
		}
	}
	return false
}
