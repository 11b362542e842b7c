// Command mipscc compiles a C-like source file to MIPS32 assembly text.
// It sequences the stages spec.md §2 describes -- parse, fill, check,
// fold, IR lowering, MIPS emission -- as a strictly single-threaded,
// synchronous driver per spec.md §5. Grounded on the teacher's
// src/main.go run()/main() split, simplified from the teacher's
// concurrent output writer (a goroutine fed over a channel) to a direct
// call, since this spec's concurrency model has no background writer to
// coordinate.
package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"

	"mipscc/internal/ast"
	"mipscc/internal/diag"
	"mipscc/internal/frontend"
	"mipscc/internal/ir"
	"mipscc/internal/llvmgen"
	"mipscc/internal/mips"
	"mipscc/internal/util"
)

func main() {
	opt, err := util.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opt util.Options) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return err
	}

	bag := &diag.Bag{}
	root := frontend.Parse(src, bag)
	if bag.HasErrors() {
		return reportAndFail(bag)
	}

	ast.Fill(root, bag)
	if bag.HasErrors() {
		return reportAndFail(bag)
	}

	ast.Check(root, bag)
	if bag.HasErrors() {
		return reportAndFail(bag)
	}
	reportWarnings(bag)

	if opt.OptLevel > 0 {
		root = ast.Fold(root, bag)
		if bag.HasErrors() {
			return reportAndFail(bag)
		}
	}

	if opt.DumpIR {
		fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(root))
	}

	if opt.DumpDot != "" {
		if err := util.RenderDot(renderDot(root), opt.DumpDot); err != nil {
			return err
		}
	}

	module := ir.LowerProgram(root)

	if opt.LLVM {
		return runLLVM(module, opt)
	}

	w, err := util.NewWriter(opt.Out)
	if err != nil {
		return err
	}
	mips.EmitModule(w, module)
	return w.Close()
}

func reportAndFail(bag *diag.Bag) error {
	for _, d := range bag.Errors() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
	return fmt.Errorf("compilation failed with %d error(s)", len(bag.Errors()))
}

func reportWarnings(bag *diag.Bag) {
	for _, d := range bag.Warnings() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
}

// runLLVM delegates to the out-of-scope LLVM collaborator instead of the
// MIPS backend, gated behind -ll.
func runLLVM(module *ir.Module, opt util.Options) error {
	text := llvmgen.GenLLVM(module)
	w, err := util.NewWriter(opt.Out)
	if err != nil {
		return err
	}
	w.WriteString(text)
	return w.Close()
}
