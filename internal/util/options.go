// Package util provides driver-level plumbing shared by every compiler stage:
// command line parsing, buffered output writing, a parallel error collector,
// a scope stack and assembly label generation.
package util

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// Options holds the fully parsed command line configuration for a single
// compile run.
type Options struct {
	Src      string // Path to source file. Empty means read from stdin.
	Out      string // Path to output assembly file. Empty means write to stdout.
	OptLevel int    // 0 = no folding/DCE, 1 = constant fold + dead code elimination.
	Verbose  bool   // -vb: recorded here only; no compiler stage reads it, so it changes no output.
	DumpIR   bool   // -dump-ir: print the AST to stderr before IR lowering.
	DumpDot  string // -dot path: render the AST as a PNG via the external `dot` tool.
	LLVM     bool   // -ll: delegate optimisation and emission to the LLVM collaborator.
}

const appVersion = "mipscc 1.0 (MIPS32 big-endian)"

// ParseArgs parses os.Args[1:] into an Options structure.
func ParseArgs(args []string) (Options, error) {
	opt := Options{OptLevel: 1}
	if len(args) == 0 {
		return opt, nil
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		case "-dump-ir":
			opt.DumpIR = true
		case "-ll":
			opt.LLVM = true
		case "-O0":
			opt.OptLevel = 0
		case "-O1":
			opt.OptLevel = 1
		case "-o":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("flag -o requires an output path")
			}
			i++
			opt.Out = args[i]
		case "-dot":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("flag -dot requires an output path")
			}
			i++
			opt.DumpDot = args[i]
		default:
			if strings.HasPrefix(args[i], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i])
			}
			opt.Src = args[i]
		}
	}
	return opt, nil
}

// printHelp prints a tabulated usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 4, 1, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrint this help message and exit.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrint the compiler version and exit.")
	_, _ = fmt.Fprintln(w, "-o <path>\tWrite assembly output to <path> instead of stdout.")
	_, _ = fmt.Fprintln(w, "-O0\tDisable constant folding and dead code elimination.")
	_, _ = fmt.Fprintln(w, "-O1\tEnable constant folding and dead code elimination (default).")
	_, _ = fmt.Fprintln(w, "-vb\tAccepted; has no effect on output.")
	_, _ = fmt.Fprintln(w, "-dump-ir\tPrint the checked AST to stderr before IR lowering.")
	_, _ = fmt.Fprintln(w, "-dot <path>\tRender the AST to <path> as a PNG via the external dot tool.")
	_, _ = fmt.Fprintln(w, "-ll\tDelegate optimisation and emission to the LLVM collaborator.")
	_ = w.Flush()
}
