// Package diag implements the diagnostic model from spec.md §7: every
// compiler stage reports typed, source-located diagnostics instead of
// aborting on the first problem. Shape is grounded on
// sentra-language-sentra's internal/errors.SentraError (type tag + source
// location + message), adapted to the five error kinds this spec names.
package diag

import "fmt"

// Kind classifies a Diagnostic per spec.md §7.
type Kind int

const (
	// CompilationError is an I/O or driver-level failure (file not found,
	// cannot open output).
	CompilationError Kind = iota
	// SemanticError is a type mismatch, redefinition, out-of-scope control
	// statement, or missing return.
	SemanticError
	// ConversionError is a disallowed cast or assignment.
	ConversionError
	// NarrowingWarning is an allowed-but-flagged narrowing conversion.
	NarrowingWarning
	// PointerConversionWarning is an allowed-but-flagged pointer conversion.
	PointerConversionWarning
	// InternalError indicates a compiler invariant violation.
	InternalError
)

func (k Kind) String() string {
	switch k {
	case CompilationError:
		return "compilation error"
	case SemanticError:
		return "semantic error"
	case ConversionError:
		return "conversion error"
	case NarrowingWarning:
		return "narrowing warning"
	case PointerConversionWarning:
		return "pointer conversion warning"
	case InternalError:
		return "internal error"
	default:
		return "unknown diagnostic"
	}
}

// Severity is derived from Kind: the two warning kinds are Warning, every
// other kind is Error.
type Severity int

const (
	Error Severity = iota
	Warning
)

// Position identifies a source location.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Kind    Kind
	Pos     Position
	Message string
}

// Severity reports whether d aborts compilation or is merely printed.
func (d *Diagnostic) Severity() Severity {
	switch d.Kind {
	case NarrowingWarning, PointerConversionWarning:
		return Warning
	default:
		return Error
	}
}

// Error implements the error interface so a Diagnostic can be returned,
// wrapped, or compared like any other Go error.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Pos, d.Message)
}

// New constructs a Diagnostic.
func New(kind Kind, pos Position, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Bag collects diagnostics produced during a single pass and separates
// errors from warnings, matching spec.md §7's "a pass completes so the user
// sees multiple errors per run, then the driver aborts" policy.
type Bag struct {
	items []*Diagnostic
}

// Add appends d to the bag.
func (b *Bag) Add(d *Diagnostic) {
	b.items = append(b.items, d)
}

// Addf is a convenience wrapper around New+Add.
func (b *Bag) Addf(kind Kind, pos Position, format string, args ...interface{}) {
	b.Add(New(kind, pos, format, args...))
}

// HasErrors reports whether the bag contains any Error-severity diagnostic.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity() == Error {
			return true
		}
	}
	return false
}

// All returns every diagnostic collected so far, errors and warnings alike.
func (b *Bag) All() []*Diagnostic {
	return b.items
}

// Errors returns only the Error-severity diagnostics.
func (b *Bag) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range b.items {
		if d.Severity() == Error {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the Warning-severity diagnostics.
func (b *Bag) Warnings() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range b.items {
		if d.Severity() == Warning {
			out = append(out, d)
		}
	}
	return out
}
