package util

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Writer buffers assembly text produced by a single compiler stage and
// flushes it to the driver's chosen output (file or stdout) on demand.
type Writer struct {
	sb strings.Builder
	f  *os.File
	w  *bufio.Writer
}

// NewWriter opens the driver's output destination. If path is empty, output
// goes to stdout.
func NewWriter(path string) (*Writer, error) {
	w := &Writer{}
	if path == "" {
		w.w = bufio.NewWriter(os.Stdout)
		return w, nil
	}
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open output file %q", path)
	}
	w.f = f
	w.w = bufio.NewWriter(f)
	return w, nil
}

// Write appends a formatted instruction or directive line.
func (w *Writer) Write(format string, args ...interface{}) {
	if len(args) == 0 {
		w.sb.WriteString(format)
		return
	}
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// WriteString appends a plain string.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Label writes a one-line assembly label.
func (w *Writer) Label(name string) {
	w.sb.WriteString(name)
	w.sb.WriteString(":\n")
}

// Flush writes the buffered text to the underlying destination and clears
// the buffer.
func (w *Writer) Flush() error {
	if _, err := w.w.WriteString(w.sb.String()); err != nil {
		return errors.Wrap(err, "failed writing assembly output")
	}
	w.sb.Reset()
	return w.w.Flush()
}

// Close flushes and closes the underlying file, if any. Safe to call on a
// stdout-backed Writer.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.f != nil {
		return errors.Wrap(w.f.Close(), "failed closing output file")
	}
	return nil
}

// ReadSource reads the compiler's input: a named file, or stdin when no path
// is given.
func ReadSource(opt Options) (string, error) {
	if opt.Src != "" {
		b, err := ioutil.ReadFile(opt.Src)
		if err != nil {
			return "", errors.Wrapf(err, "could not read source file %q", opt.Src)
		}
		return string(b), nil
	}
	b, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.Wrap(err, "could not read source from stdin")
	}
	return string(b), nil
}

// RenderDot invokes the external `dot` program to render a Graphviz source
// string to a PNG file at path. The `dot` program itself is an external
// collaborator per spec.md §6; this just shells out to it.
func RenderDot(graph, path string) error {
	cmd := exec.Command("dot", "-Tpng", "-o", path)
	cmd.Stdin = strings.NewReader(graph)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "dot failed: %s", string(out))
	}
	return nil
}
