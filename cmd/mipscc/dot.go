package main

import (
	"fmt"
	"strings"

	"mipscc/internal/ast"
)

// renderDot walks the checked/folded AST into Graphviz source for the
// external `dot` renderer invoked by util.RenderDot, backing the -dot
// debug flag.
func renderDot(root *ast.Node) string {
	var sb strings.Builder
	sb.WriteString("digraph AST {\n")
	id := 0
	var walk func(n *ast.Node) int
	walk = func(n *ast.Node) int {
		if n == nil {
			return -1
		}
		self := id
		id++
		label := n.Kind.String()
		if n.Type != nil {
			label += "\\n" + n.Type.String()
		}
		fmt.Fprintf(&sb, "  n%d [label=\"%s\"];\n", self, label)
		for _, c := range n.Children {
			child := walk(c)
			if child >= 0 {
				fmt.Fprintf(&sb, "  n%d -> n%d;\n", self, child)
			}
		}
		return self
	}
	walk(root)
	sb.WriteString("}\n")
	return sb.String()
}
