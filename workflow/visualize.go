package workflow

import (
	"fmt"
	"strings"
)

// DOT renders the graph in Graphviz DOT format, edges pointing from a
// dependency to its dependent. The output is deterministic: nodes
// appear in insertion order, edges in sorted dependency order per node.
func (g *Graph) DOT() string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", dotQuote(g.name))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")
	for _, name := range g.order {
		fmt.Fprintf(&b, "  %s;\n", dotQuote(name))
	}
	for _, name := range g.order {
		for _, dep := range g.nodes[name].Dependencies() {
			fmt.Fprintf(&b, "  %s -> %s;\n", dotQuote(dep), dotQuote(name))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
