package bn

import (
	"fmt"
	"strings"
)

// DescribeStructure renders the network structure: each variable with its
// parents, in topological order. Pure string building; nothing is printed.
func (nw *Network) DescribeStructure() (string, error) {
	order, err := nw.TopologicalOrder()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("=== Network structure ===\n")
	for _, name := range order {
		node := nw.nodes[name]
		if len(node.Parents) == 0 {
			fmt.Fprintf(&b, "- %s: (no parents)\n", name)
			continue
		}
		fmt.Fprintf(&b, "- %s: parents -> %s\n", name, strings.Join(node.Parents, ", "))
	}
	return b.String(), nil
}

// DescribeCPTs renders every node's table of P(node=T | parents), rows in
// index order for stable output.
func (nw *Network) DescribeCPTs() (string, error) {
	order, err := nw.TopologicalOrder()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("=== Probability tables (P(node=T | parents)) ===\n")
	for _, name := range order {
		node := nw.nodes[name]
		fmt.Fprintf(&b, "[%s]\n", name)
		if len(node.Parents) == 0 {
			if len(node.CPT) > 0 {
				fmt.Fprintf(&b, "  (no parents)  P(%s=T) = %g\n", name, node.CPT[0])
			} else {
				b.WriteString("  (no parents)  table missing\n")
			}
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "  parents: %s\n", strings.Join(node.Parents, ", "))
		for idx := 0; idx < 1<<len(node.Parents); idx++ {
			if idx < len(node.CPT) {
				fmt.Fprintf(&b, "  %s  ->  P(%s=T) = %g\n", FormatRow(node.Parents, idx), name, node.CPT[idx])
			} else {
				fmt.Fprintf(&b, "  %s  ->  missing\n", FormatRow(node.Parents, idx))
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
