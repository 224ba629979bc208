package bn

import (
	"fmt"
	"strings"

	"github.com/cognicore/belief/pkg/belief/internalerr"
)

// CPT holds P(node=true | parent assignment) for every combination of
// parent truth values. Rows are indexed by a bitmask over the node's
// parent list: bit i is set when parent i is assigned true. A parentless
// node has a single row at index 0. P(false | row) is the complement and
// is never stored.
type CPT []float64

// Node is one boolean variable in a Bayesian network.
type Node struct {
	Name     string
	Parents  []string // declaration order fixes CPT row indexing
	Children []string
	CPT      CPT
}

// RowIndex computes the CPT row for an assignment of this node's parents.
// The assignment may contain extra variables; only the node's parents are
// read. A parent missing from the assignment is a lookup failure.
func (n *Node) RowIndex(assignment map[string]bool) (int, error) {
	idx := 0
	for i, parent := range n.Parents {
		val, ok := assignment[parent]
		if !ok {
			return 0, fmt.Errorf("node %q: parent %q unassigned: %w", n.Name, parent, internalerr.ErrCPTLookup)
		}
		if val {
			idx |= 1 << i
		}
	}
	return idx, nil
}

// ProbabilityTrue returns P(node=true | assignment).
func (n *Node) ProbabilityTrue(assignment map[string]bool) (float64, error) {
	idx, err := n.RowIndex(assignment)
	if err != nil {
		return 0, err
	}
	if idx >= len(n.CPT) {
		return 0, fmt.Errorf("node %q: CPT has %d rows, need row %s: %w",
			n.Name, len(n.CPT), FormatRow(n.Parents, idx), internalerr.ErrCPTLookup)
	}
	return n.CPT[idx], nil
}

// ProbabilityOf returns P(node=value | assignment), using the complement
// of the stored probability when value is false.
func (n *Node) ProbabilityOf(value bool, assignment map[string]bool) (float64, error) {
	p, err := n.ProbabilityTrue(assignment)
	if err != nil {
		return 0, err
	}
	if value {
		return p, nil
	}
	return 1 - p, nil
}

// TruthSymbol renders a boolean as the single-letter form used in CPT row
// keys and evidence strings.
func TruthSymbol(v bool) string {
	if v {
		return "T"
	}
	return "F"
}

// FormatRow renders a CPT row index as "A=T,B=F" in parent order.
// The empty string denotes the single row of a parentless node.
func FormatRow(parents []string, idx int) string {
	if len(parents) == 0 {
		return ""
	}
	parts := make([]string, len(parents))
	for i, parent := range parents {
		parts[i] = parent + "=" + TruthSymbol(idx&(1<<i) != 0)
	}
	return strings.Join(parts, ",")
}

// FormatAssignment renders the parents' values from an assignment as
// "A=T,B=F" in parent order. Unassigned parents are skipped.
func FormatAssignment(parents []string, assignment map[string]bool) string {
	if len(parents) == 0 {
		return "(no parents)"
	}
	parts := make([]string, 0, len(parents))
	for _, parent := range parents {
		if val, ok := assignment[parent]; ok {
			parts = append(parts, parent+"="+TruthSymbol(val))
		}
	}
	return strings.Join(parts, ",")
}

func (n *Node) addChild(name string) {
	for _, child := range n.Children {
		if child == name {
			return
		}
	}
	n.Children = append(n.Children, name)
}
