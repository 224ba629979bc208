package bn

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/belief/pkg/belief/internalerr"
)

// Network owns the nodes of a boolean Bayesian network and the
// parent/child edges between them. It is built once by a loader and
// treated as immutable afterwards; the inference engine never mutates it.
type Network struct {
	nodes map[string]*Node
}

// New creates an empty network.
func New() *Network {
	return &Network{nodes: make(map[string]*Node)}
}

// EnsureNode returns the node for name, creating an empty placeholder
// (no parents, no CPT) if absent. Idempotent.
func (nw *Network) EnsureNode(name string) *Node {
	if node, ok := nw.nodes[name]; ok {
		return node
	}
	node := &Node{Name: name}
	nw.nodes[name] = node
	return node
}

// Node returns the node for name.
func (nw *Network) Node(name string) (*Node, error) {
	node, ok := nw.nodes[name]
	if !ok {
		return nil, fmt.Errorf("variable %q: %w", name, internalerr.ErrUnknownVariable)
	}
	return node, nil
}

// Has reports whether a variable exists in the network.
func (nw *Network) Has(name string) bool {
	_, ok := nw.nodes[name]
	return ok
}

// Len returns the number of variables in the network.
func (nw *Network) Len() int {
	return len(nw.nodes)
}

// Names returns all variable names in lexicographic order.
func (nw *Network) Names() []string {
	names := make([]string, 0, len(nw.nodes))
	for name := range nw.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connect registers parent as a parent of child and child as a child of
// parent, creating either node if missing. It does not set CPTs; parent
// order is fixed by the loader via SetParents.
func (nw *Network) Connect(parent, child string) {
	p := nw.EnsureNode(parent)
	c := nw.EnsureNode(child)
	for _, existing := range c.Parents {
		if existing == parent {
			p.addChild(child)
			return
		}
	}
	c.Parents = append(c.Parents, parent)
	p.addChild(child)
}

// SetParents fixes child's parent list in the given order and wires the
// corresponding child edges. This is the loader's entry point: the order
// given here defines the child's CPT row indexing.
func (nw *Network) SetParents(child string, parents []string) *Node {
	c := nw.EnsureNode(child)
	c.Parents = append([]string(nil), parents...)
	for _, parent := range parents {
		nw.EnsureNode(parent).addChild(child)
	}
	return c
}

// TopologicalOrder returns all variable names such that every variable
// appears after all of its parents, via Kahn's algorithm. Ties among
// ready nodes break lexicographically, so the order is stable across
// runs. Fails when no valid order exists.
func (nw *Network) TopologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(nw.nodes))
	for name, node := range nw.nodes {
		indegree[name] = len(node.Parents)
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(nw.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		released := false
		for _, child := range nw.nodes[name].Children {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(order) != len(nw.nodes) {
		return nil, fmt.Errorf("%d of %d variables cannot be ordered: %w",
			len(nw.nodes)-len(order), len(nw.nodes), internalerr.ErrCycle)
	}
	return order, nil
}

// Validate checks the whole-network invariants a loader must establish
// before handing the network to the inference engine: every referenced
// parent exists, every CPT is complete with probabilities in [0,1], and
// the graph is acyclic.
func (nw *Network) Validate() error {
	for _, name := range nw.Names() {
		node := nw.nodes[name]
		for _, parent := range node.Parents {
			if !nw.Has(parent) {
				return fmt.Errorf("node %q references parent %q: %w", name, parent, internalerr.ErrUnknownVariable)
			}
		}
		want := 1 << len(node.Parents)
		if len(node.CPT) != want {
			return fmt.Errorf("node %q: CPT has %d rows, want %d: %w",
				name, len(node.CPT), want, internalerr.ErrInvalidInput)
		}
		for idx, p := range node.CPT {
			if math.IsNaN(p) || p < 0 || p > 1 {
				return fmt.Errorf("node %q row %q: probability %v out of range [0,1]: %w",
					name, FormatRow(node.Parents, idx), p, internalerr.ErrInvalidInput)
			}
		}
	}
	if _, err := nw.TopologicalOrder(); err != nil {
		return err
	}
	return nil
}
