// Package store defines the persistence contract for the network catalog
// and the query-record log. Implementations live in subpackages (sqlite,
// memstore).
package store

import (
	"context"
	"sort"
	"time"

	"github.com/cognicore/belief/pkg/belief/bn"
)

// Network is the persisted form of a Bayesian network.
type Network struct {
	Name  string
	Nodes []NodeSpec
}

// NodeSpec is the persisted form of one node. Table rows are indexed the
// same way as bn.CPT: a bitmask over Parents, bit i set when parent i is
// true.
type NodeSpec struct {
	Name    string
	Parents []string
	Table   []float64
}

// QueryRecord is one answered query, kept for history.
type QueryRecord struct {
	ID       string
	Network  string
	Variable string
	Evidence map[string]bool
	PTrue    float64
	PFalse   float64
	AskedAt  time.Time
}

// Store is the persistence interface for networks and query records.
type Store interface {
	UpsertNetwork(ctx context.Context, n Network) error
	GetNetwork(ctx context.Context, name string) (Network, bool, error)
	ListNetworks(ctx context.Context) ([]string, error)
	DeleteNetwork(ctx context.Context, name string) error

	AppendQueryRecord(ctx context.Context, r QueryRecord) error
	GetQueryRecords(ctx context.Context, network string, limit int) ([]QueryRecord, error)

	Close() error
}

// FromBN converts a built network into its persisted form, nodes sorted
// by name for stable storage.
func FromBN(name string, net *bn.Network) Network {
	names := net.Names()
	nodes := make([]NodeSpec, 0, len(names))
	for _, nodeName := range names {
		node, err := net.Node(nodeName)
		if err != nil {
			continue // Names() only returns existing nodes
		}
		nodes = append(nodes, NodeSpec{
			Name:    node.Name,
			Parents: append([]string(nil), node.Parents...),
			Table:   append([]float64(nil), node.CPT...),
		})
	}
	return Network{Name: name, Nodes: nodes}
}

// Build reconstructs a validated bn.Network from its persisted form.
func (n Network) Build() (*bn.Network, error) {
	net := bn.New()
	for _, spec := range n.Nodes {
		net.SetParents(spec.Name, spec.Parents)
	}
	for _, spec := range n.Nodes {
		node, err := net.Node(spec.Name)
		if err != nil {
			return nil, err
		}
		node.CPT = append(bn.CPT(nil), spec.Table...)
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

// SortedEvidenceNames returns the evidence variables of a record in
// lexicographic order, for stable rendering.
func (r QueryRecord) SortedEvidenceNames() []string {
	names := make([]string, 0, len(r.Evidence))
	for name := range r.Evidence {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
