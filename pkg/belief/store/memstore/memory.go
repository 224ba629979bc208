// Package memstore is an in-memory implementation of store.Store for
// tests, demos, and catalog-free CLI runs.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/belief/pkg/belief/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	networks map[string]store.Network
	records  map[string][]store.QueryRecord
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		networks: make(map[string]store.Network),
		records:  make(map[string][]store.QueryRecord),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertNetwork inserts or replaces a network, keyed by name.
func (s *Store) UpsertNetwork(ctx context.Context, n store.Network) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.Name == "" {
		return nil
	}
	s.networks[n.Name] = copyNetwork(n)
	return nil
}

// GetNetwork returns a network by name.
func (s *Store) GetNetwork(ctx context.Context, name string) (store.Network, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.networks[name]; ok {
		return copyNetwork(n), true, nil
	}
	return store.Network{}, false, nil
}

// ListNetworks returns all network names, sorted.
func (s *Store) ListNetworks(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.networks))
	for name := range s.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteNetwork removes a network and its query records.
func (s *Store) DeleteNetwork(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.networks, name)
	delete(s.records, name)
	return nil
}

// AppendQueryRecord stores one answered query.
func (s *Store) AppendQueryRecord(ctx context.Context, r store.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.Network] = append(s.records[r.Network], copyRecord(r))
	return nil
}

// GetQueryRecords returns a network's records, most recent first.
func (s *Store) GetQueryRecords(ctx context.Context, network string, limit int) ([]store.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[network]
	out := make([]store.QueryRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, copyRecord(records[i]))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func copyNetwork(n store.Network) store.Network {
	nodes := make([]store.NodeSpec, len(n.Nodes))
	for i, spec := range n.Nodes {
		nodes[i] = store.NodeSpec{
			Name:    spec.Name,
			Parents: append([]string(nil), spec.Parents...),
			Table:   append([]float64(nil), spec.Table...),
		}
	}
	return store.Network{Name: n.Name, Nodes: nodes}
}

func copyRecord(r store.QueryRecord) store.QueryRecord {
	evidence := make(map[string]bool, len(r.Evidence))
	for k, v := range r.Evidence {
		evidence[k] = v
	}
	r.Evidence = evidence
	return r
}
