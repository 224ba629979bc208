// Package belief ties the network catalog and the enumeration engine
// together behind one facade: import validated networks, ask queries
// against them by name, and keep a record of every answer.
package belief

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/belief/pkg/belief/bn"
	"github.com/cognicore/belief/pkg/belief/enum"
	"github.com/cognicore/belief/pkg/belief/internalerr"
	"github.com/cognicore/belief/pkg/belief/store"
)

// Belief is the main engine facade.
type Belief struct {
	store   store.Store
	entropy *ulid.MonotonicEntropy
}

// Options configures a Belief instance
type Options struct {
	Store store.Store
}

// New creates a Belief instance with the given dependencies
func New(opts Options) *Belief {
	return &Belief{
		store:   opts.Store,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Close cleanly shuts down the Belief instance
func (b *Belief) Close() error {
	return b.store.Close()
}

// Import validates a network and stores it in the catalog under name.
func (b *Belief) Import(ctx context.Context, name string, net *bn.Network) error {
	if name == "" {
		return fmt.Errorf("network name required: %w", internalerr.ErrInvalidInput)
	}
	if err := net.Validate(); err != nil {
		return fmt.Errorf("validate network %q: %w", name, err)
	}
	return b.store.UpsertNetwork(ctx, store.FromBN(name, net))
}

// Network loads a catalog network by name and rebuilds it.
func (b *Belief) Network(ctx context.Context, name string) (*bn.Network, error) {
	persisted, found, err := b.store.GetNetwork(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load network %q: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("network %q: %w", name, internalerr.ErrNotFound)
	}
	net, err := persisted.Build()
	if err != nil {
		return nil, fmt.Errorf("rebuild network %q: %w", name, err)
	}
	return net, nil
}

// Networks lists the catalog's network names.
func (b *Belief) Networks(ctx context.Context) ([]string, error) {
	return b.store.ListNetworks(ctx)
}

// Remove deletes a network and its query history from the catalog.
func (b *Belief) Remove(ctx context.Context, name string) error {
	return b.store.DeleteNetwork(ctx, name)
}

// AskRequest names a catalog network, the variable to query, and the
// evidence to condition on.
type AskRequest struct {
	Network  string
	Variable string
	Evidence map[string]bool
	Trace    bool
}

// AskResponse is the normalized answer plus the ID of the stored record
// and, when requested, the evaluation trace.
type AskResponse struct {
	True     float64
	False    float64
	Trace    *enum.Trace
	RecordID string
}

// Ask answers P(Variable | Evidence) against a catalog network and
// appends a query record to the history.
func (b *Belief) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	net, err := b.Network(ctx, req.Network)
	if err != nil {
		return AskResponse{}, err
	}

	engine, err := enum.New(net)
	if err != nil {
		return AskResponse{}, fmt.Errorf("network %q: %w", req.Network, err)
	}

	var (
		dist enum.Distribution
		tr   *enum.Trace
	)
	if req.Trace {
		dist, tr, err = engine.QueryWithTrace(req.Variable, req.Evidence)
	} else {
		dist, err = engine.Query(req.Variable, req.Evidence)
	}
	if err != nil {
		return AskResponse{}, err
	}

	record := store.QueryRecord{
		ID:       ulid.MustNew(ulid.Now(), b.entropy).String(),
		Network:  req.Network,
		Variable: req.Variable,
		Evidence: copyEvidence(req.Evidence),
		PTrue:    dist.True,
		PFalse:   dist.False,
		AskedAt:  time.Now().UTC(),
	}
	if err := b.store.AppendQueryRecord(ctx, record); err != nil {
		return AskResponse{}, fmt.Errorf("record query: %w", err)
	}

	return AskResponse{
		True:     dist.True,
		False:    dist.False,
		Trace:    tr,
		RecordID: record.ID,
	}, nil
}

// History returns a network's most recent query records.
func (b *Belief) History(ctx context.Context, network string, limit int) ([]store.QueryRecord, error) {
	return b.store.GetQueryRecords(ctx, network, limit)
}

func copyEvidence(evidence map[string]bool) map[string]bool {
	out := make(map[string]bool, len(evidence))
	for k, v := range evidence {
		out[k] = v
	}
	return out
}
