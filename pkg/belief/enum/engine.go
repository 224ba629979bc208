// Package enum implements exact inference over boolean Bayesian networks
// by enumeration: brute-force summation over every hidden-variable
// assignment, conditioned on evidence and normalized into a distribution.
// Running time is 2^(hidden variables) x (variables); callers needing
// bounded latency must bound the hidden-variable count themselves.
package enum

import (
	"fmt"
	"sort"

	"github.com/cognicore/belief/pkg/belief/bn"
	"github.com/cognicore/belief/pkg/belief/internalerr"
)

// Engine answers P(variable | evidence) queries against an immutable
// network. It holds a reference to the network and the topological order
// computed once at construction; it never mutates either, so a single
// Engine is safe for concurrent queries.
type Engine struct {
	net   *bn.Network
	order []string
}

// New creates an engine for the given network. A cyclic network is
// rejected here, before any arithmetic begins.
func New(net *bn.Network) (*Engine, error) {
	order, err := net.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	return &Engine{net: net, order: order}, nil
}

// Distribution is the normalized result of a query over a boolean
// variable. True and False sum to 1.
type Distribution struct {
	True  float64
	False float64
}

// Query returns the normalized distribution P(variable | evidence).
// The caller's evidence map is never mutated.
func (e *Engine) Query(variable string, evidence map[string]bool) (Distribution, error) {
	return e.ask(variable, evidence, nil)
}

// QueryWithTrace runs the same computation as Query while recording every
// multiplication and summation. Tracing never changes the numeric result
// or the evaluation order.
func (e *Engine) QueryWithTrace(variable string, evidence map[string]bool) (Distribution, *Trace, error) {
	tr := &Trace{}
	dist, err := e.ask(variable, evidence, tr)
	if err != nil {
		return Distribution{}, nil, err
	}
	return dist, tr, nil
}

func (e *Engine) ask(variable string, evidence map[string]bool, tr *Trace) (Distribution, error) {
	if _, err := e.net.Node(variable); err != nil {
		return Distribution{}, fmt.Errorf("query: %w", err)
	}
	for _, name := range sortedNames(evidence) {
		if !e.net.Has(name) {
			return Distribution{}, fmt.Errorf("evidence: variable %q: %w", name, internalerr.ErrUnknownVariable)
		}
	}
	if _, bound := evidence[variable]; bound {
		return Distribution{}, fmt.Errorf("query variable %q already fixed by evidence: %w",
			variable, internalerr.ErrInvalidInput)
	}

	var unnormalized [2]float64
	for i, val := range []bool{true, false} {
		extended := extend(evidence, variable, val)
		p, err := e.enumerateAll(e.order, extended, tr)
		if err != nil {
			return Distribution{}, fmt.Errorf("inference for %s=%s: %w", variable, bn.TruthSymbol(val), err)
		}
		tr.record(Step{Kind: StepCase, Variable: variable, Value: val, Result: p})
		unnormalized[i] = p
	}

	total := unnormalized[0] + unnormalized[1]
	if total == 0 {
		return Distribution{}, fmt.Errorf("query %q: both unnormalized cases are zero: %w",
			variable, internalerr.ErrZeroProbability)
	}
	return Distribution{
		True:  unnormalized[0] / total,
		False: unnormalized[1] / total,
	}, nil
}

// enumerateAll walks the remaining variables in topological order.
// A variable bound by evidence contributes a single factor; a hidden
// variable contributes the sum over both of its values, each branch
// receiving its own extended copy of the evidence so that siblings never
// see each other's assignments. Topological order guarantees every
// parent of the head variable is already bound when it is reached.
func (e *Engine) enumerateAll(vars []string, evidence map[string]bool, tr *Trace) (float64, error) {
	if len(vars) == 0 {
		return 1, nil
	}

	name, rest := vars[0], vars[1:]
	node, err := e.net.Node(name)
	if err != nil {
		return 0, err
	}
	depth := len(e.order) - len(vars)

	if val, bound := evidence[name]; bound {
		p, err := node.ProbabilityOf(val, evidence)
		if err != nil {
			return 0, err
		}
		tail, err := e.enumerateAll(rest, evidence, tr)
		if err != nil {
			return 0, err
		}
		tr.record(Step{
			Kind:     StepFactor,
			Variable: name,
			Value:    val,
			Parents:  bn.FormatAssignment(node.Parents, evidence),
			Factor:   p,
			Sub:      tail,
			Result:   p * tail,
			Depth:    depth,
		})
		return p * tail, nil
	}

	total := 0.0
	for _, val := range []bool{true, false} {
		p, err := node.ProbabilityOf(val, evidence)
		if err != nil {
			return 0, err
		}
		branch := extend(evidence, name, val)
		sub, err := e.enumerateAll(rest, branch, tr)
		if err != nil {
			return 0, err
		}
		contribution := p * sub
		total += contribution
		tr.record(Step{
			Kind:     StepBranch,
			Variable: name,
			Value:    val,
			Parents:  bn.FormatAssignment(node.Parents, evidence),
			Factor:   p,
			Sub:      sub,
			Result:   contribution,
			Depth:    depth,
		})
	}
	tr.record(Step{Kind: StepSum, Variable: name, Result: total, Depth: depth})
	return total, nil
}

// extend returns a fresh copy of evidence with one additional binding.
// Copy-on-extend keeps sibling branches from contaminating each other.
func extend(evidence map[string]bool, name string, val bool) map[string]bool {
	out := make(map[string]bool, len(evidence)+1)
	for k, v := range evidence {
		out[k] = v
	}
	out[name] = val
	return out
}

func sortedNames(evidence map[string]bool) []string {
	names := make([]string, 0, len(evidence))
	for name := range evidence {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
