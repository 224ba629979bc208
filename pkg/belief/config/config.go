// Package config loads network definitions from files and hands the core
// a fully validated network. Textual CPT row keys ("A=T,B=F") exist only
// at this boundary; they are converted to structured row indexes before
// the inference engine ever sees them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/belief/pkg/belief/bn"
	"github.com/cognicore/belief/pkg/belief/internalerr"
)

// LoadStructure reads a structure file with lines like:
//
//	- -> Burglary
//	Burglary,Earthquake -> Alarm
//
// The left side lists the child's parents in CPT order; "-" or an empty
// left side declares a root. Blank lines and "#" comments are skipped.
func LoadStructure(path string, net *bn.Network) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return ParseStructure(string(data), net)
}

// ParseStructure applies structure lines to a network.
func ParseStructure(text string, net *bn.Network) error {
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		left, right, found := strings.Cut(line, "->")
		if !found {
			return fmt.Errorf("structure line %d: %q missing \"->\": %w", i+1, line, internalerr.ErrInvalidInput)
		}
		child := strings.TrimSpace(right)
		if child == "" {
			return fmt.Errorf("structure line %d: %q missing child: %w", i+1, line, internalerr.ErrInvalidInput)
		}

		var parents []string
		if l := strings.TrimSpace(left); l != "" && l != "-" {
			for _, part := range strings.Split(l, ",") {
				if p := strings.TrimSpace(part); p != "" {
					parents = append(parents, p)
				}
			}
		}
		net.SetParents(child, parents)
	}
	return nil
}

// cptSpec mirrors one entry of the CPT JSON file:
//
//	{"Alarm": {"parents": ["Burglary","Earthquake"],
//	           "table": {"Burglary=T,Earthquake=T": 0.95, ...}}}
type cptSpec struct {
	Parents []string           `json:"parents"`
	Table   map[string]float64 `json:"table"`
}

// LoadCPTs reads a CPT JSON file and assigns tables to nodes already
// declared by the structure. The parents list in the file must match the
// structural declaration exactly, including order, because the table's
// row keys depend on it.
func LoadCPTs(path string, net *bn.Network) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var specs map[string]cptSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := specs[name]
		node := net.EnsureNode(name)
		if !equalStrings(node.Parents, spec.Parents) {
			return fmt.Errorf("node %q: parents %v in CPT file do not match structure %v: %w",
				name, spec.Parents, node.Parents, internalerr.ErrInvalidInput)
		}
		table, err := buildTable(name, node.Parents, spec.Table)
		if err != nil {
			return err
		}
		node.CPT = table
	}
	return nil
}

// buildTable converts textual row keys into a dense, bitmask-indexed
// table, rejecting duplicate, missing, and out-of-range rows.
func buildTable(name string, parents []string, rows map[string]float64) (bn.CPT, error) {
	table := make(bn.CPT, 1<<len(parents))
	seen := make([]bool, len(table))

	for key, p := range rows {
		idx, err := rowIndex(parents, key)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		if seen[idx] {
			return nil, fmt.Errorf("node %q: row %q already defined: %w", name, key, internalerr.ErrDuplicate)
		}
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("node %q row %q: probability %v out of range [0,1]: %w",
				name, key, p, internalerr.ErrInvalidInput)
		}
		seen[idx] = true
		table[idx] = p
	}

	for idx, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("node %q: missing CPT row %q: %w",
				name, bn.FormatRow(parents, idx), internalerr.ErrInvalidInput)
		}
	}
	return table, nil
}

// rowIndex converts a textual row key like "A=T,B=F" into the bitmask
// index defined by the parent order. Every parent must appear exactly
// once; the empty key addresses the single row of a root node.
func rowIndex(parents []string, key string) (int, error) {
	assignment, err := ParseEvidence(key)
	if err != nil {
		return 0, fmt.Errorf("row key %q: %w", key, err)
	}
	if len(assignment) != len(parents) {
		return 0, fmt.Errorf("row key %q assigns %d of %d parents: %w",
			key, len(assignment), len(parents), internalerr.ErrInvalidInput)
	}

	idx := 0
	for i, parent := range parents {
		val, ok := assignment[parent]
		if !ok {
			return 0, fmt.Errorf("row key %q does not assign parent %q: %w", key, parent, internalerr.ErrInvalidInput)
		}
		if val {
			idx |= 1 << i
		}
	}
	return idx, nil
}

// ParseEvidence parses "A=T,B=F" into a variable assignment. Values
// accept T/F and true/false, case-insensitively. The empty string is an
// empty assignment.
func ParseEvidence(s string) (map[string]bool, error) {
	assignment := make(map[string]bool)
	s = strings.TrimSpace(s)
	if s == "" {
		return assignment, nil
	}

	for _, part := range strings.Split(s, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return nil, fmt.Errorf("assignment %q missing \"=\": %w", part, internalerr.ErrInvalidInput)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("assignment %q missing variable: %w", part, internalerr.ErrInvalidInput)
		}
		if _, dup := assignment[name]; dup {
			return nil, fmt.Errorf("variable %q assigned twice: %w", name, internalerr.ErrDuplicate)
		}

		switch strings.ToUpper(strings.TrimSpace(value)) {
		case "T", "TRUE":
			assignment[name] = true
		case "F", "FALSE":
			assignment[name] = false
		default:
			return nil, fmt.Errorf("assignment %q: value must be T/F: %w", part, internalerr.ErrInvalidInput)
		}
	}
	return assignment, nil
}

// networkFile is the single-file YAML network format:
//
//	name: alarm
//	nodes:
//	  - name: Burglary
//	    p: 0.001
//	  - name: Alarm
//	    parents: [Burglary, Earthquake]
//	    table:
//	      "T,T": 0.95
//	      "T,F": 0.94
//	      "F,T": 0.29
//	      "F,F": 0.001
//
// Table keys list parent truth values in declaration order.
type networkFile struct {
	Name  string     `yaml:"name"`
	Nodes []nodeFile `yaml:"nodes"`
}

type nodeFile struct {
	Name    string             `yaml:"name"`
	Parents []string           `yaml:"parents"`
	P       *float64           `yaml:"p"`
	Table   map[string]float64 `yaml:"table"`
}

// LoadNetworkFile reads a YAML network definition. When the file has no
// name, the file's base name is used.
func LoadNetworkFile(path string) (string, *bn.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	var nf networkFile
	if err := yaml.Unmarshal(data, &nf); err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", path, err)
	}

	name := nf.Name
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	net := bn.New()
	for _, n := range nf.Nodes {
		if n.Name == "" {
			return "", nil, fmt.Errorf("network %q: node without a name: %w", name, internalerr.ErrInvalidInput)
		}
		net.SetParents(n.Name, n.Parents)
	}
	for _, n := range nf.Nodes {
		table, err := yamlTable(n)
		if err != nil {
			return "", nil, fmt.Errorf("network %q: %w", name, err)
		}
		node, err := net.Node(n.Name)
		if err != nil {
			return "", nil, err
		}
		node.CPT = table
	}
	return name, net, nil
}

func yamlTable(n nodeFile) (bn.CPT, error) {
	if n.P != nil {
		if len(n.Parents) > 0 {
			return nil, fmt.Errorf("node %q: \"p\" is only valid for roots: %w", n.Name, internalerr.ErrInvalidInput)
		}
		if len(n.Table) > 0 {
			return nil, fmt.Errorf("node %q: both \"p\" and \"table\" given: %w", n.Name, internalerr.ErrInvalidInput)
		}
		return bn.CPT{*n.P}, nil
	}
	if len(n.Parents) == 0 && len(n.Table) == 0 {
		return nil, fmt.Errorf("node %q: no probability given: %w", n.Name, internalerr.ErrInvalidInput)
	}

	table := make(bn.CPT, 1<<len(n.Parents))
	seen := make([]bool, len(table))
	for key, p := range n.Table {
		idx, err := compactRowIndex(n.Parents, key)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		if seen[idx] {
			return nil, fmt.Errorf("node %q: row %q already defined: %w", n.Name, key, internalerr.ErrDuplicate)
		}
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("node %q row %q: probability %v out of range [0,1]: %w",
				n.Name, key, p, internalerr.ErrInvalidInput)
		}
		seen[idx] = true
		table[idx] = p
	}
	for idx, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("node %q: missing row %q: %w",
				n.Name, compactRowKey(len(n.Parents), idx), internalerr.ErrInvalidInput)
		}
	}
	return table, nil
}

// compactRowIndex parses a "T,F" style key, one truth value per parent in
// declaration order.
func compactRowIndex(parents []string, key string) (int, error) {
	parts := strings.Split(key, ",")
	if len(key) == 0 {
		parts = nil
	}
	if len(parts) != len(parents) {
		return 0, fmt.Errorf("row key %q has %d values for %d parents: %w",
			key, len(parts), len(parents), internalerr.ErrInvalidInput)
	}

	idx := 0
	for i, part := range parts {
		switch strings.ToUpper(strings.TrimSpace(part)) {
		case "T":
			idx |= 1 << i
		case "F":
		default:
			return 0, fmt.Errorf("row key %q: value %q must be T or F: %w", key, part, internalerr.ErrInvalidInput)
		}
	}
	return idx, nil
}

func compactRowKey(parents, idx int) string {
	parts := make([]string, parents)
	for i := range parts {
		parts[i] = bn.TruthSymbol(idx&(1<<i) != 0)
	}
	return strings.Join(parts, ",")
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
