package bn

import (
	"errors"
	"math"
	"testing"

	"github.com/cognicore/belief/pkg/belief/internalerr"
)

func TestProbabilityTrueNoParents(t *testing.T) {
	node := &Node{Name: "Rain", CPT: CPT{0.2}}

	p, err := node.ProbabilityTrue(map[string]bool{})
	if err != nil {
		t.Fatalf("ProbabilityTrue: %v", err)
	}
	if p != 0.2 {
		t.Errorf("Expected 0.2, got %v", p)
	}
}

func TestProbabilityTrueRowSelection(t *testing.T) {
	// Parents (A, B): bit 0 is A, bit 1 is B.
	node := &Node{
		Name:    "C",
		Parents: []string{"A", "B"},
		CPT:     CPT{0.1, 0.2, 0.3, 0.4},
	}

	cases := []struct {
		a, b bool
		want float64
	}{
		{false, false, 0.1},
		{true, false, 0.2},
		{false, true, 0.3},
		{true, true, 0.4},
	}

	for _, tc := range cases {
		p, err := node.ProbabilityTrue(map[string]bool{"A": tc.a, "B": tc.b})
		if err != nil {
			t.Fatalf("A=%v B=%v: %v", tc.a, tc.b, err)
		}
		if p != tc.want {
			t.Errorf("A=%v B=%v: expected %v, got %v", tc.a, tc.b, tc.want, p)
		}
	}
}

func TestProbabilityOfComplement(t *testing.T) {
	node := &Node{Name: "Rain", CPT: CPT{0.2}}

	p, err := node.ProbabilityOf(false, map[string]bool{})
	if err != nil {
		t.Fatalf("ProbabilityOf: %v", err)
	}
	if math.Abs(p-0.8) > 1e-12 {
		t.Errorf("Expected complement 0.8, got %v", p)
	}
}

func TestProbabilityTrueUnassignedParent(t *testing.T) {
	node := &Node{Name: "C", Parents: []string{"A"}, CPT: CPT{0.5, 0.5}}

	_, err := node.ProbabilityTrue(map[string]bool{})
	if !errors.Is(err, internalerr.ErrCPTLookup) {
		t.Errorf("Expected ErrCPTLookup for unassigned parent, got %v", err)
	}
}

func TestProbabilityTrueIncompleteTable(t *testing.T) {
	node := &Node{Name: "C", Parents: []string{"A"}, CPT: CPT{0.5}}

	_, err := node.ProbabilityTrue(map[string]bool{"A": true})
	if !errors.Is(err, internalerr.ErrCPTLookup) {
		t.Errorf("Expected ErrCPTLookup for missing row, got %v", err)
	}
}

func TestProbabilityTrueIgnoresExtraAssignments(t *testing.T) {
	node := &Node{Name: "C", Parents: []string{"A"}, CPT: CPT{0.3, 0.7}}

	p, err := node.ProbabilityTrue(map[string]bool{"A": true, "Z": false})
	if err != nil {
		t.Fatalf("ProbabilityTrue: %v", err)
	}
	if p != 0.7 {
		t.Errorf("Extra assignments should be ignored; expected 0.7, got %v", p)
	}
}

func TestFormatRow(t *testing.T) {
	parents := []string{"A", "B"}

	if got := FormatRow(parents, 0); got != "A=F,B=F" {
		t.Errorf("Row 0: got %q", got)
	}
	if got := FormatRow(parents, 1); got != "A=T,B=F" {
		t.Errorf("Row 1: got %q", got)
	}
	if got := FormatRow(parents, 3); got != "A=T,B=T" {
		t.Errorf("Row 3: got %q", got)
	}
	if got := FormatRow(nil, 0); got != "" {
		t.Errorf("Parentless row should render empty, got %q", got)
	}
}

func TestFormatAssignment(t *testing.T) {
	got := FormatAssignment([]string{"B", "A"}, map[string]bool{"A": true, "B": false})
	if got != "B=F,A=T" {
		t.Errorf("Expected parent-order rendering, got %q", got)
	}

	if got := FormatAssignment(nil, nil); got != "(no parents)" {
		t.Errorf("Parentless rendering: got %q", got)
	}
}
