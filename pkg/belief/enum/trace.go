package enum

import (
	"fmt"
	"strings"

	"github.com/cognicore/belief/pkg/belief/bn"
)

// StepKind classifies one arithmetic event during enumeration.
type StepKind int

const (
	// StepFactor is the multiplication for a variable fixed by evidence.
	StepFactor StepKind = iota
	// StepBranch is one summand of a hidden variable's sum.
	StepBranch
	// StepSum is the completed sum over a hidden variable.
	StepSum
	// StepCase is the unnormalized total for one value of the query variable.
	StepCase
)

// Step records one multiplication or summation performed by the engine,
// in evaluation order, with enough detail to replay the arithmetic by
// hand.
type Step struct {
	Kind     StepKind
	Variable string
	Value    bool
	Parents  string  // rendered parent assignment, e.g. "Burglary=T,Earthquake=F"
	Factor   float64 // P(Variable=Value | Parents), when a factor applies
	Sub      float64 // value of the recursive tail or branch
	Result   float64 // running product, branch contribution, or total
	Depth    int     // position in the topological order
}

// String renders the step in a compact human-readable form.
func (s Step) String() string {
	indent := strings.Repeat("  ", s.Depth)
	switch s.Kind {
	case StepFactor:
		return fmt.Sprintf("%s[fixed] %s=%s  P(%s=%s | %s) = %g  * tail %g => %g",
			indent, s.Variable, bn.TruthSymbol(s.Value),
			s.Variable, bn.TruthSymbol(s.Value), s.Parents, s.Factor, s.Sub, s.Result)
	case StepBranch:
		return fmt.Sprintf("%s[branch] %s=%s  P=%g * sub=%g => %g",
			indent, s.Variable, bn.TruthSymbol(s.Value), s.Factor, s.Sub, s.Result)
	case StepSum:
		return fmt.Sprintf("%s[sum] over %s => %g", indent, s.Variable, s.Result)
	case StepCase:
		return fmt.Sprintf("[case] %s=%s  unnormalized %g",
			s.Variable, bn.TruthSymbol(s.Value), s.Result)
	default:
		return fmt.Sprintf("%s[?] %s", indent, s.Variable)
	}
}

// Trace is the ordered log of steps for one query. A nil Trace is a
// valid no-op sink, which is how untraced queries run.
type Trace struct {
	Steps []Step
}

func (t *Trace) record(s Step) {
	if t == nil {
		return
	}
	t.Steps = append(t.Steps, s)
}

// String renders the whole trace, one step per line.
func (t *Trace) String() string {
	if t == nil || len(t.Steps) == 0 {
		return ""
	}
	lines := make([]string, len(t.Steps))
	for i, s := range t.Steps {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}
