package config

import (
	"errors"
	"math"
	"testing"

	"github.com/cognicore/belief/pkg/belief/enum"
	"github.com/cognicore/belief/pkg/belief/internalerr"
)

const alarmStructure = `# alarm network
- -> Burglary
- -> Earthquake
Burglary,Earthquake -> Alarm
Alarm -> JohnCalls
Alarm -> MaryCalls
`

const alarmCPTs = `{
  "Burglary":   {"parents": [], "table": {"": 0.001}},
  "Earthquake": {"parents": [], "table": {"": 0.002}},
  "Alarm": {
    "parents": ["Burglary", "Earthquake"],
    "table": {
      "Burglary=T,Earthquake=T": 0.95,
      "Burglary=T,Earthquake=F": 0.94,
      "Burglary=F,Earthquake=T": 0.29,
      "Burglary=F,Earthquake=F": 0.001
    }
  },
  "JohnCalls": {"parents": ["Alarm"], "table": {"Alarm=T": 0.90, "Alarm=F": 0.05}},
  "MaryCalls": {"parents": ["Alarm"], "table": {"Alarm=T": 0.70, "Alarm=F": 0.01}}
}`

func TestLoaderStructureAndCPTs(t *testing.T) {
	loader := Loader{
		StructurePath: writeFile(t, "alarm.txt", alarmStructure),
		CPTPath:       writeFile(t, "cpts.json", alarmCPTs),
	}

	name, net, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if name != "alarm" {
		t.Errorf("Expected name alarm, got %q", name)
	}

	// End to end: the loaded network must reproduce the reference query.
	engine, err := enum.New(net)
	if err != nil {
		t.Fatal(err)
	}
	dist, err := engine.Query("Burglary", map[string]bool{"JohnCalls": true, "MaryCalls": true})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(dist.True-0.2842) > 1e-4 {
		t.Errorf("P(Burglary=T | j,m): expected ~0.2842, got %.6f", dist.True)
	}
}

func TestLoaderNetworkFile(t *testing.T) {
	content := `name: coin
nodes:
  - name: Heads
    p: 0.5
`
	loader := Loader{NetworkPath: writeFile(t, "coin.yaml", content)}

	name, net, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if name != "coin" {
		t.Errorf("Expected name coin, got %q", name)
	}
	if net.Len() != 1 {
		t.Errorf("Expected 1 node, got %d", net.Len())
	}
}

func TestLoaderMutuallyExclusiveInputs(t *testing.T) {
	loader := Loader{
		StructurePath: "structure.txt",
		NetworkPath:   "net.yaml",
	}
	_, _, err := loader.Load()
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestLoaderMissingInputs(t *testing.T) {
	loader := Loader{StructurePath: "structure.txt"}
	_, _, err := loader.Load()
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestLoaderRejectsDanglingParent(t *testing.T) {
	loader := Loader{
		StructurePath: writeFile(t, "s.txt", "Ghost -> A"),
		CPTPath:       writeFile(t, "c.json", `{"A": {"parents": ["Ghost"], "table": {"Ghost=T": 0.5, "Ghost=F": 0.5}}}`),
	}

	_, _, err := loader.Load()
	if err == nil {
		t.Fatal("Expected validation failure")
	}
	// Ghost exists structurally but never receives a CPT.
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestLoaderRejectsCycle(t *testing.T) {
	loader := Loader{
		StructurePath: writeFile(t, "s.txt", "A -> B\nB -> A"),
		CPTPath: writeFile(t, "c.json", `{
  "A": {"parents": ["B"], "table": {"B=T": 0.5, "B=F": 0.5}},
  "B": {"parents": ["A"], "table": {"A=T": 0.5, "A=F": 0.5}}
}`),
	}

	_, _, err := loader.Load()
	if !errors.Is(err, internalerr.ErrCycle) {
		t.Errorf("Expected ErrCycle, got %v", err)
	}
}
