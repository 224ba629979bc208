package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/cognicore/belief/pkg/belief/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func alarmSpec() store.Network {
	return store.Network{
		Name: "alarm",
		Nodes: []store.NodeSpec{
			{Name: "Alarm", Parents: []string{"Burglary", "Earthquake"}, Table: []float64{0.001, 0.94, 0.29, 0.95}},
			{Name: "Burglary", Table: []float64{0.001}},
			{Name: "Earthquake", Table: []float64{0.002}},
			{Name: "JohnCalls", Parents: []string{"Alarm"}, Table: []float64{0.05, 0.90}},
			{Name: "MaryCalls", Parents: []string{"Alarm"}, Table: []float64{0.01, 0.70}},
		},
	}
}

func TestNetworkRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertNetwork(ctx, alarmSpec()); err != nil {
		t.Fatalf("UpsertNetwork: %v", err)
	}

	got, found, err := s.GetNetwork(ctx, "alarm")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("Network not found after upsert")
	}
	if !reflect.DeepEqual(got, alarmSpec()) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, alarmSpec())
	}

	// The persisted form must rebuild into a valid network.
	if _, err := got.Build(); err != nil {
		t.Errorf("Rebuilt network invalid: %v", err)
	}
}

func TestGetNetworkMissing(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.GetNetwork(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("Unknown network reported as found")
	}
}

func TestUpsertReplacesRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertNetwork(ctx, alarmSpec()); err != nil {
		t.Fatal(err)
	}

	smaller := store.Network{
		Name:  "alarm",
		Nodes: []store.NodeSpec{{Name: "Burglary", Table: []float64{0.01}}},
	}
	if err := s.UpsertNetwork(ctx, smaller); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.GetNetwork(ctx, "alarm")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 1 {
		t.Errorf("Upsert should replace node rows, got %d nodes", len(got.Nodes))
	}
	if got.Nodes[0].Table[0] != 0.01 {
		t.Errorf("Table not replaced: %v", got.Nodes[0].Table)
	}
}

func TestListAndDeleteNetworks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.UpsertNetwork(ctx, store.Network{Name: "beta", Nodes: []store.NodeSpec{{Name: "A", Table: []float64{0.5}}}})
	s.UpsertNetwork(ctx, store.Network{Name: "alpha", Nodes: []store.NodeSpec{{Name: "A", Table: []float64{0.5}}}})

	names, err := s.ListNetworks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Errorf("ListNetworks = %v", names)
	}

	if err := s.DeleteNetwork(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}
	names, _ = s.ListNetworks(ctx)
	if !reflect.DeepEqual(names, []string{"beta"}) {
		t.Errorf("After delete: %v", names)
	}
}

func TestQueryRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asked := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"01A", "01B", "01C"} {
		err := s.AppendQueryRecord(ctx, store.QueryRecord{
			ID:       id,
			Network:  "alarm",
			Variable: "Burglary",
			Evidence: map[string]bool{"JohnCalls": true, "MaryCalls": true},
			PTrue:    0.2842,
			PFalse:   0.7158,
			AskedAt:  asked.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendQueryRecord: %v", err)
		}
	}

	records, err := s.GetQueryRecords(ctx, "alarm", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != "01C" || records[1].ID != "01B" {
		t.Errorf("Expected most recent first, got %s, %s", records[0].ID, records[1].ID)
	}

	r := records[0]
	if r.Variable != "Burglary" || r.PTrue != 0.2842 || r.PFalse != 0.7158 {
		t.Errorf("Record fields lost: %+v", r)
	}
	if !reflect.DeepEqual(r.Evidence, map[string]bool{"JohnCalls": true, "MaryCalls": true}) {
		t.Errorf("Evidence lost: %v", r.Evidence)
	}
	if !r.AskedAt.Equal(asked.Add(2 * time.Minute)) {
		t.Errorf("Timestamp lost: %v", r.AskedAt)
	}
}

func TestDeleteNetworkDropsRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.UpsertNetwork(ctx, alarmSpec())
	s.AppendQueryRecord(ctx, store.QueryRecord{
		ID: "r1", Network: "alarm", Variable: "Burglary", AskedAt: time.Now(),
	})

	if err := s.DeleteNetwork(ctx, "alarm"); err != nil {
		t.Fatal(err)
	}

	records, err := s.GetQueryRecords(ctx, "alarm", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Error("Deleting a network should drop its records")
	}
}
