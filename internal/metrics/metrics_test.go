package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestMockSource(t *testing.T) {
	source := &MockSource{Seed: 42}
	if err := source.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	snap, err := source.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap == nil {
		t.Fatal("Snapshot is nil")
	}
	if len(snap.Processes) == 0 {
		t.Error("No processes returned in mock mode")
	}
	if snap.Taken.IsZero() {
		t.Error("Snapshot has no timestamp")
	}

	seen := make(map[int32]bool)
	for _, p := range snap.Processes {
		if seen[p.PID] {
			t.Errorf("duplicate pid %d in one snapshot", p.PID)
		}
		seen[p.PID] = true
		if p.CPU < 0 {
			t.Errorf("pid %d: negative CPU %f", p.PID, p.CPU)
		}
	}
}

func TestMockSourceChurnProducesStubsAndExits(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	source := &MockSource{Seed: 7, Now: func() time.Time { return clock }}
	if err := source.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	initial := make(map[int32]bool)
	first, _ := source.Snapshot()
	for _, p := range first.Processes {
		initial[p.PID] = true
	}

	var sawStub, sawExit bool
	for i := 0; i < 200; i++ {
		clock = clock.Add(time.Second)
		snap, err := source.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot %d failed: %v", i, err)
		}
		current := make(map[int32]bool)
		for _, p := range snap.Processes {
			current[p.PID] = true
			if p.Name == "" && p.Partial {
				sawStub = true
			}
		}
		for pid := range initial {
			if !current[pid] {
				sawExit = true
			}
		}
	}
	if !sawStub {
		t.Error("expected at least one unresolved process")
	}
	if !sawExit {
		t.Error("expected at least one initial process to exit")
	}
}

func TestMockSourceFailEvery(t *testing.T) {
	source := &MockSource{Seed: 1, FailEvery: 3}
	if err := source.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	for i := 1; i <= 6; i++ {
		_, err := source.Snapshot()
		if i%3 == 0 {
			if !errors.Is(err, ErrSourceUnavailable) {
				t.Errorf("call %d: expected ErrSourceUnavailable, got %v", i, err)
			}
		} else if err != nil {
			t.Errorf("call %d: unexpected error %v", i, err)
		}
	}
}
