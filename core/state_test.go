package core_test

import (
	"testing"

	core "dexstream/core"
)

func TestSharedStateInstallAndUpsert(t *testing.T) {
	s := core.NewSharedState()
	if s.Initialised() {
		t.Fatalf("fresh state should not be initialised")
	}

	sims := map[core.ComponentID]core.Simulation{"p1": 42}
	comps := map[core.ComponentID]core.Component{"p1": {ID: "p1"}}
	s.InstallSnapshot(sims, comps)
	if !s.Initialised() {
		t.Fatalf("InstallSnapshot should set initialised")
	}
	if sim, ok := s.Simulation("P1"); !ok || sim != 42 {
		t.Fatalf("expected case-insensitive lookup to find the installed simulation, got %v, %v", sim, ok)
	}

	touched := s.UpsertSimulations(map[core.ComponentID]core.Simulation{"P2": 7})
	if len(touched) != 1 || touched[0] != "p2" {
		t.Fatalf("expected normalized id p2, got %v", touched)
	}
	if sim, ok := s.Simulation("p2"); !ok || sim != 7 {
		t.Fatalf("expected upserted simulation to be readable back, got %v, %v", sim, ok)
	}
}
