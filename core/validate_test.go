package core_test

import (
	"errors"
	"testing"

	core "dexstream/core"
)

func TestPrevalidateComputeOrder(t *testing.T) {
	if err := core.PrevalidateCompute(false, core.StatusRunning, "", ""); !errors.Is(err, core.ErrNotInitialised) {
		t.Fatalf("expected ErrNotInitialised, got %v", err)
	}
	if err := core.PrevalidateCompute(true, core.StatusSyncing, "", ""); err == nil {
		t.Fatalf("expected a non-running status to fail")
	}
	if err := core.PrevalidateCompute(true, core.StatusRunning, "secret", "wrong"); !errors.Is(err, core.ErrBadAPIKey) {
		t.Fatalf("expected ErrBadAPIKey, got %v", err)
	}
	if err := core.PrevalidateCompute(true, core.StatusRunning, "secret", "SECRET"); err != nil {
		t.Fatalf("expected case-insensitive key match to pass, got %v", err)
	}
}

func TestPrevalidateReadSkipsWhenUnconfigured(t *testing.T) {
	if err := core.PrevalidateRead("", "whatever"); err != nil {
		t.Fatalf("empty configured key should disable the check, got %v", err)
	}
}
