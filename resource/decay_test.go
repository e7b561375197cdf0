package resource

import (
	"testing"

	"github.com/opentron/opentron-sub001/types"
)

func TestAdjustUsageFullDecayAfterWindow(t *testing.T) {
	windowMillis := types.ResourceWindowSlots() * types.BlockProducingIntervalMillis
	got := AdjustUsage(5000, 100, 0, windowMillis)
	if got != 100 {
		t.Fatalf("expected full decay to leave only the new delta, got %d", got)
	}
}

func TestAdjustUsageNoTimeElapsed(t *testing.T) {
	got := AdjustUsage(1000, 500, 1_000_000, 1_000_000)
	if got <= 1000 {
		t.Fatalf("expected usage to grow when no time has elapsed, got %d", got)
	}
}

func TestAdjustUsageMonotonicDecay(t *testing.T) {
	windowSlots := types.ResourceWindowSlots()
	u0 := int64(10000)
	halfway := AdjustUsage(u0, 0, 0, (windowSlots/2)*types.BlockProducingIntervalMillis)
	full := AdjustUsage(u0, 0, 0, windowSlots*types.BlockProducingIntervalMillis)
	if !(full <= halfway && halfway <= u0) {
		t.Fatalf("expected monotonic decay: u0=%d halfway=%d full=%d", u0, halfway, full)
	}
}

func TestAdjustUsageEmptyStart(t *testing.T) {
	got := AdjustUsage(0, 0, 0, 0)
	if got != 0 {
		t.Fatalf("expected zero usage to stay zero, got %d", got)
	}
}
