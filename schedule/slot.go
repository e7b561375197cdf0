package schedule

import (
	"time"

	"github.com/opentron/opentron-sub001/types"
)

// AbsoluteSlot computes the slot index of timestamp t relative to the
// genesis timestamp (spec §4.3 step 5, §4.8): (t - genesis) / 3000ms.
func AbsoluteSlot(t, genesis time.Time) int64 {
	delta := t.Sub(genesis).Milliseconds()
	if delta < 0 {
		return -1
	}
	return delta / types.BlockProducingIntervalMillis
}

// WitnessForSlot returns the witness scheduled to produce at absoluteSlot,
// given the active (top-27) set (spec §4.8): each witness produces
// NumConsecutiveBlocksPerRound (=1) blocks in a row, so with that constant
// at 1 this reduces to a plain round-robin index.
func WitnessForSlot(active []types.Address, absoluteSlot int64) (types.Address, bool) {
	if len(active) == 0 {
		return types.Address{}, false
	}
	roundLen := int64(len(active)) * types.NumConsecutiveBlocksPerRound
	posInRound := absoluteSlot % roundLen
	idx := posInRound / types.NumConsecutiveBlocksPerRound
	return active[idx], true
}

// SlotTimestamp returns the timestamp of the s-th slot after latest, with a
// 2-slot skip injected immediately after a maintenance cycle boundary (spec
// §4.8 "slot_timestamp(s) ... with a 2-slot skip injected immediately after
// a maintenance cycle").
func SlotTimestamp(latest time.Time, s int64, justPassedMaintenance bool) time.Time {
	skip := int64(0)
	if justPassedMaintenance {
		skip = 2
	}
	return latest.Add(time.Duration(s+skip) * types.BlockProducingIntervalMillis * time.Millisecond)
}
