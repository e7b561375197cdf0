package types

import "time"

// DynamicProperties is the Default-column-family singleton tracking chain
// head state (spec §4.2 "The Default family holds singletons").
type DynamicProperties struct {
	LatestBlockHash      Hash
	LatestBlockNumber    uint64
	LatestBlockTimestamp time.Time
	LatestSolidBlockNumber uint64

	NextMaintenanceTime time.Time
	CurrentEpoch        int64
	HasNewVotesInCurrentEpoch bool

	GenesisTimestamp time.Time
}

// RefBlockRing is the 16-bit-indexed ring of recent block hashes used for
// TaPoS checks (spec §4.3 step 12, §4.4 step 1).
type RefBlockRing struct {
	Entries [RefBlockRingSize]Hash
	Set     [RefBlockRingSize]bool
}

// Put records hash at number & 0xffff.
func (r *RefBlockRing) Put(number uint64, hash Hash) {
	idx := number & (RefBlockRingSize - 1)
	r.Entries[idx] = hash
	r.Set[idx] = true
}

// Lookup returns the hash stored at the ring slot selected by refBlockBytes,
// the 2-byte index TaPoS carries (spec §4.4 step 1).
func (r *RefBlockRing) Lookup(refBlockBytes [2]byte) (Hash, bool) {
	idx := uint16(refBlockBytes[0])<<8 | uint16(refBlockBytes[1])
	if !r.Set[idx] {
		return Hash{}, false
	}
	return r.Entries[idx], true
}

// FilledSlots is the 128-entry ring tracking which of the last N scheduled
// slots were actually filled by a block (spec §4.3 step 10).
type FilledSlots struct {
	Bits [FilledSlotsWindowSize]bool
	Next int
}

// Advance pushes one entry (true for filled, false for missed) into the
// ring, oldest-evicting-first.
func (f *FilledSlots) Advance(filled bool) {
	f.Bits[f.Next%FilledSlotsWindowSize] = filled
	f.Next++
}
