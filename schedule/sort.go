// Package schedule computes the witness schedule ordering and the
// slot-to-witness mapping described in spec §4.7 step 4 and §4.8.
package schedule

import (
	"sort"

	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/types"
)

// SortWitnesses orders witnesses the way the maintenance cycle rebuilds the
// schedule (spec §4.7 step 4): descending by vote count, ties broken by
// java_bytestring_hash_code(address) descending, remaining ties broken by
// the raw address bytes descending. This ordering is consensus-critical and
// must be bit-for-bit reproducible (spec §9).
func SortWitnesses(witnesses []*types.Witness) []*types.Witness {
	sorted := make([]*types.Witness, len(witnesses))
	copy(sorted, witnesses)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		ha := crypto.JavaByteStringHashCode(a.Address[:])
		hb := crypto.JavaByteStringHashCode(b.Address[:])
		if ha != hb {
			return ha > hb
		}
		for k := 0; k < types.AddressLength; k++ {
			if a.Address[k] != b.Address[k] {
				return a.Address[k] > b.Address[k]
			}
		}
		return false
	})
	return sorted
}

// BuildSchedule sorts witnesses and truncates to the top MaxSchedule
// (spec §4.7 step 5).
func BuildSchedule(witnesses []*types.Witness) []types.Address {
	sorted := SortWitnesses(witnesses)
	n := len(sorted)
	if n > types.MaxSchedule {
		n = types.MaxSchedule
	}
	out := make([]types.Address, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[i].Address
	}
	return out
}

// Active returns the first ActiveWitnessCount entries of schedule — the
// active set eligible to produce blocks (spec §4.8).
func Active(schedule []types.Address) []types.Address {
	n := len(schedule)
	if n > types.ActiveWitnessCount {
		n = types.ActiveWitnessCount
	}
	return schedule[:n]
}
