// Package merkle computes the transaction Merkle root carried in a block
// header (spec §4.1). Structured the way the teacher's own
// domain/consensus/utils/merkle package computes its hash-merkle-root: a
// level-by-level reduction over a hash slice, built bottom-up.
package merkle

import "github.com/opentron/opentron-sub001/types"

func hashPair(left, right types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[0:32], left[:])
	copy(buf[32:64], right[:])
	return sha256Hash(buf[:])
}

// Root computes the Merkle root over leaves in order. Unlike Bitcoin-style
// trees, an unpaired trailing node at any level is promoted unchanged rather
// than hashed with itself (spec §4.1). The empty tree's root is the
// zero-hash.
func Root(leaves []types.Hash) types.Hash {
	if len(leaves) == 0 {
		return types.Hash{}
	}
	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				// Unpaired trailing node: promoted unchanged.
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}

// Height returns the number of reduction levels Root would perform for n
// leaves (tracked but not persisted, per spec §4.1).
func Height(n int) int {
	if n <= 1 {
		return 0
	}
	h := 0
	for n > 1 {
		n = (n + 1) / 2
		h++
	}
	return h
}
