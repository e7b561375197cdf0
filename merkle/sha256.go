package merkle

import (
	"crypto/sha256"

	"github.com/opentron/opentron-sub001/types"
)

func sha256Hash(b []byte) types.Hash {
	return types.Hash(sha256.Sum256(b))
}
