package crypto

import "crypto/sha256"

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// SHA256 is the single-pass digest used throughout this module for
// transaction/block identity and the signing digest (spec §3, §4.1, §9).
func SHA256(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
