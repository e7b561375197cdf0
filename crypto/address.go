// Package crypto implements the address, signature, and legacy-hash
// primitives spec §4, §6 and §9 hold consensus-critical: address derivation
// from a recovered public key, recoverable secp256k1 signatures, and the
// java_bytestring_hash_code tiebreak used by the witness schedule sort.
package crypto

import (
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // kept for the RIPEMD-160 precompile stub, per teacher's util/address.go
	"golang.org/x/crypto/sha3"

	"github.com/opentron/opentron-sub001/types"
)

// AddressFromPublicKey derives a TRON-style Address from an uncompressed
// secp256k1 public key (65 bytes, 0x04 prefix): 0x41 ‖ keccak256(pub[1:])[12:]
// (spec §6).
func AddressFromPublicKey(uncompressedPubKey []byte) (types.Address, error) {
	if len(uncompressedPubKey) != 65 || uncompressedPubKey[0] != 0x04 {
		return types.Address{}, types.Newf(types.KindMalformedInput, "expected a 65-byte uncompressed public key")
	}
	h := Keccak256(uncompressedPubKey[1:])
	var addr types.Address
	addr[0] = types.AddressPrefix
	copy(addr[1:], h[12:])
	return addr, nil
}

// Keccak256 hashes data with Keccak-256 (not NIST SHA3-256).
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// RIPEMD160 is exposed only as the precompile surface spec §4.6 names
// ("ripemd160" under the TVM backend); core address derivation does not use
// it, matching daglabs-btcd's util/address.go which imports the same
// package for an analogous reason.
func RIPEMD160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// ToBase58Check encodes an address as Base58Check: base58(addr ‖
// checksum(addr)), the "human form" from spec §6.
func ToBase58Check(addr types.Address) string {
	payload := addr.Bytes()
	checksum := doubleSHA256(payload)[:4]
	return base58.Encode(append(payload, checksum...))
}

// FromBase58Check decodes and verifies a Base58Check address, the inverse of
// ToBase58Check (spec §8 "Address round-trip").
func FromBase58Check(s string) (types.Address, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return types.Address{}, types.Wrap(types.KindMalformedInput, err, "base58 decode")
	}
	if len(decoded) != types.AddressLength+4 {
		return types.Address{}, types.Newf(types.KindMalformedInput, "bad base58check length %d", len(decoded))
	}
	payload, checksum := decoded[:types.AddressLength], decoded[types.AddressLength:]
	want := doubleSHA256(payload)[:4]
	for i := range checksum {
		if checksum[i] != want[i] {
			return types.Address{}, types.Newf(types.KindMalformedInput, "base58check checksum mismatch")
		}
	}
	return types.AddressFromBytes(payload)
}
