package config

import (
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/opentron/opentron-sub001/types"
)

// ParseAddress decodes the "0x41..." hex form types.Address.Hex renders
// (spec §6) back into a types.Address.
func ParseAddress(s string) (types.Address, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return types.Address{}, types.Wrap(types.KindMalformedInput, err, "decode address hex")
	}
	return types.AddressFromBytes(b)
}

// ParsePrivateKey decodes a hex-encoded secp256k1 scalar, the way
// cmd/txsigner.parsePrivateKey reads a signing key off the command line.
func ParsePrivateKey(s string) (*secp256k1.PrivateKey, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, types.Wrap(types.KindMalformedInput, err, "decode private key hex")
	}
	if len(b) != 32 {
		return nil, types.Newf(types.KindMalformedInput, "private key must be 32 bytes, got %d", len(b))
	}
	return secp256k1.PrivKeyFromBytes(b), nil
}
