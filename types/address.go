package types

import "encoding/hex"

// AddressLength is the width of a TRON-style address: a one-byte network
// prefix followed by a 20-byte Keccak-derived identifier (spec §6).
const AddressLength = 21

// AddressPrefix is the network byte carried by every mainnet address.
const AddressPrefix = 0x41

// Address is a 21-byte account identifier: 0x41 ‖ keccak256(pubkey)[12:].
type Address [AddressLength]byte

// ZeroAddress is the unset/placeholder address.
var ZeroAddress Address

// Hex renders the address as the 42-character "0x41..." form from spec §6.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether a is the unset address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns a defensive copy of the address bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// AddressFromBytes builds an Address from a 21-byte slice.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, Newf(KindMalformedInput, "address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}
