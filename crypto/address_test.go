package crypto

import (
	"testing"

	"github.com/opentron/opentron-sub001/types"
)

func TestBase58CheckRoundTrip(t *testing.T) {
	var h [20]byte
	for i := range h {
		h[i] = byte(i * 7)
	}
	var addr types.Address
	addr[0] = types.AddressPrefix
	copy(addr[1:], h[:])

	encoded := ToBase58Check(addr)
	decoded, err := FromBase58Check(encoded)
	if err != nil {
		t.Fatalf("FromBase58Check: %v", err)
	}
	if decoded != addr {
		t.Fatalf("round trip mismatch: got %x want %x", decoded, addr)
	}
}

func TestFromBase58CheckRejectsBadChecksum(t *testing.T) {
	var addr types.Address
	addr[0] = types.AddressPrefix
	encoded := ToBase58Check(addr)
	// Flip a char to corrupt the checksum/payload.
	mutated := []byte(encoded)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	if _, err := FromBase58Check(string(mutated)); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}
