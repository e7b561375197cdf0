package crypto

import (
	"encoding/hex"
	"testing"
)

func TestJavaByteStringHashCode(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want int32
	}{
		{"empty", []byte{}, 1},
		{"one byte", []byte{0x23}, 66},
		{"two bytes", []byte{0x23, 0x66}, 3109},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := JavaByteStringHashCode(tc.in); got != tc.want {
				t.Fatalf("JavaByteStringHashCode(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}

	hexCases := []struct {
		hexIn string
		want  int32
	}{
		{"41f5", 3926},
		{"41f57bbf6b0c6530eea1f3c5718ebb0c4cdbde2c79", -797585552},
	}
	for _, tc := range hexCases {
		b, err := hex.DecodeString(tc.hexIn)
		if err != nil {
			t.Fatalf("decode %s: %v", tc.hexIn, err)
		}
		if got := JavaByteStringHashCode(b); got != tc.want {
			t.Fatalf("JavaByteStringHashCode(hex %s) = %d, want %d", tc.hexIn, got, tc.want)
		}
	}
}
