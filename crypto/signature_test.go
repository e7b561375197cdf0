package crypto

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func TestSignRecoverRoundTrip(t *testing.T) {
	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	digest := SHA256([]byte("block or transaction raw_data"))

	sig, err := Sign(sk, digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	pub, err := RecoverPublicKey(digest, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}

	wantPub := sk.PubKey().SerializeUncompressed()
	if string(pub) != string(wantPub) {
		t.Fatalf("recovered public key mismatch")
	}
}
