package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/opentron/opentron-sub001/types"
)

// SignatureLength is the wire width of a recoverable signature: r(32) ‖
// s(32) ‖ v(1), v ∈ {0,1} (spec §3, §6).
const SignatureLength = 65

// Sign produces a recoverable signature over digest using sk. v is
// normalized to {0,1} per spec §3/§6, undoing decred's {27,28,31,32} base.
func Sign(sk *secp256k1.PrivateKey, digest [32]byte) ([65]byte, error) {
	compact := ecdsa.SignCompact(sk, digest[:], false)
	// compact layout: [recoveryID+27][r(32)][s(32)]
	var out [65]byte
	copy(out[0:32], compact[1:33])
	copy(out[32:64], compact[33:65])
	recID := compact[0] - 27
	if recID > 1 {
		return out, types.Newf(types.KindMalformedInput, "unexpected recovery id %d", recID)
	}
	out[64] = recID
	return out, nil
}

// RecoverPublicKey recovers the uncompressed public key that produced sig
// over digest (spec §4.3 step 1, §4.4 step 4, §9 "Recoverable signatures vs.
// pubkey recovery").
func RecoverPublicKey(digest [32]byte, sig [65]byte) ([]byte, error) {
	if sig[64] > 1 {
		return nil, types.Newf(types.KindMalformedInput, "signature v must be 0 or 1, got %d", sig[64])
	}
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pub, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return nil, types.Wrap(types.KindMalformedInput, err, "recover compact signature")
	}
	return pub.SerializeUncompressed(), nil
}

// RecoverAddress recovers the signer's Address from a digest and signature,
// composing RecoverPublicKey and AddressFromPublicKey (spec §4.3 step 1).
func RecoverAddress(digest [32]byte, sig [65]byte) (types.Address, error) {
	pub, err := RecoverPublicKey(digest, sig)
	if err != nil {
		return types.Address{}, err
	}
	return AddressFromPublicKey(pub)
}
