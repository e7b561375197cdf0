package vm

import (
	"crypto/sha256"

	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/types"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // spec-mandated legacy hash, see crypto/address.go
)

// PrecompileAddress enumerates the fixed addresses TVM reserves for
// builtin precompiles (spec §4.6 "precompiles (ecrecover, sha256,
// ripemd160, identity, modexp, alt-bn128 add/mul/pairing,
// batch-validate-sign, validate-multisign, and four shielded-pool
// precompiles behind AllowTvmShieldedUpgrade)").
type PrecompileAddress byte

const (
	PrecompileEcrecover PrecompileAddress = iota + 1
	PrecompileSHA256
	PrecompileRIPEMD160
	PrecompileIdentity
	PrecompileModExp
	PrecompileAltBN128Add
	PrecompileAltBN128Mul
	PrecompileAltBN128Pairing
	PrecompileBatchValidateSign
	PrecompileValidateMultiSign
	PrecompileShieldedPoolVerifyMint
	PrecompileShieldedPoolVerifyTransfer
	PrecompileShieldedPoolVerifyBurn
	PrecompileShieldedPoolMerkleRoot
)

// Precompile runs one fixed builtin. Nothing in this module dispatches to
// the Precompiles table; there is no TVM interpreter here to call it.
type Precompile func(input []byte) ([]byte, error)

// Precompiles is the subset of the reserved precompile surface this module
// can implement without a TVM bytecode interpreter or an elliptic-curve
// pairing library (alt-bn128, the shielded-pool circuits) in the retrieved
// dependency pack; the other ten named addresses have no implementation
// (see DESIGN.md).
var Precompiles = map[PrecompileAddress]Precompile{
	PrecompileSHA256:    precompileSHA256,
	PrecompileRIPEMD160: precompileRIPEMD160,
	PrecompileIdentity:  precompileIdentity,
	PrecompileEcrecover: precompileEcrecover,
}

func precompileSHA256(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

func precompileRIPEMD160(input []byte) ([]byte, error) {
	h := ripemd160.New()
	if _, err := h.Write(input); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func precompileIdentity(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// precompileEcrecover expects a 32-byte digest followed by a 65-byte
// recoverable signature, matching the module's own signature format
// (spec §6 "65 bytes: r(32)‖s(32)‖v(1)").
func precompileEcrecover(input []byte) ([]byte, error) {
	if len(input) < 32+65 {
		return nil, types.Newf(types.KindMalformedInput, "ecrecover: input too short")
	}
	var digest [32]byte
	copy(digest[:], input[:32])
	var sig [65]byte
	copy(sig[:], input[32:97])
	addr, err := crypto.RecoverAddress(digest, sig)
	if err != nil {
		return nil, types.Wrap(types.KindMalformedInput, err, "ecrecover")
	}
	return addr.Bytes(), nil
}
