// Package vm defines the external interface the smart-contract actuators
// hand execution off to (spec §1 "VM execution itself is an external
// collaborator", §4.6 "Smart contract create/trigger"). No TVM
// implementation lives in this module; Backend is the seam a future
// bytecode interpreter plugs into.
package vm

import "github.com/opentron/opentron-sub001/types"

// StateAccessor is the narrow StateDB surface a Backend needs: contract
// storage reads/writes and the block-hash ring precompiles consult
// (spec §4.6 "block_hash(number) ring").
type StateAccessor interface {
	GetStorage(contract types.Address, slot [32]byte) ([32]byte, error)
	SetStorage(contract types.Address, slot [32]byte, value [32]byte) error
	BlockHash(number uint64) (types.Hash, bool)
}

// ExecutionContext is everything a contract call needs from its caller
// (spec §4.6: fee_limit, energy_limit derived from frozen-energy headroom
// plus fee_limit/EnergyFee).
type ExecutionContext struct {
	Caller      types.Address
	Contract    types.Address
	Input       []byte
	Value       int64
	EnergyLimit int64
	State       StateAccessor
}

// ExecutionResult is what the actuator folds back into the
// TransactionReceipt (spec §4.4 step 8: "VM status/logs/internal txns").
type ExecutionResult struct {
	EnergyUsed           int64
	ReturnData           []byte
	Logs                 []byte
	InternalTransactions [][]byte
	Reverted             bool
	CreatedAddress       types.Address
}

// Backend executes one contract call. Create and Trigger share the same
// seam; Create's ExecutionContext.Contract is the not-yet-existing address
// computed by the caller (spec §4.6: keccak256(txn_hash‖owner_address)[12..]).
type Backend interface {
	Execute(ctx ExecutionContext) (ExecutionResult, error)
}
