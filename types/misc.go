package types

import "time"

// Asset is a TRC-10-style token record (spec §3, §6).
type Asset struct {
	ID          int64
	Owner       Address
	Name        string
	Abbr        string
	TotalSupply int64
	TRXNum      int64 // exchange rate numerator: trx_num TRX <-> num token
	Num         int64
	StartTime   time.Time
	EndTime     time.Time
	FreeAssetNetLimit int64
	PublicFreeAssetNetLimit int64
	PublicFreeAssetNetUsage int64
	PublicLatestFreeNetTime time.Time
}

// Exchange is an on-chain two-token trading pair (spec §3, §4.6
// Proposal-gated contracts). actuators/exchange.go prices trades against it
// with integer proportional arithmetic; it has no power function and does
// not reproduce the x86 fyl2x/f2xm1 results.
type Exchange struct {
	ID             int64
	Creator        Address
	CreateTime     time.Time
	FirstTokenID   int64
	FirstTokenBalance int64
	SecondTokenID  int64
	SecondTokenBalance int64
}

// ResourceDelegation records a frozen-balance delegation from one account to
// another (spec §3, §4.6 Freeze/Unfreeze), keyed by the (from, to) pair.
type ResourceDelegation struct {
	From            Address
	To              Address
	FrozenBandwidth int64
	FrozenEnergy    int64
	ExpireTime      time.Time
}

// IsEmpty reports whether both delegation amounts are zero — the
// ResourceDelegationIndex invariant from spec §8 requires
// `from ∈ index(to)` iff !IsEmpty().
func (d *ResourceDelegation) IsEmpty() bool {
	return d.FrozenBandwidth == 0 && d.FrozenEnergy == 0
}

// SmartContract is a deployed smart-contract record (spec §3; VM execution
// itself is an external collaborator per spec §1).
type SmartContract struct {
	Address      Address
	Owner        Address
	Bytecode     []byte
	ABI          []byte
	ConsumeUserResourcePercent int64
	OriginEnergyLimit          int64
	TRXBalance                 int64
}

// ContractStorageKey identifies one storage slot of a deployed contract.
type ContractStorageKey struct {
	Contract Address
	Slot     [32]byte
}
