package types

import "time"

// AccountType distinguishes the three account kinds (spec §3).
type AccountType uint8

const (
	AccountTypeNormal AccountType = iota
	AccountTypeAssetIssue
	AccountTypeContract
)

// Frozen records one frozen-balance slot (bandwidth or energy), optionally
// delegated to another account (spec §3, §4.6 Freeze/Unfreeze).
type Frozen struct {
	Amount     int64
	ExpireTime time.Time
}

// Permission mirrors a TRON owner/active permission record (spec §3, §4.4
// step 5): a threshold, a set of weighted keys, and — for Active permissions
// only — a 32-byte contract-type operations bitmask.
type Permission struct {
	Threshold  int64
	Keys       map[Address]int64 // address -> weight
	Operations [32]byte          // zero value for Owner permissions
}

// Account is a record keyed by Address (spec §3).
type Account struct {
	Address Address
	Type    AccountType

	Balance       int64
	TokenBalances map[int64]int64 // token-id -> amount

	FrozenBandwidth []Frozen
	FrozenEnergy    []Frozen
	DelegatedOut    int64 // sum delegated to other accounts
	DelegatedIn     int64 // sum delegated in from other accounts

	Allowance int64 // unclaimed witness reward

	NetUsage    int64
	NetUsageAt  time.Time
	EnergyUsage int64
	EnergyUsageAt time.Time

	LatestWithdrawTime time.Time

	CreationTime time.Time

	OwnerPermission  Permission
	ActivePermission []Permission

	IsWitness bool
}

// TronPower is (frozen_bandwidth + frozen_energy + delegated_out) / 10^6,
// the vote-weight cap from spec §4.6 Vote.
func (a *Account) TronPower() int64 {
	var frozen int64
	for _, f := range a.FrozenBandwidth {
		frozen += f.Amount
	}
	for _, f := range a.FrozenEnergy {
		frozen += f.Amount
	}
	return (frozen + a.DelegatedOut) / 1_000_000
}

// TotalFrozenBandwidth sums the account's own frozen-bandwidth slots.
func (a *Account) TotalFrozenBandwidth() int64 {
	var total int64
	for _, f := range a.FrozenBandwidth {
		total += f.Amount
	}
	return total
}

// TotalFrozenEnergy sums the account's own frozen-energy slots.
func (a *Account) TotalFrozenEnergy() int64 {
	var total int64
	for _, f := range a.FrozenEnergy {
		total += f.Amount
	}
	return total
}
