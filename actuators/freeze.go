package actuators

import (
	"time"

	"github.com/opentron/opentron-sub001/reward"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

func init() {
	Register(types.ContractTypeFreezeBalance, freezeBalanceActuator{})
	Register(types.ContractTypeUnfreezeBalance, unfreezeBalanceActuator{})
}

// FreezeBalanceParameter is Contract.Parameter for ContractTypeFreezeBalance.
type FreezeBalanceParameter struct {
	FrozenBalance   int64
	FrozenDuration  int64 // days
	Resource        types.Resource
	ReceiverAddress types.Address // zero value: no delegation
}

// freezeDurationDays is the mainnet-fixed freeze lockup (spec §4.6 Freeze:
// "must be exactly 3 on mainnet").
const freezeDurationDays = 3

type freezeBalanceActuator struct{}

func (freezeBalanceActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(FreezeBalanceParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "freeze-balance: bad parameter type")
	}
	if p.FrozenBalance < 1_000_000 {
		return types.Newf(types.KindPrecondition, "freeze-balance: must freeze at least 1 TRX")
	}
	if p.FrozenDuration != freezeDurationDays {
		return types.Newf(types.KindPrecondition, "freeze-balance: frozen_duration must be %d days", freezeDurationDays)
	}
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "freeze-balance: owner %s does not exist", contract.Owner.Hex())
	}
	if owner.Balance < p.FrozenBalance {
		return types.Newf(types.KindResourceExhaustion, "freeze-balance: insufficient balance")
	}
	if p.ReceiverAddress != types.ZeroAddress {
		allowDelegate, err := ctx.State.GetParam(types.ParamAllowDelegateResource)
		if err != nil {
			return err
		}
		if allowDelegate == 0 {
			return types.Newf(types.KindPrecondition, "freeze-balance: resource delegation disabled")
		}
	}
	return nil
}

func (freezeBalanceActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(FreezeBalanceParameter)

	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "freeze-balance: owner vanished")
	}
	owner.Balance -= p.FrozenBalance
	expire := ctx.Now.Add(time.Duration(p.FrozenDuration) * 24 * time.Hour)
	frozen := types.Frozen{Amount: p.FrozenBalance, ExpireTime: expire}

	beneficiary := contract.Owner
	if p.ReceiverAddress != types.ZeroAddress {
		beneficiary = p.ReceiverAddress
		owner.DelegatedOut += p.FrozenBalance

		delegation, ok, err := ctx.State.GetResourceDelegation(contract.Owner, p.ReceiverAddress)
		if err != nil {
			return err
		}
		if !ok {
			delegation = &types.ResourceDelegation{From: contract.Owner, To: p.ReceiverAddress, ExpireTime: expire}
		}
		if p.Resource == types.ResourceEnergy {
			delegation.FrozenEnergy += p.FrozenBalance
		} else {
			delegation.FrozenBandwidth += p.FrozenBalance
		}
		delegation.ExpireTime = expire
		if err := ctx.State.PutResourceDelegation(delegation); err != nil {
			return err
		}
	}
	if err := ctx.State.PutAccount(owner); err != nil {
		return err
	}

	if beneficiary != contract.Owner {
		benAcc, ok, err := ctx.State.GetAccount(beneficiary)
		if err != nil {
			return err
		}
		if !ok {
			benAcc = &types.Account{Address: beneficiary, Type: types.AccountTypeNormal, TokenBalances: map[int64]int64{}, CreationTime: ctx.Now}
		}
		benAcc.DelegatedIn += p.FrozenBalance
		applyFrozen(benAcc, p.Resource, frozen)
		if err := ctx.State.PutAccount(benAcc); err != nil {
			return err
		}
	} else {
		applyFrozen(owner, p.Resource, frozen)
		if err := ctx.State.PutAccount(owner); err != nil {
			return err
		}
	}

	return addGlobalWeight(ctx.State, p.Resource, p.FrozenBalance)
}

func applyFrozen(acc *types.Account, res types.Resource, f types.Frozen) {
	if res == types.ResourceEnergy {
		acc.FrozenEnergy = append(acc.FrozenEnergy, f)
	} else {
		acc.FrozenBandwidth = append(acc.FrozenBandwidth, f)
	}
}

func addGlobalWeight(s *statedb.StateDB, res types.Resource, amount int64) error {
	global, err := s.GetGlobalResourceState()
	if err != nil {
		return err
	}
	weight := amount / 1_000_000
	if res == types.ResourceEnergy {
		global.TotalEnergyWeight += weight
	} else {
		global.TotalNetWeight += weight
	}
	return s.PutGlobalResourceState(global)
}

// UnfreezeBalanceParameter is Contract.Parameter for ContractTypeUnfreezeBalance.
type UnfreezeBalanceParameter struct {
	Resource        types.Resource
	ReceiverAddress types.Address
}

type unfreezeBalanceActuator struct{}

func (unfreezeBalanceActuator) Validate(ctx *Context, contract *types.Contract) error {
	_, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "unfreeze-balance: owner %s does not exist", contract.Owner.Hex())
	}
	return nil
}

func (unfreezeBalanceActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(UnfreezeBalanceParameter)

	if err := reward.WithdrawReward(ctx.State, contract.Owner); err != nil {
		return err
	}

	beneficiary := contract.Owner
	if p.ReceiverAddress != types.ZeroAddress {
		beneficiary = p.ReceiverAddress
	}
	benAcc, ok, err := ctx.State.GetAccount(beneficiary)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "unfreeze-balance: beneficiary vanished")
	}

	var unfrozen int64
	remaining := benAcc.FrozenBandwidth[:0]
	list := benAcc.FrozenBandwidth
	if p.Resource == types.ResourceEnergy {
		list = benAcc.FrozenEnergy
		remaining = benAcc.FrozenEnergy[:0]
	}
	for _, f := range list {
		if !f.ExpireTime.After(ctx.Now) {
			unfrozen += f.Amount
			continue
		}
		remaining = append(remaining, f)
	}
	if unfrozen == 0 {
		return types.Newf(types.KindPrecondition, "unfreeze-balance: nothing expired to unfreeze")
	}
	if p.Resource == types.ResourceEnergy {
		benAcc.FrozenEnergy = remaining
	} else {
		benAcc.FrozenBandwidth = remaining
	}

	if beneficiary != contract.Owner {
		benAcc.DelegatedIn -= unfrozen
		owner, ok, err := ctx.State.GetAccount(contract.Owner)
		if err != nil {
			return err
		}
		if ok {
			owner.DelegatedOut -= unfrozen
			owner.Balance += unfrozen
			if err := clearVotes(ctx.State, owner); err != nil {
				return err
			}
			if err := ctx.State.PutAccount(owner); err != nil {
				return err
			}
		}
		delegation, ok, err := ctx.State.GetResourceDelegation(contract.Owner, beneficiary)
		if err == nil && ok {
			if p.Resource == types.ResourceEnergy {
				delegation.FrozenEnergy -= unfrozen
			} else {
				delegation.FrozenBandwidth -= unfrozen
			}
			if err := ctx.State.PutResourceDelegation(delegation); err != nil {
				return err
			}
		}
	} else {
		benAcc.Balance += unfrozen
		if err := clearVotes(ctx.State, benAcc); err != nil {
			return err
		}
	}

	if err := ctx.State.PutAccount(benAcc); err != nil {
		return err
	}
	return addGlobalWeight(ctx.State, p.Resource, -unfrozen)
}

// clearVotes implements spec §4.6 Unfreeze: "clears all of the account's
// votes (each voted witness's vote_count is decremented; the Votes record
// is deleted)".
func clearVotes(s *statedb.StateDB, acc *types.Account) error {
	votes, ok, err := s.GetVotes(acc.Address)
	if err != nil || !ok {
		return err
	}
	for witnessAddr, count := range votes.Ballots {
		w, ok, err := s.GetWitness(witnessAddr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		w.VoteCount -= count
		if err := s.PutWitness(w); err != nil {
			return err
		}
	}
	s.DeleteVotes(acc.Address)
	return nil
}
