package actuators

import (
	"github.com/opentron/opentron-sub001/reward"
	"github.com/opentron/opentron-sub001/types"
)

func init() {
	Register(types.ContractTypeVoteWitness, voteWitnessActuator{})
}

// VoteWitnessParameter is Contract.Parameter for ContractTypeVoteWitness.
type VoteWitnessParameter struct {
	Votes map[types.Address]int64 // witness address -> vote count
}

type voteWitnessActuator struct{}

func (voteWitnessActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(VoteWitnessParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "vote-witness: bad parameter type")
	}
	if len(p.Votes) == 0 || len(p.Votes) > types.MaxVoteCount {
		return types.Newf(types.KindPrecondition, "vote-witness: must vote for 1-%d witnesses", types.MaxVoteCount)
	}
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "vote-witness: owner %s does not exist", contract.Owner.Hex())
	}

	var total int64
	for witnessAddr, count := range p.Votes {
		if count <= 0 {
			return types.Newf(types.KindMalformedInput, "vote-witness: vote count must be positive")
		}
		if _, ok, err := ctx.State.GetWitness(witnessAddr); err != nil {
			return err
		} else if !ok {
			return types.Newf(types.KindPrecondition, "vote-witness: %s is not a witness", witnessAddr.Hex())
		}
		total += count
	}
	if total > owner.TronPower() {
		return types.Newf(types.KindResourceExhaustion, "vote-witness: total votes exceed Tron Power")
	}
	return nil
}

func (voteWitnessActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(VoteWitnessParameter)

	if err := reward.WithdrawReward(ctx.State, contract.Owner); err != nil {
		return err
	}

	old, hadOld, err := ctx.State.GetVotes(contract.Owner)
	if err != nil {
		return err
	}
	if hadOld {
		for witnessAddr, count := range old.Ballots {
			w, ok, err := ctx.State.GetWitness(witnessAddr)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			w.VoteCount -= count
			if err := ctx.State.PutWitness(w); err != nil {
				return err
			}
		}
	}

	ballots := make(map[types.Address]int64, len(p.Votes))
	for witnessAddr, count := range p.Votes {
		w, ok, err := ctx.State.GetWitness(witnessAddr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		w.VoteCount += count
		if err := ctx.State.PutWitness(w); err != nil {
			return err
		}
		ballots[witnessAddr] = count
	}

	lastEpoch := int64(0)
	if hadOld {
		lastEpoch = old.LastEpoch
	}
	votes := &types.Votes{Owner: contract.Owner, Ballots: ballots, LastEpoch: lastEpoch}

	dp, err := ctx.State.GetDynamicProperties()
	if err != nil {
		return err
	}
	dp.HasNewVotesInCurrentEpoch = true
	if err := ctx.State.PutDynamicProperties(dp); err != nil {
		return err
	}

	return ctx.State.PutVotes(votes)
}
