// Package reward implements per-block witness/standby pay and the
// withdraw_reward voter-reward sweep (spec §4.9).
package reward

import (
	"time"

	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// PayBlockReward runs spec §4.9's per-block distribution: every scheduled
// witness earns a standby share of the vote pool, weighted by brokerage
// between its own allowance and its voters' reward bucket for the current
// epoch; the block's actual producer additionally earns the witness-pay
// share on top.
func PayBlockReward(s *statedb.StateDB, producer types.Address, scheduled []types.Address) error {
	dp, err := s.GetDynamicProperties()
	if err != nil {
		return err
	}

	standbyPay, err := s.GetParam(types.ParamStandbyWitnessPayPerBlock)
	if err != nil {
		return err
	}
	witnessPay, err := s.GetParam(types.ParamWitnessPayPerBlock)
	if err != nil {
		return err
	}

	witnesses := make(map[types.Address]*types.Witness, len(scheduled))
	var totalVotes int64
	for _, addr := range scheduled {
		w, ok, err := s.GetWitness(addr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		witnesses[addr] = w
		totalVotes += w.VoteCount
	}
	if totalVotes == 0 {
		return nil
	}

	for _, addr := range scheduled {
		w := witnesses[addr]
		if w == nil {
			continue
		}
		if err := distribute(s, dp.CurrentEpoch, w, w.VoteCount*standbyPay/totalVotes); err != nil {
			return err
		}
	}
	if w, ok := witnesses[producer]; ok {
		if err := distribute(s, dp.CurrentEpoch, w, w.VoteCount*witnessPay/totalVotes); err != nil {
			return err
		}
	}
	return nil
}

// distribute splits share between w's own allowance (the brokerage cut) and
// the epoch's VoterReward bucket for w (the rest, swept later by
// WithdrawReward).
func distribute(s *statedb.StateDB, epoch int64, w *types.Witness, share int64) error {
	if share <= 0 {
		return nil
	}
	brokerage := share * int64(w.BrokerageRate) / 100
	voterPortion := share - brokerage

	if brokerage > 0 {
		account, ok, err := s.GetAccount(w.Address)
		if err != nil {
			return err
		}
		if ok {
			account.Allowance += brokerage
			if err := s.PutAccount(account); err != nil {
				return err
			}
		}
	}

	vr, ok, err := s.GetVoterReward(epoch, w.Address)
	if err != nil {
		return err
	}
	if !ok {
		vr = &types.VoterReward{Epoch: epoch, Witness: w.Address, VoteCount: w.VoteCount}
	}
	vr.RewardAmount += voterPortion
	return s.PutVoterReward(vr)
}

// WithdrawReward sweeps every completed epoch since addr's last-recorded
// epoch pointer into its allowance (spec §4.9, invoked by Vote and
// Unfreeze before they mutate Votes).
func WithdrawReward(s *statedb.StateDB, addr types.Address) error {
	votes, ok, err := s.GetVotes(addr)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	dp, err := s.GetDynamicProperties()
	if err != nil {
		return err
	}
	account, ok, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	for epoch := votes.LastEpoch; epoch < dp.CurrentEpoch; epoch++ {
		for witness, count := range votes.Ballots {
			vr, ok, err := s.GetVoterReward(epoch, witness)
			if err != nil {
				return err
			}
			if !ok || vr.VoteCount == 0 {
				continue
			}
			account.Allowance += count * vr.RewardAmount / vr.VoteCount
		}
	}
	votes.LastEpoch = dp.CurrentEpoch

	if err := s.PutAccount(account); err != nil {
		return err
	}
	return s.PutVotes(votes)
}

// WithdrawBalance releases addr's accumulated allowance into its spendable
// balance, rate-limited to once per 24h (spec §4.9 "WithdrawBalanceContract").
func WithdrawBalance(s *statedb.StateDB, addr types.Address, now time.Time) (int64, error) {
	account, ok, err := s.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, types.Newf(types.KindPrecondition, "withdraw from unknown account %s", addr.Hex())
	}
	if !account.LatestWithdrawTime.IsZero() && now.Sub(account.LatestWithdrawTime) < 24*time.Hour {
		return 0, types.Newf(types.KindPrecondition, "withdraw rate-limited to once per 24h")
	}
	amount := account.Allowance
	account.Allowance = 0
	account.Balance += amount
	account.LatestWithdrawTime = now
	if err := s.PutAccount(account); err != nil {
		return 0, err
	}
	return amount, nil
}
