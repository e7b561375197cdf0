// Package maintenance implements the periodic maintenance cycle (spec §4.7):
// GR vote removal, re-tally, schedule rebuild, epoch advance, and
// voter-reward seeding.
package maintenance

import (
	"time"

	"github.com/opentron/opentron-sub001/schedule"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// Run executes spec §4.7 for a block at blockTimestamp whose dynamic
// properties already satisfy blockTimestamp >= NextMaintenanceTime
// (the caller, Manager, makes that check before calling Run).
func Run(s *statedb.StateDB, blockTimestamp time.Time, blockNumber uint64) error {
	dp, err := s.GetDynamicProperties()
	if err != nil {
		return err
	}

	if blockNumber == 1 {
		if err := initializeScheduleWithoutVotes(s); err != nil {
			return err
		}
	}

	removeGr, err := s.GetParam(types.ParamRemoveThePowerOfTheGr)
	if err != nil {
		return err
	}
	if removeGr == 1 {
		if err := removePowerOfGr(s); err != nil {
			return err
		}
		s.SetParam(types.ParamRemoveThePowerOfTheGr, -1)
	}

	if dp.HasNewVotesInCurrentEpoch {
		if err := retally(s); err != nil {
			return err
		}
		dp.HasNewVotesInCurrentEpoch = false
	}

	witnesses, err := s.AllWitnesses()
	if err != nil {
		return err
	}
	newSchedule := schedule.BuildSchedule(witnesses)
	if err := s.PutWitnessSchedule(newSchedule); err != nil {
		return err
	}

	dp.CurrentEpoch++

	allowChangeDelegation, err := s.GetParam(types.ParamAllowChangeDelegation)
	if err != nil {
		return err
	}
	if allowChangeDelegation != 0 {
		if err := seedVoterRewards(s, dp.CurrentEpoch, newSchedule); err != nil {
			return err
		}
	} else {
		if err := payLegacyStandbyAllowance(s, newSchedule); err != nil {
			return err
		}
	}

	interval, err := s.GetParam(types.ParamMaintenanceTimeInterval)
	if err != nil {
		return err
	}
	elapsed := blockTimestamp.Sub(dp.NextMaintenanceTime).Milliseconds()
	rounds := elapsed/interval + 1
	if rounds < 1 {
		rounds = 1
	}
	dp.NextMaintenanceTime = dp.NextMaintenanceTime.Add(time.Duration(rounds*interval) * time.Millisecond)

	return s.PutDynamicProperties(dp)
}

// initializeScheduleWithoutVotes is spec §4.7 step 1: block #1 builds the
// schedule from genesis witnesses with no vote re-tally.
func initializeScheduleWithoutVotes(s *statedb.StateDB) error {
	witnesses, err := s.AllWitnesses()
	if err != nil {
		return err
	}
	return s.PutWitnessSchedule(schedule.BuildSchedule(witnesses))
}

// removePowerOfGr is spec §4.7 step 2: subtract each genesis witness's
// original vote weight from its live record (one-shot, gated by the caller
// setting ParamRemoveThePowerOfTheGr to -1 afterward).
func removePowerOfGr(s *statedb.StateDB) error {
	genesisVotes, err := s.GetGenesisVoteCounts()
	if err != nil {
		return err
	}
	for addr, votes := range genesisVotes {
		w, ok, err := s.GetWitness(addr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		w.VoteCount -= votes
		if err := s.PutWitness(w); err != nil {
			return err
		}
	}
	return nil
}

// retally is spec §4.7 step 3: votes were already applied eagerly by the
// Vote/Unfreeze actuators, so re-tally here is a no-op over the Witness
// records themselves — this only exists as the hook the schedule rebuild
// below depends on having run after the epoch's votes settled.
func retally(s *statedb.StateDB) error {
	return nil
}

// seedVoterRewards is spec §4.7 step 6 (post AllowChangeDelegation): seed a
// fresh VoterReward bucket per scheduled witness for the new epoch.
func seedVoterRewards(s *statedb.StateDB, epoch int64, scheduled []types.Address) error {
	for _, addr := range scheduled {
		w, ok, err := s.GetWitness(addr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		vr := &types.VoterReward{Epoch: epoch, Witness: addr, VoteCount: w.VoteCount}
		if err := s.PutVoterReward(vr); err != nil {
			return err
		}
	}
	return nil
}

// payLegacyStandbyAllowance is spec §4.7 step 6 (pre AllowChangeDelegation
// fallback): pay StandbyWitnessAllowance immediately, split proportional to
// votes among the top-127 schedule.
func payLegacyStandbyAllowance(s *statedb.StateDB, scheduled []types.Address) error {
	allowance, err := s.GetParam(types.ParamWitnessStandbyAllowance)
	if err != nil {
		return err
	}
	var totalVotes int64
	witnesses := make([]*types.Witness, 0, len(scheduled))
	for _, addr := range scheduled {
		w, ok, err := s.GetWitness(addr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		witnesses = append(witnesses, w)
		totalVotes += w.VoteCount
	}
	if totalVotes == 0 {
		return nil
	}
	for _, w := range witnesses {
		share := w.VoteCount * allowance / totalVotes
		if share == 0 {
			continue
		}
		account, ok, err := s.GetAccount(w.Address)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		account.Allowance += share
		if err := s.PutAccount(account); err != nil {
			return err
		}
	}
	return nil
}
