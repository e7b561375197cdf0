package statedb

import (
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/schedule"
	"github.com/opentron/opentron-sub001/types"
)

// InitGenesis writes default parameters, default dynamic properties,
// per-witness records with vote counts from genesis, per-alloc accounts
// with balances, the genesis block hash, and the initial schedule (genesis
// witnesses sorted by votes, then the legacy tie-break) — spec §4.2
// "Genesis init". Callers must have pushed at least one overlay (NewLayer)
// before calling this, as with any other state mutation.
func (s *StateDB) InitGenesis(cfg *types.GenesisConfig) error {
	for id, def := range types.DefaultParams() {
		s.SetParam(id, def)
	}
	for id, v := range cfg.Params {
		s.SetParam(id, v)
	}

	witnesses := make([]*types.Witness, 0, len(cfg.Witnesses))
	genesisVotes := make(map[types.Address]int64, len(cfg.Witnesses))
	for _, gw := range cfg.Witnesses {
		w := &types.Witness{
			Address:   gw.Address,
			URL:       gw.URL,
			VoteCount: gw.VoteCount,
		}
		if err := s.PutWitness(w); err != nil {
			return err
		}
		witnesses = append(witnesses, w)
		genesisVotes[gw.Address] = gw.VoteCount
	}
	if err := s.PutGenesisVoteCounts(genesisVotes); err != nil {
		return err
	}

	for _, alloc := range cfg.Allocs {
		acc := &types.Account{
			Address:       alloc.Address,
			Type:          types.AccountTypeNormal,
			Balance:       alloc.Balance,
			TokenBalances: map[int64]int64{},
			CreationTime:  cfg.Timestamp,
		}
		if err := s.PutAccount(acc); err != nil {
			return err
		}
	}

	genesisSchedule := schedule.BuildSchedule(witnesses)
	if err := s.PutWitnessSchedule(genesisSchedule); err != nil {
		return err
	}

	genesisBlockHash := genesisHash(cfg)
	dp := &types.DynamicProperties{
		LatestBlockHash:        genesisBlockHash,
		LatestBlockNumber:      0,
		LatestBlockTimestamp:   cfg.Timestamp,
		LatestSolidBlockNumber: 0,
		NextMaintenanceTime:    cfg.Timestamp,
		GenesisTimestamp:       cfg.Timestamp,
	}
	if maintenanceInterval, err := s.GetParam(types.ParamMaintenanceTimeInterval); err == nil {
		dp.NextMaintenanceTime = cfg.Timestamp.Add(
			durationMillis(maintenanceInterval))
	}
	return s.PutDynamicProperties(dp)
}

// GenesisHash computes the same block-0 identity InitGenesis writes into
// DynamicProperties.LatestBlockHash, without touching any layer. A restarted
// node needs this independent of chain head: once block 1 lands,
// LatestBlockHash moves on and chaindb never carries a block-0 entry, but
// channel.Service still needs the genesis id for every handshake (spec
// §4.10 "genesis_block_id").
func GenesisHash(cfg *types.GenesisConfig) types.Hash {
	return genesisHash(cfg)
}

// genesisHash derives a deterministic block-0 hash whose first 8 bytes
// encode block number 0, preserving the invariant from spec §3.
func genesisHash(cfg *types.GenesisConfig) types.Hash {
	var seed []byte
	for _, w := range cfg.Witnesses {
		seed = append(seed, w.Address[:]...)
	}
	digest := crypto.SHA256(seed)
	var h types.Hash
	copy(h[:], digest[:])
	for i := 0; i < 8; i++ {
		h[i] = 0
	}
	return h
}
