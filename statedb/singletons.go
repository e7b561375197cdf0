package statedb

import (
	"github.com/opentron/opentron-sub001/types"
)

var (
	keyDynamicProperties = []byte("dynamic_properties")
	keyWitnessSchedule   = []byte("witness_schedule")
	keyFilledSlots       = []byte("filled_slots")
	keyRefBlockRing      = []byte("ref_block_ring")
	keyGlobalResource    = []byte("global_resource_state")
	keyGenesisVoteCounts = []byte("genesis_vote_counts")
	paramKeyPrefix       = []byte("param/")
)

// GetGenesisVoteCounts returns the per-witness vote snapshot taken at
// genesis, consulted by the one-shot RemovePowerOfGr maintenance step
// (spec §4.7 step 2).
func (s *StateDB) GetGenesisVoteCounts() (map[types.Address]int64, error) {
	raw, ok, err := s.Get(ColumnDefault, keyGenesisVoteCounts)
	if err != nil || !ok {
		return nil, err
	}
	var m map[types.Address]int64
	if err := decodeRecord(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// PutGenesisVoteCounts persists the genesis vote snapshot (called once, by
// InitGenesis).
func (s *StateDB) PutGenesisVoteCounts(m map[types.Address]int64) error {
	raw, err := encodeRecord(m)
	if err != nil {
		return err
	}
	s.Put(ColumnDefault, keyGenesisVoteCounts, raw)
	return nil
}

// GetGlobalResourceState returns the chain-wide bandwidth/energy pool
// counters (spec §4.5).
func (s *StateDB) GetGlobalResourceState() (*types.GlobalResourceState, error) {
	raw, ok, err := s.Get(ColumnDefault, keyGlobalResource)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.GlobalResourceState{}, nil
	}
	var g types.GlobalResourceState
	if err := decodeRecord(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// PutGlobalResourceState persists the chain-wide bandwidth/energy pool
// counters.
func (s *StateDB) PutGlobalResourceState(g *types.GlobalResourceState) error {
	raw, err := encodeRecord(g)
	if err != nil {
		return err
	}
	s.Put(ColumnDefault, keyGlobalResource, raw)
	return nil
}

func paramKey(id types.ParamID) []byte {
	return append(append([]byte(nil), paramKeyPrefix...), i64Value(int64(id))...)
}

// GetParam reads a chain parameter (spec §4.2 "Chain parameters"), falling
// back to its compile-time default when unset.
func (s *StateDB) GetParam(id types.ParamID) (int64, error) {
	raw, ok, err := s.Get(ColumnDefault, paramKey(id))
	if err != nil {
		return 0, err
	}
	if !ok {
		return types.DefaultParams()[id], nil
	}
	return i64Decode(raw), nil
}

// SetParam writes a chain parameter (used by proposal approval, spec §4.6).
func (s *StateDB) SetParam(id types.ParamID, value int64) {
	s.Put(ColumnDefault, paramKey(id), i64Value(value))
}

// GetDynamicProperties returns the chain-head singleton record.
func (s *StateDB) GetDynamicProperties() (*types.DynamicProperties, error) {
	raw, ok, err := s.Get(ColumnDefault, keyDynamicProperties)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.DynamicProperties{}, nil
	}
	var dp types.DynamicProperties
	if err := decodeRecord(raw, &dp); err != nil {
		return nil, err
	}
	return &dp, nil
}

// PutDynamicProperties writes the chain-head singleton record.
func (s *StateDB) PutDynamicProperties(dp *types.DynamicProperties) error {
	raw, err := encodeRecord(dp)
	if err != nil {
		return err
	}
	s.Put(ColumnDefault, keyDynamicProperties, raw)
	return nil
}

// GetWitnessSchedule returns the persisted top-127 schedule (spec §3, §4.7
// step 5).
func (s *StateDB) GetWitnessSchedule() ([]types.Address, error) {
	raw, ok, err := s.Get(ColumnDefault, keyWitnessSchedule)
	if err != nil || !ok {
		return nil, err
	}
	var schedule []types.Address
	if err := decodeRecord(raw, &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// PutWitnessSchedule persists the rebuilt schedule.
func (s *StateDB) PutWitnessSchedule(schedule []types.Address) error {
	raw, err := encodeRecord(schedule)
	if err != nil {
		return err
	}
	s.Put(ColumnDefault, keyWitnessSchedule, raw)
	return nil
}

// GetFilledSlots returns the 128-entry filled-slot ring (spec §4.3 step 10).
func (s *StateDB) GetFilledSlots() (*types.FilledSlots, error) {
	raw, ok, err := s.Get(ColumnDefault, keyFilledSlots)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.FilledSlots{}, nil
	}
	var fs types.FilledSlots
	if err := decodeRecord(raw, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// PutFilledSlots persists the filled-slot ring.
func (s *StateDB) PutFilledSlots(fs *types.FilledSlots) error {
	raw, err := encodeRecord(fs)
	if err != nil {
		return err
	}
	s.Put(ColumnDefault, keyFilledSlots, raw)
	return nil
}

// GetRefBlockRing returns the persisted TaPoS ring (spec §4.3 step 12).
// This persisted copy is the only one: Manager reads it and writes it back
// on every PushBlock, under its own lock (spec §5).
func (s *StateDB) GetRefBlockRing() (*types.RefBlockRing, error) {
	raw, ok, err := s.Get(ColumnDefault, keyRefBlockRing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.RefBlockRing{}, nil
	}
	var ring types.RefBlockRing
	if err := decodeRecord(raw, &ring); err != nil {
		return nil, err
	}
	return &ring, nil
}

// PutRefBlockRing persists the TaPoS ring.
func (s *StateDB) PutRefBlockRing(ring *types.RefBlockRing) error {
	raw, err := encodeRecord(ring)
	if err != nil {
		return err
	}
	s.Put(ColumnDefault, keyRefBlockRing, raw)
	return nil
}
