package statedb

import "github.com/opentron/opentron-sub001/types"

func voterRewardKey(epoch int64, witness types.Address) []byte {
	key := make([]byte, 0, 8+types.AddressLength)
	key = append(key, i64Value(epoch)...)
	key = append(key, witness[:]...)
	return key
}

// GetVoterReward returns the (epoch, witness) reward bucket seeded at
// maintenance time (spec §4.7 step 6).
func (s *StateDB) GetVoterReward(epoch int64, witness types.Address) (*types.VoterReward, bool, error) {
	raw, ok, err := s.Get(ColumnVoterReward, voterRewardKey(epoch, witness))
	if err != nil || !ok {
		return nil, ok, err
	}
	var vr types.VoterReward
	if err := decodeRecord(raw, &vr); err != nil {
		return nil, false, err
	}
	return &vr, true, nil
}

// PutVoterReward stores vr.
func (s *StateDB) PutVoterReward(vr *types.VoterReward) error {
	raw, err := encodeRecord(vr)
	if err != nil {
		return err
	}
	s.Put(ColumnVoterReward, voterRewardKey(vr.Epoch, vr.Witness), raw)
	return nil
}
