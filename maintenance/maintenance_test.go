package maintenance

import (
	"testing"
	"time"

	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

func newTestStateDB(t *testing.T) *statedb.StateDB {
	t.Helper()
	store, err := statedb.OpenPersistentStore(t.TempDir())
	if err != nil {
		t.Fatalf("open persistent store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	db := statedb.New(store)
	db.NewLayer()
	return db
}

func addr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func seedWitness(t *testing.T, s *statedb.StateDB, a types.Address, votes int64) {
	t.Helper()
	if err := s.PutWitness(&types.Witness{Address: a, VoteCount: votes}); err != nil {
		t.Fatalf("put witness: %v", err)
	}
}

func TestRunAdvancesEpochAndSchedule(t *testing.T) {
	s := newTestStateDB(t)
	seedWitness(t, s, addr(1), 100)
	seedWitness(t, s, addr(2), 50)

	dp := &types.DynamicProperties{
		NextMaintenanceTime: time.Unix(0, 0).UTC(),
		CurrentEpoch:        3,
	}
	if err := s.PutDynamicProperties(dp); err != nil {
		t.Fatalf("put dynamic properties: %v", err)
	}
	s.SetParam(types.ParamMaintenanceTimeInterval, 6*60*60*1000)
	s.SetParam(types.ParamAllowChangeDelegation, 1)

	blockTs := time.Unix(0, 0).UTC().Add(6 * time.Hour)
	if err := Run(s, blockTs, 10); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := s.GetDynamicProperties()
	if err != nil {
		t.Fatalf("get dynamic properties: %v", err)
	}
	if got.CurrentEpoch != 4 {
		t.Fatalf("CurrentEpoch = %d, want 4", got.CurrentEpoch)
	}
	wantNext := time.Unix(0, 0).UTC().Add(12 * time.Hour)
	if !got.NextMaintenanceTime.Equal(wantNext) {
		t.Fatalf("NextMaintenanceTime = %v, want %v", got.NextMaintenanceTime, wantNext)
	}

	schedule, err := s.GetWitnessSchedule()
	if err != nil {
		t.Fatalf("get witness schedule: %v", err)
	}
	if len(schedule) != 2 || schedule[0] != addr(1) {
		t.Fatalf("schedule = %v, want [addr(1), addr(2)]", schedule)
	}

	vr, ok, err := s.GetVoterReward(4, addr(1))
	if err != nil {
		t.Fatalf("get voter reward: %v", err)
	}
	if !ok || vr.VoteCount != 100 {
		t.Fatalf("voter reward not seeded correctly: %+v, ok=%v", vr, ok)
	}
}

func TestRemovePowerOfGrSubtractsGenesisVotesOnce(t *testing.T) {
	s := newTestStateDB(t)
	gr := addr(9)
	seedWitness(t, s, gr, 1000)
	if err := s.PutGenesisVoteCounts(map[types.Address]int64{gr: 1000}); err != nil {
		t.Fatalf("put genesis vote counts: %v", err)
	}

	dp := &types.DynamicProperties{NextMaintenanceTime: time.Unix(0, 0).UTC()}
	if err := s.PutDynamicProperties(dp); err != nil {
		t.Fatalf("put dynamic properties: %v", err)
	}
	s.SetParam(types.ParamMaintenanceTimeInterval, 6*60*60*1000)
	s.SetParam(types.ParamRemoveThePowerOfTheGr, 1)

	if err := Run(s, time.Unix(0, 0).UTC(), 10); err != nil {
		t.Fatalf("run: %v", err)
	}

	w, ok, err := s.GetWitness(gr)
	if err != nil {
		t.Fatalf("get witness: %v", err)
	}
	if !ok || w.VoteCount != 0 {
		t.Fatalf("witness vote count = %d, want 0", w.VoteCount)
	}

	removeGr, err := s.GetParam(types.ParamRemoveThePowerOfTheGr)
	if err != nil {
		t.Fatalf("get param: %v", err)
	}
	if removeGr != -1 {
		t.Fatalf("ParamRemoveThePowerOfTheGr = %d, want -1 (one-shot)", removeGr)
	}
}

func TestRunPaysLegacyStandbyAllowanceWhenDelegationDisabled(t *testing.T) {
	s := newTestStateDB(t)
	w1, w2 := addr(1), addr(2)
	seedWitness(t, s, w1, 60)
	seedWitness(t, s, w2, 40)
	if err := s.PutAccount(&types.Account{Address: w1, TokenBalances: map[int64]int64{}}); err != nil {
		t.Fatalf("put account: %v", err)
	}
	if err := s.PutAccount(&types.Account{Address: w2, TokenBalances: map[int64]int64{}}); err != nil {
		t.Fatalf("put account: %v", err)
	}

	dp := &types.DynamicProperties{NextMaintenanceTime: time.Unix(0, 0).UTC()}
	if err := s.PutDynamicProperties(dp); err != nil {
		t.Fatalf("put dynamic properties: %v", err)
	}
	s.SetParam(types.ParamMaintenanceTimeInterval, 6*60*60*1000)
	s.SetParam(types.ParamAllowChangeDelegation, 0)
	s.SetParam(types.ParamWitnessStandbyAllowance, 1000)

	if err := Run(s, time.Unix(0, 0).UTC(), 10); err != nil {
		t.Fatalf("run: %v", err)
	}

	a1, _, err := s.GetAccount(w1)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a1.Allowance != 600 {
		t.Fatalf("w1 allowance = %d, want 600", a1.Allowance)
	}
}
