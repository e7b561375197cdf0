package channel

import (
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/manager"
	"github.com/opentron/opentron-sub001/mempool"
	"github.com/opentron/opentron-sub001/producer"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

type testNode struct {
	db    *statedb.StateDB
	chain *chaindb.ChainDB
	mgr   *manager.Manager
	pool  *mempool.Pool
	svc   *Service
}

func newTestWitnessKey(t *testing.T) (*secp256k1.PrivateKey, types.Address) {
	t.Helper()
	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr, err := crypto.AddressFromPublicKey(sk.PubKey().SerializeUncompressed())
	if err != nil {
		t.Fatalf("derive address: %v", err)
	}
	return sk, addr
}

func newTestNode(t *testing.T, cfg *types.GenesisConfig, local types.Address, genesis types.Hash) *testNode {
	t.Helper()
	store, err := statedb.OpenPersistentStore(t.TempDir())
	if err != nil {
		t.Fatalf("open persistent store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	db := statedb.New(store)
	db.NewLayer()
	if err := db.InitGenesis(cfg); err != nil {
		t.Fatalf("init genesis: %v", err)
	}
	if err := db.SolidifyLayer(); err != nil {
		t.Fatalf("solidify genesis: %v", err)
	}

	chain, err := chaindb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open chaindb: %v", err)
	}
	t.Cleanup(func() { _ = chain.Close() })

	mgr, err := manager.New(db, chain)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	pool := mempool.New(db)

	svc, err := New(mgr, chain, pool, local, genesis, types.CurrentBlockVersion)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Shutdown)

	return &testNode{db: db, chain: chain, mgr: mgr, pool: pool, svc: svc}
}

// TestSyncFromGenesis exercises spec §4.10 end to end over a real TCP
// loopback connection: a fresh node handshakes with a producing peer and,
// via SyncBlockchain/BlockchainInventory/FetchInventoryData, ingests every
// block it's missing (spec §4 scenario 5 "Sync from genesis").
func TestSyncFromGenesis(t *testing.T) {
	genesisTime := time.Unix(1_700_000_000, 0).UTC()
	sk, witness := newTestWitnessKey(t)
	cfg := &types.GenesisConfig{
		Timestamp: genesisTime,
		Witnesses: []types.GenesisWitness{{Address: witness, URL: "http://a", VoteCount: 100}},
		Params:    map[types.ParamID]int64{},
	}

	a := newTestNode(t, cfg, types.Address{0xAA}, types.Hash{})
	dp0, _, _, err := a.mgr.Snapshot()
	if err != nil {
		t.Fatalf("snapshot genesis: %v", err)
	}
	genesisHash := dp0.LatestBlockHash
	a.svc.genesis = genesisHash

	prod, err := producer.New(a.mgr, a.pool, sk)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	now := genesisTime
	for i := 0; i < 3; i++ {
		now = now.Add(3 * time.Second)
		block, err := prod.TryProduce(now)
		if err != nil {
			t.Fatalf("produce block %d: %v", i+1, err)
		}
		if block == nil {
			t.Fatalf("producer skipped slot %d unexpectedly", i+1)
		}
	}

	b := newTestNode(t, cfg, types.Address{0xBB}, genesisHash)

	if err := a.svc.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := a.svc.Addr().String()

	b.svc.SetSyncing(true)
	if err := b.svc.Dial(addr); err != nil {
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var height uint64
	var ok bool
	for {
		height, ok, err = b.chain.Height()
		if err != nil {
			t.Fatalf("height: %v", err)
		}
		if ok && height == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("sync did not reach height 3 in time (height=%d ok=%v)", height, ok)
		}
		time.Sleep(20 * time.Millisecond)
	}

	for n := uint64(1); n <= 3; n++ {
		wantBlk, ok, err := a.chain.GetBlockByNumber(n)
		if err != nil || !ok {
			t.Fatalf("reference block %d missing on producer: %v", n, err)
		}
		gotBlk, ok, err := b.chain.GetBlockByNumber(n)
		if err != nil {
			t.Fatalf("get block %d on syncing node: %v", n, err)
		}
		if !ok {
			t.Fatalf("block %d not found on syncing node", n)
		}
		if gotBlk.Header.RawData.Timestamp.Unix() != wantBlk.Header.RawData.Timestamp.Unix() {
			t.Fatalf("block %d timestamp mismatch: got %v want %v", n, gotBlk.Header.RawData.Timestamp, wantBlk.Header.RawData.Timestamp)
		}
	}

	if got := a.svc.PeerCount(); got != 1 {
		t.Fatalf("producer PeerCount = %d, want 1", got)
	}
}
