package producer

import (
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/manager"
	"github.com/opentron/opentron-sub001/mempool"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

func TestTryProduceSignsAndSubmitsOnOwnSlot(t *testing.T) {
	store, err := statedb.OpenPersistentStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	db := statedb.New(store)
	db.NewLayer()

	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	witness, err := crypto.AddressFromPublicKey(sk.PubKey().SerializeUncompressed())
	if err != nil {
		t.Fatalf("derive address: %v", err)
	}

	genesisTime := time.Unix(1_700_000_000, 0).UTC()
	cfg := &types.GenesisConfig{
		Timestamp: genesisTime,
		Witnesses: []types.GenesisWitness{{Address: witness, URL: "http://w", VoteCount: 100}},
		Params:    map[types.ParamID]int64{},
	}
	if err := db.InitGenesis(cfg); err != nil {
		t.Fatalf("init genesis: %v", err)
	}
	if err := db.SolidifyLayer(); err != nil {
		t.Fatalf("solidify: %v", err)
	}

	chain, err := chaindb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open chaindb: %v", err)
	}
	defer chain.Close()

	mgr, err := manager.New(db, chain)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	pool := mempool.New(db)
	prod, err := New(mgr, pool, sk)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	blockTime := genesisTime.Add(3 * time.Second)
	block, err := prod.TryProduce(blockTime)
	if err != nil {
		t.Fatalf("try produce: %v", err)
	}
	if block == nil {
		t.Fatalf("expected a produced block on this witness's own slot")
	}
	if block.Number() != 1 {
		t.Fatalf("block number = %d, want 1", block.Number())
	}

	stored, ok, err := chain.GetBlockByNumber(1)
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if !ok || stored.Header.RawData.WitnessAddress != witness {
		t.Fatalf("produced block not committed to chaindb as expected")
	}
}

func TestTryProduceSkipsWhenNotThisWitnessSlot(t *testing.T) {
	store, err := statedb.OpenPersistentStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	db := statedb.New(store)
	db.NewLayer()

	ownerSk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherSk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate other key: %v", err)
	}
	other, err := crypto.AddressFromPublicKey(otherSk.PubKey().SerializeUncompressed())
	if err != nil {
		t.Fatalf("derive other address: %v", err)
	}

	genesisTime := time.Unix(1_700_000_000, 0).UTC()
	cfg := &types.GenesisConfig{
		Timestamp: genesisTime,
		Witnesses: []types.GenesisWitness{{Address: other, URL: "http://other", VoteCount: 100}},
		Params:    map[types.ParamID]int64{},
	}
	if err := db.InitGenesis(cfg); err != nil {
		t.Fatalf("init genesis: %v", err)
	}
	if err := db.SolidifyLayer(); err != nil {
		t.Fatalf("solidify: %v", err)
	}

	chain, err := chaindb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open chaindb: %v", err)
	}
	defer chain.Close()

	mgr, err := manager.New(db, chain)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	pool := mempool.New(db)
	prod, err := New(mgr, pool, ownerSk)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	block, err := prod.TryProduce(genesisTime.Add(3 * time.Second))
	if err != nil {
		t.Fatalf("try produce: %v", err)
	}
	if block != nil {
		t.Fatalf("expected nil block when it's not this witness's slot")
	}
}
