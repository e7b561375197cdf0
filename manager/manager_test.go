package manager

import (
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/merkle"
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
	return statedb.New(store)
}

func newTestChainDB(t *testing.T) *chaindb.ChainDB {
	t.Helper()
	chain, err := chaindb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open chaindb: %v", err)
	}
	t.Cleanup(func() { _ = chain.Close() })
	return chain
}

func newWitnessKey(t *testing.T) (*secp256k1.PrivateKey, types.Address) {
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

func signHeader(t *testing.T, sk *secp256k1.PrivateKey, raw *types.BlockHeaderRaw) [65]byte {
	t.Helper()
	digest := crypto.SHA256(codec.EncodeBlockHeaderRaw(raw))
	sig, err := crypto.Sign(sk, digest)
	if err != nil {
		t.Fatalf("sign header: %v", err)
	}
	return sig
}

func TestPushBlockGenesisSuccessor(t *testing.T) {
	db := newTestStateDB(t)
	db.NewLayer()

	sk, witness := newWitnessKey(t)
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
		t.Fatalf("solidify genesis: %v", err)
	}

	chain := newTestChainDB(t)
	mgr, err := New(db, chain)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	blockTime := genesisTime.Add(3 * time.Second)
	raw := types.BlockHeaderRaw{
		Timestamp:      blockTime,
		Number:         1,
		WitnessAddress: witness,
		Version:        types.CurrentBlockVersion,
		MerkleRootHash: merkle.Root(nil),
	}
	sig := signHeader(t, sk, &raw)
	block := &types.Block{
		Header: types.BlockHeader{RawData: raw, Signature: sig},
	}

	if err := mgr.PushBlock(block); err != nil {
		t.Fatalf("push block: %v", err)
	}

	dp, err := db.GetDynamicProperties()
	if err != nil {
		t.Fatalf("get dynamic properties: %v", err)
	}
	if dp.LatestBlockNumber != 1 {
		t.Fatalf("LatestBlockNumber = %d, want 1", dp.LatestBlockNumber)
	}
	if !dp.LatestBlockTimestamp.Equal(blockTime) {
		t.Fatalf("LatestBlockTimestamp = %v, want %v", dp.LatestBlockTimestamp, blockTime)
	}

	w, ok, err := db.GetWitness(witness)
	if err != nil {
		t.Fatalf("get witness: %v", err)
	}
	if !ok || w.TotalProduced != 1 {
		t.Fatalf("witness TotalProduced = %+v, ok=%v, want 1", w, ok)
	}

	stored, ok, err := chain.GetBlockByNumber(1)
	if err != nil {
		t.Fatalf("get block by number: %v", err)
	}
	if !ok || stored.Number() != 1 {
		t.Fatalf("chaindb block 1 not retrievable: ok=%v, block=%+v", ok, stored)
	}
	byHash, ok, err := chain.GetBlockByHash(dp.LatestBlockHash)
	if err != nil {
		t.Fatalf("get block by hash: %v", err)
	}
	if !ok || byHash.Number() != 1 {
		t.Fatalf("chaindb block by hash not retrievable: ok=%v", ok)
	}
}

func TestPushBlockRejectsStaleBlock(t *testing.T) {
	db := newTestStateDB(t)
	db.NewLayer()

	sk, witness := newWitnessKey(t)
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
		t.Fatalf("solidify genesis: %v", err)
	}

	mgr, err := New(db, newTestChainDB(t))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	raw := types.BlockHeaderRaw{
		Timestamp:      genesisTime,
		Number:         0,
		WitnessAddress: witness,
		Version:        types.CurrentBlockVersion,
		MerkleRootHash: merkle.Root(nil),
	}
	sig := signHeader(t, sk, &raw)
	block := &types.Block{Header: types.BlockHeader{RawData: raw, Signature: sig}}

	if err := mgr.PushBlock(block); err == nil {
		t.Fatalf("expected stale-block rejection, got nil error")
	}
	if db.LayerCount() != 0 {
		t.Fatalf("LayerCount = %d, want 0 after rejected block (no overlay leaked)", db.LayerCount())
	}
}
