package mempool

import (
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/executor"
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

func setupGenesisWithRing(t *testing.T, db *statedb.StateDB, now time.Time) {
	t.Helper()
	cfg := &types.GenesisConfig{Timestamp: now, Params: map[types.ParamID]int64{}}
	if err := db.InitGenesis(cfg); err != nil {
		t.Fatalf("init genesis: %v", err)
	}
	dp, err := db.GetDynamicProperties()
	if err != nil {
		t.Fatalf("get dynamic properties: %v", err)
	}
	dp.LatestBlockTimestamp = now
	if err := db.PutDynamicProperties(dp); err != nil {
		t.Fatalf("put dynamic properties: %v", err)
	}
	var ring types.RefBlockRing
	var hash types.Hash
	hash[8] = 0xAB
	hash[9] = 0xCD
	ring.Put(0, hash)
	if err := db.PutRefBlockRing(&ring); err != nil {
		t.Fatalf("put ref block ring: %v", err)
	}
	if err := db.SolidifyLayer(); err != nil {
		t.Fatalf("solidify: %v", err)
	}
}

func signedTransferTx(t *testing.T, sk *secp256k1.PrivateKey, feeLimit int64, now time.Time) *types.Transaction {
	t.Helper()
	raw := types.TransactionRaw{
		RefBlockBytes: [2]byte{0, 0},
		RefBlockHash:  [8]byte{0xAB, 0xCD},
		Expiration:    now.Add(30 * time.Second),
		Timestamp:     now,
		Contract:      types.Contract{Type: types.ContractTypeTransfer},
		FeeLimit:      feeLimit,
	}
	encoded := codec.EncodeTransactionRawData(&raw, executor.EncodeParameter)
	digest := crypto.SHA256(encoded)
	sig, err := crypto.Sign(sk, digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return &types.Transaction{RawData: raw, Signatures: [][65]byte{sig}}
}

func TestAddAndPeekOrdersByFeeLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	db := newTestStateDB(t)
	setupGenesisWithRing(t, db, now)

	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	pool := New(db)
	low := signedTransferTx(t, sk, 10, now)
	high := signedTransferTx(t, sk, 1000, now)
	// give them distinct raw data so their hashes differ
	low.RawData.Data = []byte("low")
	high.RawData.Data = []byte("high")

	if err := pool.Add(low); err != nil {
		t.Fatalf("add low: %v", err)
	}
	if err := pool.Add(high); err != nil {
		t.Fatalf("add high: %v", err)
	}
	if pool.Len() != 2 {
		t.Fatalf("Len = %d, want 2", pool.Len())
	}

	top := pool.Peek(1)
	if len(top) != 1 || top[0].RawData.FeeLimit != 1000 {
		t.Fatalf("Peek(1) = %+v, want the high-fee tx first", top)
	}
}

func TestAddRejectsDuplicateAndStaleTapos(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	db := newTestStateDB(t)
	setupGenesisWithRing(t, db, now)

	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pool := New(db)
	tx := signedTransferTx(t, sk, 10, now)
	if err := pool.Add(tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := pool.Add(tx); err == nil {
		t.Fatalf("expected duplicate rejection")
	}

	badRing := signedTransferTx(t, sk, 10, now)
	badRing.RawData.Data = []byte("distinct")
	badRing.RawData.RefBlockHash = [8]byte{0xFF, 0xFF}
	if err := pool.Add(badRing); err == nil {
		t.Fatalf("expected tapos mismatch rejection")
	}
}

func TestRemoveAndExpireBefore(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	db := newTestStateDB(t)
	setupGenesisWithRing(t, db, now)

	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pool := New(db)
	tx := signedTransferTx(t, sk, 10, now)
	if err := pool.Add(tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	encoded := codec.EncodeTransactionRawData(&tx.RawData, executor.EncodeParameter)
	hash := types.Hash(crypto.SHA256(encoded))
	if !pool.Has(hash) {
		t.Fatalf("expected tx to be buffered")
	}
	pool.Remove(hash)
	if pool.Has(hash) {
		t.Fatalf("expected tx removed")
	}

	tx2 := signedTransferTx(t, sk, 20, now)
	tx2.RawData.Data = []byte("expires-soon")
	tx2.RawData.Expiration = now.Add(time.Second)
	if err := pool.Add(tx2); err != nil {
		t.Fatalf("add tx2: %v", err)
	}
	removed := pool.ExpireBefore(now.Add(2 * time.Second))
	if removed != 1 || pool.Len() != 0 {
		t.Fatalf("ExpireBefore removed=%d, Len=%d, want 1, 0", removed, pool.Len())
	}
}
