package chaindb

import (
	"testing"
	"time"

	"github.com/opentron/opentron-sub001/types"
)

func testBlock(number uint64) *types.Block {
	raw := types.BlockHeaderRaw{
		Timestamp:      time.Unix(1_700_000_000, 0).UTC(),
		Number:         number,
		Version:        types.CurrentBlockVersion,
		MerkleRootHash: types.Hash{},
	}
	tx := &types.Transaction{
		RawData: types.TransactionRaw{
			Timestamp:  raw.Timestamp,
			Expiration: raw.Timestamp.Add(time.Minute),
			Contract:   types.Contract{Type: types.ContractTypeTransfer},
		},
		Signatures: [][65]byte{{1, 2, 3}},
		Receipt: &types.TransactionReceipt{
			BandwidthUsage: 10,
			EnergyUsage:    20,
			ContractStatus: types.ContractStatusSuccess,
		},
	}
	return &types.Block{
		Header:       types.BlockHeader{RawData: raw, Signature: [65]byte{9}},
		Transactions: []*types.Transaction{tx},
	}
}

func TestInsertAndLookupByNumberAndHash(t *testing.T) {
	chain, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer chain.Close()

	block := testBlock(1)
	var hash types.Hash
	hash[0] = 1
	if err := chain.Insert(block, hash); err != nil {
		t.Fatalf("insert: %v", err)
	}

	byNumber, ok, err := chain.GetBlockByNumber(1)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if !ok {
		t.Fatalf("block 1 not found")
	}
	if byNumber.Number() != 1 || len(byNumber.Transactions) != 1 {
		t.Fatalf("unexpected decoded block: %+v", byNumber)
	}

	byHash, ok, err := chain.GetBlockByHash(hash)
	if err != nil {
		t.Fatalf("get by hash: %v", err)
	}
	if !ok || byHash.Number() != 1 {
		t.Fatalf("block not found by hash")
	}

	txHash := TransactionHash(block.Transactions[0])
	receipt, ok, err := chain.GetReceipt(txHash)
	if err != nil {
		t.Fatalf("get receipt: %v", err)
	}
	if !ok || receipt.BandwidthUsage != 10 || receipt.EnergyUsage != 20 {
		t.Fatalf("unexpected receipt: %+v, ok=%v", receipt, ok)
	}
}

func TestInsertRejectsDuplicateNumber(t *testing.T) {
	chain, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer chain.Close()

	block := testBlock(5)
	if err := chain.Insert(block, types.Hash{5}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := chain.Insert(block, types.Hash{6}); err == nil {
		t.Fatalf("expected duplicate-number insert to fail")
	}
}

func TestRebuildHashIndex(t *testing.T) {
	chain, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer chain.Close()

	var hashes []types.Hash
	for n := uint64(1); n <= 3; n++ {
		block := testBlock(n)
		block.Header.RawData.MerkleRootHash[0] = byte(n)
		hash := BlockHash(block)
		if err := chain.Insert(block, hash); err != nil {
			t.Fatalf("insert %d: %v", n, err)
		}
		hashes = append(hashes, hash)
	}

	count, err := chain.RebuildHashIndex()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if count != 3 {
		t.Fatalf("rebuild count = %d, want 3", count)
	}

	for i, want := range hashes {
		n := uint64(i + 1)
		got, ok, err := chain.HashAtNumber(n)
		if err != nil {
			t.Fatalf("hash at number %d: %v", n, err)
		}
		if !ok || got != want {
			t.Fatalf("hash at number %d = %x, ok=%v, want %x", n, got, ok, want)
		}
	}

	height, ok, err := chain.Height()
	if err != nil {
		t.Fatalf("height: %v", err)
	}
	if !ok || height != 3 {
		t.Fatalf("height = %d, ok=%v, want 3", height, ok)
	}
}

func TestGetBlockByNumberMissing(t *testing.T) {
	chain, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer chain.Close()

	_, ok, err := chain.GetBlockByNumber(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected no block at 42")
	}
}
