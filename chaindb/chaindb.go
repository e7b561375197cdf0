// Package chaindb is the append-only finalized block/transaction/receipt
// store (spec §2 "ChainDB ... block-by-number and block-by-hash lookup",
// data-flow note "ChainDB.insert → StateDB.solidify_layer()"). StateDB only
// ever carries current account/witness/parameter state; once a block is
// accepted by manager.PushBlock, ChainDB is the only place that still answers
// "give me block N" or "give me the receipt for transaction T" afterward.
//
// Grounded on dbaccess's bucket-over-accessor idiom (e.g.
// dbaccess/reachability.go's key-prefixed Put/Cursor pattern) and this
// module's own statedb/store.go goleveldb wrapper, given its own separate
// on-disk database: chain history is never part of a StateDB overlay and
// must survive independently of solidify/discard.
package chaindb

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/executor"
	"github.com/opentron/opentron-sub001/types"
)

var (
	prefixBlockByNumber = byte('b')
	prefixNumberByHash  = byte('h')
	prefixReceipt       = byte('r')
	prefixHashByNumber  = byte('n')
)

// ChainDB is the append-only finalized-block store.
type ChainDB struct {
	db *leveldb.DB
}

// Open opens (creating if absent) the chaindb at dir.
func Open(dir string) (*ChainDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "open chaindb")
	}
	return &ChainDB{db: db}, nil
}

// Close closes the underlying database.
func (c *ChainDB) Close() error {
	return c.db.Close()
}

func numberKey(prefix byte, n uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefix
	binary.BigEndian.PutUint64(key[1:], n)
	return key
}

func hashKey(h types.Hash) []byte {
	key := make([]byte, 1+len(h))
	key[0] = prefixNumberByHash
	copy(key[1:], h[:])
	return key
}

func receiptKey(h types.Hash) []byte {
	key := make([]byte, 1+len(h))
	key[0] = prefixReceipt
	copy(key[1:], h[:])
	return key
}

// TransactionHash identifies a transaction by SHA-256 of its encoded
// raw_data, the same digest the executor signs and recovers over (spec §9).
func TransactionHash(tx *types.Transaction) types.Hash {
	encoded := codec.EncodeTransactionRawData(&tx.RawData, executor.EncodeParameter)
	return types.Hash(crypto.SHA256(encoded))
}

// BlockHash derives a block's identity hash: its leading 8 bytes encode the
// block number (spec §3 invariant), the remainder is SHA-256 over the
// encoded header. Both manager.PushBlock (once a block is accepted) and
// channel.Service (to dedupe a block still in flight) need this same
// identity, so it lives here rather than in either caller.
func BlockHash(block *types.Block) types.Hash {
	digest := crypto.SHA256(codec.EncodeBlockHeaderRaw(&block.Header.RawData))
	var h types.Hash
	copy(h[:], digest[:])
	var num [8]byte
	n := block.Number()
	for i := 7; i >= 0; i-- {
		num[i] = byte(n)
		n >>= 8
	}
	copy(h[:8], num[:])
	return h
}

// Insert appends a finalized block, indexed by both number and hash, and
// records each transaction's receipt keyed by its own hash (spec §6 column
// family TransactionReceipt). The store is append-only: inserting a number
// that already exists is an error rather than an overwrite (spec §2).
func (c *ChainDB) Insert(block *types.Block, hash types.Hash) error {
	if _, ok, err := c.GetBlockByNumber(block.Number()); err != nil {
		return err
	} else if ok {
		return types.Newf(types.KindInvariantViolation, "chaindb: block %d already inserted", block.Number())
	}

	batch := new(leveldb.Batch)
	batch.Put(numberKey(prefixBlockByNumber, block.Number()), encodeBlock(block))
	batch.Put(hashKey(hash), numberKey(prefixBlockByNumber, block.Number())[1:])
	batch.Put(numberKey(prefixHashByNumber, block.Number()), hash[:])
	for _, tx := range block.Transactions {
		if tx.Receipt == nil {
			continue
		}
		batch.Put(receiptKey(TransactionHash(tx)), encodeReceipt(tx.Receipt))
	}
	if err := c.db.Write(batch, nil); err != nil {
		return types.Wrap(types.KindStateConsistency, err, "chaindb insert")
	}
	return nil
}

// GetBlockByNumber looks up a finalized block by its number.
func (c *ChainDB) GetBlockByNumber(n uint64) (*types.Block, bool, error) {
	v, err := c.db.Get(numberKey(prefixBlockByNumber, n), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.Wrap(types.KindStateConsistency, err, "chaindb get by number")
	}
	block, err := decodeBlock(v)
	if err != nil {
		return nil, false, err
	}
	return block, true, nil
}

// GetBlockByHash looks up a finalized block by its hash.
func (c *ChainDB) GetBlockByHash(h types.Hash) (*types.Block, bool, error) {
	numBytes, err := c.db.Get(hashKey(h), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.Wrap(types.KindStateConsistency, err, "chaindb get by hash")
	}
	n := binary.BigEndian.Uint64(numBytes)
	return c.GetBlockByNumber(n)
}

// GetReceipt looks up a transaction's receipt by transaction hash.
func (c *ChainDB) GetReceipt(txHash types.Hash) (*types.TransactionReceipt, bool, error) {
	v, err := c.db.Get(receiptKey(txHash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.Wrap(types.KindStateConsistency, err, "chaindb get receipt")
	}
	receipt, err := decodeReceipt(v)
	if err != nil {
		return nil, false, err
	}
	return receipt, true, nil
}

// Height returns the number of the most recently inserted block, or
// ok=false if the store is still empty (spec §4.10 needs this to compute
// BlockchainInventory.remain_num).
func (c *ChainDB) Height() (uint64, bool, error) {
	iter := c.db.NewIterator(util.BytesPrefix([]byte{prefixBlockByNumber}), nil)
	defer iter.Release()
	if !iter.Last() {
		return 0, false, iter.Error()
	}
	n := binary.BigEndian.Uint64(iter.Key()[1:])
	return n, true, iter.Error()
}

// HashAtNumber returns the hash stored for block number n, or ok=false if
// no block has been inserted at that number yet.
func (c *ChainDB) HashAtNumber(n uint64) (types.Hash, bool, error) {
	v, err := c.db.Get(numberKey(prefixHashByNumber, n), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return types.Hash{}, false, nil
	}
	if err != nil {
		return types.Hash{}, false, types.Wrap(types.KindStateConsistency, err, "chaindb get hash at number")
	}
	var h types.Hash
	copy(h[:], v)
	return h, true, nil
}

// RebuildHashIndex recomputes the number→hash index from the block-by-number
// records themselves, returning how many entries it (re)wrote. It exists for
// cmd/opentron-node's "fix" subcommand: a chaindb populated before this index
// existed (or one that lost it to a partial write) still carries everything
// needed to regenerate it, since the index is derived data, not a second
// source of truth.
func (c *ChainDB) RebuildHashIndex() (int, error) {
	iter := c.db.NewIterator(util.BytesPrefix([]byte{prefixBlockByNumber}), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	count := 0
	for iter.Next() {
		block, err := decodeBlock(iter.Value())
		if err != nil {
			return count, err
		}
		hash := BlockHash(block)
		batch.Put(numberKey(prefixHashByNumber, block.Number()), hash[:])
		count++
	}
	if err := iter.Error(); err != nil {
		return count, types.Wrap(types.KindStateConsistency, err, "chaindb rebuild index scan")
	}
	if err := c.db.Write(batch, nil); err != nil {
		return count, types.Wrap(types.KindStateConsistency, err, "chaindb rebuild index write")
	}
	return count, nil
}

// HashesFrom returns up to limit block hashes for the numbers immediately
// following after, in increasing number order (spec §4.10
// "our_block_hashes_from(unfork, ≤2000)").
func (c *ChainDB) HashesFrom(after uint64, limit int) ([]types.Hash, error) {
	iter := c.db.NewIterator(util.BytesPrefix([]byte{prefixHashByNumber}), nil)
	defer iter.Release()
	hashes := make([]types.Hash, 0, limit)
	for ok := iter.Seek(numberKey(prefixHashByNumber, after+1)); ok && len(hashes) < limit; ok = iter.Next() {
		var h types.Hash
		copy(h[:], iter.Value())
		hashes = append(hashes, h)
	}
	return hashes, iter.Error()
}
