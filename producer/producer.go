// Package producer assembles, signs, and submits blocks (spec §2 "Mempool +
// Producer"): when the local witness's slot comes up, it pulls pending
// transactions from the mempool, builds a candidate block header, signs it
// with the witness key, and pushes it through manager.Manager exactly as a
// block received from a peer would be (manager.PushBlock doesn't
// distinguish a locally-produced block from a network one).
package producer

import (
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/logger"
	"github.com/opentron/opentron-sub001/manager"
	"github.com/opentron/opentron-sub001/mempool"
	"github.com/opentron/opentron-sub001/merkle"
	"github.com/opentron/opentron-sub001/schedule"
	"github.com/opentron/opentron-sub001/types"
)

var log, _ = logger.Get(logger.SubsystemTags.PROD)

// MaxBlockTransactions bounds how many pending transactions one produced
// block carries, keeping its encoded size well under
// types.MaxTransactionSize * MaxBlockTransactions.
const MaxBlockTransactions = 2000

// Producer owns one witness identity's block-production loop.
type Producer struct {
	mgr     *manager.Manager
	pool    *mempool.Pool
	key     *secp256k1.PrivateKey
	witness types.Address
}

// New builds a Producer for the witness identified by key.
func New(mgr *manager.Manager, pool *mempool.Pool, key *secp256k1.PrivateKey) (*Producer, error) {
	witness, err := crypto.AddressFromPublicKey(key.PubKey().SerializeUncompressed())
	if err != nil {
		return nil, err
	}
	return &Producer{mgr: mgr, pool: pool, key: key, witness: witness}, nil
}

// Address returns the witness address this Producer signs blocks as.
func (p *Producer) Address() types.Address {
	return p.witness
}

// TryProduce assembles and submits a block for timestamp now if and only if
// this witness is the one scheduled for now's slot (spec §4.8). It returns
// (nil, nil) when it is not this witness's turn, which is the expected
// common case in every call a node loop makes once per tick.
func (p *Producer) TryProduce(now time.Time) (*types.Block, error) {
	dp, active, _, err := p.mgr.Snapshot()
	if err != nil {
		return nil, err
	}

	absSlot := schedule.AbsoluteSlot(now, dp.GenesisTimestamp)
	if absSlot < 0 {
		return nil, types.Newf(types.KindPrecondition, "produce: timestamp precedes genesis")
	}
	latestSlot := schedule.AbsoluteSlot(dp.LatestBlockTimestamp, dp.GenesisTimestamp)
	if absSlot <= latestSlot {
		return nil, nil
	}
	scheduled, ok := schedule.WitnessForSlot(active, absSlot)
	if !ok || scheduled != p.witness {
		return nil, nil
	}

	pending := p.pool.Peek(MaxBlockTransactions)
	leaves := make([]types.Hash, len(pending))
	for i, tx := range pending {
		leaves[i] = chaindb.TransactionHash(tx)
	}

	raw := types.BlockHeaderRaw{
		Timestamp:      now,
		ParentHash:     dp.LatestBlockHash,
		Number:         dp.LatestBlockNumber + 1,
		WitnessAddress: p.witness,
		Version:        types.CurrentBlockVersion,
		MerkleRootHash: merkle.Root(leaves),
	}
	digest := crypto.SHA256(codec.EncodeBlockHeaderRaw(&raw))
	sig, err := crypto.Sign(p.key, digest)
	if err != nil {
		return nil, types.Wrap(types.KindMalformedInput, err, "sign block header")
	}

	block := &types.Block{
		Header:       types.BlockHeader{RawData: raw, Signature: sig},
		Transactions: pending,
	}

	if err := p.mgr.PushBlock(block); err != nil {
		return nil, types.Wrap(types.KindOf(err), err, "push produced block")
	}
	for _, hash := range leaves {
		p.pool.Remove(hash)
	}
	log.Infof("produced block %d with %d transactions", block.Number(), len(pending))
	return block, nil
}
